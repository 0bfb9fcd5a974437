package main

import (
	"fmt"
	"io"
	"time"

	"mcc/internal/buildpipeline"
	"mcc/internal/query"
)

// printStageTimings prints the summed duration of every stage that ran.
// Stage durations add up across files compiled in parallel.
func printStageTimings(out io.Writer, timings *buildpipeline.Timings) {
	if out == nil || timings == nil {
		return
	}
	for _, stage := range buildpipeline.Stages {
		if timings.Has(stage) {
			fmt.Fprintf(out, "%-8s %.1f ms\n", stage, toMillis(timings.Duration(stage)))
		}
	}
}

// printQueryStats prints the engine counters of every tracked query.
func printQueryStats(out io.Writer, stats []query.QueryStats) {
	for _, s := range stats {
		fmt.Fprintf(out, "%-17s executed %d, reused %d, revalidated %d\n", s.Name, s.Executions, s.Hits, s.Revalidations)
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
