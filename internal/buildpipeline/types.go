package buildpipeline

import (
	"slices"
	"sync"
	"time"
)

// Stage is a step a file goes through, in pipeline order.
type Stage string

const (
	StageParse   Stage = "parse"
	StageLower   Stage = "lower"
	StageCodegen Stage = "codegen"
	StageRender  Stage = "render"
	// StageWrite runs once per build, after every file compiled.
	StageWrite Stage = "write"
)

// Stages lists every stage in the order a file reaches them.
var Stages = []Stage{StageParse, StageLower, StageCodegen, StageRender, StageWrite}

// Index is the position of s in Stages, or -1.
func (s Stage) Index() int { return slices.Index(Stages, s) }

// Status is where a file stands within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusCached means the assembly came from the disk cache.
	StatusCached Status = "cached"
	// StatusError means the file has error diagnostics or failed internally.
	StatusError Status = "error"
)

// Finished reports whether no further events follow for the file.
func (s Status) Finished() bool {
	return s == StatusDone || s == StatusCached || s == StatusError
}

// Event reports progress of a file, or of the whole build when File is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Compile calls OnEvent from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings sums stage durations over every file of a build.
type Timings struct {
	mu   sync.Mutex
	dur  [5]time.Duration
	seen [5]bool
}

func (t *Timings) record(stage Stage, dur time.Duration, add bool) {
	i := stage.Index()
	if t == nil || i < 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !add {
		t.dur[i] = 0
	}
	t.dur[i] += dur
	t.seen[i] = true
}

// Set replaces the duration of stage.
func (t *Timings) Set(stage Stage, dur time.Duration) { t.record(stage, dur, false) }

// Add accumulates dur into stage.
func (t *Timings) Add(stage Stage, dur time.Duration) { t.record(stage, dur, true) }

// Has reports whether stage ran at least once.
func (t *Timings) Has(stage Stage) bool {
	i := stage.Index()
	if t == nil || i < 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen[i]
}

// Duration returns the summed duration of stage.
func (t *Timings) Duration(stage Stage) time.Duration {
	i := stage.Index()
	if t == nil || i < 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dur[i]
}
