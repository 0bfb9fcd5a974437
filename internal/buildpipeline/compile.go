// Package buildpipeline compiles a set of files against one shared driver
// database and reports per-file progress.
package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"mcc/internal/diag"
	"mcc/internal/driver"
	"mcc/internal/source"
)

// CompileRequest configures the shared compilation pipeline.
type CompileRequest struct {
	Files []string
	// DB is reused across requests so unchanged files stay cached.
	DB *driver.Database
	// Jobs bounds the number of files compiled at once; 0 means GOMAXPROCS.
	Jobs     int
	Progress ProgressSink
	// Callbacks are passed to every driver run. Phase is chained, not replaced.
	Callbacks driver.Callbacks
}

// FileResult is the outcome of one input file.
type FileResult struct {
	Path    string
	Outcome *driver.Outcome
}

// CompileResult captures per-file outcomes, in request order, and stage timings.
type CompileResult struct {
	Files   []FileResult
	Timings *Timings
}

// HasErrors reports whether any file produced an error diagnostic.
func (r CompileResult) HasErrors() bool {
	for _, f := range r.Files {
		if f.Outcome != nil && f.Outcome.HasErrors() {
			return true
		}
	}
	return false
}

// Diagnostics returns the diagnostics of every file in request order.
func (r CompileResult) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, f := range r.Files {
		if f.Outcome != nil {
			out = append(out, f.Outcome.Diagnostics...)
		}
	}
	return out
}

// Compile loads every file into the database and compiles them in parallel.
// Diagnostics are part of the result; the returned error is reserved for
// cancellation and contract violations.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	result := CompileResult{Timings: &Timings{}}
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || req.DB == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if len(req.Files) == 0 {
		return result, fmt.Errorf("no input files")
	}

	for _, file := range req.Files {
		emit(req.Progress, Event{File: file, Stage: StageParse, Status: StatusQueued})
	}
	result.Files = make([]FileResult, len(req.Files))
	// File IDs follow the order of req.Files, unreadable ones included.
	loadErrors := make(map[string]loadError, len(req.Files))
	for _, path := range req.Files {
		content, err := os.ReadFile(path)
		if err != nil {
			loadErrors[path] = loadError{err: err, file: req.DB.Files().AddVirtual(path, "")}
			continue
		}
		req.DB.SetSource(path, string(content))
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Files)))

	for i, path := range req.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErr, ok := loadErrors[path]; ok {
				result.Files[i] = FileResult{Path: path, Outcome: loadFailure(path, loadErr)}
				emit(req.Progress, Event{File: path, Stage: StageParse, Status: StatusError, Err: loadErr.err})
				return nil
			}

			cb := req.Callbacks
			cb.Phase = observePhases(req.Progress, result.Timings, req.Callbacks.Phase)
			out, err := driver.Compile(gctx, req.DB, path, cb)
			if err != nil {
				emit(req.Progress, Event{File: path, Stage: StageCodegen, Status: StatusError, Err: err})
				return fmt.Errorf("%s: %w", path, err)
			}
			result.Files[i] = FileResult{Path: path, Outcome: out}
			done := Event{File: path, Stage: StageRender, Status: StatusDone}
			done.Elapsed = time.Duration(out.Timings.TotalMS * float64(time.Millisecond))
			switch {
			case out.Cached:
				done.Status = StatusCached
			case out.Status == driver.StatusFailed:
				done.Stage, done.Status = stageOf(out.StoppedAfter), StatusError
			case out.Status == driver.StatusStopped:
				done.Stage = stageOf(out.StoppedAfter)
			}
			emit(req.Progress, done)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

type loadError struct {
	err  error
	file source.FileID
}

// loadFailure turns an unreadable input into a failed outcome with an I/O diagnostic.
func loadFailure(path string, le loadError) *driver.Outcome {
	return &driver.Outcome{
		Path:         path,
		Status:       driver.StatusFailed,
		StoppedAfter: driver.StageNone,
		Diagnostics: []diag.Diagnostic{{
			Severity: diag.SevError,
			Code:     diag.IOLoadFileError,
			Stage:    diag.StageDriver,
			Message:  "failed to load file: " + le.err.Error(),
			Primary:  source.Span{File: le.file},
		}},
	}
}

func stageOf(s driver.Stage) Stage {
	switch s {
	case driver.StageParse:
		return StageParse
	case driver.StageLower:
		return StageLower
	case driver.StageCodegen:
		return StageCodegen
	}
	return StageRender
}

// observePhases forwards driver phase events to sink, records their
// durations and then calls next.
func observePhases(sink ProgressSink, timings *Timings, next driver.PhaseObserver) driver.PhaseObserver {
	return func(ev driver.PhaseEvent) {
		stage := stageOf(ev.Stage)
		switch ev.Status {
		case driver.PhaseStart:
			emit(sink, Event{File: ev.Path, Stage: stage, Status: StatusWorking})
		case driver.PhaseEnd:
			timings.Add(stage, ev.Elapsed)
		}
		if next != nil {
			next(ev)
		}
	}
}
