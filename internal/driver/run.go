package driver

import (
	"context"
	"fmt"
	"time"

	"mcc/internal/asm"
	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/observ"
	"mcc/internal/source"
	"mcc/internal/tacky"
	"mcc/internal/target"
	"mcc/internal/trace"
)

// Stage names a step of the pipeline run by Run.
type Stage uint8

const (
	StageNone Stage = iota
	StageParse
	StageLower
	StageCodegen
	StageRender
)

func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageLower:
		return "lower"
	case StageCodegen:
		return "codegen"
	case StageRender:
		return "render"
	}
	return "none"
}

// Control is returned by hooks to continue or stop the pipeline.
type Control uint8

const (
	Continue Control = iota
	Stop
)

// Callbacks are invoked after each stage with its artifact and every
// diagnostic reported for the unit so far. Nil hooks continue.
type Callbacks struct {
	AfterParse   func(path string, tu *ast.TranslationUnit, diags []diag.Diagnostic) Control
	AfterLower   func(path string, prog *tacky.Program, diags []diag.Diagnostic) Control
	AfterCodegen func(path string, prog *asm.Program, diags []diag.Diagnostic) Control
	AfterRender  func(path string, text string, diags []diag.Diagnostic) Control

	// Phase receives stage boundaries.
	Phase PhaseObserver
}

// Status summarizes how a run ended.
type Status uint8

const (
	// StatusOK means assembly was produced.
	StatusOK Status = iota
	// StatusFailed means error diagnostics stopped the run before codegen.
	StatusFailed
	// StatusStopped means a hook returned Stop.
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusStopped:
		return "stopped"
	}
	return "ok"
}

// Outcome is the result of compiling one file.
type Outcome struct {
	Path   string
	Target target.Target
	Status Status
	// StoppedAfter is the last stage that ran when Status is not StatusOK.
	StoppedAfter Stage
	Assembly     string
	Diagnostics  []diag.Diagnostic
	Timings      observ.Report
	// Cached is set when the assembly came from the disk cache.
	Cached bool
}

// HasErrors reports whether any error-severity diagnostic was reported.
func (o *Outcome) HasErrors() bool {
	return diag.HasErrors(o.Diagnostics)
}

type runner struct {
	db    *Database
	ctx   context.Context
	path  string
	cb    Callbacks
	timer *observ.Timer
	out   *Outcome
}

// stage times fn as name, wrapped in a pass span and phase events.
func (r *runner) stage(s Stage, fn func(ctx context.Context) (string, error)) error {
	name := s.String()
	if r.cb.Phase != nil {
		r.cb.Phase(PhaseEvent{Path: r.path, Stage: s, Status: PhaseStart})
	}
	start := time.Now()
	mark := r.timer.Begin(name)
	ctx, span := trace.BeginContext(r.ctx, trace.ScopePass, name)
	note, err := fn(ctx)
	if err != nil {
		span.End("failed")
	} else {
		span.End(note)
	}
	mark.End(note)
	if r.cb.Phase != nil {
		r.cb.Phase(PhaseEvent{Path: r.path, Stage: s, Status: PhaseEnd, Elapsed: time.Since(start), Err: err})
	}
	return err
}

func (r *runner) finish(status Status, last Stage) *Outcome {
	r.out.Status = status
	if status != StatusOK {
		r.out.StoppedAfter = last
		trace.Point(r.ctx, trace.ScopeDriver, "pipeline:"+status.String(), "after "+last.String())
	}
	if limit := r.db.opts.MaxDiagnostics; limit > 0 && len(r.out.Diagnostics) > limit {
		r.out.Diagnostics = r.out.Diagnostics[:limit]
	}
	r.out.Timings = r.timer.Report()
	if r.db.opts.Timings {
		var at source.Span
		if f, ok := r.db.files.Lookup(r.path); ok {
			at = source.Span{File: f.ID}
		}
		r.out.Diagnostics = append(r.out.Diagnostics, timingDiagnostic(at, r.path, r.out.Timings))
	}
	return r.out
}

// blocks reports whether diags prevent code generation.
func (r *runner) blocks(diags []diag.Diagnostic) bool {
	for i := range diags {
		if diags[i].Severity.Blocks(r.db.opts.WarningsAsErrors) {
			return true
		}
	}
	return false
}

// Run compiles path, which must have been set with SetSource, for the
// current target. Diagnostics never make Run fail; the returned error is
// reserved for cancellation and contract violations.
func Run(ctx context.Context, db *Database, path string, cb Callbacks) (*Outcome, error) {
	tgt, err := db.target.Get(ctx, targetKey)
	if err != nil {
		return nil, err
	}
	r := &runner{
		db:    db,
		ctx:   trace.WithUnit(ctx, path),
		path:  path,
		cb:    cb,
		timer: observ.NewTimer(),
		out:   &Outcome{Path: path, Target: tgt},
	}
	unit := UnitKey{Path: path, Triple: tgt.Triple()}

	var tu *ast.TranslationUnit
	err = r.stage(StageParse, func(ctx context.Context) (string, error) {
		var err error
		if tu, err = db.parse.Get(ctx, path); err != nil {
			return "", err
		}
		r.out.Diagnostics, err = db.parse.Accumulated(ctx, path)
		return fmt.Sprintf("%d decls", len(tu.Decls)), err
	})
	if err != nil {
		return nil, err
	}
	if cb.AfterParse != nil && cb.AfterParse(path, tu, r.out.Diagnostics) == Stop {
		return r.finish(StatusStopped, StageParse), nil
	}

	var prog *tacky.Program
	err = r.stage(StageLower, func(ctx context.Context) (string, error) {
		var err error
		if prog, err = db.lowerProgram.Get(ctx, path); err != nil {
			return "", err
		}
		r.out.Diagnostics, err = db.lowerProgram.Accumulated(ctx, path)
		return fmt.Sprintf("%d functions", len(prog.Functions)), err
	})
	if err != nil {
		return nil, err
	}
	if cb.AfterLower != nil && cb.AfterLower(path, prog, r.out.Diagnostics) == Stop {
		return r.finish(StatusStopped, StageLower), nil
	}
	if prog.Invalid || r.blocks(r.out.Diagnostics) {
		return r.finish(StatusFailed, StageLower), nil
	}

	var aprog *asm.Program
	err = r.stage(StageCodegen, func(ctx context.Context) (string, error) {
		var err error
		if aprog, err = db.generateProgram.Get(ctx, unit); err != nil {
			return "", err
		}
		r.out.Diagnostics, err = db.generateProgram.Accumulated(ctx, unit)
		return tgt.Triple(), err
	})
	if err != nil {
		return nil, err
	}
	if cb.AfterCodegen != nil && cb.AfterCodegen(path, aprog, r.out.Diagnostics) == Stop {
		return r.finish(StatusStopped, StageCodegen), nil
	}

	err = r.stage(StageRender, func(ctx context.Context) (string, error) {
		var err error
		if r.out.Assembly, err = db.render.Get(ctx, unit); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d bytes", len(r.out.Assembly)), nil
	})
	if err != nil {
		return nil, err
	}
	if cb.AfterRender != nil && cb.AfterRender(path, r.out.Assembly, r.out.Diagnostics) == Stop {
		return r.finish(StatusStopped, StageRender), nil
	}
	return r.finish(StatusOK, StageRender), nil
}
