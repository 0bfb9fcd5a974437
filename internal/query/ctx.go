package query

import (
	"context"

	"mcc/internal/diag"
	"mcc/internal/source"
)

// frame is one execution on the demand stack.
type frame struct {
	slot   *slot
	parent *frame
	deps   []dep
	bag    *diag.Bag
}

// Ctx is handed to a tracked function. It records every query read through it
// as a dependency and collects reported diagnostics. It implements diag.Reporter.
type Ctx struct {
	ctx    context.Context
	engine *Engine
	frame  *frame
}

// Context returns the Go context of the top-level demand.
func (c *Ctx) Context() context.Context {
	return c.ctx
}

func (c *Ctx) Revision() Revision {
	return c.engine.Revision()
}

// Report attaches a diagnostic to the running execution.
func (c *Ctx) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	d := diag.New(sev, code, primary, msg)
	d.Notes = notes
	c.frame.bag.Add(d)
}

func (c *Ctx) fetch(q *queryInfo, key any) (any, error) {
	s, err := c.engine.intern(q, key)
	if err != nil {
		return nil, err
	}
	v, fp, err := c.engine.demand(c.ctx, c.frame, s)
	if err != nil {
		return nil, err
	}
	c.frame.deps = append(c.frame.deps, dep{slot: s.id, fp: fp})
	return v, nil
}
