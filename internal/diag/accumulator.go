package diag

import (
	"sync"

	"mcc/internal/source"
)

// Accumulator is an append-only, internally synchronized diagnostic sink.
// Diagnostics come out of Drain in push order; duplicates are kept.
type Accumulator struct {
	mu    sync.Mutex
	items []Diagnostic
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Push(d Diagnostic) {
	a.mu.Lock()
	a.items = append(a.items, d)
	a.mu.Unlock()
}

// PushAll appends ds atomically so concurrent producers never interleave inside one batch.
func (a *Accumulator) PushAll(ds []Diagnostic) {
	if len(ds) == 0 {
		return
	}
	a.mu.Lock()
	a.items = append(a.items, ds...)
	a.mu.Unlock()
}

// Drain returns everything pushed since the previous Drain and empties the accumulator.
func (a *Accumulator) Drain() []Diagnostic {
	a.mu.Lock()
	out := a.items
	a.items = nil
	a.mu.Unlock()
	return out
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Report implements Reporter.
func (a *Accumulator) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	d := New(sev, code, primary, msg)
	d.Notes = notes
	a.Push(d)
}
