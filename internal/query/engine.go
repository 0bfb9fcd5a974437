package query

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"mcc/internal/diag"
	"mcc/internal/trace"
)

// Revision counts input changes. It only grows.
type Revision uint64

// SlotID indexes the engine's slot arena.
type SlotID uint32

type dep struct {
	slot SlotID
	fp   Fingerprint
}

// slot holds the memo of one (query, key) pair. The memo fields are replaced
// wholesale by a recompute and never patched in place.
type slot struct {
	id       SlotID
	query    *queryInfo
	key      any
	keyBytes []byte
	keyText  string

	mu         sync.Mutex
	memo       bool
	value      any
	fp         Fingerprint
	diags      []diag.Diagnostic
	deps       []dep
	changedAt  Revision
	verifiedAt Revision
}

func (s *slot) current(rev Revision) (any, Fingerprint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memo && s.verifiedAt == rev {
		return s.value, s.fp, true
	}
	return nil, 0, false
}

type queryInfo struct {
	name  string
	input bool
	exec  func(c *Ctx, key any) (any, error)

	executions    atomic.Uint64
	hits          atomic.Uint64
	revalidations atomic.Uint64
}

type indexKey struct {
	query *queryInfo
	fp    Fingerprint
}

// Options configures an Engine.
type Options struct {
	// Accumulator receives diagnostics of every real execution. A fresh one is
	// created when nil.
	Accumulator *diag.Accumulator
}

// Engine owns the memo arena and the current revision.
type Engine struct {
	gate     sync.RWMutex
	revision atomic.Uint64

	mu      sync.Mutex
	slots   []*slot
	index   map[indexKey][]SlotID
	queries []*queryInfo
	names   map[string]struct{}

	acc     *diag.Accumulator
	flights singleflight.Group
}

func New(opts Options) *Engine {
	acc := opts.Accumulator
	if acc == nil {
		acc = diag.NewAccumulator()
	}
	return &Engine{
		index: make(map[indexKey][]SlotID),
		names: make(map[string]struct{}),
		acc:   acc,
	}
}

// Revision returns the current revision.
func (e *Engine) Revision() Revision {
	return Revision(e.revision.Load())
}

func (e *Engine) Accumulator() *diag.Accumulator {
	return e.acc
}

// Drain returns the diagnostics emitted by executions since the previous Drain.
func (e *Engine) Drain() []diag.Diagnostic {
	return e.acc.Drain()
}

func (e *Engine) register(name string, input bool, exec func(*Ctx, any) (any, error)) *queryInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.names[name]; dup {
		panic(fmt.Sprintf("query %q registered twice", name))
	}
	e.names[name] = struct{}{}
	q := &queryInfo{name: name, input: input, exec: exec}
	e.queries = append(e.queries, q)
	return q
}

// intern returns the slot for (q, key), creating it on first use.
func (e *Engine) intern(q *queryInfo, key any) (*slot, error) {
	keyBytes, err := Encode(key)
	if err != nil {
		return nil, &ContractViolation{Query: q.name, Key: fmt.Sprint(key), Err: err}
	}
	ik := indexKey{query: q, fp: Fingerprint(xxhash.Sum64(keyBytes))}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range e.index[ik] {
		if s := e.slots[id]; bytes.Equal(s.keyBytes, keyBytes) {
			return s, nil
		}
	}
	n, err := safecast.Conv[uint32](len(e.slots))
	if err != nil {
		panic(fmt.Errorf("slot arena overflow: %w", err))
	}
	s := &slot{
		id:       SlotID(n),
		query:    q,
		key:      key,
		keyBytes: keyBytes,
		keyText:  fmt.Sprint(key),
	}
	e.slots = append(e.slots, s)
	e.index[ik] = append(e.index[ik], s.id)
	return s, nil
}

func (e *Engine) slot(id SlotID) *slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slots[id]
}

type flightResult struct {
	value any
	fp    Fingerprint
}

// demand returns the current value of s, verifying or executing as needed.
// parent is the frame of the demanding execution, nil at top level.
func (e *Engine) demand(ctx context.Context, parent *frame, s *slot) (any, Fingerprint, error) {
	for f := parent; f != nil; f = f.parent {
		if f.slot == s {
			return nil, 0, &ContractViolation{Query: s.query.name, Key: s.keyText, Err: ErrCycle}
		}
	}

	if s.query.input {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.memo {
			return nil, 0, fmt.Errorf("%s(%s): %w", s.query.name, s.keyText, ErrInputNotSet)
		}
		return s.value, s.fp, nil
	}

	rev := e.Revision()
	if v, fp, ok := s.current(rev); ok {
		s.query.hits.Add(1)
		return v, fp, nil
	}

	res, err, _ := e.flights.Do(strconv.FormatUint(uint64(s.id), 10), func() (any, error) {
		v, fp, err := e.refresh(ctx, parent, s, rev)
		return flightResult{value: v, fp: fp}, err
	})
	if err != nil {
		return nil, 0, err
	}
	r := res.(flightResult) //nolint:errcheck
	return r.value, r.fp, nil
}

func (e *Engine) refresh(ctx context.Context, parent *frame, s *slot, rev Revision) (any, Fingerprint, error) {
	s.mu.Lock()
	if s.memo && s.verifiedAt == rev {
		v, fp := s.value, s.fp
		s.mu.Unlock()
		s.query.hits.Add(1)
		return v, fp, nil
	}
	hasMemo, deps := s.memo, s.deps
	s.mu.Unlock()

	if hasMemo && e.verify(ctx, &frame{slot: s, parent: parent}, deps) {
		s.mu.Lock()
		s.verifiedAt = rev
		v, fp := s.value, s.fp
		s.mu.Unlock()
		s.query.revalidations.Add(1)
		return v, fp, nil
	}
	return e.execute(ctx, parent, s, rev)
}

// verify re-demands deps in recorded order and compares fingerprints.
func (e *Engine) verify(ctx context.Context, fr *frame, deps []dep) bool {
	for _, d := range deps {
		_, fp, err := e.demand(ctx, fr, e.slot(d.slot))
		if err != nil || fp != d.fp {
			return false
		}
	}
	return true
}

func (e *Engine) execute(ctx context.Context, parent *frame, s *slot, rev Revision) (any, Fingerprint, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	ctx, span := trace.BeginContext(ctx, trace.ScopeQuery, "query:"+s.query.name)
	span.WithExtra("key", s.keyText)

	fr := &frame{slot: s, parent: parent, bag: diag.NewBag(0)}
	s.query.executions.Add(1)
	value, err := call(&Ctx{ctx: ctx, engine: e, frame: fr}, s)
	if err != nil {
		span.End("failed")
		return nil, 0, err
	}
	fp, err := Of(value)
	if err != nil {
		span.End("failed")
		return nil, 0, &ContractViolation{Query: s.query.name, Key: s.keyText, Err: err}
	}

	s.mu.Lock()
	backdated := s.memo && s.fp == fp
	if !backdated {
		s.changedAt = rev
	}
	s.memo = true
	s.value = value
	s.fp = fp
	s.diags = fr.bag.Items()
	s.deps = fr.deps
	s.verifiedAt = rev
	s.mu.Unlock()

	e.acc.PushAll(fr.bag.Items())
	if backdated {
		span.End("unchanged")
	} else {
		span.End("changed")
	}
	return value, fp, nil
}

// call runs the tracked function, turning a panic into a ContractViolation.
func call(c *Ctx, s *slot) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &ContractViolation{
				Query: s.query.name,
				Key:   s.keyText,
				Err:   fmt.Errorf("panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()
	return s.query.exec(c, s.key)
}

// accumulated collects diagnostics of s and its transitive dependencies,
// dependencies first, each slot once.
func (e *Engine) accumulated(s *slot) []diag.Diagnostic {
	visited := make(map[SlotID]struct{})
	var out []diag.Diagnostic
	var visit func(s *slot)
	visit = func(s *slot) {
		if _, ok := visited[s.id]; ok {
			return
		}
		visited[s.id] = struct{}{}
		s.mu.Lock()
		deps, diags := s.deps, s.diags
		s.mu.Unlock()
		for _, d := range deps {
			visit(e.slot(d.slot))
		}
		out = append(out, diags...)
	}
	visit(s)
	return out
}

// QueryStats counts how each query was answered.
type QueryStats struct {
	Name          string
	Executions    uint64
	Hits          uint64
	Revalidations uint64
}

func (q *queryInfo) stats() QueryStats {
	return QueryStats{
		Name:          q.name,
		Executions:    q.executions.Load(),
		Hits:          q.hits.Load(),
		Revalidations: q.revalidations.Load(),
	}
}

// Stats returns counters for every registered tracked function in registration order.
func (e *Engine) Stats() []QueryStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]QueryStats, 0, len(e.queries))
	for _, q := range e.queries {
		if !q.input {
			out = append(out, q.stats())
		}
	}
	return out
}
