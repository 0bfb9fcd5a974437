package query

import (
	"context"
	"fmt"
)

// Input is a value set from outside the engine.
type Input[K, V any] struct {
	e    *Engine
	info *queryInfo
}

func NewInput[K, V any](e *Engine, name string) *Input[K, V] {
	return &Input[K, V]{e: e, info: e.register(name, true, nil)}
}

func (in *Input[K, V]) Name() string { return in.info.name }

// Set stores value under key. The revision advances only when the value
// fingerprint differs from the stored one; Set reports whether it did.
// Set waits for running queries to finish.
func (in *Input[K, V]) Set(key K, value V) bool {
	fp, err := Of(value)
	if err != nil {
		panic(&ContractViolation{Query: in.info.name, Key: fmt.Sprint(key), Err: err})
	}

	in.e.gate.Lock()
	defer in.e.gate.Unlock()

	s, err := in.e.intern(in.info, key)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memo && s.fp == fp {
		return false
	}
	rev := Revision(in.e.revision.Add(1))
	s.memo = true
	s.value = value
	s.fp = fp
	s.changedAt = rev
	s.verifiedAt = rev
	return true
}

// Get reads the input at top level.
func (in *Input[K, V]) Get(ctx context.Context, key K) (V, error) {
	in.e.gate.RLock()
	defer in.e.gate.RUnlock()

	var zero V
	s, err := in.e.intern(in.info, key)
	if err != nil {
		return zero, err
	}
	v, _, err := in.e.demand(ctx, nil, s)
	if err != nil {
		return zero, err
	}
	out, _ := v.(V) //nolint:errcheck
	return out, nil
}

// Fetch reads the input from a tracked function and records the dependency.
func (in *Input[K, V]) Fetch(c *Ctx, key K) (V, error) {
	var zero V
	v, err := c.fetch(in.info, key)
	if err != nil {
		return zero, err
	}
	out, _ := v.(V) //nolint:errcheck
	return out, nil
}
