package query

import (
	"context"
	"fmt"

	"mcc/internal/diag"
)

// Tracked is a memoized function from K to V.
type Tracked[K, V any] struct {
	e    *Engine
	info *queryInfo
}

// NewTracked registers fn under name. Names must be unique per engine.
// fn must be deterministic in its key and the queries it reads through c.
func NewTracked[K, V any](e *Engine, name string, fn func(c *Ctx, key K) (V, error)) *Tracked[K, V] {
	exec := func(c *Ctx, key any) (any, error) {
		k, ok := key.(K)
		if !ok {
			return nil, fmt.Errorf("key of type %T, want %T", key, *new(K))
		}
		return fn(c, k)
	}
	return &Tracked[K, V]{e: e, info: e.register(name, false, exec)}
}

func (t *Tracked[K, V]) Name() string { return t.info.name }

// Get demands the value for key at top level.
func (t *Tracked[K, V]) Get(ctx context.Context, key K) (V, error) {
	t.e.gate.RLock()
	defer t.e.gate.RUnlock()

	var zero V
	s, err := t.e.intern(t.info, key)
	if err != nil {
		return zero, err
	}
	v, _, err := t.e.demand(ctx, nil, s)
	if err != nil {
		return zero, err
	}
	out, _ := v.(V) //nolint:errcheck
	return out, nil
}

// Fetch demands the value from inside another tracked function and records the dependency.
func (t *Tracked[K, V]) Fetch(c *Ctx, key K) (V, error) {
	var zero V
	v, err := c.fetch(t.info, key)
	if err != nil {
		return zero, err
	}
	out, _ := v.(V) //nolint:errcheck
	return out, nil
}

// Accumulated brings key up to date and returns the diagnostics of its memo and
// of every transitive dependency, dependencies first.
func (t *Tracked[K, V]) Accumulated(ctx context.Context, key K) ([]diag.Diagnostic, error) {
	t.e.gate.RLock()
	defer t.e.gate.RUnlock()

	s, err := t.e.intern(t.info, key)
	if err != nil {
		return nil, err
	}
	if _, _, err := t.e.demand(ctx, nil, s); err != nil {
		return nil, err
	}
	return t.e.accumulated(s), nil
}

func (t *Tracked[K, V]) Stats() QueryStats {
	return t.info.stats()
}
