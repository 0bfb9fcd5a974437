package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/diag"
	"mcc/internal/query"
	"mcc/internal/source"
)

type wordKey struct {
	File  string
	Index int
}

type fixture struct {
	engine *query.Engine
	text   *query.Input[string, string]
	length *query.Tracked[string, int]
	parity *query.Tracked[string, bool]
	label  *query.Tracked[string, string]
}

func newFixture() *fixture {
	f := &fixture{engine: query.New(query.Options{})}
	f.text = query.NewInput[string, string](f.engine, "text")
	f.length = query.NewTracked(f.engine, "length", func(c *query.Ctx, path string) (int, error) {
		s, err := f.text.Fetch(c, path)
		if err != nil {
			return 0, err
		}
		if s == "" {
			c.Report(diag.LowInfo, diag.SevWarning, source.Span{}, "empty text", nil)
		}
		return len(s), nil
	})
	f.parity = query.NewTracked(f.engine, "parity", func(c *query.Ctx, path string) (bool, error) {
		n, err := f.length.Fetch(c, path)
		return n%2 == 0, err
	})
	f.label = query.NewTracked(f.engine, "label", func(c *query.Ctx, path string) (string, error) {
		even, err := f.parity.Fetch(c, path)
		if err != nil {
			return "", err
		}
		c.Report(diag.LowInfo, diag.SevInfo, source.Span{}, "labelled "+path, nil)
		if even {
			return "even", nil
		}
		return "odd", nil
	})
	return f
}

func TestGetIsMemoized(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.text.Set("a.c", "abcd")

	for range 3 {
		got, err := f.label.Get(ctx, "a.c")
		if err != nil {
			t.Fatalf("label: %v", err)
		}
		if got != "even" {
			t.Fatalf("want even, got %q", got)
		}
	}
	if n := f.label.Stats().Executions; n != 1 {
		t.Fatalf("label executed %d times, want 1", n)
	}
	if n := f.length.Stats().Executions; n != 1 {
		t.Fatalf("length executed %d times, want 1", n)
	}
}

func TestUnrelatedInputChangeRevalidates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.text.Set("a.c", "abc")
	f.text.Set("b.c", "x")

	if _, err := f.label.Get(ctx, "a.c"); err != nil {
		t.Fatal(err)
	}
	rev := f.engine.Revision()
	if !f.text.Set("b.c", "xy") {
		t.Fatalf("new value must report a change")
	}
	if f.engine.Revision() == rev {
		t.Fatalf("revision must advance")
	}
	if _, err := f.label.Get(ctx, "a.c"); err != nil {
		t.Fatal(err)
	}
	if n := f.length.Stats().Executions; n != 1 {
		t.Fatalf("length re-executed after unrelated edit: %d", n)
	}
	if n := f.label.Stats().Revalidations; n != 1 {
		t.Fatalf("label should be revalidated once, got %d", n)
	}
}

func TestEqualFingerprintStopsPropagation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.text.Set("a.c", "ab")
	if _, err := f.label.Get(ctx, "a.c"); err != nil {
		t.Fatal(err)
	}

	// same parity, different length
	f.text.Set("a.c", "abcd")
	got, err := f.label.Get(ctx, "a.c")
	if err != nil {
		t.Fatal(err)
	}
	if got != "even" {
		t.Fatalf("want even, got %q", got)
	}
	if n := f.length.Stats().Executions; n != 2 {
		t.Fatalf("length must re-execute, got %d executions", n)
	}
	if n := f.parity.Stats().Executions; n != 2 {
		t.Fatalf("parity must re-execute, got %d executions", n)
	}
	if n := f.label.Stats().Executions; n != 1 {
		t.Fatalf("label must stay cached, got %d executions", n)
	}

	f.text.Set("a.c", "abc")
	if got, _ := f.label.Get(ctx, "a.c"); got != "odd" {
		t.Fatalf("want odd after edit, got %q", got)
	}
	if n := f.label.Stats().Executions; n != 2 {
		t.Fatalf("label must re-execute on a real change, got %d", n)
	}
}

func TestSetSameValueKeepsRevision(t *testing.T) {
	f := newFixture()
	f.text.Set("a.c", "int x;")
	rev := f.engine.Revision()
	if f.text.Set("a.c", "int x;") {
		t.Fatalf("identical value must not report a change")
	}
	if f.engine.Revision() != rev {
		t.Fatalf("revision moved from %d to %d", rev, f.engine.Revision())
	}
}

func TestDiagnosticsOnlyOnExecution(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.text.Set("a.c", "")

	if _, err := f.label.Get(ctx, "a.c"); err != nil {
		t.Fatal(err)
	}
	first := f.engine.Drain()
	if len(first) != 2 {
		t.Fatalf("expected 2 diagnostics on first run, got %d", len(first))
	}

	if _, err := f.label.Get(ctx, "a.c"); err != nil {
		t.Fatal(err)
	}
	if again := f.engine.Drain(); len(again) != 0 {
		t.Fatalf("cached query must not re-emit diagnostics, got %v", again)
	}

	acc, err := f.label.Accumulated(ctx, "a.c")
	if err != nil {
		t.Fatal(err)
	}
	msgs := make([]string, 0, len(acc))
	for _, d := range acc {
		msgs = append(msgs, d.Message)
	}
	if diff := cmp.Diff([]string{"empty text", "labelled a.c"}, msgs); diff != "" {
		t.Fatalf("accumulated mismatch (-want +got):\n%s", diff)
	}
}

func TestCycleIsContractViolation(t *testing.T) {
	e := query.New(query.Options{})
	var self *query.Tracked[int, int]
	self = query.NewTracked(e, "self", func(c *query.Ctx, n int) (int, error) {
		if n == 0 {
			return self.Fetch(c, 1)
		}
		return self.Fetch(c, 0)
	})
	_, err := self.Get(context.Background(), 0)
	if !errors.Is(err, query.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if !query.IsContractViolation(err) {
		t.Fatalf("expected contract violation, got %T", err)
	}
}

func TestPanicIsNotMemoized(t *testing.T) {
	e := query.New(query.Options{})
	var calls atomic.Int32
	q := query.NewTracked(e, "flaky", func(c *query.Ctx, key wordKey) (string, error) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return key.File, nil
	})
	key := wordKey{File: "a.c", Index: 2}
	if _, err := q.Get(context.Background(), key); !query.IsContractViolation(err) {
		t.Fatalf("expected contract violation, got %v", err)
	}
	got, err := q.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if got != "a.c" {
		t.Fatalf("want a.c, got %q", got)
	}
}

func TestConcurrentDemandExecutesOnce(t *testing.T) {
	e := query.New(query.Options{})
	release := make(chan struct{})
	q := query.NewTracked(e, "slow", func(c *query.Ctx, key string) (int, error) {
		<-release
		return len(key), nil
	})

	const workers = 16
	var wg sync.WaitGroup
	results := make([]int, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := q.Get(context.Background(), "main")
			if err != nil {
				t.Errorf("get: %v", err)
			}
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	for i, v := range results {
		if v != 4 {
			t.Fatalf("worker %d got %d", i, v)
		}
	}
	if n := q.Stats().Executions; n != 1 {
		t.Fatalf("expected one execution, got %d", n)
	}
}

func TestInputNotSet(t *testing.T) {
	f := newFixture()
	_, err := f.label.Get(context.Background(), "missing.c")
	if !errors.Is(err, query.ErrInputNotSet) {
		t.Fatalf("expected ErrInputNotSet, got %v", err)
	}
}

func TestFingerprintSortsMapKeys(t *testing.T) {
	a, err := query.Of(map[string]int{"x": 1, "y": 2, "z": 3})
	if err != nil {
		t.Fatal(err)
	}
	b, err := query.Of(map[string]int{"z": 3, "y": 2, "x": 1})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("map fingerprints differ: %x vs %x", a, b)
	}
}
