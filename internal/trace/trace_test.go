package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeQuery, true},
		{LevelError, ScopeNode, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeQuery, false},
		{LevelDetail, ScopeQuery, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s/%s: want %v, got %v", tt.level, tt.scope, tt.want, got)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel(" Detail "); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if l, err := ParseLevel(""); err != nil || l != LevelOff {
		t.Fatalf("empty level = %v, %v", l, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode(""); err == nil {
		t.Fatalf("expected an error for an empty mode")
	}
}

func TestStreamTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	ctx := WithUnit(WithTracer(context.Background(), tr), "main.c")

	ctx, outer := BeginContext(ctx, ScopePass, "lower")
	qctx, inner := BeginContext(ctx, ScopeQuery, "query:lower_function")
	inner.WithExtra("key", "main").End("executed")
	inner.End("twice")
	outer.End("")
	// too detailed for LevelDetail
	Point(qctx, ScopeNode, "instr", "")
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"main.c → lower", "→ query:lower_function", "← query:lower_function (executed)", "{key=main}", "← lower"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in trace output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "instr") || strings.Contains(out, "twice") {
		t.Fatalf("unexpected events in trace output:\n%s", out)
	}
}

func TestNDJSONCarriesUnitAndElapsed(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	ctx := WithUnit(WithTracer(context.Background(), tr), "a.c")
	_, sp := BeginContext(ctx, ScopePass, "parse")
	sp.End("1 decls")
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 events, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], `"unit":"a.c"`) || !strings.Contains(lines[1], `"kind":"end"`) {
		t.Fatalf("unexpected end event %s", lines[1])
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	for _, name := range []string{"a", "b", "c"} {
		Point(ctx, ScopePass, name, "")
	}
	got := ring.Snapshot()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestErrorLevelDumpsRing(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeStream})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)
	_, sp := BeginContext(ctx, ScopeQuery, "query:parse")
	sp.End("failed")

	var buf bytes.Buffer
	if !DumpRing(tr, &buf) {
		t.Fatalf("error level must record into a ring")
	}
	if !strings.Contains(buf.String(), "← query:parse (failed)") {
		t.Fatalf("unexpected dump:\n%s", buf.String())
	}
	if DumpRing(Nop, &buf) {
		t.Fatalf("nop tracer has no ring")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Fatalf("off tracer must be disabled")
	}
}
