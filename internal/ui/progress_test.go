package ui

import (
	"strings"
	"testing"
	"time"

	"mcc/internal/buildpipeline"
)

func TestProgressFollowsEvents(t *testing.T) {
	events := make(chan buildpipeline.Event)
	m := NewProgressModel("compiling", []string{"a.c", "b.c"}, events).(*progressModel)

	m.apply(buildpipeline.Event{File: "a.c", Stage: buildpipeline.StageCodegen, Status: buildpipeline.StatusWorking})
	m.apply(buildpipeline.Event{File: "b.c", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusError})
	m.apply(buildpipeline.Event{File: "unknown.c", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})

	if got := m.files[0].label(); got != "generating" {
		t.Fatalf("a.c label = %q, want generating", got)
	}
	if got := m.files[1].label(); got != "error" {
		t.Fatalf("b.c label = %q, want error", got)
	}
	if got, want := m.percent(), (2.5/4+1.0)/2; got != want {
		t.Fatalf("percent = %v, want %v", got, want)
	}

	m.apply(buildpipeline.Event{File: "a.c", Stage: buildpipeline.StageRender, Status: buildpipeline.StatusCached, Elapsed: 1500 * time.Microsecond})
	m.apply(buildpipeline.Event{File: "a.c", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})
	if got := m.percent(); got != 1.0 {
		t.Fatalf("percent = %v after every file finished", got)
	}

	m.apply(buildpipeline.Event{Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusWorking})
	view := m.View()
	for _, want := range []string{"compiling 2/2, 1 failed (writing)", "a.c", "cached", "1.5ms"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestWriteFailureOverridesDone(t *testing.T) {
	m := NewProgressModel("build", []string{"a.c"}, nil).(*progressModel)
	m.apply(buildpipeline.Event{File: "a.c", Stage: buildpipeline.StageRender, Status: buildpipeline.StatusDone})
	m.apply(buildpipeline.Event{File: "a.c", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusError})
	if _, failed := m.counts(); failed != 1 {
		t.Fatalf("write failure not counted")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.c", 20, "short.c"},
		{"a/very/long/path/to/file.c", 12, "...to/file.c"},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
