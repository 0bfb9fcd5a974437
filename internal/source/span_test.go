package source

import (
	"os"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestSpanCover(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Span
		expected Span
	}{
		{"disjoint", Span{File: 1, Start: 2, End: 4}, Span{File: 1, Start: 8, End: 9}, Span{File: 1, Start: 2, End: 9}},
		{"nested", Span{File: 1, Start: 2, End: 10}, Span{File: 1, Start: 3, End: 4}, Span{File: 1, Start: 2, End: 10}},
		{"other file", Span{File: 1, Start: 2, End: 4}, Span{File: 2, Start: 0, End: 9}, Span{File: 1, Start: 2, End: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cover(tt.b); got != tt.expected {
				t.Fatalf("want %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSpanContains(t *testing.T) {
	outer := Span{File: 0, Start: 5, End: 20}
	if !outer.Contains(Span{File: 0, Start: 5, End: 20}) {
		t.Fatalf("span must contain itself")
	}
	if outer.Contains(Span{File: 0, Start: 4, End: 6}) {
		t.Fatalf("overlapping span is not contained")
	}
	if outer.Contains(Span{File: 1, Start: 6, End: 7}) {
		t.Fatalf("span from another file is not contained")
	}
}

func TestSpanShiftRoundTrips(t *testing.T) {
	sp := Span{File: 2, Start: 10, End: 14}
	origin := uint32(30)
	rel := sp.Shift(-origin)
	if got := rel.Shift(origin); got != sp {
		t.Fatalf("round trip = %v, want %v", got, sp)
	}
	if got := (Span{}).Shift(origin); got != (Span{}) {
		t.Fatalf("zero span moved to %v", got)
	}
}
