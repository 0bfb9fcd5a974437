package diag

import "testing"

func TestSeverityBlocks(t *testing.T) {
	tests := []struct {
		sev    Severity
		strict bool
		want   bool
	}{
		{SevInfo, false, false},
		{SevInfo, true, false},
		{SevWarning, false, false},
		{SevWarning, true, true},
		{SevError, false, true},
	}
	for _, tt := range tests {
		if got := tt.sev.Blocks(tt.strict); got != tt.want {
			t.Errorf("%s.Blocks(%v) = %v, want %v", tt.sev, tt.strict, got, tt.want)
		}
	}
}

func TestSeverityLabels(t *testing.T) {
	if SevError.Label() != "error" || SevWarning.String() != "WARNING" {
		t.Fatalf("unexpected labels %q %q", SevError.Label(), SevWarning.String())
	}
	if Severity(9).String() != "UNKNOWN" || Severity(9).Label() != "info" {
		t.Fatalf("out of range severity rendered as %q/%q", Severity(9).String(), Severity(9).Label())
	}
}
