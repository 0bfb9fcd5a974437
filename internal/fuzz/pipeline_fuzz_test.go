package fuzztests

import (
	"context"
	"testing"

	"mcc/internal/driver"
	"mcc/internal/query"
	"mcc/internal/target"
)

// FuzzPipeline runs every input through lowering and code generation. Bad
// programs must end in diagnostics, never in an internal error.
func FuzzPipeline(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		db := driver.NewDatabase(driver.Options{Target: target.X86_64Linux()})
		db.SetSource("fuzz.c", clip(input))
		out, err := driver.Run(context.Background(), db, "fuzz.c", driver.Callbacks{})
		if err != nil {
			if query.IsContractViolation(err) {
				t.Fatalf("contract violation: %v", err)
			}
			t.Fatalf("run: %v", err)
		}
		switch out.Status {
		case driver.StatusOK:
			if out.HasErrors() {
				t.Fatalf("status ok with errors: %v", out.Diagnostics)
			}
		case driver.StatusFailed:
			if !out.HasErrors() {
				t.Fatalf("status failed without errors")
			}
		}
	})
}
