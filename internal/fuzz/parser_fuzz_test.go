package fuzztests

import (
	"context"
	"testing"
	"time"

	"mcc/internal/diag"
	"mcc/internal/parser"
	"mcc/internal/source"
)

// parseTimeout bounds one parse; exceeding it means error recovery loops.
const parseTimeout = 5 * time.Second

func FuzzParserNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("int f(void){ int x = 1 int y = 2; }"))
	f.Add([]byte("int f(void){ for (int i = 0 i < 10 i++) {} }"))
	f.Add([]byte("int f(void){ switch (x) { case : } }"))
	f.Add([]byte("int f(void){ if ( }"))

	f.Fuzz(func(t *testing.T, input []byte) {
		text := clip(input)
		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			file := fs.Get(fs.AddVirtual("fuzz.c", text))
			bag := diag.NewBag(128)
			_ = parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 128})
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("parser did not finish within %v on %q", parseTimeout, text)
		}
	})
}
