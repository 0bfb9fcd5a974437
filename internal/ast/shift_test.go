package ast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/parser"
	"mcc/internal/source"
)

const shiftSrc = `int g;
long f(int n, long *p) {
  static int seen = 1;
  int a[3] = {1, 2};
  for (int i = 0; i < n; i++) { p[i] += (long)a[i % 3]; }
  switch (n) { case 1: goto out; default: g++; }
out:
  return n > 2 ? f(n - 1, p) : *p;
}`

func parseFunc(t *testing.T, src, name string) *ast.FuncDecl {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	tu := parser.ParseFile(fs.Get(fs.AddVirtual("s.c", src)), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("parse diagnostics: %v", bag.Items())
	}
	for _, d := range tu.Decls {
		if d.Kind == ast.DeclFunc && d.Func.Name == name {
			return d.Func
		}
	}
	t.Fatalf("no function %s", name)
	return nil
}

func TestShiftedRoundTrips(t *testing.T) {
	fn := parseFunc(t, shiftSrc, "f")
	origin := fn.Span.Start
	rel := fn.Shifted(-origin)
	if rel.Span.Start != 0 || rel.Span.End != fn.Span.Len() {
		t.Fatalf("relative span = %v", rel.Span)
	}
	if diff := cmp.Diff(fn, rel.Shifted(origin)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestShiftedIgnoresPrecedingText(t *testing.T) {
	a := parseFunc(t, shiftSrc, "f")
	b := parseFunc(t, "int unrelated(void) { return 0; }\n\n"+shiftSrc, "f")
	if diff := cmp.Diff(a.Shifted(-a.Span.Start), b.Shifted(-b.Span.Start)); diff != "" {
		t.Fatalf("relative trees differ (-a +b):\n%s", diff)
	}
}

func TestShiftedLeavesOriginalIntact(t *testing.T) {
	fn := parseFunc(t, shiftSrc, "f")
	before := fn.Body.Span
	_ = fn.Shifted(100)
	if fn.Body.Span != before {
		t.Fatalf("original body span changed to %v", fn.Body.Span)
	}
}
