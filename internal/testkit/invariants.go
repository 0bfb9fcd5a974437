package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"mcc/internal/ast"
	"mcc/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) every top-level declaration span is non-empty and within file content bounds
// 2) declarations appear in source order
// 3) every statement and expression lies inside its top-level declaration
func CheckSpanInvariants(tu *ast.TranslationUnit, sf *source.File) error {
	if tu == nil || sf == nil {
		return fmt.Errorf("nil unit or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var prev source.Span
	for i, d := range tu.Decls {
		sp := d.Span
		if sp.End <= sp.Start {
			return fmt.Errorf("empty span for %q: %v", d.Name(), sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("decl span file mismatch: got=%d want=%d", sp.File, sf.ID)
		}
		if sp.End > lenContent {
			return fmt.Errorf("decl span end beyond content: %d > %d", sp.End, lenContent)
		}
		if i > 0 && sp.Start < prev.Start {
			return fmt.Errorf("decl %q at %v precedes previous decl at %v", d.Name(), sp, prev)
		}
		prev = sp

		var inner error
		check := func(kind string, child source.Span) bool {
			if inner != nil {
				return false
			}
			if child.Start < sp.Start || child.End > sp.End {
				inner = fmt.Errorf("%s span %v is outside declaration %q span %v", kind, child, d.Name(), sp)
				return false
			}
			return true
		}
		ast.Walk(&ast.TranslationUnit{File: tu.File, Decls: []*ast.Decl{d}}, ast.Visitor{
			Decl: func(n *ast.Decl) bool { return check("decl", n.Span) },
			Stmt: func(n *ast.Stmt) bool { return check("stmt", n.Span) },
			Expr: func(n *ast.Expr) bool { return check("expr", n.Span) },
		})
		if inner != nil {
			return inner
		}
	}
	return nil
}
