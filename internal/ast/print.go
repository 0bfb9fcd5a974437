package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented tree of tu, one node per line.
func Dump(w io.Writer, tu *TranslationUnit) error {
	p := &printer{w: w}
	p.line(0, "TranslationUnit")
	for _, d := range tu.Decls {
		p.decl(1, d)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (p *printer) decl(depth int, d *Decl) {
	switch d.Kind {
	case DeclFunc:
		f := d.Func
		p.line(depth, "Func %s%s %s %v", storagePrefix(f.Storage), f.Name, f.Type, paramNames(f.Params))
		if f.Body != nil {
			p.stmt(depth+1, f.Body)
		}
	case DeclVar:
		v := d.Var
		p.line(depth, "Var %s%s %s", storagePrefix(v.Storage), v.Name, v.Type)
		p.init(depth+1, v.Init)
	}
}

func storagePrefix(s StorageClass) string {
	if s == StorageNone {
		return ""
	}
	return s.String() + " "
}

func paramNames(ps []Param) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func (p *printer) init(depth int, init *Initializer) {
	if init == nil {
		return
	}
	if init.Kind == InitSingle {
		p.expr(depth, init.Expr)
		return
	}
	p.line(depth, "InitList")
	for _, it := range init.Items {
		p.init(depth+1, it)
	}
}

func (p *printer) stmt(depth int, s *Stmt) {
	if s == nil {
		return
	}
	switch d := s.Data.(type) {
	case ReturnData:
		p.line(depth, "Return")
		p.expr(depth+1, d.Value)
	case ExprStmtData:
		p.line(depth, "ExprStmt")
		p.expr(depth+1, d.Expr)
	case IfData:
		p.line(depth, "If")
		p.expr(depth+1, d.Cond)
		p.stmt(depth+1, d.Then)
		if d.Else != nil {
			p.line(depth, "Else")
			p.stmt(depth+1, d.Else)
		}
	case CompoundData:
		p.line(depth, "Compound")
		for _, it := range d.Items {
			if it.Decl != nil {
				p.decl(depth+1, it.Decl)
			} else {
				p.stmt(depth+1, it.Stmt)
			}
		}
	case WhileData:
		p.line(depth, "While")
		p.expr(depth+1, d.Cond)
		p.stmt(depth+1, d.Body)
	case DoWhileData:
		p.line(depth, "DoWhile")
		p.stmt(depth+1, d.Body)
		p.expr(depth+1, d.Cond)
	case ForData:
		p.line(depth, "For")
		if d.Init.Decl != nil {
			p.decl(depth+1, &Decl{Kind: DeclVar, Var: d.Init.Decl})
		}
		p.expr(depth+1, d.Init.Expr)
		p.expr(depth+1, d.Cond)
		p.expr(depth+1, d.Post)
		p.stmt(depth+1, d.Body)
	case SwitchData:
		p.line(depth, "Switch")
		p.expr(depth+1, d.Value)
		p.stmt(depth+1, d.Body)
	case CaseData:
		p.line(depth, "Case")
		p.expr(depth+1, d.Value)
		p.stmt(depth+1, d.Body)
	case DefaultData:
		p.line(depth, "Default")
		p.stmt(depth+1, d.Body)
	case LabeledData:
		p.line(depth, "Label %s", d.Label)
		p.stmt(depth+1, d.Body)
	case GotoData:
		p.line(depth, "Goto %s", d.Label)
	default:
		p.line(depth, "%s", s.Kind)
	}
}

func (p *printer) expr(depth int, e *Expr) {
	if e == nil {
		return
	}
	switch d := e.Data.(type) {
	case ConstData:
		p.line(depth, "Const %s", d.Value)
	case VarData:
		p.line(depth, "Var %s", d.Name)
	case CastData:
		p.line(depth, "Cast %s", d.Target)
		p.expr(depth+1, d.Operand)
	case UnaryData:
		p.line(depth, "Unary %s", d.Op)
		p.expr(depth+1, d.Operand)
	case IncDecData:
		op := "--"
		if d.Increment {
			op = "++"
		}
		if d.Postfix {
			p.line(depth, "Postfix %s", op)
		} else {
			p.line(depth, "Prefix %s", op)
		}
		p.expr(depth+1, d.Operand)
	case BinaryData:
		p.line(depth, "Binary %s", d.Op)
		p.expr(depth+1, d.Left)
		p.expr(depth+1, d.Right)
	case AssignData:
		if d.Compound {
			p.line(depth, "Assign %s=", d.Op)
		} else {
			p.line(depth, "Assign =")
		}
		p.expr(depth+1, d.Left)
		p.expr(depth+1, d.Right)
	case ConditionalData:
		p.line(depth, "Conditional")
		p.expr(depth+1, d.Cond)
		p.expr(depth+1, d.Then)
		p.expr(depth+1, d.Else)
	case CallData:
		p.line(depth, "Call %s", d.Callee)
		for _, a := range d.Args {
			p.expr(depth+1, a)
		}
	case DerefData:
		p.line(depth, "Deref")
		p.expr(depth+1, d.Operand)
	case AddrOfData:
		p.line(depth, "AddrOf")
		p.expr(depth+1, d.Operand)
	case SubscriptData:
		p.line(depth, "Subscript")
		p.expr(depth+1, d.Base)
		p.expr(depth+1, d.Index)
	}
}
