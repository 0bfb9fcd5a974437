package lower

import (
	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/tacky"
	"mcc/internal/types"
)

// evalConst evaluates an arithmetic constant expression: literals combined with
// unary, binary, conditional operators and casts to arithmetic types.
func evalConst(e *ast.Expr) (types.Const, bool) {
	switch d := e.Data.(type) {
	case ast.ConstData:
		return d.Value, true

	case ast.UnaryData:
		c, ok := evalConst(d.Operand)
		if !ok {
			return types.Const{}, false
		}
		return foldUnary(d.Op, c)

	case ast.CastData:
		if !d.Target.IsArithmetic() {
			return types.Const{}, false
		}
		c, ok := evalConst(d.Operand)
		if !ok {
			return types.Const{}, false
		}
		return c.Convert(d.Target.Kind), true

	case ast.BinaryData:
		a, ok := evalConst(d.Left)
		if !ok {
			return types.Const{}, false
		}
		if d.Op.IsLogical() {
			if a.IsZero() == (d.Op == ast.BinAnd) {
				return types.IntConst(types.Int, boolInt(d.Op == ast.BinOr)), true
			}
			b, ok := evalConst(d.Right)
			if !ok {
				return types.Const{}, false
			}
			return types.IntConst(types.Int, boolInt(!b.IsZero())), true
		}
		b, ok := evalConst(d.Right)
		if !ok {
			return types.Const{}, false
		}
		if d.Op.IsShift() {
			if !a.Type().IsInteger() || !b.Type().IsInteger() {
				return types.Const{}, false
			}
			return foldBinary(d.Op, a, b.Convert(a.Kind))
		}
		common := types.Common(a.Type(), b.Type())
		return foldBinary(d.Op, a.Convert(common.Kind), b.Convert(common.Kind))

	case ast.ConditionalData:
		c, ok := evalConst(d.Cond)
		if !ok {
			return types.Const{}, false
		}
		then, ok1 := evalConst(d.Then)
		els, ok2 := evalConst(d.Else)
		if !ok1 || !ok2 {
			return types.Const{}, false
		}
		common := types.Common(then.Type(), els.Type())
		if c.IsZero() {
			return els.Convert(common.Kind), true
		}
		return then.Convert(common.Kind), true
	}
	return types.Const{}, false
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// staticInitializer flattens init into the byte layout of t.
func staticInitializer(t *types.Type, init *ast.Initializer, r diag.Reporter) ([]tacky.StaticInit, bool) {
	if t.IsArray() {
		if init.Kind != ast.InitCompound {
			diag.ReportError(r, diag.LowInvalidInitializer, init.Span, "array must be initialized with a brace-enclosed list").Emit()
			return nil, false
		}
		if int64(len(init.Items)) > t.Len {
			diag.ReportError(r, diag.LowInvalidInitializer, init.Items[t.Len].Span, "too many elements in array initializer").Emit()
			return nil, false
		}
		var out []tacky.StaticInit
		ok := true
		for _, item := range init.Items {
			vals, itemOK := staticInitializer(t.Elem, item, r)
			ok = ok && itemOK
			out = append(out, vals...)
		}
		if rest := t.Len - int64(len(init.Items)); rest > 0 {
			out = append(out, tacky.ZeroInit(rest*t.Elem.Size()))
		}
		return out, ok
	}

	if init.Kind == ast.InitCompound {
		diag.ReportError(r, diag.LowInvalidInitializer, init.Span, "brace-enclosed list cannot initialize a scalar").Emit()
		return nil, false
	}
	c, ok := evalConst(init.Expr)
	if !ok {
		diag.ReportError(r, diag.LowNonConstantInitializer, init.Span, "initializer of a static variable must be a constant").Emit()
		return nil, false
	}
	if t.IsPointer() {
		if !c.Type().IsInteger() || !c.IsZero() {
			diag.ReportError(r, diag.LowInvalidInitializer, init.Span, "pointer can only be statically initialized with a null pointer constant").Emit()
			return nil, false
		}
		return []tacky.StaticInit{tacky.ZeroInit(8)}, true
	}
	return []tacky.StaticInit{tacky.ValueInit(c.Convert(t.Kind))}, true
}
