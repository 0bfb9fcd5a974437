package lower

import (
	"mcc/internal/diag"
	"mcc/internal/source"
	"mcc/internal/tacky"
	"mcc/internal/types"
)

// operand is a lowered rvalue.
type operand struct {
	val  tacky.Val
	typ  *types.Type
	span source.Span
	bad  bool // an error was already reported for this subtree
}

// placeholder stands in for a subtree that failed to lower. Further checks on
// it are skipped so one mistake yields one diagnostic.
func placeholder(t *types.Type, sp source.Span) operand {
	if t == nil || !t.IsScalar() {
		t = types.IntType
	}
	return operand{val: zeroOf(t), typ: t, span: sp, bad: true}
}

// zeroOf is the constant 0 of a scalar type.
func zeroOf(t *types.Type) tacky.Val {
	if t.IsPointer() {
		v := tacky.Constant(types.IntConst(types.ULong, 0))
		v.Type = t
		return v
	}
	return tacky.Constant(types.IntConst(types.Int, 0).Convert(t.Kind))
}

func constOperand(c types.Const, sp source.Span) operand {
	return operand{val: tacky.Constant(c), typ: c.Type(), span: sp}
}

func (o operand) isConst() bool { return o.val.IsConstant() }

// isNullPointer reports whether o is an integer constant zero.
func (o operand) isNullPointer() bool {
	return o.isConst() && o.typ.IsInteger() && o.val.Const.IsZero()
}

// convert emits the conversion of o to the scalar type to. Constants are
// converted at compile time.
func (l *lowerer) convert(o operand, to *types.Type) operand {
	if o.bad {
		return placeholder(to, o.span)
	}
	if types.Equal(o.typ, to) {
		return o
	}
	if o.isConst() {
		v := tacky.Constant(o.val.Const.Convert(to.Kind))
		if to.IsPointer() {
			v.Type = to
		}
		return operand{val: v, typ: to, span: o.span}
	}
	dst := l.newTemp(to)
	l.emit(tacky.Instr{Kind: conversionKind(o.typ, to), Src: o.val, Dst: dst, Span: o.span})
	return operand{val: dst, typ: to, span: o.span}
}

func conversionKind(from, to *types.Type) tacky.InstrKind {
	switch {
	case from.Kind == types.Double && to.Kind == types.Double:
		return tacky.Copy
	case from.Kind == types.Double:
		if to.IsSigned() {
			return tacky.DoubleToInt
		}
		return tacky.DoubleToUInt
	case to.Kind == types.Double:
		if from.IsSigned() {
			return tacky.IntToDouble
		}
		return tacky.UIntToDouble
	case from.Size() == to.Size():
		return tacky.Copy
	case from.Size() < to.Size():
		if from.IsSigned() {
			return tacky.SignExtend
		}
		return tacky.ZeroExtend
	}
	return tacky.Truncate
}

// convertAssign converts o as if by assignment to an object of type to.
func (l *lowerer) convertAssign(o operand, to *types.Type, what string) operand {
	switch {
	case o.bad:
		return placeholder(to, o.span)
	case types.Equal(o.typ, to):
		return o
	case o.typ.IsArithmetic() && to.IsArithmetic():
		return l.convert(o, to)
	case to.IsPointer() && o.isNullPointer():
		return l.convert(o, to)
	}
	l.errorf(diag.LowTypeMismatch, o.span, source.Span{}, "cannot convert '%s' to '%s' in %s", o.typ, to, what)
	return placeholder(to, o.span)
}

// snapshot copies a pseudo so later writes to it do not affect the result.
func (l *lowerer) snapshot(o operand) operand {
	if o.isConst() || o.bad {
		return o
	}
	dst := l.newTemp(o.typ)
	l.emit(tacky.Instr{Kind: tacky.Copy, Src: o.val, Dst: dst, Span: o.span})
	return operand{val: dst, typ: o.typ, span: o.span}
}
