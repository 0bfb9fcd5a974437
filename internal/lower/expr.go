package lower

import (
	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/source"
	"mcc/internal/tacky"
	"mcc/internal/types"
)

// lvalue designates an object: a variable, or the target of a pointer.
type lvalue struct {
	deref bool
	val   tacky.Val // the variable, or the pointer when deref is set
	typ   *types.Type
	span  source.Span
	bad   bool
}

var binaryOps = map[ast.BinaryOp]tacky.Op{
	ast.BinAdd:    tacky.OpAdd,
	ast.BinSub:    tacky.OpSub,
	ast.BinMul:    tacky.OpMul,
	ast.BinDiv:    tacky.OpDiv,
	ast.BinRem:    tacky.OpRem,
	ast.BinBitAnd: tacky.OpAnd,
	ast.BinBitOr:  tacky.OpOr,
	ast.BinBitXor: tacky.OpXor,
	ast.BinShl:    tacky.OpShl,
	ast.BinShr:    tacky.OpShr,
	ast.BinEq:     tacky.OpEqual,
	ast.BinNe:     tacky.OpNotEqual,
	ast.BinLt:     tacky.OpLess,
	ast.BinLe:     tacky.OpLessEq,
	ast.BinGt:     tacky.OpGreater,
	ast.BinGe:     tacky.OpGreaterEq,
}

var unaryOps = map[ast.UnaryOp]tacky.Op{
	ast.UnNeg:        tacky.OpNeg,
	ast.UnComplement: tacky.OpComplement,
	ast.UnNot:        tacky.OpNot,
}

// lvalueOf lowers e as an object designator. ok is false when e is not an
// lvalue expression at all; nothing is reported in that case.
func (l *lowerer) lvalueOf(e *ast.Expr) (lvalue, bool) {
	switch d := e.Data.(type) {
	case ast.VarData:
		ent := l.resolve(d.Name)
		if ent == nil {
			l.errorf(diag.LowUndeclaredIdentifier, e.Span, source.Span{}, "use of undeclared identifier '%s'", d.Name)
			return lvalue{span: e.Span, bad: true}, true
		}
		if ent.fn {
			return lvalue{}, false
		}
		val := tacky.Pseudo(ent.name, ent.typ)
		if ent.static {
			val = tacky.Symbol(ent.name, ent.typ)
		}
		return lvalue{val: val, typ: ent.typ, span: e.Span}, true

	case ast.DerefData:
		p := l.rvalue(d.Operand)
		if p.bad {
			return lvalue{span: e.Span, bad: true}, true
		}
		if !p.typ.IsPointer() {
			l.errorf(diag.LowInvalidOperands, e.Span, source.Span{}, "cannot dereference a value of type '%s'", p.typ)
			return lvalue{span: e.Span, bad: true}, true
		}
		return lvalue{deref: true, val: p.val, typ: p.typ.Elem, span: e.Span}, true

	case ast.SubscriptData:
		base := l.rvalue(d.Base)
		index := l.rvalue(d.Index)
		if base.bad || index.bad {
			return lvalue{span: e.Span, bad: true}, true
		}
		switch {
		case base.typ.IsPointer() && index.typ.IsInteger():
		case base.typ.IsInteger() && index.typ.IsPointer():
			base, index = index, base
		default:
			l.errorf(diag.LowInvalidOperands, e.Span, source.Span{}, "subscripted value is not an array or pointer")
			return lvalue{span: e.Span, bad: true}, true
		}
		ptr := l.addPtr(base, index, false, e.Span)
		return lvalue{deref: true, val: ptr.val, typ: base.typ.Elem, span: e.Span}, true
	}
	return lvalue{}, false
}

func (l *lowerer) readLvalue(lv lvalue) operand {
	if lv.bad {
		return placeholder(lv.typ, lv.span)
	}
	if !lv.deref {
		return operand{val: lv.val, typ: lv.typ, span: lv.span}
	}
	dst := l.newTemp(lv.typ)
	l.emit(tacky.Instr{Kind: tacky.Load, Src: lv.val, Dst: dst, Span: lv.span})
	return operand{val: dst, typ: lv.typ, span: lv.span}
}

func (l *lowerer) store(lv lvalue, o operand, sp source.Span) {
	if lv.bad || o.bad {
		return
	}
	if lv.deref {
		l.emit(tacky.Instr{Kind: tacky.Store, Src: o.val, Dst: lv.val, Span: sp})
		return
	}
	l.emit(tacky.Instr{Kind: tacky.Copy, Src: o.val, Dst: lv.val, Span: sp})
}

// decay converts an array lvalue into a pointer to its first element.
func (l *lowerer) decay(lv lvalue) operand {
	ptrType := types.PointerTo(lv.typ.Elem)
	dst := l.newTemp(ptrType)
	if lv.deref {
		l.emit(tacky.Instr{Kind: tacky.Copy, Src: lv.val, Dst: dst, Span: lv.span})
	} else {
		l.emit(tacky.Instr{Kind: tacky.GetAddress, Src: lv.val, Dst: dst, Span: lv.span})
	}
	return operand{val: dst, typ: ptrType, span: lv.span}
}

// rvalue lowers e and yields its value; arrays decay to pointers.
func (l *lowerer) rvalue(e *ast.Expr) operand {
	switch d := e.Data.(type) {
	case ast.VarData, ast.DerefData, ast.SubscriptData:
		if v, isVar := d.(ast.VarData); isVar {
			if ent := l.resolve(v.Name); ent != nil && ent.fn {
				l.errorf(diag.LowFunctionAsValue, e.Span, source.Span{}, "function '%s' used as a value", v.Name)
				return placeholder(nil, e.Span)
			}
		}
		lv, _ := l.lvalueOf(e)
		if lv.bad {
			return placeholder(nil, e.Span)
		}
		if lv.typ.IsArray() {
			return l.decay(lv)
		}
		return l.readLvalue(lv)

	case ast.ConstData:
		return constOperand(d.Value, e.Span)
	case ast.CastData:
		return l.cast(d, e.Span)
	case ast.UnaryData:
		return l.unary(d.Op, l.rvalue(d.Operand), e.Span)
	case ast.IncDecData:
		return l.incDec(d, e.Span)
	case ast.BinaryData:
		if d.Op.IsLogical() {
			return l.logical(d, e.Span)
		}
		left := l.rvalue(d.Left)
		right := l.rvalue(d.Right)
		return l.binary(d.Op, left, right, e.Span)
	case ast.AssignData:
		return l.assign(d, e.Span)
	case ast.ConditionalData:
		return l.conditional(d, e.Span)
	case ast.CallData:
		return l.call(d, e.Span)
	case ast.AddrOfData:
		return l.addrOf(d, e.Span)
	}
	l.errorf(diag.LowInvalidOperands, e.Span, source.Span{}, "unsupported expression")
	return placeholder(nil, e.Span)
}

// condition lowers a controlling expression, which must be scalar.
func (l *lowerer) condition(e *ast.Expr) operand {
	c := l.rvalue(e)
	if !c.bad && !c.typ.IsScalar() {
		l.errorf(diag.LowInvalidOperands, e.Span, source.Span{}, "used type '%s' where a scalar is required", c.typ)
		return placeholder(nil, e.Span)
	}
	return c
}

func (l *lowerer) cast(d ast.CastData, sp source.Span) operand {
	o := l.rvalue(d.Operand)
	to := d.Target
	if o.bad {
		return placeholder(to, sp)
	}
	invalid := !to.IsScalar() ||
		(to.Kind == types.Double && o.typ.IsPointer()) ||
		(to.IsPointer() && o.typ.Kind == types.Double)
	if invalid {
		l.errorf(diag.LowInvalidCast, sp, source.Span{}, "cannot cast '%s' to '%s'", o.typ, to)
		return placeholder(to, sp)
	}
	o = l.convert(o, to)
	o.span = sp
	return o
}

func (l *lowerer) unary(op ast.UnaryOp, o operand, sp source.Span) operand {
	if o.bad {
		return placeholder(o.typ, sp)
	}
	var valid bool
	switch op {
	case ast.UnPlus, ast.UnNeg:
		valid = o.typ.IsArithmetic()
	case ast.UnComplement:
		valid = o.typ.IsInteger()
	case ast.UnNot:
		valid = o.typ.IsScalar()
	}
	if !valid {
		l.errorf(diag.LowInvalidOperands, sp, source.Span{}, "invalid operand of type '%s' to unary '%s'", o.typ, op)
		return placeholder(nil, sp)
	}
	if op == ast.UnPlus {
		o.span = sp
		return o
	}
	if o.isConst() {
		if c, ok := foldUnary(op, o.val.Const); ok {
			return constOperand(c, sp)
		}
	}
	resultType := o.typ
	if op == ast.UnNot {
		resultType = types.IntType
	}
	dst := l.newTemp(resultType)
	l.emit(tacky.Instr{Kind: tacky.Unary, Op: unaryOps[op], Src: o.val, Dst: dst, Span: sp})
	return operand{val: dst, typ: resultType, span: sp}
}

// binary applies a non-logical binary operator to two lowered operands.
func (l *lowerer) binary(op ast.BinaryOp, a, b operand, sp source.Span) operand {
	if a.bad || b.bad {
		return placeholder(nil, sp)
	}
	ta, tb := a.typ, b.typ
	bothArith := ta.IsArithmetic() && tb.IsArithmetic()
	bothInt := ta.IsInteger() && tb.IsInteger()

	switch op {
	case ast.BinAdd:
		switch {
		case bothArith:
			return l.arith(op, a, b, sp)
		case ta.IsPointer() && tb.IsInteger():
			return l.addPtr(a, b, false, sp)
		case ta.IsInteger() && tb.IsPointer():
			return l.addPtr(b, a, false, sp)
		}
	case ast.BinSub:
		switch {
		case bothArith:
			return l.arith(op, a, b, sp)
		case ta.IsPointer() && tb.IsInteger():
			return l.addPtr(a, b, true, sp)
		case ta.IsPointer() && types.Equal(ta, tb):
			return l.ptrDiff(a, b, sp)
		}
	case ast.BinMul, ast.BinDiv:
		if bothArith {
			return l.arith(op, a, b, sp)
		}
	case ast.BinRem, ast.BinBitAnd, ast.BinBitOr, ast.BinBitXor:
		if bothInt {
			return l.arith(op, a, b, sp)
		}
	case ast.BinShl, ast.BinShr:
		if bothInt {
			if b.isConst() && !shiftInRange(b.val.Const, ta) {
				l.warnf(diag.LowShiftOutOfRange, b.span, "shift count %s is out of range for type '%s'", b.val.Const, ta)
			}
			return l.emitBinary(op, a, l.convert(b, ta), ta, sp)
		}
	case ast.BinEq, ast.BinNe:
		switch {
		case bothArith:
			return l.compareArith(op, a, b, sp)
		case ta.IsPointer() && types.Equal(ta, tb):
			return l.emitBinary(op, a, b, types.IntType, sp)
		case ta.IsPointer() && b.isNullPointer():
			return l.emitBinary(op, a, l.convert(b, ta), types.IntType, sp)
		case a.isNullPointer() && tb.IsPointer():
			return l.emitBinary(op, l.convert(a, tb), b, types.IntType, sp)
		}
	case ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		switch {
		case bothArith:
			return l.compareArith(op, a, b, sp)
		case ta.IsPointer() && types.Equal(ta, tb):
			return l.emitBinary(op, a, b, types.IntType, sp)
		}
	}
	l.errorf(diag.LowInvalidOperands, sp, source.Span{}, "invalid operands to binary '%s' ('%s' and '%s')", op, ta, tb)
	return placeholder(nil, sp)
}

// arith applies the usual arithmetic conversions and the operator.
func (l *lowerer) arith(op ast.BinaryOp, a, b operand, sp source.Span) operand {
	common := types.Common(a.typ, b.typ)
	return l.emitBinary(op, l.convert(a, common), l.convert(b, common), common, sp)
}

func (l *lowerer) compareArith(op ast.BinaryOp, a, b operand, sp source.Span) operand {
	common := types.Common(a.typ, b.typ)
	return l.emitBinary(op, l.convert(a, common), l.convert(b, common), types.IntType, sp)
}

// emitBinary folds constant operands or emits Binary/Compare.
func (l *lowerer) emitBinary(op ast.BinaryOp, a, b operand, resultType *types.Type, sp source.Span) operand {
	if (op == ast.BinDiv || op == ast.BinRem) && b.typ.IsInteger() && b.isConst() && b.val.Const.IsZero() {
		l.warnf(diag.LowDivisionByZero, b.span, "division by zero")
	}
	if a.isConst() && b.isConst() {
		if c, ok := foldBinary(op, a.val.Const, b.val.Const); ok {
			return constOperand(c, sp)
		}
	}
	kind := tacky.Binary
	if op.IsComparison() {
		kind = tacky.Compare
	}
	dst := l.newTemp(resultType)
	l.emit(tacky.Instr{Kind: kind, Op: binaryOps[op], Src: a.val, Src2: b.val, Dst: dst, Span: sp})
	return operand{val: dst, typ: resultType, span: sp}
}

// addPtr computes ptr ± index scaled by the element size.
func (l *lowerer) addPtr(ptr, index operand, negate bool, sp source.Span) operand {
	index = l.convert(index, types.LongType)
	if negate {
		index = l.unary(ast.UnNeg, index, index.span)
	}
	dst := l.newTemp(ptr.typ)
	l.emit(tacky.Instr{Kind: tacky.AddPtr, Src: ptr.val, Src2: index.val, Scale: ptr.typ.Elem.Size(), Dst: dst, Span: sp})
	return operand{val: dst, typ: ptr.typ, span: sp}
}

// ptrDiff is the element distance between two pointers of the same type.
func (l *lowerer) ptrDiff(a, b operand, sp source.Span) operand {
	diff := l.emitBinary(ast.BinSub, l.convert(a, types.LongType), l.convert(b, types.LongType), types.LongType, sp)
	size := constOperand(types.IntConst(types.Long, a.typ.Elem.Size()), sp)
	return l.emitBinary(ast.BinDiv, diff, size, types.LongType, sp)
}

// logical lowers && and || with short-circuit jumps.
func (l *lowerer) logical(d ast.BinaryData, sp source.Span) operand {
	isAnd := d.Op == ast.BinAnd
	jump, shortKind, endKind := tacky.JumpIfNotZero, "or_true", "or_end"
	if isAnd {
		jump, shortKind, endKind = tacky.JumpIfZero, "and_false", "and_end"
	}
	short, end := l.newLabel(shortKind), l.newLabel(endKind)
	result := l.newTemp(types.IntType)

	a := l.condition(d.Left)
	l.emit(tacky.Instr{Kind: jump, Src: a.val, Label: short, Span: d.Left.Span})
	b := l.condition(d.Right)
	l.emit(tacky.Instr{Kind: jump, Src: b.val, Label: short, Span: d.Right.Span})

	fallthroughValue, shortValue := int64(0), int64(1)
	if isAnd {
		fallthroughValue, shortValue = 1, 0
	}
	l.emit(tacky.Instr{Kind: tacky.Copy, Src: tacky.Constant(types.IntConst(types.Int, fallthroughValue)), Dst: result, Span: sp})
	l.emit(tacky.Instr{Kind: tacky.Jump, Label: end, Span: sp})
	l.emit(tacky.Instr{Kind: tacky.Label, Label: short, Span: sp})
	l.emit(tacky.Instr{Kind: tacky.Copy, Src: tacky.Constant(types.IntConst(types.Int, shortValue)), Dst: result, Span: sp})
	l.emit(tacky.Instr{Kind: tacky.Label, Label: end, Span: sp})
	return operand{val: result, typ: types.IntType, span: sp, bad: a.bad || b.bad}
}

func (l *lowerer) assign(d ast.AssignData, sp source.Span) operand {
	lv, ok := l.lvalueOf(d.Left)
	if !ok {
		l.errorf(diag.LowNotAnLvalue, d.Left.Span, source.Span{}, "expression is not assignable")
		l.rvalue(d.Right)
		return placeholder(nil, sp)
	}
	if lv.bad {
		l.rvalue(d.Right)
		return placeholder(nil, sp)
	}
	if lv.typ.IsArray() {
		l.errorf(diag.LowNotAnLvalue, d.Left.Span, source.Span{}, "array type '%s' is not assignable", lv.typ)
		l.rvalue(d.Right)
		return placeholder(nil, sp)
	}

	var v operand
	if d.Compound {
		cur := l.readLvalue(lv)
		rhs := l.rvalue(d.Right)
		v = l.convertAssign(l.binary(d.Op, cur, rhs, sp), lv.typ, "compound assignment")
	} else {
		v = l.convertAssign(l.rvalue(d.Right), lv.typ, "assignment")
	}
	l.store(lv, v, sp)
	v.span = sp
	return v
}

func (l *lowerer) incDec(d ast.IncDecData, sp source.Span) operand {
	lv, ok := l.lvalueOf(d.Operand)
	if !ok {
		l.errorf(diag.LowNotAnLvalue, d.Operand.Span, source.Span{}, "expression is not assignable")
		return placeholder(nil, sp)
	}
	if lv.bad {
		return placeholder(nil, sp)
	}
	if !lv.typ.IsScalar() {
		l.errorf(diag.LowInvalidOperands, sp, source.Span{}, "cannot increment or decrement a value of type '%s'", lv.typ)
		return placeholder(nil, sp)
	}

	cur := l.readLvalue(lv)
	old := cur
	if d.Postfix && !lv.deref {
		old = l.snapshot(cur)
	}
	var next operand
	if lv.typ.IsPointer() {
		next = l.addPtr(cur, constOperand(types.IntConst(types.Long, 1), sp), !d.Increment, sp)
	} else {
		op := ast.BinAdd
		if !d.Increment {
			op = ast.BinSub
		}
		one := constOperand(types.IntConst(types.Int, 1).Convert(lv.typ.Kind), sp)
		next = l.emitBinary(op, cur, one, lv.typ, sp)
	}
	l.store(lv, next, sp)
	if d.Postfix {
		old.span = sp
		return old
	}
	return next
}

func (l *lowerer) conditional(d ast.ConditionalData, sp source.Span) operand {
	cond := l.condition(d.Cond)

	save := l.body
	l.body = nil
	a := l.rvalue(d.Then)
	thenCode := l.body
	l.body = nil
	b := l.rvalue(d.Else)
	elseCode := l.body
	l.body = save

	var typ *types.Type
	switch {
	case a.bad || b.bad:
	case a.typ.IsArithmetic() && b.typ.IsArithmetic():
		typ = types.Common(a.typ, b.typ)
	case a.typ.IsPointer() && types.Equal(a.typ, b.typ):
		typ = a.typ
	case a.typ.IsPointer() && b.isNullPointer():
		typ = a.typ
	case a.isNullPointer() && b.typ.IsPointer():
		typ = b.typ
	default:
		l.errorf(diag.LowTypeMismatch, sp, source.Span{}, "incompatible operand types ('%s' and '%s') in conditional expression", a.typ, b.typ)
	}
	if typ == nil {
		l.body = append(append(l.body, thenCode...), elseCode...)
		return placeholder(nil, sp)
	}

	result := l.newTemp(typ)
	elseLbl, endLbl := l.newLabel("cond_else"), l.newLabel("cond_end")
	l.emit(tacky.Instr{Kind: tacky.JumpIfZero, Src: cond.val, Label: elseLbl, Span: d.Cond.Span})

	l.body = append(l.body, thenCode...)
	a = l.convert(a, typ)
	l.emit(tacky.Instr{Kind: tacky.Copy, Src: a.val, Dst: result, Span: d.Then.Span})
	l.emit(tacky.Instr{Kind: tacky.Jump, Label: endLbl, Span: sp})

	l.emit(tacky.Instr{Kind: tacky.Label, Label: elseLbl, Span: sp})
	l.body = append(l.body, elseCode...)
	b = l.convert(b, typ)
	l.emit(tacky.Instr{Kind: tacky.Copy, Src: b.val, Dst: result, Span: d.Else.Span})
	l.emit(tacky.Instr{Kind: tacky.Label, Label: endLbl, Span: sp})
	return operand{val: result, typ: typ, span: sp, bad: cond.bad}
}

func (l *lowerer) call(d ast.CallData, sp source.Span) operand {
	ent := l.resolve(d.Callee)
	switch {
	case ent == nil:
		l.errorf(diag.LowUndeclaredIdentifier, d.CalleeSpan, source.Span{}, "call to undeclared function '%s'", d.Callee)
	case !ent.fn:
		l.errorf(diag.LowNotCallable, d.CalleeSpan, source.Span{}, "called object '%s' of type '%s' is not a function", d.Callee, ent.typ)
	case len(d.Args) != len(ent.typ.Params):
		l.errorf(diag.LowArgumentCount, sp, l.declSpan(ent), "function '%s' expects %d argument(s), got %d", d.Callee, len(ent.typ.Params), len(d.Args))
	default:
		args := make([]tacky.Val, len(d.Args))
		bad := false
		for i, arg := range d.Args {
			a := l.convertAssign(l.rvalue(arg), ent.typ.Params[i], "argument")
			args[i] = a.val
			bad = bad || a.bad
		}
		ret := ent.typ.Ret
		if bad {
			return placeholder(ret, sp)
		}
		dst := l.newTemp(ret)
		l.emit(tacky.Instr{Kind: tacky.Call, Func: d.Callee, Args: args, Dst: dst, Span: sp})
		return operand{val: dst, typ: ret, span: sp}
	}
	for _, arg := range d.Args {
		l.rvalue(arg)
	}
	return placeholder(nil, sp)
}

func (l *lowerer) addrOf(d ast.AddrOfData, sp source.Span) operand {
	if v, isVar := d.Operand.Data.(ast.VarData); isVar {
		if ent := l.resolve(v.Name); ent != nil && ent.fn {
			l.errorf(diag.LowFunctionAsValue, d.Operand.Span, source.Span{}, "cannot take the address of function '%s'", v.Name)
			return placeholder(nil, sp)
		}
	}
	lv, ok := l.lvalueOf(d.Operand)
	if !ok {
		l.errorf(diag.LowNotAnLvalue, d.Operand.Span, source.Span{}, "cannot take the address of an rvalue")
		return placeholder(nil, sp)
	}
	if lv.bad {
		return placeholder(nil, sp)
	}
	ptrType := types.PointerTo(lv.typ)
	if lv.deref {
		return operand{val: lv.val, typ: ptrType, span: sp}
	}
	dst := l.newTemp(ptrType)
	l.emit(tacky.Instr{Kind: tacky.GetAddress, Src: lv.val, Dst: dst, Span: sp})
	return operand{val: dst, typ: ptrType, span: sp}
}
