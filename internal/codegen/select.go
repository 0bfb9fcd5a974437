package codegen

import (
	"fmt"
	"math"

	"mcc/internal/asm"
	"mcc/internal/tacky"
	"mcc/internal/types"
)

// selector translates one TAC function into assembly over pseudos.
type selector struct {
	fn      *tacky.Function
	out     []asm.Instr
	pseudos []asm.PseudoInfo
	index   map[string]int
	aliased map[string]bool
	consts  *constPool
	tempN   int
	labelN  int
}

func asmType(t *types.Type) asm.Type {
	switch t.Kind {
	case types.Int, types.UInt:
		return asm.Long
	case types.Double:
		return asm.Double
	}
	return asm.Quad
}

// unsignedConds maps signed condition codes to the ones used for unsigned
// integers, pointers and doubles.
var unsignedConds = map[asm.Cond]asm.Cond{
	asm.CondL: asm.CondB, asm.CondLE: asm.CondBE, asm.CondG: asm.CondA, asm.CondGE: asm.CondAE,
}

var compareConds = map[tacky.Op]asm.Cond{
	tacky.OpEqual: asm.CondE, tacky.OpNotEqual: asm.CondNE,
	tacky.OpLess: asm.CondL, tacky.OpLessEq: asm.CondLE,
	tacky.OpGreater: asm.CondG, tacky.OpGreaterEq: asm.CondGE,
}

var arithOps = map[tacky.Op]asm.Op{
	tacky.OpAdd: asm.OpAdd, tacky.OpSub: asm.OpSub, tacky.OpMul: asm.OpMult,
	tacky.OpAnd: asm.OpAnd, tacky.OpOr: asm.OpOr, tacky.OpXor: asm.OpXor,
}

func newSelector(fn *tacky.Function, consts *constPool) *selector {
	s := &selector{
		fn:      fn,
		index:   make(map[string]int),
		aliased: make(map[string]bool),
		consts:  consts,
	}
	for _, in := range fn.Body {
		if in.Kind == tacky.GetAddress && in.Src.Kind == tacky.ValPseudo {
			s.aliased[in.Src.Name] = true
		}
	}
	return s
}

func (s *selector) emit(in asm.Instr) { s.out = append(s.out, in) }

func (s *selector) mov(t asm.Type, src, dst asm.Operand) {
	s.emit(asm.Instr{Kind: asm.Mov, Type: t, Src: src, Dst: dst})
}

// declare records a pseudo the first time it is seen; ids follow first appearance.
func (s *selector) declare(name string, t *types.Type) asm.PseudoInfo {
	if i, ok := s.index[name]; ok {
		return s.pseudos[i]
	}
	info := asm.PseudoInfo{
		Name:     name,
		Type:     asmType(t.Scalar()),
		Size:     t.Size(),
		Align:    t.Align(),
		InMemory: t.IsArray() || s.aliased[name],
	}
	if t.IsArray() && t.Size() >= 16 {
		info.Align = 16
	}
	s.index[name] = len(s.pseudos)
	s.pseudos = append(s.pseudos, info)
	return info
}

// temp allocates a pseudo that does not exist in the TAC. The leading dot
// keeps it apart from every name lowering produces.
func (s *selector) temp(t asm.Type) asm.Operand {
	name := fmt.Sprintf(".cg.%d", s.tempN)
	s.tempN++
	s.index[name] = len(s.pseudos)
	s.pseudos = append(s.pseudos, asm.PseudoInfo{Name: name, Type: t, Size: t.Size(), Align: t.Size()})
	return asm.Pseudo(name)
}

func (s *selector) label() string {
	name := fmt.Sprintf("%s.cg.%d", s.fn.Name, s.labelN)
	s.labelN++
	return name
}

func (s *selector) operand(v tacky.Val) asm.Operand {
	switch v.Kind {
	case tacky.ValConstant:
		if v.Const.Kind == types.Double {
			return asm.Data(s.consts.double(v.Const.Float, 8), 0)
		}
		return asm.Imm(v.Const.Int)
	case tacky.ValSymbol:
		return asm.Data(v.Name, 0)
	}
	if info := s.declare(v.Name, v.Type); info.InMemory {
		return asm.PseudoMem(v.Name, 0)
	}
	return asm.Pseudo(v.Name)
}

func (s *selector) function() {
	s.params()
	for _, in := range s.fn.Body {
		s.instr(in)
	}
}

func (s *selector) instr(in tacky.Instr) {
	switch in.Kind {
	case tacky.Return:
		if in.Src.Type.Kind == types.Double {
			s.mov(asm.Double, s.operand(in.Src), asm.Register(asm.XMM0))
			s.emit(asm.Instr{Kind: asm.Ret, Regs: []asm.Reg{asm.XMM0}})
			return
		}
		s.mov(asmType(in.Src.Type), s.operand(in.Src), asm.Register(asm.AX))
		s.emit(asm.Instr{Kind: asm.Ret, Regs: []asm.Reg{asm.AX}})

	case tacky.SignExtend:
		s.emit(asm.Instr{Kind: asm.Movsx, SrcType: asm.Long, Type: asm.Quad, Src: s.operand(in.Src), Dst: s.operand(in.Dst)})
	case tacky.ZeroExtend:
		s.emit(asm.Instr{Kind: asm.MovZeroExtend, SrcType: asm.Long, Type: asm.Quad, Src: s.operand(in.Src), Dst: s.operand(in.Dst)})
	case tacky.Truncate:
		src := s.operand(in.Src)
		if src.Kind == asm.OpdImm {
			src.Imm = int64(int32(src.Imm)) // #nosec G115 -- truncation is the point
		}
		s.mov(asm.Long, src, s.operand(in.Dst))
	case tacky.IntToDouble:
		s.emit(asm.Instr{Kind: asm.Cvtsi2sd, Type: asmType(in.Src.Type), Src: s.operand(in.Src), Dst: s.operand(in.Dst)})
	case tacky.DoubleToInt:
		s.emit(asm.Instr{Kind: asm.Cvttsd2si, Type: asmType(in.Dst.Type), Src: s.operand(in.Src), Dst: s.operand(in.Dst)})
	case tacky.DoubleToUInt:
		s.doubleToUnsigned(in)
	case tacky.UIntToDouble:
		s.unsignedToDouble(in)

	case tacky.Unary:
		s.unary(in)
	case tacky.Binary:
		s.binary(in)
	case tacky.Compare:
		s.compare(in)

	case tacky.Copy:
		s.mov(asmType(in.Src.Type), s.operand(in.Src), s.operand(in.Dst))
	case tacky.GetAddress:
		s.emit(asm.Instr{Kind: asm.Lea, Type: asm.Quad, Src: s.operand(in.Src), Dst: s.operand(in.Dst)})
	case tacky.Load:
		s.mov(asm.Quad, s.operand(in.Src), asm.Register(asm.AX))
		s.mov(asmType(in.Dst.Type), asm.Memory(asm.AX, 0), s.operand(in.Dst))
	case tacky.Store:
		s.mov(asm.Quad, s.operand(in.Dst), asm.Register(asm.AX))
		s.mov(asmType(in.Src.Type), s.operand(in.Src), asm.Memory(asm.AX, 0))
	case tacky.AddPtr:
		s.addPtr(in)
	case tacky.CopyToOffset:
		dst := s.operand(in.Dst)
		dst.Offset += in.Offset
		s.mov(asmType(in.Src.Type), s.operand(in.Src), dst)

	case tacky.Jump:
		s.emit(asm.Instr{Kind: asm.Jmp, Label: in.Label})
	case tacky.JumpIfZero, tacky.JumpIfNotZero:
		s.branch(in)
	case tacky.Label:
		s.emit(asm.Instr{Kind: asm.Label, Label: in.Label})
	case tacky.Call:
		s.call(in)
	}
}

func (s *selector) unary(in tacky.Instr) {
	t := asmType(in.Src.Type)
	src, dst := s.operand(in.Src), s.operand(in.Dst)
	switch in.Op {
	case tacky.OpNot:
		if t == asm.Double {
			s.setIfDoubleZero(src, dst, true)
			return
		}
		s.emit(asm.Instr{Kind: asm.Cmp, Type: t, Src: asm.Imm(0), Dst: src})
		s.mov(asm.Long, asm.Imm(0), dst)
		s.emit(asm.Instr{Kind: asm.SetCC, Cond: asm.CondE, Type: asm.Byte, Dst: dst})
	case tacky.OpNeg:
		s.mov(t, src, dst)
		if t == asm.Double {
			mask := asm.Data(s.consts.double(math.Copysign(0, -1), 16), 0)
			s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpXor, Type: asm.Double, Src: mask, Dst: dst})
			return
		}
		s.emit(asm.Instr{Kind: asm.Unary, Op: asm.OpNeg, Type: t, Dst: dst})
	case tacky.OpComplement:
		s.mov(t, src, dst)
		s.emit(asm.Instr{Kind: asm.Unary, Op: asm.OpNot, Type: t, Dst: dst})
	}
}

// setIfDoubleZero sets dst to (src == 0.0), or to (src != 0.0) when eq is
// false. NaN is unequal to zero.
func (s *selector) setIfDoubleZero(src, dst asm.Operand, eq bool) {
	zero := s.temp(asm.Double)
	s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpXor, Type: asm.Double, Src: zero, Dst: zero})
	s.setDoubleCompare(src, zero, dst, eq)
}

// setDoubleCompare sets dst to (a == b) or (a != b), treating an unordered
// comparison as unequal.
func (s *selector) setDoubleCompare(a, b, dst asm.Operand, eq bool) {
	initial, cond := int64(0), asm.CondE
	if !eq {
		initial, cond = 1, asm.CondNE
	}
	unordered := s.label()
	s.mov(asm.Long, asm.Imm(initial), dst)
	s.emit(asm.Instr{Kind: asm.Cmp, Type: asm.Double, Src: a, Dst: b})
	s.emit(asm.Instr{Kind: asm.JmpCC, Cond: asm.CondP, Label: unordered})
	s.emit(asm.Instr{Kind: asm.SetCC, Cond: cond, Type: asm.Byte, Dst: dst})
	s.emit(asm.Instr{Kind: asm.Label, Label: unordered})
}

func (s *selector) binary(in tacky.Instr) {
	typ := in.Src.Type
	t := asmType(typ)
	a, b, dst := s.operand(in.Src), s.operand(in.Src2), s.operand(in.Dst)

	if t == asm.Double {
		op := arithOps[in.Op]
		if in.Op == tacky.OpDiv {
			op = asm.OpDivDouble
		}
		s.mov(t, a, dst)
		s.emit(asm.Instr{Kind: asm.Binary, Op: op, Type: t, Src: b, Dst: dst})
		return
	}

	switch in.Op {
	case tacky.OpDiv, tacky.OpRem:
		s.mov(t, a, asm.Register(asm.AX))
		if typ.IsSigned() {
			s.emit(asm.Instr{Kind: asm.Cdq, Type: t})
			s.emit(asm.Instr{Kind: asm.Idiv, Type: t, Src: b})
		} else {
			s.mov(t, asm.Imm(0), asm.Register(asm.DX))
			s.emit(asm.Instr{Kind: asm.Div, Type: t, Src: b})
		}
		result := asm.AX
		if in.Op == tacky.OpRem {
			result = asm.DX
		}
		s.mov(t, asm.Register(result), dst)

	case tacky.OpShl, tacky.OpShr:
		op := asm.OpShl
		if in.Op == tacky.OpShr {
			op = asm.OpShr
			if typ.IsSigned() {
				op = asm.OpSar
			}
		}
		s.mov(t, a, dst)
		if b.Kind != asm.OpdImm {
			s.mov(t, b, asm.Register(asm.CX))
			b = asm.Register(asm.CX)
		}
		s.emit(asm.Instr{Kind: asm.Binary, Op: op, Type: t, Src: b, Dst: dst})

	default:
		s.mov(t, a, dst)
		s.emit(asm.Instr{Kind: asm.Binary, Op: arithOps[in.Op], Type: t, Src: b, Dst: dst})
	}
}

func (s *selector) compare(in tacky.Instr) {
	typ := in.Src.Type
	t := asmType(typ)
	a, b, dst := s.operand(in.Src), s.operand(in.Src2), s.operand(in.Dst)

	if t == asm.Double {
		switch in.Op {
		case tacky.OpEqual, tacky.OpNotEqual:
			s.setDoubleCompare(b, a, dst, in.Op == tacky.OpEqual)
			return
		case tacky.OpLess, tacky.OpLessEq:
			// a < b is b > a; "above" conditions are false when unordered.
			a, b = b, a
		}
		cond := asm.CondA
		if in.Op == tacky.OpLessEq || in.Op == tacky.OpGreaterEq {
			cond = asm.CondAE
		}
		s.mov(asm.Long, asm.Imm(0), dst)
		s.emit(asm.Instr{Kind: asm.Cmp, Type: t, Src: b, Dst: a})
		s.emit(asm.Instr{Kind: asm.SetCC, Cond: cond, Type: asm.Byte, Dst: dst})
		return
	}

	cond := compareConds[in.Op]
	if !typ.IsSigned() {
		if u, ok := unsignedConds[cond]; ok {
			cond = u
		}
	}
	s.emit(asm.Instr{Kind: asm.Cmp, Type: t, Src: b, Dst: a})
	s.mov(asm.Long, asm.Imm(0), dst)
	s.emit(asm.Instr{Kind: asm.SetCC, Cond: cond, Type: asm.Byte, Dst: dst})
}

func (s *selector) branch(in tacky.Instr) {
	t := asmType(in.Src.Type)
	src := s.operand(in.Src)
	ifZero := in.Kind == tacky.JumpIfZero

	if t == asm.Double {
		zero := s.temp(asm.Double)
		s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpXor, Type: asm.Double, Src: zero, Dst: zero})
		s.emit(asm.Instr{Kind: asm.Cmp, Type: asm.Double, Src: src, Dst: zero})
		if ifZero {
			skip := s.label()
			s.emit(asm.Instr{Kind: asm.JmpCC, Cond: asm.CondP, Label: skip})
			s.emit(asm.Instr{Kind: asm.JmpCC, Cond: asm.CondE, Label: in.Label})
			s.emit(asm.Instr{Kind: asm.Label, Label: skip})
			return
		}
		s.emit(asm.Instr{Kind: asm.JmpCC, Cond: asm.CondP, Label: in.Label})
		s.emit(asm.Instr{Kind: asm.JmpCC, Cond: asm.CondNE, Label: in.Label})
		return
	}

	cond := asm.CondNE
	if ifZero {
		cond = asm.CondE
	}
	s.emit(asm.Instr{Kind: asm.Cmp, Type: t, Src: asm.Imm(0), Dst: src})
	s.emit(asm.Instr{Kind: asm.JmpCC, Cond: cond, Label: in.Label})
}

func (s *selector) addPtr(in tacky.Instr) {
	ptr, index, dst := s.operand(in.Src), s.operand(in.Src2), s.operand(in.Dst)
	s.mov(asm.Quad, ptr, asm.Register(asm.AX))
	if disp, ok := displacement(index, in.Scale); ok {
		s.emit(asm.Instr{Kind: asm.Lea, Type: asm.Quad, Src: asm.Memory(asm.AX, disp), Dst: dst})
		return
	}
	s.mov(asm.Quad, index, asm.Register(asm.DX))
	scale := in.Scale
	switch scale {
	case 1, 2, 4, 8:
	default:
		s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpMult, Type: asm.Quad, Src: asm.Imm(scale), Dst: asm.Register(asm.DX)})
		scale = 1
	}
	s.emit(asm.Instr{Kind: asm.Lea, Type: asm.Quad, Src: asm.Indexed(asm.AX, asm.DX, scale), Dst: dst})
}

// displacement folds a constant index into a byte offset when the offset
// fits the signed 32-bit displacement of an address.
func displacement(index asm.Operand, scale int64) (int64, bool) {
	if index.Kind != asm.OpdImm {
		return 0, false
	}
	if index.Imm < math.MinInt32 || index.Imm > math.MaxInt32 {
		return 0, false
	}
	disp := index.Imm * scale
	return disp, disp >= math.MinInt32 && disp <= math.MaxInt32
}

// doubleToUnsigned converts through the signed instruction. Values of at
// least 2^63 are rebased into the signed range first.
func (s *selector) doubleToUnsigned(in tacky.Instr) {
	src, dst := s.operand(in.Src), s.operand(in.Dst)
	if in.Dst.Type.Kind == types.UInt {
		s.emit(asm.Instr{Kind: asm.Cvttsd2si, Type: asm.Quad, Src: src, Dst: asm.Register(asm.AX)})
		s.mov(asm.Long, asm.Register(asm.AX), dst)
		return
	}
	upper := asm.Data(s.consts.double(9223372036854775808.0, 8), 0)
	outOfRange, end := s.label(), s.label()
	s.emit(asm.Instr{Kind: asm.Cmp, Type: asm.Double, Src: upper, Dst: src})
	s.emit(asm.Instr{Kind: asm.JmpCC, Cond: asm.CondAE, Label: outOfRange})
	s.emit(asm.Instr{Kind: asm.Cvttsd2si, Type: asm.Quad, Src: src, Dst: dst})
	s.emit(asm.Instr{Kind: asm.Jmp, Label: end})
	s.emit(asm.Instr{Kind: asm.Label, Label: outOfRange})
	rebased := s.temp(asm.Double)
	s.mov(asm.Double, src, rebased)
	s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpSub, Type: asm.Double, Src: upper, Dst: rebased})
	s.emit(asm.Instr{Kind: asm.Cvttsd2si, Type: asm.Quad, Src: rebased, Dst: dst})
	s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpAdd, Type: asm.Quad, Src: asm.Imm(math.MinInt64), Dst: dst})
	s.emit(asm.Instr{Kind: asm.Label, Label: end})
}

// unsignedToDouble converts through the signed instruction. Values with the
// top bit set are halved with the low bit kept for rounding, then doubled.
func (s *selector) unsignedToDouble(in tacky.Instr) {
	src, dst := s.operand(in.Src), s.operand(in.Dst)
	if in.Src.Type.Kind == types.UInt {
		s.emit(asm.Instr{Kind: asm.MovZeroExtend, SrcType: asm.Long, Type: asm.Quad, Src: src, Dst: asm.Register(asm.AX)})
		s.emit(asm.Instr{Kind: asm.Cvtsi2sd, Type: asm.Quad, Src: asm.Register(asm.AX), Dst: dst})
		return
	}
	outOfRange, end := s.label(), s.label()
	s.emit(asm.Instr{Kind: asm.Cmp, Type: asm.Quad, Src: asm.Imm(0), Dst: src})
	s.emit(asm.Instr{Kind: asm.JmpCC, Cond: asm.CondL, Label: outOfRange})
	s.emit(asm.Instr{Kind: asm.Cvtsi2sd, Type: asm.Quad, Src: src, Dst: dst})
	s.emit(asm.Instr{Kind: asm.Jmp, Label: end})
	s.emit(asm.Instr{Kind: asm.Label, Label: outOfRange})
	low, half := s.temp(asm.Quad), s.temp(asm.Quad)
	s.mov(asm.Quad, src, low)
	s.mov(asm.Quad, low, half)
	s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpShr, Type: asm.Quad, Src: asm.Imm(1), Dst: half})
	s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpAnd, Type: asm.Quad, Src: asm.Imm(1), Dst: low})
	s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpOr, Type: asm.Quad, Src: low, Dst: half})
	s.emit(asm.Instr{Kind: asm.Cvtsi2sd, Type: asm.Quad, Src: half, Dst: dst})
	s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpAdd, Type: asm.Double, Src: dst, Dst: dst})
	s.emit(asm.Instr{Kind: asm.Label, Label: end})
}
