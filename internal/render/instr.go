package render

import (
	"fmt"

	"mcc/internal/asm"
)

func suffix(t asm.Type) string {
	switch t {
	case asm.Long:
		return "l"
	case asm.Byte:
		return "b"
	}
	return "q"
}

var intOps = map[asm.Op]string{
	asm.OpNeg: "neg", asm.OpNot: "not",
	asm.OpAdd: "add", asm.OpSub: "sub", asm.OpMult: "imul",
	asm.OpAnd: "and", asm.OpOr: "or", asm.OpXor: "xor",
	asm.OpShl: "shl", asm.OpSar: "sar", asm.OpShr: "shr",
}

var doubleOps = map[asm.Op]string{
	asm.OpAdd: "addsd", asm.OpSub: "subsd", asm.OpMult: "mulsd",
	asm.OpDivDouble: "divsd", asm.OpXor: "xorpd",
}

func (e *Emitter) line(format string, args ...any) {
	e.buf.WriteString("\t")
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteString("\n")
}

func (e *Emitter) emitInstr(in asm.Instr) error {
	for _, o := range in.Operands() {
		if o.IsPseudo() {
			return fmt.Errorf("%w %s in %s", ErrUnallocated, o, in)
		}
	}
	size := in.Type.Size()
	switch in.Kind {
	case asm.Mov:
		if in.Type == asm.Double {
			e.line("movsd %s, %s", e.operand(in.Src, 8), e.operand(in.Dst, 8))
			return nil
		}
		e.line("mov%s %s, %s", suffix(in.Type), e.operand(in.Src, size), e.operand(in.Dst, size))
	case asm.Movsx:
		e.line("movs%s%s %s, %s", suffix(in.SrcType), suffix(in.Type), e.operand(in.Src, in.SrcType.Size()), e.operand(in.Dst, size))
	case asm.MovZeroExtend:
		return fmt.Errorf("zero extension was not legalized: %s", in)
	case asm.Lea:
		e.line("leaq %s, %s", e.operand(in.Src, 8), e.operand(in.Dst, 8))
	case asm.Cvttsd2si:
		e.line("cvttsd2si%s %s, %s", suffix(in.Type), e.operand(in.Src, 8), e.operand(in.Dst, size))
	case asm.Cvtsi2sd:
		e.line("cvtsi2sd%s %s, %s", suffix(in.Type), e.operand(in.Src, size), e.operand(in.Dst, 8))
	case asm.Unary:
		e.line("%s%s %s", intOps[in.Op], suffix(in.Type), e.operand(in.Dst, size))
	case asm.Binary:
		if in.Type == asm.Double {
			e.line("%s %s, %s", doubleOps[in.Op], e.operand(in.Src, 8), e.operand(in.Dst, 8))
			return nil
		}
		srcSize := size
		if in.Op.IsShift() {
			srcSize = 1
		}
		e.line("%s%s %s, %s", intOps[in.Op], suffix(in.Type), e.operand(in.Src, srcSize), e.operand(in.Dst, size))
	case asm.Cmp:
		if in.Type == asm.Double {
			e.line("comisd %s, %s", e.operand(in.Src, 8), e.operand(in.Dst, 8))
			return nil
		}
		e.line("cmp%s %s, %s", suffix(in.Type), e.operand(in.Src, size), e.operand(in.Dst, size))
	case asm.Idiv:
		e.line("idiv%s %s", suffix(in.Type), e.operand(in.Src, size))
	case asm.Div:
		e.line("div%s %s", suffix(in.Type), e.operand(in.Src, size))
	case asm.Cdq:
		if in.Type == asm.Quad {
			e.line("cqo")
		} else {
			e.line("cdq")
		}
	case asm.Jmp:
		e.line("jmp %s", e.label(in.Label))
	case asm.JmpCC:
		e.line("j%s %s", in.Cond, e.label(in.Label))
	case asm.SetCC:
		e.line("set%s %s", in.Cond, e.operand(in.Dst, 1))
	case asm.Label:
		fmt.Fprintf(&e.buf, "%s:\n", e.label(in.Label))
	case asm.Push:
		e.line("pushq %s", e.operand(in.Src, 8))
	case asm.Pop:
		e.line("popq %s", e.operand(in.Dst, 8))
	case asm.Call:
		e.line("call %s", e.callee(in.Func))
	case asm.Ret:
		e.line("ret")
	default:
		return fmt.Errorf("unknown instruction kind %s", in.Kind)
	}
	return nil
}

func (e *Emitter) callee(name string) string {
	sym := e.symbol(name)
	if e.tgt.CallsThroughPLT() && !e.prog.Defines(name) {
		return sym + "@PLT"
	}
	return sym
}

// operand formats o for an access of size bytes.
func (e *Emitter) operand(o asm.Operand, size int64) string {
	switch o.Kind {
	case asm.OpdImm:
		return fmt.Sprintf("$%d", o.Imm)
	case asm.OpdReg:
		return "%" + o.Reg.Name(size)
	case asm.OpdStack:
		return fmt.Sprintf("%d(%%rbp)", o.Offset)
	case asm.OpdMemory:
		return fmt.Sprintf("%d(%%%s)", o.Offset, o.Reg.Name(8))
	case asm.OpdIndexed:
		return fmt.Sprintf("(%%%s,%%%s,%d)", o.Reg.Name(8), o.Index.Name(8), o.Scale)
	case asm.OpdData:
		if o.Offset != 0 {
			return fmt.Sprintf("%s+%d(%%rip)", e.symbol(o.Name), o.Offset)
		}
		return e.symbol(o.Name) + "(%rip)"
	}
	return o.String()
}
