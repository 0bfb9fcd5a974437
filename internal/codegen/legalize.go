package codegen

import (
	"mcc/internal/asm"
)

var (
	srcScratch    = asm.Register(asm.ScratchSrc)
	dstScratch    = asm.Register(asm.ScratchDst)
	dblSrcScratch = asm.Register(asm.ScratchDoubleSrc)
	dblDstScratch = asm.Register(asm.ScratchDoubleDst)
)

// truncImm reduces an immediate to the width of t so the assembler accepts
// it; unsigned 32-bit constants become their signed equivalent.
func truncImm(t asm.Type, o asm.Operand) asm.Operand {
	if o.Kind != asm.OpdImm {
		return o
	}
	switch t {
	case asm.Long:
		o.Imm = int64(int32(o.Imm)) // #nosec G115 -- same bits
	case asm.Byte:
		o.Imm = int64(int8(o.Imm)) // #nosec G115 -- same bits
	}
	return o
}

func isReg(o asm.Operand) bool { return o.Kind == asm.OpdReg }

// legalizer rewrites instructions whose operand combination x86-64 cannot
// encode, using the scratch registers the allocator never hands out.
type legalizer struct {
	out []asm.Instr
}

func legalize(instrs []asm.Instr) []asm.Instr {
	l := &legalizer{out: make([]asm.Instr, 0, len(instrs))}
	for _, in := range instrs {
		l.instr(in)
	}
	return l.out
}

func (l *legalizer) emit(in asm.Instr) { l.out = append(l.out, in) }

func (l *legalizer) mov(t asm.Type, src, dst asm.Operand) {
	l.emit(asm.Instr{Kind: asm.Mov, Type: t, Src: src, Dst: dst})
}

func (l *legalizer) instr(in asm.Instr) {
	switch in.Kind {
	case asm.Mov:
		l.move(in)
	case asm.Movsx:
		src, dst := truncImm(in.SrcType, in.Src), in.Dst
		if src.Kind == asm.OpdImm {
			l.mov(in.SrcType, src, srcScratch)
			src = srcScratch
		}
		if isReg(dst) {
			l.emit(asm.Instr{Kind: asm.Movsx, SrcType: in.SrcType, Type: in.Type, Src: src, Dst: dst})
			return
		}
		l.emit(asm.Instr{Kind: asm.Movsx, SrcType: in.SrcType, Type: in.Type, Src: src, Dst: dstScratch})
		l.mov(in.Type, dstScratch, dst)
	case asm.MovZeroExtend:
		// A 32-bit move into a register clears the upper half.
		src := truncImm(in.SrcType, in.Src)
		if isReg(in.Dst) {
			l.mov(in.SrcType, src, in.Dst)
			return
		}
		l.mov(in.SrcType, src, dstScratch)
		l.mov(in.Type, dstScratch, in.Dst)
	case asm.Lea:
		if isReg(in.Dst) {
			l.emit(in)
			return
		}
		l.emit(asm.Instr{Kind: asm.Lea, Type: asm.Quad, Src: in.Src, Dst: dstScratch})
		l.mov(asm.Quad, dstScratch, in.Dst)
	case asm.Cvttsd2si:
		if isReg(in.Dst) {
			l.emit(in)
			return
		}
		l.emit(asm.Instr{Kind: asm.Cvttsd2si, Type: in.Type, Src: in.Src, Dst: dstScratch})
		l.mov(in.Type, dstScratch, in.Dst)
	case asm.Cvtsi2sd:
		src := truncImm(in.Type, in.Src)
		if src.Kind == asm.OpdImm {
			l.mov(in.Type, src, srcScratch)
			src = srcScratch
		}
		if isReg(in.Dst) {
			l.emit(asm.Instr{Kind: asm.Cvtsi2sd, Type: in.Type, Src: src, Dst: in.Dst})
			return
		}
		l.emit(asm.Instr{Kind: asm.Cvtsi2sd, Type: in.Type, Src: src, Dst: dblDstScratch})
		l.mov(asm.Double, dblDstScratch, in.Dst)
	case asm.Binary:
		l.binary(in)
	case asm.Cmp:
		l.cmp(in)
	case asm.Idiv, asm.Div:
		if in.Src.Kind == asm.OpdImm {
			l.mov(in.Type, truncImm(in.Type, in.Src), srcScratch)
			in.Src = srcScratch
		}
		l.emit(in)
	case asm.Push:
		if !in.Src.FitsInt32() {
			l.mov(asm.Quad, in.Src, srcScratch)
			in.Src = srcScratch
		}
		l.emit(in)
	default:
		l.emit(in)
	}
}

func (l *legalizer) move(in asm.Instr) {
	src, dst := truncImm(in.Type, in.Src), in.Dst
	switch {
	case isReg(src) && src == dst:
		// Identity moves left by coalescing.
	case in.Type == asm.Double && src.IsMemory() && dst.IsMemory():
		l.mov(asm.Double, src, dblSrcScratch)
		l.mov(asm.Double, dblSrcScratch, dst)
	case in.Type == asm.Quad && !src.FitsInt32() && !isReg(dst):
		l.mov(asm.Quad, src, srcScratch)
		l.mov(asm.Quad, srcScratch, dst)
	case src.IsMemory() && dst.IsMemory():
		l.mov(in.Type, src, srcScratch)
		l.mov(in.Type, srcScratch, dst)
	default:
		l.mov(in.Type, src, dst)
	}
}

func (l *legalizer) binary(in asm.Instr) {
	if in.Type == asm.Double {
		if isReg(in.Dst) {
			l.emit(in)
			return
		}
		if in.Op == asm.OpXor && in.Src == in.Dst {
			l.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpXor, Type: asm.Double, Src: dblDstScratch, Dst: dblDstScratch})
			l.mov(asm.Double, dblDstScratch, in.Dst)
			return
		}
		l.mov(asm.Double, in.Dst, dblDstScratch)
		l.emit(asm.Instr{Kind: asm.Binary, Op: in.Op, Type: asm.Double, Src: in.Src, Dst: dblDstScratch})
		l.mov(asm.Double, dblDstScratch, in.Dst)
		return
	}

	src := truncImm(in.Type, in.Src)
	if in.Op.IsShift() {
		if src.Kind == asm.OpdImm {
			src.Imm &= in.Type.Size()*8 - 1
		}
		l.emit(asm.Instr{Kind: asm.Binary, Op: in.Op, Type: in.Type, Src: src, Dst: in.Dst})
		return
	}
	if !src.FitsInt32() || src.IsMemory() && in.Dst.IsMemory() {
		l.mov(in.Type, src, srcScratch)
		src = srcScratch
	}
	if in.Op == asm.OpMult && !isReg(in.Dst) {
		l.mov(in.Type, in.Dst, dstScratch)
		l.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpMult, Type: in.Type, Src: src, Dst: dstScratch})
		l.mov(in.Type, dstScratch, in.Dst)
		return
	}
	l.emit(asm.Instr{Kind: asm.Binary, Op: in.Op, Type: in.Type, Src: src, Dst: in.Dst})
}

func (l *legalizer) cmp(in asm.Instr) {
	if in.Type == asm.Double {
		if isReg(in.Dst) {
			l.emit(in)
			return
		}
		l.mov(asm.Double, in.Dst, dblDstScratch)
		l.emit(asm.Instr{Kind: asm.Cmp, Type: asm.Double, Src: in.Src, Dst: dblDstScratch})
		return
	}
	src, dst := truncImm(in.Type, in.Src), truncImm(in.Type, in.Dst)
	if !src.FitsInt32() || src.IsMemory() && dst.IsMemory() {
		l.mov(in.Type, src, srcScratch)
		src = srcScratch
	}
	if dst.Kind == asm.OpdImm {
		l.mov(in.Type, dst, dstScratch)
		dst = dstScratch
	}
	l.emit(asm.Instr{Kind: asm.Cmp, Type: in.Type, Src: src, Dst: dst})
}
