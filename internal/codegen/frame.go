package codegen

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"mcc/internal/asm"
	"mcc/internal/regalloc"
)

// needsFrame reports whether the body touches the stack frame: slots, saved
// registers, calls that need an aligned stack, or incoming stack arguments.
func needsFrame(res *regalloc.Result) bool {
	if res.SlotBytes > 0 || len(res.CalleeSaved) > 0 {
		return true
	}
	for i := range res.Instrs {
		in := &res.Instrs[i]
		if in.Kind == asm.Call {
			return true
		}
		for _, o := range in.Operands() {
			if o.Kind == asm.OpdStack || o.Kind == asm.OpdMemory && o.Reg == asm.BP {
				return true
			}
		}
	}
	return false
}

// finalize builds the frame of an allocated body. The frame is the saved
// registers plus the slot area, rounded up so %rsp stays 16-byte aligned
// at calls. Every return is preceded by the matching epilogue.
func finalize(fn *asm.Function, res *regalloc.Result) (*asm.Function, error) {
	out := &asm.Function{
		Name:        fn.Name,
		Global:      fn.Global,
		Span:        fn.Span,
		CalleeSaved: res.CalleeSaved,
	}
	if !needsFrame(res) {
		out.Instrs = res.Instrs
		return out, nil
	}

	n, err := safecast.Conv[int64](len(res.CalleeSaved))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name, err)
	}
	saved := 8 * n
	out.FrameSize = alignUp(saved+res.SlotBytes, 16)
	alloc := out.FrameSize - saved

	instrs := make([]asm.Instr, 0, len(res.Instrs)+8)
	instrs = append(instrs,
		asm.Instr{Kind: asm.Push, Type: asm.Quad, Src: asm.Register(asm.BP)},
		asm.Instr{Kind: asm.Mov, Type: asm.Quad, Src: asm.Register(asm.SP), Dst: asm.Register(asm.BP)},
	)
	for _, r := range res.CalleeSaved {
		instrs = append(instrs, asm.Instr{Kind: asm.Push, Type: asm.Quad, Src: asm.Register(r)})
	}
	if alloc > 0 {
		instrs = append(instrs, asm.Instr{Kind: asm.Binary, Op: asm.OpSub, Type: asm.Quad, Src: asm.Imm(alloc), Dst: asm.Register(asm.SP)})
	}

	for _, in := range res.Instrs {
		if in.Kind != asm.Ret {
			instrs = append(instrs, in)
			continue
		}
		if alloc > 0 {
			instrs = append(instrs, asm.Instr{Kind: asm.Binary, Op: asm.OpAdd, Type: asm.Quad, Src: asm.Imm(alloc), Dst: asm.Register(asm.SP)})
		}
		for _, r := range slices.Backward(res.CalleeSaved) {
			instrs = append(instrs, asm.Instr{Kind: asm.Pop, Type: asm.Quad, Dst: asm.Register(r)})
		}
		instrs = append(instrs, asm.Instr{Kind: asm.Pop, Type: asm.Quad, Dst: asm.Register(asm.BP)}, in)
	}
	out.Instrs = instrs
	return out, nil
}

func alignUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}
