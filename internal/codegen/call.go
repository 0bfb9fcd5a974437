package codegen

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"mcc/internal/asm"
	"mcc/internal/tacky"
	"mcc/internal/types"
)

// classified splits values into integer register, SSE register and stack
// groups following the System V order.
type classified struct {
	ints, doubles []tacky.Val
	stack         []tacky.Val
}

func classify(vals []tacky.Val) classified {
	var c classified
	for _, v := range vals {
		switch {
		case v.Type.Kind == types.Double && len(c.doubles) < len(asm.DoubleArgRegs):
			c.doubles = append(c.doubles, v)
		case v.Type.Kind != types.Double && len(c.ints) < len(asm.IntArgRegs):
			c.ints = append(c.ints, v)
		default:
			c.stack = append(c.stack, v)
		}
	}
	return c
}

// params copies incoming arguments into the parameter pseudos. Stack
// arguments sit above the saved frame pointer and the return address.
func (s *selector) params() {
	c := classify(s.fn.Params)
	for i, p := range c.ints {
		s.mov(asmType(p.Type), asm.Register(asm.IntArgRegs[i]), s.operand(p))
	}
	for i, p := range c.doubles {
		s.mov(asm.Double, asm.Register(asm.DoubleArgRegs[i]), s.operand(p))
	}
	for i, p := range c.stack {
		s.mov(asmType(p.Type), asm.Stack(16+8*int64(i)), s.operand(p))
	}
}

func (s *selector) call(in tacky.Instr) {
	c := classify(in.Args)

	var pad int64
	if len(c.stack)%2 == 1 {
		pad = 8
		s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpSub, Type: asm.Quad, Src: asm.Imm(pad), Dst: asm.Register(asm.SP)})
	}
	for i := len(c.stack) - 1; i >= 0; i-- {
		arg := c.stack[i]
		op := s.operand(arg)
		switch t := asmType(arg.Type); {
		case t == asm.Double:
			s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpSub, Type: asm.Quad, Src: asm.Imm(8), Dst: asm.Register(asm.SP)})
			s.mov(asm.Double, op, asm.Memory(asm.SP, 0))
		case t == asm.Quad || op.Kind == asm.OpdImm:
			s.emit(asm.Instr{Kind: asm.Push, Type: asm.Quad, Src: op})
		default:
			// A 4-byte slot cannot be pushed directly without reading past it.
			s.mov(asm.Long, op, asm.Register(asm.AX))
			s.emit(asm.Instr{Kind: asm.Push, Type: asm.Quad, Src: asm.Register(asm.AX)})
		}
	}

	var regs []asm.Reg
	for i, arg := range c.ints {
		r := asm.IntArgRegs[i]
		s.mov(asmType(arg.Type), s.operand(arg), asm.Register(r))
		regs = append(regs, r)
	}
	for i, arg := range c.doubles {
		r := asm.DoubleArgRegs[i]
		s.mov(asm.Double, s.operand(arg), asm.Register(r))
		regs = append(regs, r)
	}
	s.emit(asm.Instr{Kind: asm.Call, Func: in.Func, Regs: regs})

	if n := 8*int64(len(c.stack)) + pad; n > 0 {
		s.emit(asm.Instr{Kind: asm.Binary, Op: asm.OpAdd, Type: asm.Quad, Src: asm.Imm(n), Dst: asm.Register(asm.SP)})
	}
	if in.Dst.Type.Kind == types.Double {
		s.mov(asm.Double, asm.Register(asm.XMM0), s.operand(in.Dst))
		return
	}
	s.mov(asmType(in.Dst.Type), asm.Register(asm.AX), s.operand(in.Dst))
}

type constKey struct {
	bits  uint64
	align int64
}

// constPool interns floating point literals. Names depend only on the bit
// pattern and alignment, so pools of separate functions merge by name.
type constPool struct {
	consts []asm.Constant
	index  map[constKey]int
}

func newConstPool() *constPool {
	return &constPool{index: make(map[constKey]int)}
}

func (p *constPool) double(f float64, align int64) string {
	k := constKey{bits: math.Float64bits(f), align: align}
	if i, ok := p.index[k]; ok {
		return p.consts[i].Name
	}
	name := fmt.Sprintf("dbl.%016x", k.bits)
	if align != 8 {
		name = fmt.Sprintf("dbl%d.%016x", align, k.bits)
	}
	p.index[k] = len(p.consts)
	p.consts = append(p.consts, asm.Constant{Name: name, Align: align, Bits: k.bits})
	return name
}

// mergeConstants joins per-function pools, dropping duplicate names and
// ordering the result by name.
func mergeConstants(pools ...[]asm.Constant) []asm.Constant {
	seen := make(map[string]bool)
	var out []asm.Constant
	for _, pool := range pools {
		for _, c := range pool {
			if !seen[c.Name] {
				seen[c.Name] = true
				out = append(out, c)
			}
		}
	}
	slices.SortFunc(out, func(a, b asm.Constant) int { return strings.Compare(a.Name, b.Name) })
	return out
}
