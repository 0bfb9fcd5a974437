package regalloc

import (
	"errors"
	"fmt"

	"mcc/internal/asm"
)

// ErrUndefinedRead is returned by Verify when a register may be read before
// it is written.
var ErrUndefinedRead = errors.New("register read before definition")

// Verify checks a function after allocation: every physical register an
// instruction reads must be written on every path from the entry, and a call
// leaves only its return registers defined among the caller-saved ones. The
// entry state holds the stack and frame pointers, the argument registers and
// the callee-saved registers.
func Verify(fn *asm.Function) error {
	instrs := fn.Instrs
	if len(instrs) == 0 {
		return nil
	}
	for i := range instrs {
		for _, o := range instrs[i].Operands() {
			if o.Kind == asm.OpdPseudo || o.Kind == asm.OpdPseudoMem {
				return fmt.Errorf("%s: instruction %d (%s): unallocated operand %s", fn.Name, i, instrs[i], o)
			}
		}
	}

	blocks := buildCFG(instrs)
	preds := make([][]int, len(blocks))
	for bi, b := range blocks {
		for _, s := range b.succs {
			preds[s] = append(preds[s], bi)
		}
	}

	entry := newBitset(asm.NumRegs)
	entry.set(int(asm.SP))
	entry.set(int(asm.BP))
	for _, set := range [][]asm.Reg{asm.IntArgRegs, asm.DoubleArgRegs, asm.CalleeSaved} {
		for _, r := range set {
			entry.set(int(r))
		}
	}

	// Must-defined sets start full and shrink to a fixed point.
	in := make([]bitset, len(blocks))
	out := make([]bitset, len(blocks))
	for i := range blocks {
		in[i] = fullBitset(asm.NumRegs)
		out[i] = fullBitset(asm.NumRegs)
	}
	cur := newBitset(asm.NumRegs)
	for changed := true; changed; {
		changed = false
		for bi, b := range blocks {
			switch {
			case bi == 0:
				in[bi].copyFrom(entry)
				for _, p := range preds[bi] {
					in[bi].intersectWith(out[p])
				}
			case len(preds[bi]) > 0:
				in[bi].copyFrom(out[preds[bi][0]])
				for _, p := range preds[bi][1:] {
					in[bi].intersectWith(out[p])
				}
			}
			cur.copyFrom(in[bi])
			for i := b.start; i < b.end; i++ {
				define(instrs[i], cur)
			}
			if !out[bi].equal(cur) {
				out[bi].copyFrom(cur)
				changed = true
			}
		}
	}

	for bi, b := range blocks {
		cur.copyFrom(in[bi])
		for i := b.start; i < b.end; i++ {
			reads, _ := instrs[i].Effects()
			for _, r := range reads {
				if r.Kind == asm.OpdReg && !cur.has(int(r.Reg)) {
					return fmt.Errorf("%w: %s: instruction %d (%s) reads %s", ErrUndefinedRead, fn.Name, i, instrs[i], r.Reg)
				}
			}
			define(instrs[i], cur)
		}
	}
	return nil
}

// define applies the register writes of in to the defined set.
func define(in asm.Instr, defined bitset) {
	if in.Kind == asm.Call {
		for r := range asm.Reg(asm.NumRegs) {
			if asm.CallerSaved(r) {
				defined.clear(int(r))
			}
		}
		defined.set(int(asm.AX))
		defined.set(int(asm.XMM0))
		return
	}
	_, writes := in.Effects()
	for _, w := range writes {
		if w.Kind == asm.OpdReg {
			defined.set(int(w.Reg))
		}
	}
}
