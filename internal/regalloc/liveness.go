package regalloc

import (
	"math/bits"

	"mcc/internal/asm"
)

// bitset is a dense set of node indices.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int)      { b[i/64] |= 1 << (uint(i) % 64) }
func (b bitset) clear(i int)    { b[i/64] &^= 1 << (uint(i) % 64) }
func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }

func fullBitset(n int) bitset {
	b := newBitset(n)
	for i := range n {
		b.set(i)
	}
	return b
}

func (b bitset) copyFrom(o bitset) { copy(b, o) }

func (b bitset) intersectWith(o bitset) {
	for i := range b {
		b[i] &= o[i]
	}
}

func (b bitset) equal(o bitset) bool {
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// unionWith adds o to b and reports whether b grew.
func (b bitset) unionWith(o bitset) bool {
	changed := false
	for i := range b {
		v := b[i] | o[i]
		if v != b[i] {
			b[i] = v
			changed = true
		}
	}
	return changed
}

func (b bitset) each(fn func(int)) {
	for w, word := range b {
		for word != 0 {
			fn(w*64 + bits.TrailingZeros64(word))
			word &= word - 1
		}
	}
}

// block is a maximal straight-line range [start, end) of instructions.
type block struct {
	start, end int
	succs      []int
}

// buildCFG splits instrs into basic blocks. Blocks start at labels and after
// jumps and returns.
func buildCFG(instrs []asm.Instr) []block {
	var blocks []block
	labelBlock := make(map[string]int)
	start := 0
	flush := func(end int) {
		if end > start {
			blocks = append(blocks, block{start: start, end: end})
		}
		start = end
	}
	for i, in := range instrs {
		switch in.Kind {
		case asm.Label:
			flush(i)
			labelBlock[in.Label] = len(blocks)
		case asm.Jmp, asm.JmpCC, asm.Ret:
			flush(i + 1)
		}
	}
	flush(len(instrs))

	for bi := range blocks {
		b := &blocks[bi]
		last := instrs[b.end-1]
		switch last.Kind {
		case asm.Ret:
		case asm.Jmp:
			if t, ok := labelBlock[last.Label]; ok {
				b.succs = append(b.succs, t)
			}
		default:
			if last.Kind == asm.JmpCC {
				if t, ok := labelBlock[last.Label]; ok {
					b.succs = append(b.succs, t)
				}
			}
			if bi+1 < len(blocks) {
				b.succs = append(b.succs, bi+1)
			}
		}
	}
	return blocks
}

// liveness computes, for every instruction, the set of nodes live right after it.
func (a *allocator) liveness() []bitset {
	instrs := a.instrs
	blocks := buildCFG(instrs)
	n := a.numNodes()

	liveIn := make([]bitset, len(blocks))
	liveOut := make([]bitset, len(blocks))
	for i := range blocks {
		liveIn[i] = newBitset(n)
		liveOut[i] = newBitset(n)
	}

	cur := newBitset(n)
	for changed := true; changed; {
		changed = false
		for bi := len(blocks) - 1; bi >= 0; bi-- {
			b := blocks[bi]
			for _, s := range b.succs {
				liveOut[bi].unionWith(liveIn[s])
			}
			cur.copyFrom(liveOut[bi])
			for i := b.end - 1; i >= b.start; i-- {
				a.transfer(instrs[i], cur)
			}
			if liveIn[bi].unionWith(cur) {
				changed = true
			}
		}
	}

	after := make([]bitset, len(instrs))
	for bi, b := range blocks {
		cur.copyFrom(liveOut[bi])
		for i := b.end - 1; i >= b.start; i-- {
			after[i] = newBitset(n)
			after[i].copyFrom(cur)
			a.transfer(instrs[i], cur)
		}
	}
	return after
}

// transfer turns the live-after set of in into its live-before set.
func (a *allocator) transfer(in asm.Instr, live bitset) {
	reads, writes := in.Effects()
	for _, w := range writes {
		if n, ok := a.node(w); ok {
			live.clear(n)
		}
	}
	for _, r := range reads {
		if n, ok := a.node(r); ok {
			live.set(n)
		}
	}
}
