package regalloc

import (
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"

	"mcc/internal/asm"
)

// ErrUnknownPseudo is returned when an operand names a pseudo the function
// does not declare.
var ErrUnknownPseudo = errors.New("unknown pseudo")

// Allocatable registers in preference order. Caller-saved registers come
// first so leaf code does not pay for saving callee-saved ones.
var (
	gpRegs = []asm.Reg{
		asm.AX, asm.CX, asm.DX, asm.SI, asm.DI, asm.R8, asm.R9,
		asm.BX, asm.R12, asm.R13, asm.R14, asm.R15,
	}
	sseRegs = []asm.Reg{
		asm.XMM0, asm.XMM1, asm.XMM2, asm.XMM3, asm.XMM4, asm.XMM5, asm.XMM6,
		asm.XMM7, asm.XMM8, asm.XMM9, asm.XMM10, asm.XMM11, asm.XMM12, asm.XMM13,
	}
)

// Result is the allocated body of a function. Stack operands are relative to
// %rbp and lie below the callee-saved registers the prologue pushes.
type Result struct {
	Instrs      []asm.Instr
	CalleeSaved []asm.Reg
	// SlotBytes is the size of the slot area below the saved registers.
	SlotBytes int64
	// Spilled lists the pseudos that did not get a register, by ascending id.
	Spilled []string
	// Slots maps every pseudo living in memory to its %rbp offset.
	Slots map[string]int64
}

// allocator holds the interference graph. Nodes are dense: physical
// registers first, then pseudos in order of first appearance.
type allocator struct {
	instrs  []asm.Instr
	pseudos []asm.PseudoInfo
	index   map[string]int

	adj    []bitset
	degree []int
	moves  [][]int
	cost   []int
	color  []int // register of a pseudo node, -1 when spilled or unset
}

func (a *allocator) numNodes() int { return asm.NumRegs + len(a.pseudos) }

// node maps a register or register-candidate pseudo to its node index.
func (a *allocator) node(o asm.Operand) (int, bool) {
	switch o.Kind {
	case asm.OpdReg:
		return int(o.Reg), true
	case asm.OpdPseudo:
		if id, ok := a.index[o.Name]; ok && !a.pseudos[id].InMemory {
			return asm.NumRegs + id, true
		}
	}
	return 0, false
}

func (a *allocator) isSSE(n int) bool {
	if n < asm.NumRegs {
		return asm.Reg(n).IsSSE()
	}
	return a.pseudos[n-asm.NumRegs].Type == asm.Double
}

// Allocate assigns every pseudo of fn a register or a frame slot. fn is not
// modified.
func Allocate(fn *asm.Function) (*Result, error) {
	a := &allocator{
		instrs:  append([]asm.Instr(nil), fn.Instrs...),
		pseudos: fn.Pseudos,
		index:   make(map[string]int, len(fn.Pseudos)),
	}
	for i, p := range fn.Pseudos {
		a.index[p.Name] = i
	}
	for i := range a.instrs {
		for _, o := range a.instrs[i].Operands() {
			if o.IsPseudo() {
				if _, ok := a.index[o.Name]; !ok {
					return nil, fmt.Errorf("%w %q in %s", ErrUnknownPseudo, o.Name, fn.Name)
				}
			}
		}
	}

	a.initializeLiveIns()
	a.build(a.liveness())
	spilled := a.colorClass(false, gpRegs)
	spilled = append(spilled, a.colorClass(true, sseRegs)...)

	res := &Result{Slots: make(map[string]int64)}
	for _, r := range asm.CalleeSaved {
		for id := range a.pseudos {
			if a.color[asm.NumRegs+id] == int(r) {
				res.CalleeSaved = append(res.CalleeSaved, r)
				break
			}
		}
	}
	isSpilled := make(map[int]bool, len(spilled))
	for _, id := range spilled {
		isSpilled[id] = true
	}
	saved, err := safecast.Conv[int64](len(res.CalleeSaved))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name, err)
	}
	res.SlotBytes = a.assignSlots(8*saved, isSpilled, res.Slots)
	for id, p := range a.pseudos {
		if isSpilled[id] {
			res.Spilled = append(res.Spilled, p.Name)
		}
	}
	res.Instrs = a.rewrite(res.Slots)
	return res, nil
}

// initializeLiveIns zeroes pseudos that may be read before any write, so no
// register is read uninitialized whatever the source program does.
func (a *allocator) initializeLiveIns() {
	if len(a.instrs) == 0 {
		return
	}
	live := newBitset(a.numNodes())
	live.copyFrom(a.liveness()[0])
	a.transfer(a.instrs[0], live)

	var init []asm.Instr
	live.each(func(n int) {
		if n < asm.NumRegs {
			return
		}
		p := a.pseudos[n-asm.NumRegs]
		o := asm.Pseudo(p.Name)
		if p.Type == asm.Double {
			init = append(init, asm.Instr{Kind: asm.Binary, Op: asm.OpXor, Type: asm.Double, Src: o, Dst: o})
			return
		}
		init = append(init, asm.Instr{Kind: asm.Mov, Type: p.Type, Src: asm.Imm(0), Dst: o})
	})
	if len(init) > 0 {
		a.instrs = append(init, a.instrs...)
	}
}

func (a *allocator) addEdge(x, y int) {
	if x == y || a.adj[x].has(y) {
		return
	}
	a.adj[x].set(y)
	a.adj[y].set(x)
	a.degree[x]++
	a.degree[y]++
}

func (a *allocator) addMove(x, y int) {
	for _, m := range a.moves[x] {
		if m == y {
			return
		}
	}
	a.moves[x] = append(a.moves[x], y)
	a.moves[y] = append(a.moves[y], x)
}

// build creates the interference graph: every write interferes with all
// nodes of its class live after the instruction, except the source of a move.
func (a *allocator) build(after []bitset) {
	n := a.numNodes()
	a.adj = make([]bitset, n)
	for i := range a.adj {
		a.adj[i] = newBitset(n)
	}
	a.degree = make([]int, n)
	a.moves = make([][]int, n)
	a.cost = make([]int, n)
	a.color = make([]int, n)
	for i := range a.color {
		a.color[i] = -1
	}

	for i, in := range a.instrs {
		reads, writes := in.Effects()
		moveSrc := -1
		if in.Kind == asm.Mov {
			src, srcOK := a.node(in.Src)
			dst, dstOK := a.node(in.Dst)
			if srcOK && dstOK && a.isSSE(src) == a.isSSE(dst) {
				moveSrc = src
				a.addMove(src, dst)
			}
		}
		for _, r := range reads {
			if rn, ok := a.node(r); ok {
				a.cost[rn]++
			}
		}
		for _, w := range writes {
			wn, ok := a.node(w)
			if !ok {
				continue
			}
			a.cost[wn]++
			after[i].each(func(l int) {
				if l == wn || l == moveSrc || a.isSSE(l) != a.isSSE(wn) {
					return
				}
				if l < asm.NumRegs && wn < asm.NumRegs {
					return
				}
				a.addEdge(l, wn)
			})
		}
	}
}

// colorClass colors the pseudos of one register class with Chaitin-Briggs
// simplification and optimistic spilling. All choices scan nodes by ascending
// pseudo id, which makes the result deterministic. It returns the ids of
// pseudos left without a register.
func (a *allocator) colorClass(sse bool, regs []asm.Reg) []int {
	allowed := make(map[int]bool, len(regs))
	for _, r := range regs {
		allowed[int(r)] = true
	}
	var nodes []int
	for id, p := range a.pseudos {
		n := asm.NumRegs + id
		if !p.InMemory && a.isSSE(n) == sse {
			nodes = append(nodes, n)
		}
	}
	inClass := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		inClass[n] = true
	}

	// Only neighbors that constrain the color count toward the degree.
	deg := make(map[int]int, len(nodes))
	for _, n := range nodes {
		a.adj[n].each(func(m int) {
			if inClass[m] || allowed[m] {
				deg[n]++
			}
		})
	}

	k := len(regs)
	removed := make(map[int]bool, len(nodes))
	stack := make([]int, 0, len(nodes))
	for len(stack) < len(nodes) {
		pick := -1
		for _, n := range nodes {
			if !removed[n] && deg[n] < k {
				pick = n
				break
			}
		}
		if pick < 0 {
			for _, n := range nodes {
				if removed[n] {
					continue
				}
				// Lowest cost per degree goes first; strict comparison keeps the lowest id on ties.
				if pick < 0 || a.cost[n]*deg[pick] < a.cost[pick]*deg[n] {
					pick = n
				}
			}
		}
		removed[pick] = true
		stack = append(stack, pick)
		a.adj[pick].each(func(m int) {
			if inClass[m] && !removed[m] {
				deg[m]--
			}
		})
	}

	var spilled []int
	for i := len(stack) - 1; i >= 0; i-- {
		n := stack[i]
		used := make(map[int]bool)
		a.adj[n].each(func(m int) {
			if m < asm.NumRegs {
				used[m] = true
			} else if a.color[m] >= 0 {
				used[a.color[m]] = true
			}
		})
		chosen := -1
		for _, p := range a.moves[n] {
			c := p
			if p >= asm.NumRegs {
				c = a.color[p]
			}
			if c >= 0 && allowed[c] && !used[c] {
				chosen = c
				break
			}
		}
		if chosen < 0 {
			for _, r := range regs {
				if !used[int(r)] {
					chosen = int(r)
					break
				}
			}
		}
		if chosen < 0 {
			spilled = append(spilled, n-asm.NumRegs)
			continue
		}
		a.color[n] = chosen
	}
	slices.Sort(spilled)
	return spilled
}

// assignSlots gives memory pseudos and spilled pseudos disjoint, aligned
// slots below base bytes of saved registers, by ascending pseudo id.
func (a *allocator) assignSlots(base int64, spilled map[int]bool, slots map[string]int64) int64 {
	var used int64
	for id, p := range a.pseudos {
		if !p.InMemory && !spilled[id] {
			continue
		}
		align := max(p.Align, 1)
		end := alignUp(base+used+p.Size, align)
		used = end - base
		slots[p.Name] = -end
	}
	return used
}

func alignUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}

func (a *allocator) rewrite(slots map[string]int64) []asm.Instr {
	out := make([]asm.Instr, len(a.instrs))
	for i, in := range a.instrs {
		for _, o := range in.Operands() {
			switch o.Kind {
			case asm.OpdPseudo:
				if off, inMem := slots[o.Name]; inMem {
					*o = asm.Stack(off)
					continue
				}
				*o = asm.Register(asm.Reg(a.color[asm.NumRegs+a.index[o.Name]]))
			case asm.OpdPseudoMem:
				*o = asm.Stack(slots[o.Name] + o.Offset)
			}
		}
		out[i] = in
	}
	return out
}
