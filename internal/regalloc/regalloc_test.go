package regalloc_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/asm"
	"mcc/internal/regalloc"
)

func long(name string) asm.PseudoInfo {
	return asm.PseudoInfo{Name: name, Type: asm.Long, Size: 4, Align: 4}
}

func mov(t asm.Type, src, dst asm.Operand) asm.Instr {
	return asm.Instr{Kind: asm.Mov, Type: t, Src: src, Dst: dst}
}

func ret(regs ...asm.Reg) asm.Instr { return asm.Instr{Kind: asm.Ret, Regs: regs} }

// pressure builds a function keeping n long pseudos live at once.
func pressure(n int) *asm.Function {
	fn := &asm.Function{Name: "f"}
	for i := range n {
		name := fmt.Sprintf("t%d", i)
		fn.Pseudos = append(fn.Pseudos, long(name))
		fn.Instrs = append(fn.Instrs, mov(asm.Long, asm.Imm(int64(i)), asm.Pseudo(name)))
	}
	fn.Pseudos = append(fn.Pseudos, long("sum"))
	fn.Instrs = append(fn.Instrs, mov(asm.Long, asm.Imm(0), asm.Pseudo("sum")))
	for i := range n {
		fn.Instrs = append(fn.Instrs, asm.Instr{
			Kind: asm.Binary, Op: asm.OpAdd, Type: asm.Long,
			Src: asm.Pseudo(fmt.Sprintf("t%d", i)), Dst: asm.Pseudo("sum"),
		})
	}
	fn.Instrs = append(fn.Instrs, mov(asm.Long, asm.Pseudo("sum"), asm.Register(asm.AX)), ret(asm.AX))
	return fn
}

func allocated(t *testing.T, fn *asm.Function) *regalloc.Result {
	t.Helper()
	res, err := regalloc.Allocate(fn)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	out := &asm.Function{Name: fn.Name, Instrs: res.Instrs}
	if err := regalloc.Verify(out); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return res
}

func TestNoSpillUnderLowPressure(t *testing.T) {
	res := allocated(t, pressure(4))
	if len(res.Spilled) != 0 || res.SlotBytes != 0 {
		t.Fatalf("unexpected spills %v (%d bytes)", res.Spilled, res.SlotBytes)
	}
	for _, in := range res.Instrs {
		for _, o := range in.Operands() {
			if o.Kind == asm.OpdStack {
				t.Fatalf("stack operand in %s", in)
			}
		}
	}
}

func TestSpillUnderPressure(t *testing.T) {
	res := allocated(t, pressure(16))
	if len(res.Spilled) == 0 {
		t.Fatalf("expected spills with 17 simultaneously live values")
	}
	if res.SlotBytes < int64(4*len(res.Spilled)) {
		t.Fatalf("slot area %d too small for %d spills", res.SlotBytes, len(res.Spilled))
	}
	seen := make(map[int64]bool)
	for _, name := range res.Spilled {
		off, ok := res.Slots[name]
		if !ok || off >= 0 || off%4 != 0 {
			t.Fatalf("spill %s has slot %d", name, off)
		}
		if seen[off] {
			t.Fatalf("spill slots overlap at %d", off)
		}
		seen[off] = true
	}
}

func TestAllocationIsDeterministic(t *testing.T) {
	first := allocated(t, pressure(16))
	second := allocated(t, pressure(16))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("allocation differs between runs (-first +second):\n%s", diff)
	}
}

func TestMoveBiasCoalescesCopies(t *testing.T) {
	fn := &asm.Function{
		Name:    "id",
		Pseudos: []asm.PseudoInfo{long("x")},
		Instrs: []asm.Instr{
			mov(asm.Long, asm.Register(asm.DI), asm.Pseudo("x")),
			mov(asm.Long, asm.Pseudo("x"), asm.Register(asm.AX)),
			ret(asm.AX),
		},
	}
	res := allocated(t, fn)
	got := res.Instrs[0].Dst
	if !got.IsReg(asm.DI) && !got.IsReg(asm.AX) {
		t.Fatalf("x allocated to %s, want a move partner", got)
	}
}

func TestValueLiveAcrossCallUsesCalleeSaved(t *testing.T) {
	fn := &asm.Function{
		Name:    "g",
		Pseudos: []asm.PseudoInfo{long("x"), long("y")},
		Instrs: []asm.Instr{
			mov(asm.Long, asm.Register(asm.DI), asm.Pseudo("x")),
			{Kind: asm.Call, Func: "h"},
			mov(asm.Long, asm.Register(asm.AX), asm.Pseudo("y")),
			{Kind: asm.Binary, Op: asm.OpAdd, Type: asm.Long, Src: asm.Pseudo("x"), Dst: asm.Pseudo("y")},
			mov(asm.Long, asm.Pseudo("y"), asm.Register(asm.AX)),
			ret(asm.AX),
		},
	}
	res := allocated(t, fn)
	if diff := cmp.Diff([]asm.Reg{asm.BX}, res.CalleeSaved); diff != "" {
		t.Fatalf("callee-saved mismatch (-want +got):\n%s", diff)
	}
	if !res.Instrs[0].Dst.IsReg(asm.BX) {
		t.Fatalf("x allocated to %s, want %%rbx", res.Instrs[0].Dst)
	}
}

func TestMemoryPseudosGetAlignedSlots(t *testing.T) {
	fn := &asm.Function{
		Name: "arr",
		Pseudos: []asm.PseudoInfo{
			{Name: "c", Type: asm.Byte, Size: 1, Align: 1, InMemory: true},
			{Name: "a", Type: asm.Quad, Size: 24, Align: 16, InMemory: true},
		},
		Instrs: []asm.Instr{
			mov(asm.Byte, asm.Imm(1), asm.PseudoMem("c", 0)),
			mov(asm.Quad, asm.Imm(7), asm.PseudoMem("a", 8)),
			mov(asm.Quad, asm.PseudoMem("a", 8), asm.Register(asm.AX)),
			ret(asm.AX),
		},
	}
	res := allocated(t, fn)
	if diff := cmp.Diff(map[string]int64{"c": -1, "a": -32}, res.Slots); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
	if res.SlotBytes != 32 {
		t.Fatalf("SlotBytes = %d, want 32", res.SlotBytes)
	}
	if got := res.Instrs[1].Dst; got != asm.Stack(-24) {
		t.Fatalf("element operand = %s, want -24(%%rbp)", got)
	}
}

func TestUninitializedReadIsZeroed(t *testing.T) {
	fn := &asm.Function{
		Name:    "u",
		Pseudos: []asm.PseudoInfo{long("x")},
		Instrs: []asm.Instr{
			mov(asm.Long, asm.Pseudo("x"), asm.Register(asm.AX)),
			ret(asm.AX),
		},
	}
	res := allocated(t, fn)
	if len(res.Instrs) != 3 || res.Instrs[0].Src != asm.Imm(0) {
		t.Fatalf("expected a zeroing move first, got %v", res.Instrs)
	}
}

func TestUnknownPseudo(t *testing.T) {
	fn := &asm.Function{
		Name:   "bad",
		Instrs: []asm.Instr{mov(asm.Long, asm.Pseudo("ghost"), asm.Register(asm.AX)), ret(asm.AX)},
	}
	if _, err := regalloc.Allocate(fn); !errors.Is(err, regalloc.ErrUnknownPseudo) {
		t.Fatalf("Allocate error = %v, want ErrUnknownPseudo", err)
	}
}

func TestVerifyRejectsUndefinedReads(t *testing.T) {
	tests := []struct {
		name   string
		instrs []asm.Instr
	}{
		{"never written", []asm.Instr{
			mov(asm.Long, asm.Register(asm.R10), asm.Register(asm.AX)),
			ret(asm.AX),
		}},
		{"clobbered by call", []asm.Instr{
			mov(asm.Long, asm.Imm(1), asm.Register(asm.CX)),
			{Kind: asm.Call, Func: "h"},
			mov(asm.Long, asm.Register(asm.CX), asm.Register(asm.AX)),
			ret(asm.AX),
		}},
		{"one path only", []asm.Instr{
			{Kind: asm.Cmp, Type: asm.Long, Src: asm.Imm(0), Dst: asm.Register(asm.DI)},
			{Kind: asm.JmpCC, Cond: asm.CondE, Label: "skip"},
			mov(asm.Long, asm.Imm(1), asm.Register(asm.AX)),
			{Kind: asm.Label, Label: "skip"},
			ret(asm.AX),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := regalloc.Verify(&asm.Function{Name: "v", Instrs: tt.instrs})
			if !errors.Is(err, regalloc.ErrUndefinedRead) {
				t.Fatalf("Verify error = %v, want ErrUndefinedRead", err)
			}
		})
	}
}

func TestVerifyAcceptsJoinedDefinitions(t *testing.T) {
	instrs := []asm.Instr{
		{Kind: asm.Cmp, Type: asm.Long, Src: asm.Imm(0), Dst: asm.Register(asm.DI)},
		{Kind: asm.JmpCC, Cond: asm.CondE, Label: "else"},
		mov(asm.Long, asm.Imm(1), asm.Register(asm.AX)),
		{Kind: asm.Jmp, Label: "end"},
		{Kind: asm.Label, Label: "else"},
		{Kind: asm.Binary, Op: asm.OpXor, Type: asm.Long, Src: asm.Register(asm.AX), Dst: asm.Register(asm.AX)},
		{Kind: asm.Label, Label: "end"},
		ret(asm.AX),
	}
	if err := regalloc.Verify(&asm.Function{Name: "v", Instrs: instrs}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
