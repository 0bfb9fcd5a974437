package render_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/asm"
	"mcc/internal/render"
	"mcc/internal/tacky"
	"mcc/internal/target"
	"mcc/internal/types"
)

func mainReturning4() *asm.Program {
	return &asm.Program{Functions: []*asm.Function{{
		Name:   "main",
		Global: true,
		Instrs: []asm.Instr{
			{Kind: asm.Mov, Type: asm.Long, Src: asm.Imm(4), Dst: asm.Register(asm.AX)},
			{Kind: asm.Ret, Regs: []asm.Reg{asm.AX}},
		},
	}}}
}

func TestLinuxFunction(t *testing.T) {
	got, err := render.EmitProgram(mainReturning4(), target.X86_64Linux())
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}
	want := "\t.globl main\n" +
		"\t.text\n" +
		"main:\n" +
		"\tmovl $4, %eax\n" +
		"\tret\n" +
		"\n" +
		"\t.section .note.GNU-stack,\"\",@progbits\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDarwinDecorations(t *testing.T) {
	got, err := render.EmitProgram(mainReturning4(), target.X86_64Darwin())
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}
	if !strings.Contains(got, "\t.globl _main\n") || !strings.Contains(got, "_main:\n") {
		t.Fatalf("missing underscore prefix:\n%s", got)
	}
	if strings.Contains(got, "GNU-stack") {
		t.Fatalf("darwin output has a GNU-stack note:\n%s", got)
	}
}

func TestCallsAndLabels(t *testing.T) {
	prog := &asm.Program{Functions: []*asm.Function{
		{Name: "helper", Instrs: []asm.Instr{
			{Kind: asm.Mov, Type: asm.Long, Src: asm.Imm(0), Dst: asm.Register(asm.AX)},
			{Kind: asm.Ret},
		}},
		{Name: "main", Global: true, Instrs: []asm.Instr{
			{Kind: asm.Call, Func: "helper"},
			{Kind: asm.Call, Func: "puts"},
			{Kind: asm.Cmp, Type: asm.Long, Src: asm.Imm(0), Dst: asm.Register(asm.AX)},
			{Kind: asm.JmpCC, Cond: asm.CondNE, Label: "main.if_end.0"},
			{Kind: asm.Label, Label: "main.if_end.0"},
			{Kind: asm.SetCC, Cond: asm.CondL, Type: asm.Byte, Dst: asm.Register(asm.R12)},
			{Kind: asm.Binary, Op: asm.OpSar, Type: asm.Quad, Src: asm.Register(asm.CX), Dst: asm.Register(asm.DX)},
			{Kind: asm.Ret},
		}},
	}}
	tests := []struct {
		tgt  target.Target
		want []string
	}{
		{target.X86_64Linux(), []string{
			"\tcall helper\n",
			"\tcall puts@PLT\n",
			"\tjne .Lmain.if_end.0\n",
			".Lmain.if_end.0:\n",
			"\tsetl %r12b\n",
			"\tsarq %cl, %rdx\n",
		}},
		{target.X86_64Darwin(), []string{
			"\tcall _helper\n",
			"\tcall _puts\n",
			"\tjne Lmain.if_end.0\n",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.tgt.String(), func(t *testing.T) {
			got, err := render.EmitProgram(prog, tt.tgt)
			if err != nil {
				t.Fatalf("EmitProgram: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Fatalf("missing %q in:\n%s", w, got)
				}
			}
			if strings.Contains(got, ".globl helper") || strings.Contains(got, ".globl _helper") {
				t.Fatalf("internal function exported:\n%s", got)
			}
		})
	}
}

func TestStaticDataAndConstants(t *testing.T) {
	prog := &asm.Program{
		StaticVars: []asm.StaticVar{
			{Name: "counter", Global: true, Align: 4, Init: []tacky.StaticInit{tacky.ZeroInit(4)}},
			{Name: "f.n.0", Align: 16, Init: []tacky.StaticInit{
				tacky.ValueInit(types.IntConst(types.Long, -2)),
				tacky.ZeroInit(8),
			}},
		},
		Constants: []asm.Constant{{Name: "dbl.3ff8000000000000", Align: 8, Bits: 0x3ff8000000000000}},
		Functions: []*asm.Function{{Name: "f", Instrs: []asm.Instr{
			{Kind: asm.Mov, Type: asm.Double, Src: asm.Data("dbl.3ff8000000000000", 0), Dst: asm.Register(asm.XMM0)},
			{Kind: asm.Mov, Type: asm.Quad, Src: asm.Data("f.n.0", 8), Dst: asm.Register(asm.AX)},
			{Kind: asm.Ret},
		}}},
	}
	got, err := render.EmitProgram(prog, target.X86_64Linux())
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}
	for _, w := range []string{
		"\tmovsd .Ldbl.3ff8000000000000(%rip), %xmm0\n",
		"\tmovq f.n.0+8(%rip), %rax\n",
		"\t.globl counter\n\t.bss\n\t.balign 4\ncounter:\n\t.zero 4\n",
		"\t.data\n\t.balign 16\nf.n.0:\n\t.quad -2\n\t.zero 8\n",
		"\t.section .rodata\n\t.balign 8\n.Ldbl.3ff8000000000000:\n\t.quad 4609434218613702656\n",
	} {
		if !strings.Contains(got, w) {
			t.Fatalf("missing %q in:\n%s", w, got)
		}
	}

	darwin, err := render.EmitProgram(prog, target.X86_64Darwin())
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}
	if !strings.Contains(darwin, "\t.literal8\n\t.balign 8\nLdbl.3ff8000000000000:\n") {
		t.Fatalf("missing literal8 section:\n%s", darwin)
	}
}

func TestUnallocatedOperandIsRejected(t *testing.T) {
	prog := &asm.Program{Functions: []*asm.Function{{Name: "f", Instrs: []asm.Instr{
		{Kind: asm.Mov, Type: asm.Long, Src: asm.Pseudo("x"), Dst: asm.Register(asm.AX)},
		{Kind: asm.Ret},
	}}}}
	if _, err := render.EmitProgram(prog, target.X86_64Linux()); !errors.Is(err, render.ErrUnallocated) {
		t.Fatalf("error = %v, want ErrUnallocated", err)
	}
}
