package tacky

import (
	"errors"
	"math"
	"strings"
	"testing"

	"mcc/internal/types"
)

func intConst(v int64) Val { return Constant(types.IntConst(types.Int, v)) }

func TestPrintFunction(t *testing.T) {
	x := Pseudo("x", types.IntType)
	tmp := Pseudo("tmp.0", types.IntType)
	prog := &Program{
		StaticVars: []StaticVar{{Name: "counter", Global: true, Type: types.LongType, Init: []StaticInit{ZeroInit(8)}}},
		Functions: []*Function{{
			Name:   "f",
			Global: true,
			Params: []Val{x},
			Body: []Instr{
				{Kind: Binary, Op: OpAdd, Src: x, Src2: intConst(1), Dst: tmp},
				{Kind: JumpIfZero, Src: tmp, Label: "f.end.0"},
				{Kind: Label, Label: "f.end.0"},
				{Kind: Return, Src: tmp},
			},
		}},
	}
	var sb strings.Builder
	if err := Print(&sb, prog); err != nil {
		t.Fatal(err)
	}
	want := `global static counter: long = {zero[8]}

global function f(int x):
    tmp.0 = x + 1
    jump_if_zero tmp.0, f.end.0
  f.end.0:
    return tmp.0
`
	if sb.String() != want {
		t.Fatalf("unexpected listing:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestValidate(t *testing.T) {
	ok := &Function{Name: "ok", Body: []Instr{{Kind: Return, Src: intConst(0)}}}
	if err := Validate(ok); err != nil {
		t.Fatalf("valid function rejected: %v", err)
	}

	bad := &Function{Name: "bad", Body: []Instr{
		{Kind: Label, Label: "a"},
		{Kind: Label, Label: "a"},
		{Kind: Jump, Label: "missing"},
		{Kind: Copy, Src: intConst(1), Dst: intConst(2)},
		{Kind: Binary, Op: OpLess, Src: intConst(1), Src2: intConst(2), Dst: Pseudo("t", types.IntType)},
	}}
	err := Validate(bad)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	for _, frag := range []string{"does not end with Return", "already defined", "undefined label missing", "writes a constant", "not arithmetic"} {
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("error %q lacks %q", err, frag)
		}
	}

	if err := Validate(&Function{Name: "inv", Invalid: true, Body: ok.Body}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("invalid function must be rejected, got %v", err)
	}
}

func TestStaticVarIsZero(t *testing.T) {
	zero := StaticVar{Init: []StaticInit{ZeroInit(4), ValueInit(types.IntConst(types.Int, 0))}}
	if !zero.IsZero() {
		t.Fatalf("expected zero initializer")
	}
	negZero := StaticVar{Init: []StaticInit{ValueInit(types.DoubleConst(math.Copysign(0, -1)))}}
	if negZero.IsZero() {
		t.Fatalf("-0.0 must not be placed in a zero-filled section")
	}
	nz := StaticVar{Init: []StaticInit{ValueInit(types.IntConst(types.Int, 3))}}
	if nz.IsZero() {
		t.Fatalf("non-zero initializer reported as zero")
	}
}
