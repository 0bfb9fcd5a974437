package codegen_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/asm"
	"mcc/internal/codegen"
	"mcc/internal/diag"
	"mcc/internal/lower"
	"mcc/internal/parser"
	"mcc/internal/regalloc"
	"mcc/internal/source"
	"mcc/internal/tacky"
	"mcc/internal/target"
)

func lowered(t *testing.T, src string) *tacky.Program {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.c", src))
	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}
	tu := parser.ParseFile(file, parser.Options{Reporter: r})
	prog := lower.Lower(tu, r)
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Errorf("diagnostic %s: %s", d.Code, d.Message)
		}
		t.FailNow()
	}
	return prog
}

func generate(t *testing.T, src string) *asm.Program {
	t.Helper()
	prog, err := codegen.Generate(lowered(t, src), target.X86_64Linux())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return prog
}

func function(t *testing.T, prog *asm.Program, name string) *asm.Function {
	t.Helper()
	for _, fn := range prog.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %s not generated", name)
	return nil
}

func TestConstantReturn(t *testing.T) {
	fn := function(t, generate(t, "int main(){return 2+2;}"), "main")
	want := []asm.Instr{
		{Kind: asm.Mov, Type: asm.Long, Src: asm.Imm(4), Dst: asm.Register(asm.AX)},
		{Kind: asm.Ret, Regs: []asm.Reg{asm.AX}},
	}
	if diff := cmp.Diff(want, fn.Instrs); diff != "" {
		t.Fatalf("main mismatch (-want +got):\n%s", diff)
	}
	if fn.FrameSize != 0 || len(fn.CalleeSaved) != 0 {
		t.Fatalf("leaf function got a frame: size %d, saved %v", fn.FrameSize, fn.CalleeSaved)
	}
}

// manyLive keeps n locals alive until one final sum.
func manyLive(n int) string {
	var sb strings.Builder
	sb.WriteString("int f(int x) {\n")
	var names []string
	for i := range n {
		name := fmt.Sprintf("v%d", i)
		names = append(names, name)
		fmt.Fprintf(&sb, "  int %s = x * %d;\n", name, i+2)
	}
	fmt.Fprintf(&sb, "  return %s;\n}\n", strings.Join(names, " + "))
	return sb.String()
}

func TestSpillIsReflectedInFrame(t *testing.T) {
	prog := lowered(t, manyLive(20))
	fn := prog.Function("f")

	selected, _, err := codegen.Select(fn)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	res, err := regalloc.Allocate(selected)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(res.Spilled) == 0 {
		t.Fatalf("expected spills with 20 live locals")
	}

	out, err := codegen.Function(fn, target.X86_64Linux())
	if err != nil {
		t.Fatalf("Function: %v", err)
	}
	got := out.Function
	saved := int64(8 * len(got.CalleeSaved))
	want := (saved + res.SlotBytes + 15) / 16 * 16
	if got.FrameSize != want {
		t.Fatalf("FrameSize = %d, want %d (saved %d, slots %d)", got.FrameSize, want, saved, res.SlotBytes)
	}
	if got.FrameSize%16 != 0 || got.FrameSize < res.SlotBytes {
		t.Fatalf("FrameSize %d does not cover %d slot bytes", got.FrameSize, res.SlotBytes)
	}
	stackOps := 0
	for _, in := range got.Instrs {
		for _, o := range in.Operands() {
			if o.Kind != asm.OpdStack {
				continue
			}
			stackOps++
			if o.Offset >= -saved || o.Offset < -got.FrameSize {
				t.Fatalf("%s uses a slot outside the frame", in)
			}
		}
	}
	if stackOps == 0 {
		t.Fatalf("no stack operands although %v spilled", res.Spilled)
	}
	if got.Instrs[0].Kind != asm.Push || !got.Instrs[0].Src.IsReg(asm.BP) {
		t.Fatalf("missing prologue, first instruction %s", got.Instrs[0])
	}
}

func TestStackArgumentsArePaddedAndPopped(t *testing.T) {
	src := `int g(int a, int b, int c, int d, int e, int f, int h);
int caller(void) { return g(1, 2, 3, 4, 5, 6, 7); }`
	fn := function(t, generate(t, src), "caller")
	var got []string
	for _, in := range fn.Instrs {
		switch in.Kind {
		case asm.Push, asm.Call:
			got = append(got, in.String())
		case asm.Binary:
			if in.Dst.IsReg(asm.SP) {
				got = append(got, in.String())
			}
		}
	}
	want := []string{
		"Push quad %rbp",
		"Binary(sub) quad $8, %rsp",
		"Push quad $7",
		"Call g",
		"Binary(add) quad $16, %rsp",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("call sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestDoubleNegationUsesAlignedMask(t *testing.T) {
	prog := generate(t, "double neg(double x) { return -x; }")
	want := []asm.Constant{{Name: "dbl16.8000000000000000", Align: 16, Bits: 1 << 63}}
	if diff := cmp.Diff(want, prog.Constants); diff != "" {
		t.Fatalf("constants mismatch (-want +got):\n%s", diff)
	}
}

func TestConstantsAreMergedAcrossFunctions(t *testing.T) {
	prog := generate(t, `double a(void) { return 1.5; }
double b(void) { return 1.5; }
double c(void) { return 2.0; }`)
	var names []string
	for _, c := range prog.Constants {
		names = append(names, c.Name)
	}
	want := []string{"dbl.3ff8000000000000", "dbl.4000000000000000"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("constants mismatch (-want +got):\n%s", diff)
	}
}

func TestStaticArraysAreOverAligned(t *testing.T) {
	prog := generate(t, `long table[4] = {1, 2, 3, 4};
int small[2];
int main(void) { return table[1] + small[0]; }`)
	aligns := make(map[string]int64)
	for _, v := range prog.StaticVars {
		aligns[v.Name] = v.Align
	}
	if diff := cmp.Diff(map[string]int64{"table": 16, "small": 4}, aligns); diff != "" {
		t.Fatalf("alignment mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratedCodeIsLegal(t *testing.T) {
	sources := map[string]string{
		"arith": `long f(long a, unsigned b, int c) {
  long big = 4294967296l * a;
  return big / c + b % 7u + (a << 3) - (c >> 1);
}`,
		"doubles": `double f(double x, unsigned long u, int i) {
  if (x < 1.0 || x != x) return u;
  return x * i + (double)u / 3.0;
}`,
		"pointers": `int sum(int *p, long n) {
  int total = 0;
  for (long i = 0; i < n; i++) total += p[i];
  return total;
}
int main(void) {
  int a[5] = {1, 2, 3};
  int *q = &a[1];
  *q += 4;
  return sum(a, 5);
}`,
		"switch": `int f(int x) {
  switch (x) { case 1: return 10; case 2: x++; default: return x; }
}`,
		"conversions": `unsigned long f(double d) { return (unsigned long)d; }
double g(unsigned long u) { return u; }`,
		"manyargs": `double h(double a, double b, double c, double d, double e, double f,
  double g, double i, double j, int k, long l);
double call(void) { return h(1, 2, 3, 4, 5, 6, 7, 8, 9.5, 10, 11); }`,
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			prog := generate(t, src)
			for _, fn := range prog.Functions {
				if err := asm.Validate(fn); err != nil {
					t.Fatalf("Validate %s: %v", fn.Name, err)
				}
				if err := regalloc.Verify(fn); err != nil {
					t.Fatalf("Verify %s: %v", fn.Name, err)
				}
			}
		})
	}
}

func TestGenerationIsDeterministic(t *testing.T) {
	src := manyLive(16)
	first := generate(t, src)
	second := generate(t, src)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("output differs between runs (-first +second):\n%s", diff)
	}
}

func TestInvalidTACIsRejected(t *testing.T) {
	fn := &tacky.Function{Name: "broken", Invalid: true}
	if _, err := codegen.Function(fn, target.X86_64Linux()); !errors.Is(err, codegen.ErrInvalidTAC) {
		t.Fatalf("error = %v, want ErrInvalidTAC", err)
	}
	prog := &tacky.Program{Invalid: true}
	if _, err := codegen.Generate(prog, target.X86_64Linux()); !errors.Is(err, codegen.ErrInvalidTAC) {
		t.Fatalf("error = %v, want ErrInvalidTAC", err)
	}
}

func TestUnsupportedTarget(t *testing.T) {
	prog := lowered(t, "int main(void){return 0;}")
	_, err := codegen.Function(prog.Functions[0], target.Target{Arch: "aarch64"})
	if !errors.Is(err, codegen.ErrUnsupportedTarget) {
		t.Fatalf("error = %v, want ErrUnsupportedTarget", err)
	}
}

func TestDoubleMultiplyOfRegisters(t *testing.T) {
	fn := function(t, generate(t, "double sq(double x){return x*x;}"), "sq")
	if err := asm.Validate(fn); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	var mults []asm.Instr
	for _, in := range fn.Instrs {
		if in.Kind == asm.Binary && in.Op == asm.OpMult {
			mults = append(mults, in)
		}
	}
	want := []asm.Instr{{Kind: asm.Binary, Op: asm.OpMult, Type: asm.Double, Src: asm.Register(asm.XMM0), Dst: asm.Register(asm.XMM0)}}
	if diff := cmp.Diff(want, mults); diff != "" {
		t.Fatalf("multiply mismatch (-want +got):\n%s", diff)
	}
}

func TestLargeConstantIndexUsesIndexRegister(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantDisp bool
	}{
		{"small", "long at(long *p){ return *(p + 1000); }", true},
		{"beyond int32", "long at(long *p){ return *(p + 1000000000); }", false},
		{"negative beyond int32", "long at(long *p){ return *(p - 1000000000); }", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := function(t, generate(t, tt.src), "at")
			if err := asm.Validate(fn); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			var lea *asm.Instr
			for i := range fn.Instrs {
				if fn.Instrs[i].Kind == asm.Lea {
					lea = &fn.Instrs[i]
				}
			}
			if lea == nil {
				t.Fatalf("no lea in:\n%v", fn.Instrs)
			}
			if got := lea.Src.Kind == asm.OpdMemory; got != tt.wantDisp {
				t.Fatalf("lea source %s: displacement form = %v, want %v", lea.Src, got, tt.wantDisp)
			}
		})
	}
}

func TestValidateRejectsWideDisplacement(t *testing.T) {
	fn := &asm.Function{Name: "wide", Instrs: []asm.Instr{
		{Kind: asm.Lea, Type: asm.Quad, Src: asm.Memory(asm.AX, 8000000000), Dst: asm.Register(asm.AX)},
		{Kind: asm.Ret, Regs: []asm.Reg{asm.AX}},
	}}
	err := asm.Validate(fn)
	if !errors.Is(err, asm.ErrIllegal) || !strings.Contains(err.Error(), "displacement") {
		t.Fatalf("Validate error = %v, want an illegal displacement", err)
	}
}
