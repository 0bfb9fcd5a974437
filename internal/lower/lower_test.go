package lower_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/diag"
	"mcc/internal/lower"
	"mcc/internal/parser"
	"mcc/internal/source"
	"mcc/internal/tacky"
)

func lowerSource(t *testing.T, src string) (*tacky.Program, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.c", src))
	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}
	tu := parser.ParseFile(file, parser.Options{Reporter: r})
	for _, d := range bag.Items() {
		t.Fatalf("unexpected parse diagnostic %s: %s", d.Code, d.Message)
	}
	return lower.Lower(tu, r), bag
}

func mustLower(t *testing.T, src string) *tacky.Program {
	t.Helper()
	prog, bag := lowerSource(t, src)
	for _, d := range bag.Items() {
		t.Errorf("unexpected diagnostic %s: %s", d.Code, d.Message)
	}
	for _, fn := range prog.Functions {
		if err := tacky.Validate(fn); err != nil {
			t.Errorf("validate: %v", err)
		}
	}
	return prog
}

func listing(fn *tacky.Function) []string {
	out := make([]string, len(fn.Body))
	for i, in := range fn.Body {
		out[i] = tacky.FormatInstr(in)
	}
	return out
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestConstantReturnIsFolded(t *testing.T) {
	prog := mustLower(t, "int main(){return 2+2;}")
	fn := prog.Function("main")
	if diff := cmp.Diff([]string{"return 4"}, listing(fn)); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
	if !fn.Global {
		t.Fatalf("main must be global")
	}
}

func TestUndeclaredIdentifierReportedOnce(t *testing.T) {
	prog, bag := lowerSource(t, "int f(){x=1;}")
	items := bag.Items()
	if len(items) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %v", codes(bag))
	}
	d := items[0]
	if d.Code != diag.LowUndeclaredIdentifier || d.Severity != diag.SevError {
		t.Fatalf("unexpected diagnostic %s", d.Code)
	}
	if d.Primary.Start != 8 || d.Primary.End != 9 {
		t.Fatalf("expected span of x [8,9), got [%d,%d)", d.Primary.Start, d.Primary.End)
	}
	if !prog.Invalid || !prog.Function("f").Invalid {
		t.Fatalf("function must be marked invalid")
	}
}

func TestSwitchDispatchWithoutDefault(t *testing.T) {
	prog := mustLower(t, `int f(int x){
	switch(x){
	case 1: return 10;
	case 2: return 20;
	case 3: return 30;
	}
	return 0;
}`)
	body := prog.Function("f").Body
	var condJumps, jumps []tacky.Instr
	for _, in := range body {
		switch in.Kind {
		case tacky.JumpIfNotZero:
			condJumps = append(condJumps, in)
		case tacky.Jump:
			jumps = append(jumps, in)
		}
	}
	if len(condJumps) != 3 {
		t.Fatalf("expected 3 conditional jumps, got %d", len(condJumps))
	}
	if len(jumps) != 1 || jumps[0].Label != "f.switch_end.0" {
		t.Fatalf("expected one jump to the switch end, got %+v", jumps)
	}
	want := []string{
		"tmp.1 = x.0 == 1",
		"jump_if_not_zero tmp.1, f.case.1",
		"tmp.2 = x.0 == 2",
		"jump_if_not_zero tmp.2, f.case.2",
		"tmp.3 = x.0 == 3",
		"jump_if_not_zero tmp.3, f.case.3",
		"jump f.switch_end.0",
		"f.case.1:",
		"return 10",
		"f.case.2:",
		"return 20",
		"f.case.3:",
		"return 30",
		"f.switch_end.0:",
		"return 0",
	}
	if diff := cmp.Diff(want, listing(prog.Function("f"))); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestSwitchDefaultIsTheFallbackTarget(t *testing.T) {
	prog := mustLower(t, "int f(int x){switch(x){case 1: return 1; default: break;} return 0;}")
	got := listing(prog.Function("f"))
	if got[2] != "jump f.default.2" {
		t.Fatalf("expected fallback jump to default, got %q", got[2])
	}
}

func TestShortCircuitAnd(t *testing.T) {
	prog := mustLower(t, "int f(int a, int b){return a && b;}")
	want := []string{
		"jump_if_zero a.0, f.and_false.0",
		"jump_if_zero b.1, f.and_false.0",
		"tmp.2 = 1",
		"jump f.and_end.1",
		"f.and_false.0:",
		"tmp.2 = 0",
		"f.and_end.1:",
		"return tmp.2",
	}
	if diff := cmp.Diff(want, listing(prog.Function("f"))); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestLogicalOperatorsAreNotFolded(t *testing.T) {
	prog := mustLower(t, "int f(void){return 1 || 0;}")
	got := listing(prog.Function("f"))
	if got[0] != "jump_if_not_zero 1, f.or_true.0" {
		t.Fatalf("expected a runtime jump on the constant, got %q", got[0])
	}
}

func TestCompoundAssignAndPostfix(t *testing.T) {
	prog := mustLower(t, "int f(int x){x += 2; return x++;}")
	want := []string{
		"tmp.1 = x.0 + 2",
		"x.0 = tmp.1",
		"tmp.2 = x.0",
		"tmp.3 = x.0 + 1",
		"x.0 = tmp.3",
		"return tmp.2",
	}
	if diff := cmp.Diff(want, listing(prog.Function("f"))); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestConversions(t *testing.T) {
	prog := mustLower(t, `long widen(int x){return x;}
double utod(unsigned u){return u;}
int dtoi(double d){return d;}
int narrow(long l){return l;}
long cast(void){return (long)3;}`)
	tests := []struct {
		fn   string
		want []string
	}{
		{"widen", []string{"tmp.1 = sext x.0", "return tmp.1"}},
		{"utod", []string{"tmp.1 = utod u.0", "return tmp.1"}},
		{"dtoi", []string{"tmp.1 = dtoi d.0", "return tmp.1"}},
		{"narrow", []string{"tmp.1 = trunc l.0", "return tmp.1"}},
		{"cast", []string{"return 3l"}},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, listing(prog.Function(tt.fn))); diff != "" {
				t.Fatalf("listing mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPointerArithmetic(t *testing.T) {
	prog := mustLower(t, "int f(int *p){return *(p+1);}")
	want := []string{
		"tmp.1 = addptr(p.0, 1l, 4)",
		"tmp.2 = *tmp.1",
		"return tmp.2",
	}
	if diff := cmp.Diff(want, listing(prog.Function("f"))); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalArrayInitializerZeroFills(t *testing.T) {
	prog := mustLower(t, "int f(void){int a[3] = {7}; return a[0];}")
	got := listing(prog.Function("f"))
	want := []string{"a.0[+0] = 7", "a.0[+4] = 0", "a.0[+8] = 0"}
	if diff := cmp.Diff(want, got[:3]); diff != "" {
		t.Fatalf("initializer mismatch (-want +got):\n%s", diff)
	}
}

func TestStaticVariables(t *testing.T) {
	prog := mustLower(t, `int counter = 3;
static long z;
extern int elsewhere;
int f(void){static int n = 5; return n + counter;}`)
	var sb strings.Builder
	for _, v := range prog.StaticVars {
		sb.WriteString(v.Name)
		if v.Global {
			sb.WriteString("(global)")
		}
		sb.WriteString(" ")
	}
	if got, want := sb.String(), "counter(global) z f.n.0 "; got != want {
		t.Fatalf("statics = %q, want %q", got, want)
	}
	got := listing(prog.Function("f"))
	if got[0] != "tmp.1 = f.n.0 + counter" {
		t.Fatalf("unexpected use of statics: %q", got[0])
	}
}

func TestLoopsAndGoto(t *testing.T) {
	mustLower(t, `int f(int n){
	int s = 0;
	for (int i = 0; i < n; i++) {
		if (i == 3) continue;
		if (i > 8) break;
		s += i;
	}
	while (s > 100) s = s - 1;
	do { s++; } while (s < 5);
	goto done;
	s = 0;
done:
	return s;
}`)
}

func TestWarningsDoNotInvalidate(t *testing.T) {
	prog, bag := lowerSource(t, "int f(int x){return x/0;}\nint g(int x){return x << 40;}")
	if diff := cmp.Diff([]diag.Code{diag.LowDivisionByZero, diag.LowShiftOutOfRange}, codes(bag)); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
	if bag.HasErrors() || prog.Invalid {
		t.Fatalf("warnings must not invalidate the program")
	}
}

func TestSemanticErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Code
	}{
		{"break outside loop", "int f(void){break;}", diag.LowBreakOutsideLoop},
		{"continue outside loop", "int f(void){continue;}", diag.LowContinueOutsideLoop},
		{"undefined label", "int f(void){goto out;}", diag.LowUndefinedLabel},
		{"duplicate label", "int f(void){a: a: return 0;}", diag.LowDuplicateLabel},
		{"duplicate case", "int f(int x){switch(x){case 1: case 1: return 0;} return 1;}", diag.LowDuplicateCase},
		{"duplicate default", "int f(int x){switch(x){default: default: return 0;} return 1;}", diag.LowDuplicateDefault},
		{"non-constant case", "int f(int x){switch(x){case x: return 0;} return 1;}", diag.LowNonConstantCase},
		{"case outside switch", "int f(void){case 1: return 0;}", diag.LowCaseOutsideSwitch},
		{"double switch", "int f(double d){switch(d){default: return 0;} return 1;}", diag.LowInvalidSwitchType},
		{"not an lvalue", "int f(void){return 1 = 2;}", diag.LowNotAnLvalue},
		{"argument count", "int g(int a); int f(void){return g();}", diag.LowArgumentCount},
		{"not callable", "int f(void){int x = 0; return x();}", diag.LowNotCallable},
		{"redeclaration", "int f(void){int x; int x; return 0;}", diag.LowRedeclaration},
		{"invalid operands", "int f(int *p){return p * 2;}", diag.LowInvalidOperands},
		{"invalid cast", "int f(void){return (int *)1.0 == 0;}", diag.LowInvalidCast},
		{"too many initializers", "int f(void){int a[2] = {1, 2, 3}; return 0;}", diag.LowInvalidInitializer},
		{"function as value", "int f(void){return f;}", diag.LowFunctionAsValue},
		{"non-constant static", "int f(void){static int n = f(); return n;}", diag.LowNonConstantInitializer},
		{"declared later", "int f(void){return g;}\nint g = 1;", diag.LowUndeclaredIdentifier},
		{"conflicting types", "int g(void); long g(void);", diag.LowConflictingTypes},
		{"redefinition", "int g(void){return 0;} int g(void){return 1;}", diag.LowRedefinition},
		{"pointer mismatch", "int f(int *p){long *q = p; return 0;}", diag.LowTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, bag := lowerSource(t, tt.src)
			if diff := cmp.Diff([]diag.Code{tt.want}, codes(bag)); diff != "" {
				t.Fatalf("codes mismatch (-want +got):\n%s", diff)
			}
			if !prog.Invalid {
				t.Fatalf("program must be invalid")
			}
		})
	}
}

func TestDuplicateCaseCarriesNote(t *testing.T) {
	_, bag := lowerSource(t, "int f(int x){switch(x){case 1: case 1: return 0;} return 1;}")
	items := bag.Items()
	if len(items) != 1 || len(items[0].Notes) != 1 {
		t.Fatalf("expected one diagnostic with a note, got %+v", items)
	}
}

func TestFileScopeVisibilityFollowsDeclarationOrder(t *testing.T) {
	_, bag := lowerSource(t, "int f(void){return later;}\nint later;")
	if diff := cmp.Diff([]diag.Code{diag.LowUndeclaredIdentifier}, codes(bag)); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
	mustLower(t, "int later;\nint f(void){return later;}")
}

func TestRelativeLoweringMatchesAbsolute(t *testing.T) {
	const src = "int g;\nint f(int a){static int n = 2; if (a > n) return g; return a*3;}"
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}
	tu := parser.ParseFile(fs.Get(fs.AddVirtual("rel.c", src)), parser.Options{Reporter: r})
	syms := lower.Symbols(tu, r)
	fn := tu.Decls[1].Func

	abs := lower.Function(fn, 1, syms, r)
	rel := lower.Function(fn.Shifted(-fn.Span.Start), 1, syms, r)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics %v", bag.Items())
	}
	if rel.Func.Span.Start != 0 {
		t.Fatalf("relative function starts at %d", rel.Func.Span.Start)
	}
	if diff := cmp.Diff(abs, rel.Shifted(fn.Span.Start)); diff != "" {
		t.Fatalf("placed lowering differs (-abs +placed):\n%s", diff)
	}
}
