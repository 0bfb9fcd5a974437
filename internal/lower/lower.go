package lower

import (
	"fmt"

	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/source"
	"mcc/internal/tacky"
	"mcc/internal/types"
)

// Lowered is the result of lowering one function definition: its TAC and the
// block-scope static variables it declares.
type Lowered struct {
	Func    *tacky.Function
	Statics []tacky.StaticVar `msgpack:",omitempty"`
}

// Shifted returns a copy of lf with every span moved by delta bytes.
func (lf *Lowered) Shifted(delta uint32) *Lowered {
	fn := *lf.Func
	fn.Body = make([]tacky.Instr, len(lf.Func.Body))
	for i, in := range lf.Func.Body {
		in.Span = in.Span.Shift(delta)
		fn.Body[i] = in
	}
	fn.Span = fn.Span.Shift(delta)
	out := &Lowered{Func: &fn}
	for _, v := range lf.Statics {
		v.Span = v.Span.Shift(delta)
		out.Statics = append(out.Statics, v)
	}
	return out
}

// entry is what an identifier resolves to inside a function body.
type entry struct {
	name   string // pseudo or symbol name
	typ    *types.Type
	static bool // lives in static storage, referenced as a symbol
	fn     bool
	span   source.Span // zero for file-scope symbols; see declSpan
	extern bool
	file   bool
}

type userLabel struct {
	mangled string
	span    source.Span
}

type gotoRef struct {
	label string
	span  source.Span
}

// switchCtx collects the cases of the innermost switch while its body is lowered.
type switchCtx struct {
	typ         *types.Type
	cases       []switchCase
	defaultLbl  string
	defaultSpan source.Span
}

type switchCase struct {
	value types.Const
	label string
	span  source.Span
}

type lowerer struct {
	fn    *ast.FuncDecl
	at    int
	scope FileScope
	r     diag.Reporter

	scopes  []map[string]*entry
	body    []tacky.Instr
	statics []tacky.StaticVar
	invalid bool

	nameN  int // shared by temporaries and locals so "tmp.N" never collides with a local named tmp
	labelN int

	breaks    []string
	continues []string
	switches  []*switchCtx
	labels    map[string]userLabel
	gotos     []gotoRef
}

// Function lowers one function definition to TAC. at is the definition's
// index among the unit's top-level declarations; file-scope names declared
// after it are not visible. Errors are reported through r and mark the result
// Invalid.
func Function(fn *ast.FuncDecl, at int, scope FileScope, r diag.Reporter) *Lowered {
	l := &lowerer{
		fn:     fn,
		at:     at,
		scope:  scope,
		r:      r,
		labels: make(map[string]userLabel),
	}
	out := &tacky.Function{
		Name:   fn.Name,
		Global: fn.Storage != ast.StorageStatic,
		Span:   fn.Span,
	}
	if sym := scope.Lookup(fn.Name); sym != nil && sym.Kind == SymFunc {
		out.Global = sym.Global
	}

	l.pushScope()
	for i, p := range fn.Params {
		typ := fn.Type.Params[i]
		if prev, dup := l.scopes[0][p.Name]; dup {
			l.errorf(diag.LowRedeclaration, p.Span, prev.span, "redefinition of parameter '%s'", p.Name)
			continue
		}
		e := l.declareLocal(p.Name, typ, p.Span)
		out.Params = append(out.Params, tacky.Pseudo(e.name, typ))
	}
	// Parameters and the outermost block share one scope.
	l.blockItems(fn.Body.Data.(ast.CompoundData).Items)
	l.popScope()

	for _, g := range l.gotos {
		if _, ok := l.labels[g.label]; !ok {
			l.errorf(diag.LowUndefinedLabel, g.span, source.Span{}, "use of undeclared label '%s'", g.label)
		}
	}

	if n := len(l.body); n == 0 || l.body[n-1].Kind != tacky.Return {
		l.emit(tacky.Instr{Kind: tacky.Return, Src: zeroOf(fn.Type.Ret), Span: fn.Body.Span})
	}
	out.Body = l.body
	out.Invalid = l.invalid
	return &Lowered{Func: out, Statics: l.statics}
}

// Program assembles the unit from its symbol table and lowered definitions.
func Program(syms *SymbolTable, funcs []*Lowered) *tacky.Program {
	prog := &tacky.Program{
		StaticVars: syms.StaticVars(),
		Invalid:    syms.Invalid,
	}
	for _, lf := range funcs {
		prog.Functions = append(prog.Functions, lf.Func)
		prog.StaticVars = append(prog.StaticVars, lf.Statics...)
		prog.Invalid = prog.Invalid || lf.Func.Invalid
	}
	return prog
}

// Lower runs the whole stage on tu.
func Lower(tu *ast.TranslationUnit, r diag.Reporter) *tacky.Program {
	syms := Symbols(tu, r)
	var funcs []*Lowered
	for i, d := range tu.Decls {
		if d.Kind == ast.DeclFunc && d.Func.IsDefinition() {
			funcs = append(funcs, Function(d.Func, i, syms, r))
		}
	}
	return Program(syms, funcs)
}

func (l *lowerer) emit(in tacky.Instr) {
	l.body = append(l.body, in)
}

func (l *lowerer) errorf(code diag.Code, sp, note source.Span, format string, args ...any) {
	l.invalid = true
	rb := diag.ReportError(l.r, code, sp, fmt.Sprintf(format, args...))
	if !note.Empty() {
		rb.WithNote(note, "previous definition is here")
	}
	rb.Emit()
}

func (l *lowerer) warnf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportWarning(l.r, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (l *lowerer) newTemp(t *types.Type) tacky.Val {
	name := fmt.Sprintf("tmp.%d", l.nameN)
	l.nameN++
	return tacky.Pseudo(name, t)
}

func (l *lowerer) newLabel(kind string) string {
	name := fmt.Sprintf("%s.%s.%d", l.fn.Name, kind, l.labelN)
	l.labelN++
	return name
}

func (l *lowerer) pushScope() {
	l.scopes = append(l.scopes, make(map[string]*entry))
}

func (l *lowerer) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

// declareLocal binds name to a fresh pseudo in the innermost scope.
func (l *lowerer) declareLocal(name string, t *types.Type, sp source.Span) *entry {
	e := &entry{name: fmt.Sprintf("%s.%d", name, l.nameN), typ: t, span: sp}
	l.nameN++
	l.scopes[len(l.scopes)-1][name] = e
	return e
}

// resolve looks name up through the block scopes, then the file scope as of
// the function's own declaration.
func (l *lowerer) resolve(name string) *entry {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if e, ok := l.scopes[i][name]; ok {
			return e
		}
	}
	sym := l.scope.Lookup(name)
	if sym == nil || sym.Ordinal > l.at {
		return nil
	}
	return &entry{name: sym.Name, typ: sym.Type, static: sym.Kind == SymStatic, fn: sym.Kind == SymFunc, file: true}
}

// declSpan returns where e was declared. File-scope spans are looked up
// lazily, only when a diagnostic needs them.
func (l *lowerer) declSpan(e *entry) source.Span {
	if e.file {
		return l.scope.DeclSpan(e.name)
	}
	return e.span
}
