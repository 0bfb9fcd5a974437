package lower

import (
	"fmt"

	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/source"
	"mcc/internal/tacky"
	"mcc/internal/types"
)

type SymbolKind uint8

const (
	SymFunc SymbolKind = iota
	SymStatic
)

// InitState tracks what is known about a static variable's definition.
type InitState uint8

const (
	NoInitializer InitState = iota // extern declaration only
	Tentative                      // defined, zero-filled unless initialized elsewhere
	Initial                        // defined with an explicit initializer
)

// Symbol is a file-scope identifier after all its declarations were merged.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Type    *types.Type
	Global  bool
	Defined bool // functions only
	Init    InitState
	Values  []tacky.StaticInit `msgpack:",omitempty"`
	// Ordinal is the index of the first declaration among the unit's
	// top-level declarations; a function only sees symbols whose Ordinal is
	// not greater than its own.
	Ordinal int
	Span    source.Span
}

// FileScope resolves file-scope names for one function body.
type FileScope interface {
	// Lookup returns the merged symbol for name, or nil.
	Lookup(name string) *Symbol
	// DeclSpan returns the span of name's first declaration.
	DeclSpan(name string) source.Span
}

// SymbolTable holds the file-scope symbols of one translation unit.
type SymbolTable struct {
	Symbols map[string]*Symbol
	Order   []string // first-declaration order
	Invalid bool     // an error was reported while building the table
}

// Lookup returns the symbol named name, or nil.
func (t *SymbolTable) Lookup(name string) *Symbol {
	if t == nil {
		return nil
	}
	return t.Symbols[name]
}

// DeclSpan returns the span of name's first declaration.
func (t *SymbolTable) DeclSpan(name string) source.Span {
	if sym := t.Lookup(name); sym != nil {
		return sym.Span
	}
	return source.Span{}
}

// StaticVars lists the file-scope variables this unit defines.
func (t *SymbolTable) StaticVars() []tacky.StaticVar {
	var out []tacky.StaticVar
	for _, name := range t.Order {
		sym := t.Symbols[name]
		if sym.Kind != SymStatic {
			continue
		}
		switch sym.Init {
		case Initial:
			out = append(out, tacky.StaticVar{Name: name, Global: sym.Global, Type: sym.Type, Init: sym.Values, Span: sym.Span})
		case Tentative:
			out = append(out, tacky.StaticVar{Name: name, Global: sym.Global, Type: sym.Type, Init: []tacky.StaticInit{tacky.ZeroInit(sym.Type.Size())}, Span: sym.Span})
		}
	}
	return out
}

type symbolBuilder struct {
	table *SymbolTable
	r     diag.Reporter
}

// Symbols merges every file-scope declaration of tu into a symbol table and
// reports conflicts between them.
func Symbols(tu *ast.TranslationUnit, r diag.Reporter) *SymbolTable {
	b := &symbolBuilder{
		table: &SymbolTable{Symbols: make(map[string]*Symbol)},
		r:     r,
	}
	for i, d := range tu.Decls {
		switch d.Kind {
		case ast.DeclFunc:
			b.declareFunc(d.Func, i)
		case ast.DeclVar:
			b.declareVar(d.Var, i)
		}
	}
	return b.table
}

func (b *symbolBuilder) errorf(code diag.Code, sp source.Span, prev *Symbol, format string, args ...any) {
	b.table.Invalid = true
	rb := diag.ReportError(b.r, code, sp, fmt.Sprintf(format, args...))
	if prev != nil {
		rb.WithNote(prev.Span, "previous declaration is here")
	}
	rb.Emit()
}

func (b *symbolBuilder) add(sym *Symbol) {
	b.table.Symbols[sym.Name] = sym
	b.table.Order = append(b.table.Order, sym.Name)
}

func (b *symbolBuilder) declareFunc(fn *ast.FuncDecl, ordinal int) {
	global := fn.Storage != ast.StorageStatic
	old := b.table.Symbols[fn.Name]
	if old == nil {
		b.add(&Symbol{
			Name:    fn.Name,
			Kind:    SymFunc,
			Type:    fn.Type,
			Global:  global,
			Defined: fn.IsDefinition(),
			Ordinal: ordinal,
			Span:    fn.NameSpan,
		})
		return
	}

	if old.Kind != SymFunc || !types.Equal(old.Type, fn.Type) {
		b.errorf(diag.LowConflictingTypes, fn.NameSpan, old, "conflicting types for '%s': %s vs %s", fn.Name, fn.Type, old.Type)
		return
	}
	if old.Defined && fn.IsDefinition() {
		b.errorf(diag.LowRedefinition, fn.NameSpan, old, "redefinition of function '%s'", fn.Name)
		return
	}
	if old.Global && !global {
		b.errorf(diag.LowConflictingLinkage, fn.NameSpan, old, "static declaration of '%s' follows non-static declaration", fn.Name)
		return
	}
	old.Defined = old.Defined || fn.IsDefinition()
}

func (b *symbolBuilder) declareVar(v *ast.VarDecl, ordinal int) {
	init := Tentative
	var values []tacky.StaticInit
	switch {
	case v.Init != nil:
		vals, ok := staticInitializer(v.Type, v.Init, b.r)
		if !ok {
			b.table.Invalid = true
		}
		init, values = Initial, vals
	case v.Storage == ast.StorageExtern:
		init = NoInitializer
	}
	global := v.Storage != ast.StorageStatic

	old := b.table.Symbols[v.Name]
	if old == nil {
		b.add(&Symbol{
			Name:    v.Name,
			Kind:    SymStatic,
			Type:    v.Type,
			Global:  global,
			Init:    init,
			Values:  values,
			Ordinal: ordinal,
			Span:    v.NameSpan,
		})
		return
	}

	if old.Kind != SymStatic {
		b.errorf(diag.LowConflictingTypes, v.NameSpan, old, "'%s' redeclared as a different kind of symbol", v.Name)
		return
	}
	if !types.Equal(old.Type, v.Type) {
		b.errorf(diag.LowConflictingTypes, v.NameSpan, old, "conflicting types for '%s': %s vs %s", v.Name, v.Type, old.Type)
		return
	}
	if v.Storage == ast.StorageExtern {
		global = old.Global
	} else if old.Global != global {
		b.errorf(diag.LowConflictingLinkage, v.NameSpan, old, "conflicting linkage for '%s'", v.Name)
		return
	}

	switch {
	case old.Init == Initial && init == Initial:
		b.errorf(diag.LowRedefinition, v.NameSpan, old, "redefinition of '%s'", v.Name)
		return
	case old.Init == Initial:
	case init == Initial:
		old.Init, old.Values = Initial, values
	case old.Init == Tentative || init == Tentative:
		old.Init = Tentative
	}
	old.Global = global
}
