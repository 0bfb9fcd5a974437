package ast

import (
	"mcc/internal/source"
	"mcc/internal/types"
)

// StorageClass is the optional storage-class specifier of a declaration.
type StorageClass uint8

const (
	StorageNone StorageClass = iota
	StorageStatic
	StorageExtern
)

func (s StorageClass) String() string {
	switch s {
	case StorageStatic:
		return "static"
	case StorageExtern:
		return "extern"
	}
	return ""
}

// TranslationUnit is one parsed file.
type TranslationUnit struct {
	File  source.FileID
	Decls []*Decl
}

type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclFunc
)

// Decl is a file-scope or block-scope declaration.
type Decl struct {
	Kind DeclKind
	Span source.Span
	Var  *VarDecl  `msgpack:",omitempty"`
	Func *FuncDecl `msgpack:",omitempty"`
}

// Name returns the declared identifier.
func (d *Decl) Name() string {
	if d.Kind == DeclFunc {
		return d.Func.Name
	}
	return d.Var.Name
}

type VarDecl struct {
	Name     string
	NameSpan source.Span
	Type     *types.Type
	Init     *Initializer // nil when absent
	Storage  StorageClass
	Span     source.Span
}

type InitKind uint8

const (
	InitSingle InitKind = iota
	InitCompound
)

// Initializer is "= expr" or "= { ... }".
type Initializer struct {
	Kind  InitKind
	Span  source.Span
	Expr  *Expr          `msgpack:",omitempty"`
	Items []*Initializer `msgpack:",omitempty"`
}

type Param struct {
	Name string
	Span source.Span
}

type FuncDecl struct {
	Name     string
	NameSpan source.Span
	Type     *types.Type // Function
	Params   []Param
	Body     *Stmt // Compound; nil for a declaration
	Storage  StorageClass
	Span     source.Span
}

// IsDefinition reports whether the declaration has a body.
func (f *FuncDecl) IsDefinition() bool {
	return f.Body != nil
}
