package ast

import (
	"mcc/internal/source"
)

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	StmtReturn StmtKind = iota
	StmtExpr
	StmtIf
	StmtCompound
	StmtBreak
	StmtContinue
	StmtWhile
	StmtDoWhile
	StmtFor
	StmtSwitch
	StmtCase
	StmtDefault
	StmtLabeled
	StmtGoto
	StmtNull
)

func (k StmtKind) String() string {
	switch k {
	case StmtReturn:
		return "Return"
	case StmtExpr:
		return "Expr"
	case StmtIf:
		return "If"
	case StmtCompound:
		return "Compound"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtWhile:
		return "While"
	case StmtDoWhile:
		return "DoWhile"
	case StmtFor:
		return "For"
	case StmtSwitch:
		return "Switch"
	case StmtCase:
		return "Case"
	case StmtDefault:
		return "Default"
	case StmtLabeled:
		return "Labeled"
	case StmtGoto:
		return "Goto"
	case StmtNull:
		return "Null"
	}
	return "Unknown"
}

// Stmt is a statement node. Break, Continue and Null have no payload.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

type StmtData interface {
	stmtData()
}

type ReturnData struct {
	Value *Expr // nil for "return;"
}

func (ReturnData) stmtData() {}

type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

type IfData struct {
	Cond *Expr
	Then *Stmt
	Else *Stmt // may be nil
}

func (IfData) stmtData() {}

// BlockItem is either a declaration or a statement.
type BlockItem struct {
	Decl *Decl `msgpack:",omitempty"`
	Stmt *Stmt `msgpack:",omitempty"`
}

type CompoundData struct {
	Items []BlockItem
}

func (CompoundData) stmtData() {}

type WhileData struct {
	Cond *Expr
	Body *Stmt
}

func (WhileData) stmtData() {}

type DoWhileData struct {
	Body *Stmt
	Cond *Expr
}

func (DoWhileData) stmtData() {}

// ForInit is a declaration, an expression, or empty.
type ForInit struct {
	Decl *VarDecl `msgpack:",omitempty"`
	Expr *Expr    `msgpack:",omitempty"`
}

type ForData struct {
	Init ForInit
	Cond *Expr // nil means "forever"
	Post *Expr
	Body *Stmt
}

func (ForData) stmtData() {}

type SwitchData struct {
	Value *Expr
	Body  *Stmt
}

func (SwitchData) stmtData() {}

type CaseData struct {
	Value *Expr
	Body  *Stmt
}

func (CaseData) stmtData() {}

type DefaultData struct {
	Body *Stmt
}

func (DefaultData) stmtData() {}

type LabeledData struct {
	Label string
	Body  *Stmt
}

func (LabeledData) stmtData() {}

type GotoData struct {
	Label     string
	LabelSpan source.Span
}

func (GotoData) stmtData() {}
