package ast

import (
	"mcc/internal/source"
	"mcc/internal/types"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	ExprConst ExprKind = iota
	ExprVar
	ExprCast
	ExprUnary
	ExprIncDec
	ExprBinary
	ExprAssign
	ExprConditional
	ExprCall
	ExprDeref
	ExprAddrOf
	ExprSubscript
)

func (k ExprKind) String() string {
	switch k {
	case ExprConst:
		return "Const"
	case ExprVar:
		return "Var"
	case ExprCast:
		return "Cast"
	case ExprUnary:
		return "Unary"
	case ExprIncDec:
		return "IncDec"
	case ExprBinary:
		return "Binary"
	case ExprAssign:
		return "Assign"
	case ExprConditional:
		return "Conditional"
	case ExprCall:
		return "Call"
	case ExprDeref:
		return "Deref"
	case ExprAddrOf:
		return "AddrOf"
	case ExprSubscript:
		return "Subscript"
	}
	return "Unknown"
}

// Expr is an expression node.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData
}

// ExprData is implemented by the per-kind payloads below.
type ExprData interface {
	exprData()
}

// ConstData holds an integer or floating constant.
type ConstData struct {
	Value types.Const
}

func (ConstData) exprData() {}

// VarData references a variable or function by name.
type VarData struct {
	Name string
}

func (VarData) exprData() {}

// CastData is an explicit conversion "(T)x".
type CastData struct {
	Target  *types.Type
	Operand *Expr
}

func (CastData) exprData() {}

// UnaryData is -x, ~x, !x or +x.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// IncDecData is ++x, --x, x++ or x--.
type IncDecData struct {
	Increment bool
	Postfix   bool
	Operand   *Expr
}

func (IncDecData) exprData() {}

// BinaryData is a binary operator application, logical operators included.
type BinaryData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// AssignData is "=" when Compound is false, otherwise "Op=".
type AssignData struct {
	Compound bool
	Op       BinaryOp
	Left     *Expr
	Right    *Expr
}

func (AssignData) exprData() {}

// ConditionalData is "c ? a : b".
type ConditionalData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (ConditionalData) exprData() {}

// CallData calls a function designated by name.
type CallData struct {
	Callee     string
	CalleeSpan source.Span
	Args       []*Expr
}

func (CallData) exprData() {}

// DerefData is "*p".
type DerefData struct {
	Operand *Expr
}

func (DerefData) exprData() {}

// AddrOfData is "&x".
type AddrOfData struct {
	Operand *Expr
}

func (AddrOfData) exprData() {}

// SubscriptData is "a[i]".
type SubscriptData struct {
	Base  *Expr
	Index *Expr
}

func (SubscriptData) exprData() {}
