package parser

import (
	"mcc/internal/ast"
	"mcc/internal/token"
)

// Binary operator precedence, lowest first.
const (
	precNone = iota
	precAssignment
	precConditional
	precLogicalOr
	precLogicalAnd
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precEquality
	precComparison
	precShift
	precAdditive
	precMultiplicative
)

type binaryOpInfo struct {
	prec int
	op   ast.BinaryOp
}

var binaryOps = map[token.Kind]binaryOpInfo{
	token.OrOr:    {precLogicalOr, ast.BinOr},
	token.AndAnd:  {precLogicalAnd, ast.BinAnd},
	token.Pipe:    {precBitwiseOr, ast.BinBitOr},
	token.Caret:   {precBitwiseXor, ast.BinBitXor},
	token.Amp:     {precBitwiseAnd, ast.BinBitAnd},
	token.EqEq:    {precEquality, ast.BinEq},
	token.BangEq:  {precEquality, ast.BinNe},
	token.Lt:      {precComparison, ast.BinLt},
	token.LtEq:    {precComparison, ast.BinLe},
	token.Gt:      {precComparison, ast.BinGt},
	token.GtEq:    {precComparison, ast.BinGe},
	token.Shl:     {precShift, ast.BinShl},
	token.Shr:     {precShift, ast.BinShr},
	token.Plus:    {precAdditive, ast.BinAdd},
	token.Minus:   {precAdditive, ast.BinSub},
	token.Star:    {precMultiplicative, ast.BinMul},
	token.Slash:   {precMultiplicative, ast.BinDiv},
	token.Percent: {precMultiplicative, ast.BinRem},
}

// compoundOps maps "op=" tokens to the underlying operator.
var compoundOps = map[token.Kind]ast.BinaryOp{
	token.PlusAssign:    ast.BinAdd,
	token.MinusAssign:   ast.BinSub,
	token.StarAssign:    ast.BinMul,
	token.SlashAssign:   ast.BinDiv,
	token.PercentAssign: ast.BinRem,
	token.AmpAssign:     ast.BinBitAnd,
	token.PipeAssign:    ast.BinBitOr,
	token.CaretAssign:   ast.BinBitXor,
	token.ShlAssign:     ast.BinShl,
	token.ShrAssign:     ast.BinShr,
}

// operatorPrec returns the precedence of k as an infix operator, or precNone.
func operatorPrec(k token.Kind) int {
	switch {
	case k.IsAssign():
		return precAssignment
	case k == token.Question:
		return precConditional
	}
	if info, ok := binaryOps[k]; ok {
		return info.prec
	}
	return precNone
}

var unaryOps = map[token.Kind]ast.UnaryOp{
	token.Minus: ast.UnNeg,
	token.Tilde: ast.UnComplement,
	token.Bang:  ast.UnNot,
	token.Plus:  ast.UnPlus,
}
