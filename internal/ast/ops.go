package ast

// UnaryOp enumerates prefix operators that do not need an lvalue.
type UnaryOp uint8

const (
	UnNeg        UnaryOp = iota // -x
	UnComplement                // ~x
	UnNot                       // !x
	UnPlus                      // +x
)

func (op UnaryOp) String() string {
	switch op {
	case UnNeg:
		return "-"
	case UnComplement:
		return "~"
	case UnNot:
		return "!"
	case UnPlus:
		return "+"
	}
	return "?"
}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinAnd // &&
	BinOr  // ||
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

var binaryOpText = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinRem: "%",
	BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^", BinShl: "<<", BinShr: ">>",
	BinAnd: "&&", BinOr: "||",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// IsComparison reports whether op yields an int truth value from two operands
// of a common type.
func (op BinaryOp) IsComparison() bool {
	return op >= BinEq && op <= BinGe
}

// IsLogical reports whether op short-circuits.
func (op BinaryOp) IsLogical() bool {
	return op == BinAnd || op == BinOr
}

// IsShift reports whether op is << or >>.
func (op BinaryOp) IsShift() bool {
	return op == BinShl || op == BinShr
}

// IsBitwise reports whether op only accepts integer operands.
func (op BinaryOp) IsBitwise() bool {
	switch op {
	case BinBitAnd, BinBitOr, BinBitXor, BinRem, BinShl, BinShr:
		return true
	}
	return false
}
