package lower

import (
	"mcc/internal/ast"
	"mcc/internal/types"
)

// foldUnary evaluates op on a constant. Complement of a double is not a
// constant expression.
func foldUnary(op ast.UnaryOp, c types.Const) (types.Const, bool) {
	switch op {
	case ast.UnPlus:
		return c, true
	case ast.UnNot:
		return types.IntConst(types.Int, boolInt(c.IsZero())), true
	case ast.UnNeg:
		if c.Kind == types.Double {
			return types.DoubleConst(-c.Float), true
		}
		return types.IntConst(c.Kind, -c.Int), true
	case ast.UnComplement:
		if c.Kind == types.Double {
			return types.Const{}, false
		}
		return types.IntConst(c.Kind, ^c.Int), true
	}
	return types.Const{}, false
}

// foldBinary evaluates a non-logical binary operator on two constants of the
// same kind (for shifts b has already been converted to a's kind). It refuses
// integer division by zero and out-of-range shift counts so those reach run
// time unchanged.
func foldBinary(op ast.BinaryOp, a, b types.Const) (types.Const, bool) {
	if op.IsComparison() {
		return types.IntConst(types.Int, boolInt(compareConst(op, a, b))), true
	}
	if a.Kind == types.Double {
		x, y := a.Float, b.Float
		switch op {
		case ast.BinAdd:
			return types.DoubleConst(x + y), true
		case ast.BinSub:
			return types.DoubleConst(x - y), true
		case ast.BinMul:
			return types.DoubleConst(x * y), true
		case ast.BinDiv:
			return types.DoubleConst(x / y), true
		}
		return types.Const{}, false
	}

	kind := a.Kind
	signed := a.Type().IsSigned()
	x, y := a.Int, b.Int
	ux, uy := a.Uint64(), b.Uint64()
	switch op {
	case ast.BinAdd:
		return types.IntConst(kind, x+y), true
	case ast.BinSub:
		return types.IntConst(kind, x-y), true
	case ast.BinMul:
		return types.IntConst(kind, x*y), true
	case ast.BinDiv, ast.BinRem:
		if y == 0 {
			return types.Const{}, false
		}
		if signed {
			if op == ast.BinDiv {
				return types.IntConst(kind, x/y), true
			}
			return types.IntConst(kind, x%y), true
		}
		if op == ast.BinDiv {
			return types.IntConst(kind, int64(ux/uy)), true // #nosec G115 -- bit pattern
		}
		return types.IntConst(kind, int64(ux%uy)), true // #nosec G115 -- bit pattern
	case ast.BinBitAnd:
		return types.IntConst(kind, x&y), true
	case ast.BinBitOr:
		return types.IntConst(kind, x|y), true
	case ast.BinBitXor:
		return types.IntConst(kind, x^y), true
	case ast.BinShl, ast.BinShr:
		bits := uint64(a.Type().Size() * 8) // #nosec G115 -- 32 or 64
		if (signed && y < 0) || uy >= bits {
			return types.Const{}, false
		}
		if op == ast.BinShl {
			return types.IntConst(kind, x<<uy), true
		}
		if signed {
			return types.IntConst(kind, x>>uy), true
		}
		return types.IntConst(kind, int64(ux>>uy)), true // #nosec G115 -- bit pattern
	}
	return types.Const{}, false
}

func compareConst(op ast.BinaryOp, a, b types.Const) bool {
	var lt, eq bool
	switch {
	case a.Kind == types.Double:
		lt, eq = a.Float < b.Float, a.Float == b.Float
		if a.Float != a.Float || b.Float != b.Float {
			// Every ordered comparison with NaN is false; only != holds.
			return op == ast.BinNe
		}
	case a.Type().IsSigned():
		lt, eq = a.Int < b.Int, a.Int == b.Int
	default:
		lt, eq = a.Uint64() < b.Uint64(), a.Int == b.Int
	}
	switch op {
	case ast.BinEq:
		return eq
	case ast.BinNe:
		return !eq
	case ast.BinLt:
		return lt
	case ast.BinLe:
		return lt || eq
	case ast.BinGt:
		return !lt && !eq
	case ast.BinGe:
		return !lt
	}
	return false
}

// shiftInRange reports whether a constant shift count is valid for t.
func shiftInRange(count types.Const, t *types.Type) bool {
	if count.Type().IsSigned() && count.Int < 0 {
		return false
	}
	return count.Uint64() < uint64(t.Size()*8) // #nosec G115 -- 32 or 64
}
