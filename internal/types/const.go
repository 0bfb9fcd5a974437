package types

import (
	"math"
	"strconv"
	"strings"
)

// Const is a typed constant of an arithmetic kind. Integer payloads are kept
// normalized to their width: int sign-extended, unsigned int zero-extended,
// long and unsigned long as raw 64-bit patterns.
type Const struct {
	Kind  Kind
	Int   int64   `msgpack:",omitempty"`
	Float float64 `msgpack:",omitempty"`
}

// IntConst builds an integer constant of kind, truncating v to the kind's width.
func IntConst(kind Kind, v int64) Const {
	switch kind {
	case Int:
		v = int64(int32(v)) // #nosec G115 -- truncation is the point
	case UInt:
		v = int64(uint32(v)) // #nosec G115 -- truncation is the point
	case Pointer:
		kind = ULong
	}
	return Const{Kind: kind, Int: v}
}

func DoubleConst(f float64) Const {
	return Const{Kind: Double, Float: f}
}

func (c Const) Type() *Type {
	return Basic(c.Kind)
}

func (c Const) Uint64() uint64 {
	return uint64(c.Int) // #nosec G115 -- raw bit pattern
}

// IsZero reports whether c compares equal to zero.
func (c Const) IsZero() bool {
	if c.Kind == Double {
		return c.Float == 0
	}
	return c.Int == 0
}

// Convert performs a C conversion of c to kind.
func (c Const) Convert(kind Kind) Const {
	if kind == Pointer {
		kind = ULong
	}
	if c.Kind == kind {
		return c
	}
	if c.Kind == Double {
		f := c.Float
		switch kind {
		case ULong:
			if f >= math.MaxInt64 {
				return Const{Kind: ULong, Int: int64(uint64(f))} // #nosec G115 -- bit pattern
			}
			return IntConst(ULong, int64(f))
		default:
			return IntConst(kind, int64(f))
		}
	}
	if kind == Double {
		switch c.Kind {
		case ULong:
			return DoubleConst(float64(c.Uint64()))
		default:
			return DoubleConst(float64(c.Int))
		}
	}
	return IntConst(kind, c.Int)
}

func (c Const) String() string {
	switch c.Kind {
	case Double:
		s := strconv.FormatFloat(c.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case Long:
		return strconv.FormatInt(c.Int, 10) + "l"
	case UInt:
		return strconv.FormatInt(c.Int, 10) + "u"
	case ULong:
		return strconv.FormatUint(c.Uint64(), 10) + "ul"
	}
	return strconv.FormatInt(c.Int, 10)
}
