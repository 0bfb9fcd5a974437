package types

import (
	"fmt"
	"strings"
)

// Kind classifies a Type.
type Kind uint8

const (
	Invalid Kind = iota
	Int
	Long
	UInt
	ULong
	Double
	Pointer
	Array
	Function
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Long:
		return "long"
	case UInt:
		return "unsigned int"
	case ULong:
		return "unsigned long"
	case Double:
		return "double"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Function:
		return "function"
	}
	return "invalid"
}

// Type is an immutable type descriptor. Values are shared; never modify one
// after construction.
type Type struct {
	Kind   Kind
	Elem   *Type   `msgpack:",omitempty"` // Pointer, Array
	Len    int64   `msgpack:",omitempty"` // Array
	Params []*Type `msgpack:",omitempty"` // Function
	Ret    *Type   `msgpack:",omitempty"` // Function
}

var (
	IntType    = &Type{Kind: Int}
	LongType   = &Type{Kind: Long}
	UIntType   = &Type{Kind: UInt}
	ULongType  = &Type{Kind: ULong}
	DoubleType = &Type{Kind: Double}
)

// Basic returns the shared descriptor of an arithmetic kind.
func Basic(k Kind) *Type {
	switch k {
	case Int:
		return IntType
	case Long:
		return LongType
	case UInt:
		return UIntType
	case ULong:
		return ULongType
	case Double:
		return DoubleType
	}
	panic(fmt.Sprintf("types: %s is not a basic kind", k))
}

func PointerTo(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem}
}

func ArrayOf(elem *Type, n int64) *Type {
	return &Type{Kind: Array, Elem: elem, Len: n}
}

func FuncOf(ret *Type, params ...*Type) *Type {
	return &Type{Kind: Function, Ret: ret, Params: params}
}

func (t *Type) IsInteger() bool {
	switch t.Kind {
	case Int, Long, UInt, ULong:
		return true
	}
	return false
}

func (t *Type) IsArithmetic() bool { return t.IsInteger() || t.Kind == Double }

func (t *Type) IsScalar() bool { return t.IsArithmetic() || t.Kind == Pointer }

func (t *Type) IsPointer() bool { return t.Kind == Pointer }

func (t *Type) IsArray() bool { return t.Kind == Array }

func (t *Type) IsFunction() bool { return t.Kind == Function }

// IsSigned reports whether integer arithmetic on t is signed. Doubles count as signed.
func (t *Type) IsSigned() bool {
	switch t.Kind {
	case Int, Long, Double:
		return true
	}
	return false
}

// Size returns the object size in bytes. Functions have no size.
func (t *Type) Size() int64 {
	switch t.Kind {
	case Int, UInt:
		return 4
	case Long, ULong, Double, Pointer:
		return 8
	case Array:
		return t.Len * t.Elem.Size()
	}
	return 0
}

// Align returns the ABI alignment of a scalar or the element alignment of an array.
func (t *Type) Align() int64 {
	if t.Kind == Array {
		return t.Elem.Align()
	}
	return t.Size()
}

// Scalar strips array layers and returns the innermost element type.
func (t *Type) Scalar() *Type {
	for t.Kind == Array {
		t = t.Elem
	}
	return t
}

// Equal reports structural equality.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Pointer:
		return Equal(a.Elem, b.Elem)
	case Array:
		return a.Len == b.Len && Equal(a.Elem, b.Elem)
	case Function:
		if !Equal(a.Ret, b.Ret) || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	}
	return true
}

// Common applies the usual arithmetic conversions to two arithmetic types.
func Common(a, b *Type) *Type {
	if a.Kind == Double || b.Kind == Double {
		return DoubleType
	}
	if a.Kind == b.Kind {
		return a
	}
	if a.Size() == b.Size() {
		if a.IsSigned() {
			return b
		}
		return a
	}
	if a.Size() > b.Size() {
		return a
	}
	return b
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

func writeType(sb *strings.Builder, t *Type) {
	switch t.Kind {
	case Pointer:
		writeType(sb, t.Elem)
		sb.WriteString(" *")
	case Array:
		writeType(sb, t.Elem)
		fmt.Fprintf(sb, "[%d]", t.Len)
	case Function:
		writeType(sb, t.Ret)
		sb.WriteString("(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeType(sb, p)
		}
		if len(t.Params) == 0 {
			sb.WriteString("void")
		}
		sb.WriteString(")")
	default:
		sb.WriteString(t.Kind.String())
	}
}
