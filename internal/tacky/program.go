package tacky

import (
	"math"

	"mcc/internal/source"
	"mcc/internal/types"
)

// Function is one lowered function definition.
type Function struct {
	Name   string
	Global bool
	Params []Val
	Body   []Instr
	Span   source.Span
	// Invalid is set when lowering reported an error; the body then contains
	// placeholders and must not reach code generation.
	Invalid bool
}

type InitKind uint8

const (
	InitValue InitKind = iota
	InitZero
)

// StaticInit is one piece of a static initializer: a scalar value or a run of
// zero bytes.
type StaticInit struct {
	Kind  InitKind
	Value types.Const `msgpack:",omitempty"`
	Bytes int64       `msgpack:",omitempty"`
}

func ValueInit(c types.Const) StaticInit { return StaticInit{Kind: InitValue, Value: c} }

func ZeroInit(n int64) StaticInit { return StaticInit{Kind: InitZero, Bytes: n} }

// Size returns the number of bytes the piece occupies.
func (s StaticInit) Size() int64 {
	if s.Kind == InitZero {
		return s.Bytes
	}
	return s.Value.Type().Size()
}

// StaticVar is a variable with static storage duration that is defined in this unit.
type StaticVar struct {
	Name   string
	Global bool
	Type   *types.Type
	Init   []StaticInit
	Span   source.Span
}

// IsZero reports whether the variable belongs in a zero-filled section.
func (v StaticVar) IsZero() bool {
	for _, in := range v.Init {
		if in.Kind != InitValue {
			continue
		}
		// -0.0 compares equal to zero but its bit pattern is not all zeros.
		if !in.Value.IsZero() || in.Value.Kind == types.Double && math.Signbit(in.Value.Float) {
			return false
		}
	}
	return true
}

// Program is a lowered translation unit.
type Program struct {
	Functions  []*Function
	StaticVars []StaticVar
	Invalid    bool
}

// Function returns the function named name, or nil.
func (p *Program) Function(name string) *Function {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
