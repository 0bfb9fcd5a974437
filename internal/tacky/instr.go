package tacky

import (
	"mcc/internal/source"
)

type InstrKind uint8

const (
	Return InstrKind = iota
	SignExtend
	Truncate
	ZeroExtend
	DoubleToInt
	DoubleToUInt
	IntToDouble
	UIntToDouble
	Unary
	Binary
	Compare
	Copy
	GetAddress
	Load
	Store
	AddPtr
	CopyToOffset
	Jump
	JumpIfZero
	JumpIfNotZero
	Label
	Call
)

var instrKindNames = [...]string{
	Return:        "Return",
	SignExtend:    "SignExtend",
	Truncate:      "Truncate",
	ZeroExtend:    "ZeroExtend",
	DoubleToInt:   "DoubleToInt",
	DoubleToUInt:  "DoubleToUInt",
	IntToDouble:   "IntToDouble",
	UIntToDouble:  "UIntToDouble",
	Unary:         "Unary",
	Binary:        "Binary",
	Compare:       "Compare",
	Copy:          "Copy",
	GetAddress:    "GetAddress",
	Load:          "Load",
	Store:         "Store",
	AddPtr:        "AddPtr",
	CopyToOffset:  "CopyToOffset",
	Jump:          "Jump",
	JumpIfZero:    "JumpIfZero",
	JumpIfNotZero: "JumpIfNotZero",
	Label:         "Label",
	Call:          "Call",
}

func (k InstrKind) String() string {
	if int(k) < len(instrKindNames) {
		return instrKindNames[k]
	}
	return "Unknown"
}

// Op is the operator of Unary, Binary and Compare instructions. Signedness
// comes from the operand types.
type Op uint8

const (
	OpNeg Op = iota
	OpComplement
	OpNot

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr

	OpEqual
	OpNotEqual
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
)

var opNames = [...]string{
	OpNeg: "-", OpComplement: "~", OpNot: "!",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%",
	OpAnd: "&", OpOr: "|", OpXor: "^", OpShl: "<<", OpShr: ">>",
	OpEqual: "==", OpNotEqual: "!=", OpLess: "<", OpLessEq: "<=", OpGreater: ">", OpGreaterEq: ">=",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

func (op Op) IsUnary() bool { return op <= OpNot }

func (op Op) IsComparison() bool { return op >= OpEqual }

// Instr is one three-address instruction. Field use per kind:
//
//	Return                 Src
//	conversions, Copy      Src -> Dst
//	Unary                  Op Src -> Dst
//	Binary, Compare        Src Op Src2 -> Dst
//	GetAddress             &Src -> Dst
//	Load                   *Src -> Dst
//	Store                  Src -> *Dst
//	AddPtr                 Src + Src2*Scale -> Dst
//	CopyToOffset           Src -> Dst+Offset
//	Jump, Label            Label
//	JumpIfZero/NotZero     Src, Label
//	Call                   Func(Args...) -> Dst
type Instr struct {
	Kind   InstrKind
	Op     Op          `msgpack:",omitempty"`
	Src    Val         `msgpack:",omitempty"`
	Src2   Val         `msgpack:",omitempty"`
	Dst    Val         `msgpack:",omitempty"`
	Scale  int64       `msgpack:",omitempty"`
	Offset int64       `msgpack:",omitempty"`
	Label  string      `msgpack:",omitempty"`
	Func   string      `msgpack:",omitempty"`
	Args   []Val       `msgpack:",omitempty"`
	Span   source.Span `msgpack:",omitempty"`
}

// Defines reports whether the instruction writes Dst as a value. Store writes
// through Dst and CopyToOffset writes part of it.
func (in Instr) Defines() bool {
	switch in.Kind {
	case Return, Store, CopyToOffset, Jump, JumpIfZero, JumpIfNotZero, Label:
		return false
	}
	return true
}

// IsJump reports whether the instruction transfers control to Label.
func (in Instr) IsJump() bool {
	return in.Kind == Jump || in.Kind == JumpIfZero || in.Kind == JumpIfNotZero
}
