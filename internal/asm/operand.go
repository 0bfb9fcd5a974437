package asm

import (
	"fmt"
)

// Type is the width and register class of an instruction's operands.
type Type uint8

const (
	Long   Type = iota // 4 bytes, general purpose
	Quad               // 8 bytes, general purpose
	Double             // 8 bytes, SSE
	Byte               // setcc destinations only
)

func (t Type) Size() int64 {
	switch t {
	case Long:
		return 4
	case Byte:
		return 1
	}
	return 8
}

func (t Type) String() string {
	switch t {
	case Long:
		return "long"
	case Quad:
		return "quad"
	case Double:
		return "double"
	case Byte:
		return "byte"
	}
	return "?"
}

type OperandKind uint8

const (
	OpdNone OperandKind = iota
	OpdImm
	OpdReg
	OpdPseudo    // scalar pseudo, to be allocated
	OpdPseudoMem // Offset bytes into a pseudo that lives in memory
	OpdStack     // Offset(%rbp)
	OpdMemory    // Offset(Reg)
	OpdIndexed   // (Reg, Index, Scale)
	OpdData      // Name+Offset(%rip)
)

// Operand is an instruction operand. Field use per kind:
//
//	Imm         Imm
//	Reg         Reg
//	Pseudo      Name
//	PseudoMem   Name, Offset
//	Stack       Offset
//	Memory      Reg, Offset
//	Indexed     Reg, Index, Scale
//	Data        Name, Offset
type Operand struct {
	Kind   OperandKind
	Imm    int64  `msgpack:",omitempty"`
	Reg    Reg    `msgpack:",omitempty"`
	Index  Reg    `msgpack:",omitempty"`
	Scale  int64  `msgpack:",omitempty"`
	Name   string `msgpack:",omitempty"`
	Offset int64  `msgpack:",omitempty"`
}

func Imm(v int64) Operand { return Operand{Kind: OpdImm, Imm: v} }

func Register(r Reg) Operand { return Operand{Kind: OpdReg, Reg: r} }

func Pseudo(name string) Operand { return Operand{Kind: OpdPseudo, Name: name} }

func PseudoMem(name string, off int64) Operand {
	return Operand{Kind: OpdPseudoMem, Name: name, Offset: off}
}

func Stack(off int64) Operand { return Operand{Kind: OpdStack, Offset: off} }

func Memory(base Reg, off int64) Operand { return Operand{Kind: OpdMemory, Reg: base, Offset: off} }

func Indexed(base, index Reg, scale int64) Operand {
	return Operand{Kind: OpdIndexed, Reg: base, Index: index, Scale: scale}
}

func Data(name string, off int64) Operand { return Operand{Kind: OpdData, Name: name, Offset: off} }

// IsMemory reports whether the operand addresses memory once allocated.
func (o Operand) IsMemory() bool {
	switch o.Kind {
	case OpdPseudoMem, OpdStack, OpdMemory, OpdIndexed, OpdData:
		return true
	}
	return false
}

func (o Operand) IsReg(r Reg) bool { return o.Kind == OpdReg && o.Reg == r }

// IsPseudo reports whether register allocation still has to resolve o.
func (o Operand) IsPseudo() bool { return o.Kind == OpdPseudo || o.Kind == OpdPseudoMem }

// FitsInt32 reports whether an immediate can be encoded as a sign-extended 32-bit value.
func (o Operand) FitsInt32() bool {
	return o.Kind != OpdImm || (o.Imm >= -1<<31 && o.Imm < 1<<31)
}

// DispFitsInt32 reports whether a memory operand's displacement can be encoded.
func (o Operand) DispFitsInt32() bool {
	return !o.IsMemory() || (o.Offset >= -1<<31 && o.Offset < 1<<31)
}

// AddressRegs lists the registers read to form the operand's address.
func (o Operand) AddressRegs() []Reg {
	switch o.Kind {
	case OpdMemory:
		return []Reg{o.Reg}
	case OpdIndexed:
		return []Reg{o.Reg, o.Index}
	}
	return nil
}

func (o Operand) String() string {
	switch o.Kind {
	case OpdImm:
		return fmt.Sprintf("$%d", o.Imm)
	case OpdReg:
		return "%" + o.Reg.String()
	case OpdPseudo:
		return "%" + o.Name
	case OpdPseudoMem:
		return fmt.Sprintf("%s+%d", o.Name, o.Offset)
	case OpdStack:
		return fmt.Sprintf("%d(%%rbp)", o.Offset)
	case OpdMemory:
		return fmt.Sprintf("%d(%%%s)", o.Offset, o.Reg)
	case OpdIndexed:
		return fmt.Sprintf("(%%%s,%%%s,%d)", o.Reg, o.Index, o.Scale)
	case OpdData:
		if o.Offset != 0 {
			return fmt.Sprintf("%s+%d(%%rip)", o.Name, o.Offset)
		}
		return o.Name + "(%rip)"
	}
	return "_"
}
