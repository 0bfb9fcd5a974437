package asm

import (
	"fmt"
	"strings"
)

type InstrKind uint8

const (
	Mov InstrKind = iota
	Movsx
	MovZeroExtend
	Lea
	Cvttsd2si
	Cvtsi2sd
	Unary
	Binary
	Cmp
	Idiv
	Div
	Cdq
	Jmp
	JmpCC
	SetCC
	Label
	Push
	Pop
	Call
	Ret
)

var instrKindNames = [...]string{
	Mov:           "Mov",
	Movsx:         "Movsx",
	MovZeroExtend: "MovZeroExtend",
	Lea:           "Lea",
	Cvttsd2si:     "Cvttsd2si",
	Cvtsi2sd:      "Cvtsi2sd",
	Unary:         "Unary",
	Binary:        "Binary",
	Cmp:           "Cmp",
	Idiv:          "Idiv",
	Div:           "Div",
	Cdq:           "Cdq",
	Jmp:           "Jmp",
	JmpCC:         "JmpCC",
	SetCC:         "SetCC",
	Label:         "Label",
	Push:          "Push",
	Pop:           "Pop",
	Call:          "Call",
	Ret:           "Ret",
}

func (k InstrKind) String() string {
	if int(k) < len(instrKindNames) {
		return instrKindNames[k]
	}
	return "Unknown"
}

type Op uint8

const (
	OpNeg Op = iota
	OpNot
	OpAdd
	OpSub
	OpMult
	OpDivDouble
	OpAnd
	OpOr
	OpXor
	OpShl
	OpSar
	OpShr
)

var opNames = [...]string{
	OpNeg: "neg", OpNot: "not", OpAdd: "add", OpSub: "sub", OpMult: "imul",
	OpDivDouble: "div", OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpShl: "shl", OpSar: "sar", OpShr: "shr",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

func (op Op) IsShift() bool { return op == OpShl || op == OpSar || op == OpShr }

// Cond is a condition code of JmpCC and SetCC.
type Cond uint8

const (
	CondE Cond = iota
	CondNE
	CondL
	CondLE
	CondG
	CondGE
	CondB
	CondBE
	CondA
	CondAE
	CondP
	CondNP
)

var condNames = [...]string{
	CondE: "e", CondNE: "ne", CondL: "l", CondLE: "le", CondG: "g", CondGE: "ge",
	CondB: "b", CondBE: "be", CondA: "a", CondAE: "ae", CondP: "p", CondNP: "np",
}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return "?"
}

// Instr is one machine instruction. Field use per kind:
//
//	Mov                    Type Src -> Dst
//	Movsx, MovZeroExtend   SrcType Src -> Type Dst
//	Lea                    &Src -> Dst (quad)
//	Cvttsd2si              double Src -> Type Dst
//	Cvtsi2sd               Type Src -> double Dst
//	Unary                  Op Type Dst
//	Binary                 Dst = Dst Op Src
//	Cmp                    flags of Dst - Src
//	Idiv, Div              AX:DX / Src
//	Cdq                    sign-extend AX into DX (cqo for quad)
//	Jmp, Label             Label
//	JmpCC                  Cond Label
//	SetCC                  Cond Dst (byte)
//	Push                   Src (quad)
//	Pop                    Dst (register)
//	Call                   Func; Regs holds the argument registers
//	Ret                    Regs holds the return registers
type Instr struct {
	Kind    InstrKind
	Type    Type    `msgpack:",omitempty"`
	SrcType Type    `msgpack:",omitempty"`
	Op      Op      `msgpack:",omitempty"`
	Cond    Cond    `msgpack:",omitempty"`
	Src     Operand `msgpack:",omitempty"`
	Dst     Operand `msgpack:",omitempty"`
	Label   string  `msgpack:",omitempty"`
	Func    string  `msgpack:",omitempty"`
	Regs    []Reg   `msgpack:",omitempty"`
}

// Operands returns pointers to the explicit operands so passes can rewrite
// them in place.
func (in *Instr) Operands() []*Operand {
	switch in.Kind {
	case Jmp, JmpCC, Label, Call, Ret:
		return nil
	case Unary, SetCC, Pop:
		return []*Operand{&in.Dst}
	case Idiv, Div, Push:
		return []*Operand{&in.Src}
	case Cdq:
		return nil
	}
	return []*Operand{&in.Src, &in.Dst}
}

// IsZeroIdiom reports whether in is "xor x, x", which writes x without reading it.
func (in Instr) IsZeroIdiom() bool {
	return in.Kind == Binary && in.Op == OpXor && in.Src == in.Dst &&
		(in.Src.Kind == OpdReg || in.Src.Kind == OpdPseudo)
}

// Effects lists the register and pseudo operands in reads and writes. Memory
// operands contribute the registers of their address to reads.
func (in Instr) Effects() (reads, writes []Operand) {
	read := func(o Operand) {
		switch o.Kind {
		case OpdReg, OpdPseudo:
			reads = append(reads, o)
		default:
			for _, r := range o.AddressRegs() {
				reads = append(reads, Register(r))
			}
		}
	}
	write := func(o Operand) {
		switch o.Kind {
		case OpdReg, OpdPseudo:
			writes = append(writes, o)
		default:
			for _, r := range o.AddressRegs() {
				reads = append(reads, Register(r))
			}
		}
	}

	switch in.Kind {
	case Mov, Movsx, MovZeroExtend, Cvttsd2si, Cvtsi2sd, Lea:
		read(in.Src)
		write(in.Dst)
	case Unary:
		read(in.Dst)
		write(in.Dst)
	case Binary:
		if !in.IsZeroIdiom() {
			read(in.Src)
			read(in.Dst)
		}
		write(in.Dst)
	case Cmp:
		read(in.Src)
		read(in.Dst)
	case Idiv, Div:
		read(in.Src)
		read(Register(AX))
		read(Register(DX))
		write(Register(AX))
		write(Register(DX))
	case Cdq:
		read(Register(AX))
		write(Register(DX))
	case SetCC:
		// setcc only writes the low byte; the rest must already be defined.
		read(in.Dst)
		write(in.Dst)
	case Push:
		read(in.Src)
	case Pop:
		write(in.Dst)
	case Call:
		for _, r := range in.Regs {
			read(Register(r))
		}
		for r := range Reg(NumRegs) {
			if CallerSaved(r) {
				write(Register(r))
			}
		}
	case Ret:
		for _, r := range in.Regs {
			read(Register(r))
		}
	}
	return reads, writes
}

// IsJump reports whether control may continue at in.Label.
func (in Instr) IsJump() bool { return in.Kind == Jmp || in.Kind == JmpCC }

func (in Instr) String() string {
	var sb strings.Builder
	sb.WriteString(in.Kind.String())
	switch in.Kind {
	case Unary, Binary:
		fmt.Fprintf(&sb, "(%s)", in.Op)
	case JmpCC, SetCC:
		fmt.Fprintf(&sb, "(%s)", in.Cond)
	}
	switch in.Kind {
	case Jmp, JmpCC, Label:
		return sb.String() + " " + in.Label
	case Call:
		return sb.String() + " " + in.Func
	case Ret, Cdq:
		return sb.String()
	}
	fmt.Fprintf(&sb, " %s", in.Type)
	var ops []string
	for _, o := range in.Operands() {
		ops = append(ops, o.String())
	}
	return sb.String() + " " + strings.Join(ops, ", ")
}
