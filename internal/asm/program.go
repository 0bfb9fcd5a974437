package asm

import (
	"mcc/internal/source"
	"mcc/internal/tacky"
)

// PseudoInfo describes a pseudo of a function before allocation.
type PseudoInfo struct {
	Name  string
	Type  Type
	Size  int64
	Align int64
	// InMemory pseudos get a frame slot: arrays and variables whose address is taken.
	InMemory bool `msgpack:",omitempty"`
}

// Function is the code of one function definition. Pseudos is only
// populated between instruction selection and register allocation.
type Function struct {
	Name        string
	Global      bool
	Instrs      []Instr
	Pseudos     []PseudoInfo `msgpack:",omitempty"`
	FrameSize   int64        `msgpack:",omitempty"` // bytes below %rbp, multiple of 16
	CalleeSaved []Reg        `msgpack:",omitempty"`
	Span        source.Span  `msgpack:",omitempty"`
}

// StaticVar is a variable in .data or .bss.
type StaticVar struct {
	Name   string
	Global bool
	Align  int64
	Init   []tacky.StaticInit
}

// IsZero reports whether the variable is entirely zero-initialized.
func (v StaticVar) IsZero() bool {
	return tacky.StaticVar{Init: v.Init}.IsZero()
}

// Constant is a read-only 8-byte floating point literal, possibly over-aligned
// so SSE instructions can use it as a 16-byte memory operand.
type Constant struct {
	Name  string
	Align int64
	Bits  uint64
}

// Program is the assembly of one translation unit.
type Program struct {
	Functions  []*Function
	StaticVars []StaticVar
	Constants  []Constant
}

// Defines reports whether name is a function defined in the unit.
func (p *Program) Defines(name string) bool {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return true
		}
	}
	return false
}
