package asm

import (
	"strconv"
)

// Reg is a physical register. General purpose registers come first, then the
// SSE registers; the order is stable and used as a dense index.
type Reg uint8

const (
	AX Reg = iota
	BX
	CX
	DX
	SI
	DI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	SP
	BP

	XMM0
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15

	NumRegs = int(XMM15) + 1
)

var gpNames = [...][3]string{
	AX:  {"al", "eax", "rax"},
	BX:  {"bl", "ebx", "rbx"},
	CX:  {"cl", "ecx", "rcx"},
	DX:  {"dl", "edx", "rdx"},
	SI:  {"sil", "esi", "rsi"},
	DI:  {"dil", "edi", "rdi"},
	R8:  {"r8b", "r8d", "r8"},
	R9:  {"r9b", "r9d", "r9"},
	R10: {"r10b", "r10d", "r10"},
	R11: {"r11b", "r11d", "r11"},
	R12: {"r12b", "r12d", "r12"},
	R13: {"r13b", "r13d", "r13"},
	R14: {"r14b", "r14d", "r14"},
	R15: {"r15b", "r15d", "r15"},
	SP:  {"spl", "esp", "rsp"},
	BP:  {"bpl", "ebp", "rbp"},
}

// IsSSE reports whether r is an XMM register.
func (r Reg) IsSSE() bool { return r >= XMM0 && r <= XMM15 }

// Name returns the register name for an access of size bytes (1, 4 or 8).
// XMM registers ignore the size.
func (r Reg) Name(size int64) string {
	if r.IsSSE() {
		return "xmm" + strconv.Itoa(int(r-XMM0))
	}
	if int(r) >= len(gpNames) {
		return "?"
	}
	switch size {
	case 1:
		return gpNames[r][0]
	case 4:
		return gpNames[r][1]
	}
	return gpNames[r][2]
}

func (r Reg) String() string { return r.Name(8) }

// System V calling convention.
var (
	IntArgRegs    = []Reg{DI, SI, DX, CX, R8, R9}
	DoubleArgRegs = []Reg{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7}

	// CalleeSaved must be preserved across calls; the prologue saves the ones a
	// function uses.
	CalleeSaved = []Reg{BX, R12, R13, R14, R15}
)

// CallerSaved reports whether a call may clobber r.
func CallerSaved(r Reg) bool {
	switch r {
	case BX, R12, R13, R14, R15, SP, BP:
		return false
	}
	return true
}

// Scratch registers are reserved for legalization and never allocated.
const (
	ScratchSrc       = R10
	ScratchDst       = R11
	ScratchDoubleSrc = XMM14
	ScratchDoubleDst = XMM15
)
