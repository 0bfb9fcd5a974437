package asm

import (
	"errors"
	"fmt"
)

// ErrIllegal is wrapped by every error Validate returns.
var ErrIllegal = errors.New("illegal instruction")

// Validate checks that a finalized function has no pseudo operands, that its
// labels are consistent and that every instruction is encodable.
func Validate(fn *Function) error {
	var errs []error
	fail := func(i int, in Instr, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w in %s at %d (%s): %s", ErrIllegal, fn.Name, i, in, fmt.Sprintf(format, args...)))
	}

	labels := make(map[string]bool)
	for i, in := range fn.Instrs {
		if in.Kind != Label {
			continue
		}
		if labels[in.Label] {
			fail(i, in, "duplicate label")
		}
		labels[in.Label] = true
	}

	for i := range fn.Instrs {
		in := fn.Instrs[i]
		for _, o := range in.Operands() {
			if o.IsPseudo() {
				fail(i, in, "unallocated operand %s", o)
			}
			if !o.DispFitsInt32() {
				fail(i, in, "displacement %d out of range", o.Offset)
			}
		}
		if in.IsJump() && !labels[in.Label] {
			fail(i, in, "undefined label")
		}
		if msg := checkOperands(in); msg != "" {
			fail(i, in, "%s", msg)
		}
	}
	return errors.Join(errs...)
}

func isSSEReg(o Operand) bool { return o.Kind == OpdReg && o.Reg.IsSSE() }

func isGPReg(o Operand) bool { return o.Kind == OpdReg && !o.Reg.IsSSE() }

// checkOperands returns a description of the first constraint in violates.
func checkOperands(in Instr) string {
	src, dst := in.Src, in.Dst
	bothMem := src.IsMemory() && dst.IsMemory()
	switch in.Kind {
	case Mov:
		switch {
		case dst.Kind == OpdImm:
			return "immediate destination"
		case bothMem:
			return "memory to memory"
		case in.Type == Double && src.Kind == OpdImm:
			return "immediate double"
		case in.Type == Quad && !src.FitsInt32() && !isGPReg(dst):
			return "64-bit immediate to memory"
		case in.Type == Double && (isGPReg(src) || isGPReg(dst)):
			return "general purpose register in double move"
		case in.Type != Double && (isSSEReg(src) || isSSEReg(dst)):
			return "SSE register in integer move"
		}
	case Movsx:
		if src.Kind == OpdImm || !isGPReg(dst) {
			return "movsx needs a non-immediate source and a register destination"
		}
	case MovZeroExtend:
		return "zero-extension must be rewritten to mov"
	case Lea:
		if !src.IsMemory() || !isGPReg(dst) {
			return "lea needs a memory source and a register destination"
		}
	case Cvttsd2si:
		if src.Kind == OpdImm || !isGPReg(dst) {
			return "cvttsd2si needs a register destination"
		}
	case Cvtsi2sd:
		if src.Kind == OpdImm || !isSSEReg(dst) {
			return "cvtsi2sd needs a non-immediate source and an SSE destination"
		}
	case Unary:
		if dst.Kind == OpdImm {
			return "immediate destination"
		}
	case Binary:
		switch {
		case dst.Kind == OpdImm:
			return "immediate destination"
		case in.Type == Double && !isSSEReg(dst):
			return "SSE arithmetic needs a register destination"
		case in.Type == Double && src.Kind == OpdImm:
			return "immediate double"
		case in.Type != Double && in.Op == OpMult && !isGPReg(dst):
			return "imul needs a register destination"
		case in.Op.IsShift() && src.Kind != OpdImm && !src.IsReg(CX):
			return "shift count must be an immediate or %cl"
		case bothMem:
			return "memory to memory"
		case !src.FitsInt32():
			return "immediate out of range"
		}
	case Cmp:
		switch {
		case dst.Kind == OpdImm:
			return "immediate second operand"
		case in.Type == Double && !isSSEReg(dst):
			return "comisd needs a register second operand"
		case bothMem:
			return "memory to memory"
		case !src.FitsInt32():
			return "immediate out of range"
		}
	case Idiv, Div:
		if src.Kind == OpdImm {
			return "immediate divisor"
		}
	case Push:
		if !src.FitsInt32() || isSSEReg(src) {
			return "push needs a 32-bit immediate, a general register or memory"
		}
	case Pop:
		if !isGPReg(dst) {
			return "pop needs a register"
		}
	case SetCC:
		if dst.Kind == OpdImm {
			return "immediate destination"
		}
	}
	return ""
}
