// Package codegen turns validated TAC into x86-64 System V assembly IR.
//
// A function goes through instruction selection over pseudos, register
// allocation, frame finalization and legalization. The result has no
// pseudo operands and passes asm.Validate.
package codegen

import (
	"errors"
	"fmt"

	"mcc/internal/asm"
	"mcc/internal/regalloc"
	"mcc/internal/tacky"
	"mcc/internal/target"
)

var (
	// ErrInvalidTAC is wrapped when the input function fails tacky.Validate.
	ErrInvalidTAC = errors.New("invalid TAC")
	// ErrUnsupportedTarget is returned for targets other than x86_64.
	ErrUnsupportedTarget = errors.New("unsupported target")
)

// Output is the code of one function together with the floating point
// constants it references.
type Output struct {
	Function  *asm.Function
	Constants []asm.Constant
}

// Select runs instruction selection only. The returned function still
// refers to pseudos and lists them in Pseudos.
func Select(fn *tacky.Function) (*asm.Function, []asm.Constant, error) {
	if err := tacky.Validate(fn); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidTAC, err)
	}
	pool := newConstPool()
	s := newSelector(fn, pool)
	s.function()
	return &asm.Function{
		Name:    fn.Name,
		Global:  fn.Global,
		Instrs:  s.out,
		Pseudos: s.pseudos,
		Span:    fn.Span,
	}, pool.consts, nil
}

// Function generates the final code of fn for tgt.
func Function(fn *tacky.Function, tgt target.Target) (*Output, error) {
	if tgt.Arch != "x86_64" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTarget, tgt)
	}
	selected, consts, err := Select(fn)
	if err != nil {
		return nil, err
	}
	res, err := regalloc.Allocate(selected)
	if err != nil {
		return nil, fmt.Errorf("codegen %s: %w", fn.Name, err)
	}
	out, err := finalize(selected, res)
	if err != nil {
		return nil, fmt.Errorf("codegen %s: %w", fn.Name, err)
	}
	out.Instrs = legalize(out.Instrs)
	if err := asm.Validate(out); err != nil {
		return nil, fmt.Errorf("codegen %s: %w", fn.Name, err)
	}
	if err := regalloc.Verify(out); err != nil {
		return nil, fmt.Errorf("codegen %s: %w", fn.Name, err)
	}
	return &Output{Function: out, Constants: consts}, nil
}

// Assemble combines per-function outputs, in order, with the static
// variables of prog. outputs[i] belongs to prog.Functions[i], whose span the
// assembled function takes.
func Assemble(prog *tacky.Program, outputs []*Output) *asm.Program {
	out := &asm.Program{}
	pools := make([][]asm.Constant, 0, len(outputs))
	for i, o := range outputs {
		fn := o.Function
		if i < len(prog.Functions) && fn.Span != prog.Functions[i].Span {
			placed := *fn
			placed.Span = prog.Functions[i].Span
			fn = &placed
		}
		out.Functions = append(out.Functions, fn)
		pools = append(pools, o.Constants)
	}
	out.Constants = mergeConstants(pools...)
	for _, v := range prog.StaticVars {
		align := v.Type.Align()
		if v.Type.IsArray() && v.Type.Size() >= 16 {
			align = 16
		}
		out.StaticVars = append(out.StaticVars, asm.StaticVar{
			Name:   v.Name,
			Global: v.Global,
			Align:  align,
			Init:   v.Init,
		})
	}
	return out
}

// Generate compiles every function of prog. prog must not be Invalid.
func Generate(prog *tacky.Program, tgt target.Target) (*asm.Program, error) {
	if prog.Invalid {
		return nil, fmt.Errorf("%w: program has errors", ErrInvalidTAC)
	}
	outputs := make([]*Output, 0, len(prog.Functions))
	for _, fn := range prog.Functions {
		o, err := Function(fn, tgt)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o)
	}
	return Assemble(prog, outputs), nil
}
