// Package render prints the assembly IR as AT&T syntax for the GNU and
// Apple assemblers. It only formats; every decision about instructions is
// made by codegen.
package render

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"mcc/internal/asm"
	"mcc/internal/tacky"
	"mcc/internal/target"
	"mcc/internal/types"
)

// ErrUnallocated is returned when the program still contains pseudo operands.
var ErrUnallocated = errors.New("unallocated operand")

type Emitter struct {
	prog   *asm.Program
	tgt    target.Target
	buf    strings.Builder
	consts map[string]bool
}

// EmitProgram renders prog for tgt.
func EmitProgram(prog *asm.Program, tgt target.Target) (string, error) {
	e := &Emitter{
		prog:   prog,
		tgt:    tgt,
		consts: make(map[string]bool, len(prog.Constants)),
	}
	for _, c := range prog.Constants {
		e.consts[c.Name] = true
	}
	for _, fn := range prog.Functions {
		if err := e.emitFunction(fn); err != nil {
			return "", err
		}
	}
	for _, v := range prog.StaticVars {
		e.emitStaticVar(v)
	}
	e.emitConstants()
	if e.tgt.OS == target.Linux {
		e.buf.WriteString("\t.section .note.GNU-stack,\"\",@progbits\n")
	}
	return e.buf.String(), nil
}

func (e *Emitter) symbol(name string) string {
	if e.consts[name] {
		return e.tgt.LocalLabelPrefix() + name
	}
	return e.tgt.SymbolPrefix() + name
}

func (e *Emitter) label(name string) string { return e.tgt.LocalLabelPrefix() + name }

func (e *Emitter) emitFunction(fn *asm.Function) error {
	name := e.symbol(fn.Name)
	if fn.Global {
		fmt.Fprintf(&e.buf, "\t.globl %s\n", name)
	}
	fmt.Fprintf(&e.buf, "\t.text\n%s:\n", name)
	for _, in := range fn.Instrs {
		if err := e.emitInstr(in); err != nil {
			return fmt.Errorf("%s: %w", fn.Name, err)
		}
	}
	e.buf.WriteString("\n")
	return nil
}

func (e *Emitter) emitStaticVar(v asm.StaticVar) {
	name := e.symbol(v.Name)
	if v.Global {
		fmt.Fprintf(&e.buf, "\t.globl %s\n", name)
	}
	if v.IsZero() {
		e.buf.WriteString("\t.bss\n")
	} else {
		e.buf.WriteString("\t.data\n")
	}
	fmt.Fprintf(&e.buf, "\t.balign %d\n%s:\n", v.Align, name)
	if v.IsZero() {
		var size int64
		for _, in := range v.Init {
			size += in.Size()
		}
		fmt.Fprintf(&e.buf, "\t.zero %d\n\n", size)
		return
	}
	for _, in := range v.Init {
		if in.Kind == tacky.InitZero {
			fmt.Fprintf(&e.buf, "\t.zero %d\n", in.Bytes)
			continue
		}
		c := in.Value
		switch c.Kind {
		case types.Int, types.UInt:
			fmt.Fprintf(&e.buf, "\t.long %d\n", int32(c.Int)) // #nosec G115 -- same bits
		case types.Double:
			fmt.Fprintf(&e.buf, "\t.quad %d\n", math.Float64bits(c.Float))
		default:
			fmt.Fprintf(&e.buf, "\t.quad %d\n", c.Int)
		}
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) emitConstants() {
	for _, c := range e.prog.Constants {
		switch {
		case e.tgt.OS == target.Linux:
			e.buf.WriteString("\t.section .rodata\n")
		case c.Align == 16:
			e.buf.WriteString("\t.literal16\n")
		default:
			e.buf.WriteString("\t.literal8\n")
		}
		fmt.Fprintf(&e.buf, "\t.balign %d\n%s:\n\t.quad %d\n", c.Align, e.symbol(c.Name), c.Bits)
		if e.tgt.OS == target.Darwin && c.Align == 16 {
			// literal16 entries are 16 bytes long.
			e.buf.WriteString("\t.quad 0\n")
		}
		e.buf.WriteString("\n")
	}
}
