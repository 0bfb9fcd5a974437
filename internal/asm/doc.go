// Package asm is the x86-64 assembly IR produced by code generation and
// consumed by rendering.
//
// Instruction selection emits Pseudo and PseudoMem operands; register
// allocation replaces them with registers and frame slots, and legalization
// makes every instruction encodable. Rendering then only formats.
package asm
