// Package cpu implements the processor and assembler for the 4-bit computer.
//
// The CPU consists of a program counter (PC), an instruction register (IS),
// two 4-bit general-purpose registers (a and b), an ALU with zero, negative
// and overflow flags, and a 16 word memory holding both code and data.
//
// The assembler provides an assembly language for the eleven-instruction set,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
