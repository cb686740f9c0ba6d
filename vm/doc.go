// Package vm implements a small stack-based virtual machine.
//
// The machine executes 32-bit instruction words against a single 1024-word
// memory that holds both the loaded program and the downward-growing stack.
// The instruction codec (Decode and the Make* constructors) is pure and keeps
// no machine state; the Machine owns all mutable state and the input/output
// streams.
//
// The assembler provides a line-oriented assembly language for the
// instruction set, supporting labels, equates, and compile-time expression
// evaluation.
package vm
