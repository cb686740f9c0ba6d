package vm

import (
	"fmt"
	"iter"
	"maps"
)

// Opcode groups, selected by bits 31-28 of an instruction word.
const (
	GROUP_MISC     = 0x0 // Exit, Swap, Nop, Input, Stinput, Debug
	GROUP_POP      = 0x1
	GROUP_BINARY   = 0x2
	GROUP_UNARY    = 0x3
	GROUP_STPRINT  = 0x4
	GROUP_CALL     = 0x5
	GROUP_RETURN   = 0x6
	GROUP_GOTO     = 0x7
	GROUP_IF       = 0x8
	GROUP_UNARY_IF = 0x9
	GROUP_DUP      = 0xC
	GROUP_PRINT    = 0xD
	GROUP_DUMP     = 0xE
	GROUP_PUSH     = 0xF
)

// Miscellaneous sub-opcodes, bits 27-24 of a GROUP_MISC word.
const (
	MISC_EXIT    = 0x0
	MISC_SWAP    = 0x1
	MISC_NOP     = 0x2
	MISC_INPUT   = 0x4
	MISC_STINPUT = 0x5
	MISC_DEBUG   = 0xF
)

// Packed string encoding constants, shared by Stinput and Stprint.
const (
	STRING_MORE = uint32(0x01000000) // Continuation flag: more packed words follow.
	STRING_PAD  = byte(1)            // Sentinel padding byte, never printed.
)

var _opcode_defines = map[string]string{
	"STRING_MORE": fmt.Sprintf("%#x", STRING_MORE),
	"STRING_PAD":  fmt.Sprintf("%#x", STRING_PAD),
}

// CodecDefines lists the string-packing constants for the assembler.
func CodecDefines() iter.Seq2[string, string] {
	return maps.All(_opcode_defines)
}

// Kind is the decoded instruction variant.
type Kind int

//go:generate go tool stringer -linecomment -type=Kind
const (
	INST_EXIT     = Kind(iota) // exit
	INST_SWAP                  // swap
	INST_NOP                   // nop
	INST_INPUT                 // input
	INST_STINPUT               // stinput
	INST_DEBUG                 // debug
	INST_POP                   // pop
	INST_BINARY                // binary
	INST_UNARY                 // unary
	INST_STPRINT               // stprint
	INST_CALL                  // call
	INST_RETURN                // return
	INST_GOTO                  // goto
	INST_IF                    // if
	INST_UNARY_IF              // ifz
	INST_DUP                   // dup
	INST_PRINT                 // print
	INST_DUMP                  // dump
	INST_PUSH                  // push
)

// BinaryOp is a two-operand arithmetic operation type.
type BinaryOp int

//go:generate go tool stringer -linecomment -type=BinaryOp
const (
	BINARY_OP_ADD  = BinaryOp(iota) // add
	BINARY_OP_SUB                   // sub
	BINARY_OP_MUL                   // mul
	BINARY_OP_DIV                   // div
	BINARY_OP_REM                   // rem
	BINARY_OP_AND                   // and
	BINARY_OP_OR                    // or
	BINARY_OP_XOR                   // xor
	BINARY_OP_SHL                   // shl
	BINARY_OP_SHR                   // shr
	BINARY_OP_ASHR                  // ashr
)

// The arithmetic-shift sub-opcode skips 0xA in the encoding.
const _BINARY_SUB_ASHR = 0xB

// UnaryOp is a one-operand arithmetic operation type.
type UnaryOp int

//go:generate go tool stringer -linecomment -type=UnaryOp
const (
	UNARY_OP_NEG = UnaryOp(iota) // neg
	UNARY_OP_NOT                 // not
)

// CondOp is a two-operand comparison type.
type CondOp int

//go:generate go tool stringer -linecomment -type=CondOp
const (
	COND_OP_EQ = CondOp(iota) // eq
	COND_OP_NE                // ne
	COND_OP_LT                // lt
	COND_OP_GT                // gt
	COND_OP_LE                // le
	COND_OP_GE                // ge
)

// UnaryCondOp is a compare-against-zero type.
type UnaryCondOp int

//go:generate go tool stringer -linecomment -type=UnaryCondOp
const (
	UNARY_COND_EZ  = UnaryCondOp(iota) // ez
	UNARY_COND_NZ                      // nz
	UNARY_COND_LTZ                     // ltz
	UNARY_COND_GEZ                     // gez
)

// PrintRadix selects the Print output base, carried in the low 2 bits of
// the Print byte offset.
type PrintRadix int

//go:generate go tool stringer -linecomment -type=PrintRadix
const (
	RADIX_DEC = PrintRadix(iota) // dec
	RADIX_HEX                    // hex
	RADIX_BIN                    // bin
	RADIX_OCT                    // oct
)

// Instruction is a decoded instruction word: a Kind plus the operand fields
// extracted from the 32-bit encoding. Created fresh on every fetch, never
// stored back to memory.
type Instruction struct {
	Kind      Kind
	Binary    BinaryOp    // INST_BINARY operation.
	Unary     UnaryOp     // INST_UNARY operation.
	Cond      CondOp      // INST_IF comparison.
	UnaryCond UnaryCondOp // INST_UNARY_IF comparison.
	Radix     PrintRadix  // INST_PRINT output base.
	Value     uint32      // Unsigned operand: halt code, counts, immediates.
	Offset    int32       // Signed operand: byte or word offset, per Kind.
	From      int16       // INST_SWAP stack-relative byte offsets.
	To        int16
}

// signExtend reinterprets the low 'bits' bits of value as a signed two's
// complement quantity.
func signExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

// Decode maps a 32-bit word to exactly one instruction variant.
// Decode is pure: it never touches machine state, so it can be tested
// against literal word fixtures.
func Decode(word uint32) (inst Instruction, err error) {
	switch word >> 28 {
	case GROUP_MISC:
		switch (word >> 24) & 0xf {
		case MISC_EXIT:
			inst = Instruction{Kind: INST_EXIT, Value: word & 0xff}
		case MISC_SWAP:
			inst = Instruction{
				Kind: INST_SWAP,
				From: int16(signExtend((word>>12)&0xfff, 12)),
				To:   int16(signExtend(word&0xfff, 12)),
			}
		case MISC_NOP:
			inst = Instruction{Kind: INST_NOP}
		case MISC_INPUT:
			inst = Instruction{Kind: INST_INPUT}
		case MISC_STINPUT:
			inst = Instruction{Kind: INST_STINPUT, Value: word & 0xffffff}
		case MISC_DEBUG:
			inst = Instruction{Kind: INST_DEBUG, Value: word & 0xffffff}
		default:
			err = ErrIllegal(word)
		}
	case GROUP_POP:
		inst = Instruction{Kind: INST_POP, Value: word & 0x0fffffff}
	case GROUP_BINARY:
		sub := (word >> 24) & 0xf
		switch {
		case sub <= uint32(BINARY_OP_SHR):
			inst = Instruction{Kind: INST_BINARY, Binary: BinaryOp(sub)}
		case sub == _BINARY_SUB_ASHR:
			inst = Instruction{Kind: INST_BINARY, Binary: BINARY_OP_ASHR}
		default:
			err = ErrIllegal(word)
		}
	case GROUP_UNARY:
		sub := (word >> 24) & 0xf
		if sub > uint32(UNARY_OP_NOT) {
			err = ErrIllegal(word)
			return
		}
		inst = Instruction{Kind: INST_UNARY, Unary: UnaryOp(sub)}
	case GROUP_STPRINT:
		// Signed cast before the 28-bit mask makes the sign bit
		// unreachable; the offset is effectively non-negative.
		inst = Instruction{Kind: INST_STPRINT, Offset: int32(word) & 0x0fffffff}
	case GROUP_CALL:
		inst = Instruction{Kind: INST_CALL, Offset: signExtend(word&0x03ffffff, 26)}
	case GROUP_RETURN:
		inst = Instruction{Kind: INST_RETURN, Value: word & 0x03ffffff}
	case GROUP_GOTO:
		inst = Instruction{Kind: INST_GOTO, Offset: signExtend((word>>2)&0xffffff, 24)}
	case GROUP_IF:
		sub := (word >> 25) & 0x7
		if sub > uint32(COND_OP_GE) {
			err = ErrIllegal(word)
			return
		}
		inst = Instruction{
			Kind:   INST_IF,
			Cond:   CondOp(sub),
			Offset: signExtend((word>>2)&0x7fffff, 23),
		}
	case GROUP_UNARY_IF:
		inst = Instruction{
			Kind:      INST_UNARY_IF,
			UnaryCond: UnaryCondOp((word >> 25) & 0x3),
			Offset:    signExtend(word&0xffffff, 24),
		}
	case GROUP_DUP:
		inst = Instruction{Kind: INST_DUP, Value: word & 0x0fffffff}
	case GROUP_PRINT:
		inst = Instruction{
			Kind:   INST_PRINT,
			Offset: signExtend(word&0x0fffffff, 28),
			Radix:  PrintRadix(word & 0x3),
		}
	case GROUP_DUMP:
		inst = Instruction{Kind: INST_DUMP}
	case GROUP_PUSH:
		inst = Instruction{Kind: INST_PUSH, Value: uint32(signExtend(word&0x0fffffff, 28))}
	default:
		err = ErrIllegal(word)
	}

	return
}

// MakeExit creates a halt instruction yielding the given code.
func MakeExit(code uint8) uint32 {
	return uint32(GROUP_MISC)<<28 | uint32(MISC_EXIT)<<24 | uint32(code)
}

// MakeSwap creates an exchange of the words at the two stack-relative byte
// offsets.
func MakeSwap(from, to int16) uint32 {
	return uint32(GROUP_MISC)<<28 | uint32(MISC_SWAP)<<24 |
		(uint32(from)&0xfff)<<12 | uint32(to)&0xfff
}

// MakeNop creates a no-operation instruction.
func MakeNop() uint32 {
	return uint32(GROUP_MISC)<<28 | uint32(MISC_NOP)<<24
}

// MakeInput creates a read-number-and-push instruction.
func MakeInput() uint32 {
	return uint32(GROUP_MISC)<<28 | uint32(MISC_INPUT)<<24
}

// MakeStinput creates a read-string-and-push instruction capped at maxChars
// bytes.
func MakeStinput(maxChars uint32) uint32 {
	return uint32(GROUP_MISC)<<28 | uint32(MISC_STINPUT)<<24 | maxChars&0xffffff
}

// MakeDebug creates a diagnostic instruction.
func MakeDebug(value uint32) uint32 {
	return uint32(GROUP_MISC)<<28 | uint32(MISC_DEBUG)<<24 | value&0xffffff
}

// MakePop creates a discard of the given byte count from the stack.
func MakePop(count uint32) uint32 {
	return uint32(GROUP_POP)<<28 | count&0x0fffffff
}

// MakeBinary creates a two-operand arithmetic instruction.
func MakeBinary(op BinaryOp) uint32 {
	sub := uint32(op)
	if op == BINARY_OP_ASHR {
		sub = _BINARY_SUB_ASHR
	}
	return uint32(GROUP_BINARY)<<28 | sub<<24
}

// MakeUnary creates a one-operand arithmetic instruction.
func MakeUnary(op UnaryOp) uint32 {
	return uint32(GROUP_UNARY)<<28 | uint32(op)<<24
}

// MakeStprint creates a packed-string print at the stack-relative byte
// offset.
func MakeStprint(offset int32) uint32 {
	return uint32(GROUP_STPRINT)<<28 | uint32(offset)&0x0fffffff
}

// MakeCall creates a subroutine call to the relative word offset.
func MakeCall(words int32) uint32 {
	return uint32(GROUP_CALL)<<28 | uint32(words)&0x03ffffff
}

// MakeReturn creates a subroutine return discarding count additional bytes.
func MakeReturn(count uint32) uint32 {
	return uint32(GROUP_RETURN)<<28 | count&0x03ffffff
}

// MakeGoto creates an unconditional branch to the relative word offset.
func MakeGoto(words int32) uint32 {
	return uint32(GROUP_GOTO)<<28 | (uint32(words)<<2)&0x03fffffc
}

// MakeIf creates a two-operand conditional branch to the relative word
// offset.
func MakeIf(cond CondOp, words int32) uint32 {
	return uint32(GROUP_IF)<<28 | uint32(cond)<<25 | (uint32(words)<<2)&0x01fffffc
}

// MakeUnaryIf creates a compare-against-zero branch to the relative word
// offset.
func MakeUnaryIf(cond UnaryCondOp, words int32) uint32 {
	return uint32(GROUP_UNARY_IF)<<28 | uint32(cond)<<25 | uint32(words)&0xffffff
}

// MakeDup creates a re-push of the word at the stack-relative byte offset.
func MakeDup(offset uint32) uint32 {
	return uint32(GROUP_DUP)<<28 | offset&0x0fffffff
}

// MakePrint creates a formatted print of the word at the stack-relative
// byte offset. The radix rides in the low 2 bits of the offset field, below
// the word-granularity of the offset itself.
func MakePrint(offset int32, radix PrintRadix) uint32 {
	return uint32(GROUP_PRINT)<<28 | uint32(offset)&0x0ffffffc | uint32(radix)&0x3
}

// MakeDump creates a stack dump instruction.
func MakeDump() uint32 {
	return uint32(GROUP_DUMP) << 28
}

// MakePush creates a push of a signed 28-bit immediate.
func MakePush(value int32) uint32 {
	return uint32(GROUP_PUSH)<<28 | uint32(value)&0x0fffffff
}

// Relocate re-encodes the relative-offset field of a control-transfer word.
// Used by the assembler's label link pass; non-branch words cannot be
// relocated.
func Relocate(word uint32, words int32) (out uint32, err error) {
	switch word >> 28 {
	case GROUP_CALL:
		out = MakeCall(words)
	case GROUP_GOTO:
		out = MakeGoto(words)
	case GROUP_IF:
		out = MakeIf(CondOp((word>>25)&0x7), words)
	case GROUP_UNARY_IF:
		out = MakeUnaryIf(UnaryCondOp((word>>25)&0x3), words)
	default:
		err = ErrTargetInvalid
	}

	return
}

// String returns the assembly language representation of this instruction.
func (inst Instruction) String() (out string) {
	switch inst.Kind {
	case INST_EXIT:
		out = fmt.Sprintf("exit %d", inst.Value)
	case INST_SWAP:
		out = fmt.Sprintf("swap %d %d", inst.From, inst.To)
	case INST_STINPUT:
		out = fmt.Sprintf("stinput %d", inst.Value)
	case INST_DEBUG:
		out = fmt.Sprintf("debug %#x", inst.Value)
	case INST_POP:
		out = fmt.Sprintf("pop %d", inst.Value)
	case INST_BINARY:
		out = inst.Binary.String()
	case INST_UNARY:
		out = inst.Unary.String()
	case INST_STPRINT:
		out = fmt.Sprintf("stprint %d", inst.Offset)
	case INST_CALL:
		out = fmt.Sprintf("call %+d", inst.Offset)
	case INST_RETURN:
		out = fmt.Sprintf("return %d", inst.Value)
	case INST_GOTO:
		out = fmt.Sprintf("goto %+d", inst.Offset)
	case INST_IF:
		out = fmt.Sprintf("if %v %+d", inst.Cond, inst.Offset)
	case INST_UNARY_IF:
		out = fmt.Sprintf("ifz %v %+d", inst.UnaryCond, inst.Offset)
	case INST_DUP:
		out = fmt.Sprintf("dup %d", inst.Value)
	case INST_PRINT:
		out = fmt.Sprintf("print %v %d", inst.Radix, inst.Offset&^0x3)
	case INST_PUSH:
		out = fmt.Sprintf("push %d", int32(inst.Value))
	default:
		out = inst.Kind.String()
	}

	return
}
