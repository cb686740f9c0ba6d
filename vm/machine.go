package vm

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"math"
	"strconv"
	"strings"
)

const (
	MEMORY_WORDS = 1024               // Words of combined code/stack memory.
	MAGIC        = uint32(0xDEADBEEF) // First word of a loadable program.
)

var _machine_defines = map[string]string{
	"MEMORY_WORDS": fmt.Sprintf("%v", MEMORY_WORDS),
	"MAGIC":        fmt.Sprintf("%#x", MAGIC),
}

// Machine is the execution engine: one fixed memory shared by the loaded
// program (read via Pc) and the downward-growing stack (read/written via Sp).
// The aliasing is deliberate; a program that grows its stack far enough
// overwrites its own code.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Ram [MEMORY_WORDS]uint32 // Combined code/stack memory.
	Sp  int16                // Stack pointer; MEMORY_WORDS when the stack is empty.
	Pc  int16                // Program counter, in words.

	Input  io.Reader // Line-oriented input stream.
	Output io.Writer // Output stream, flushed after every writing instruction.
}

// NewMachine creates a machine with zero-filled memory and an empty stack.
func NewMachine() (m *Machine) {
	m = &Machine{
		Sp: MEMORY_WORDS,
	}

	return
}

// Defines for the machine.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Load copies a program image into memory. The first word must be MAGIC and
// the remainder must fit; on failure memory is left untouched and the
// machine must not run.
func (m *Machine) Load(words []uint32) (err error) {
	if len(words) == 0 || words[0] != MAGIC {
		err = ErrBadMagic
		return
	}
	if len(words)-1 > MEMORY_WORDS {
		err = ErrProgramSize
		return
	}

	copy(m.Ram[:], words[1:])
	m.Sp = MEMORY_WORDS
	m.Pc = 0

	return
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  pc: %04x\n  sp: %04x\n", uint16(m.Pc), uint16(m.Sp))
	m.dumpStack(&sb)
	text = sb.String()

	return
}

// Run drives the fetch/execute loop until a clean halt or a fault.
func (m *Machine) Run() (code uint8, err error) {
	for {
		var done bool
		done, code, err = m.Step()
		if done || err != nil {
			return
		}
	}
}

// Step fetches, decodes, and executes the instruction at Pc.
// done is true once an Exit has executed; code is its halt code.
func (m *Machine) Step() (done bool, code uint8, err error) {
	if m.Pc < 0 || int(m.Pc) >= MEMORY_WORDS {
		err = ErrPcRange
		return
	}

	inst, err := Decode(m.Ram[m.Pc])
	if err != nil {
		return
	}

	if m.Verbose {
		log.Printf("%03x: %v", uint16(m.Pc), inst)
	}

	return m.execute(inst)
}

// execute applies a single decoded instruction to the machine state.
// Control-transfer instructions set next_pc themselves; everything else
// falls through to the implicit increment.
func (m *Machine) execute(inst Instruction) (done bool, code uint8, err error) {
	next_pc := m.Pc + 1

	switch inst.Kind {
	case INST_EXIT:
		done = true
		code = uint8(inst.Value)
		return
	case INST_SWAP:
		from := int(m.Sp) + int(inst.From/4)
		to := int(m.Sp) + int(inst.To/4)
		var fv, tv uint32
		fv, err = m.at(from)
		if err != nil {
			return
		}
		tv, err = m.at(to)
		if err != nil {
			return
		}
		m.Ram[from], m.Ram[to] = tv, fv
	case INST_NOP:
		// pass
	case INST_INPUT:
		var line string
		line, err = m.readLine()
		if err != nil {
			return
		}
		var word uint32
		word, err = parseNumber(strings.TrimSpace(line))
		if err != nil {
			return
		}
		err = m.push(word)
	case INST_STINPUT:
		err = m.stringInput(inst.Value)
	case INST_DEBUG:
		log.Printf("debug %#06x:\n%v", inst.Value, m)
	case INST_POP:
		sp := int32(m.Sp) + int32(inst.Value/4)
		if sp > MEMORY_WORDS {
			sp = MEMORY_WORDS
		}
		if sp < 0 {
			sp = 0
		}
		m.Sp = int16(sp)
	case INST_BINARY:
		err = m.binary(inst.Binary)
	case INST_UNARY:
		err = m.unary(inst.Unary)
	case INST_STPRINT:
		err = m.stringPrint(inst.Offset)
	case INST_CALL:
		err = m.push(uint32(m.Pc + 1))
		if err != nil {
			return
		}
		next_pc = m.Pc + int16(inst.Offset)
	case INST_RETURN:
		var addr uint32
		addr, err = m.at(int(m.Sp))
		if err != nil {
			return
		}
		// The clamp uses the pre-adjustment Sp, as the machine has
		// always encoded it.
		extra := int32(inst.Value / 4)
		if limit := int32(MEMORY_WORDS) - int32(m.Sp); extra > limit {
			extra = limit
		}
		if extra < 0 {
			extra = 0
		}
		m.Sp = int16(int32(m.Sp) + 1 + extra)
		next_pc = int16(addr)
	case INST_GOTO:
		next_pc = m.Pc + int16(inst.Offset)
	case INST_IF:
		var taken bool
		taken, err = m.compare(inst.Cond)
		if err != nil {
			return
		}
		if taken {
			next_pc = m.Pc + int16(inst.Offset)
		}
	case INST_UNARY_IF:
		var taken bool
		taken, err = m.compareZero(inst.UnaryCond)
		if err != nil {
			return
		}
		if taken {
			next_pc = m.Pc + int16(inst.Offset)
		}
	case INST_DUP:
		var word uint32
		word, err = m.at(int(m.Sp) + int(inst.Value/4))
		if err != nil {
			return
		}
		err = m.push(word)
	case INST_PRINT:
		err = m.print(inst.Offset, inst.Radix)
	case INST_DUMP:
		err = m.dumpStack(m.Output)
		if err != nil {
			return
		}
		err = m.flush()
	case INST_PUSH:
		err = m.push(inst.Value)
	}
	if err != nil {
		return
	}

	m.Pc = next_pc

	return
}

// at returns the memory word at index, faulting outside the address space.
func (m *Machine) at(index int) (value uint32, err error) {
	if index < 0 || index >= MEMORY_WORDS {
		err = ErrMemRange
		return
	}
	value = m.Ram[index]

	return
}

// push writes a word at the new top of stack.
func (m *Machine) push(word uint32) (err error) {
	if m.Sp <= 0 {
		err = ErrStackOverflow
		return
	}
	if m.Sp > MEMORY_WORDS {
		err = ErrMemRange
		return
	}
	m.Sp--
	m.Ram[m.Sp] = word

	return
}

// binary pops the right operand at Sp and the left at Sp+1, then pushes one
// result; net effect is Sp+1. Operands are reinterpreted as signed two's
// complement only at the point of use.
func (m *Machine) binary(op BinaryOp) (err error) {
	right, err := m.at(int(m.Sp))
	if err != nil {
		return
	}
	left, err := m.at(int(m.Sp) + 1)
	if err != nil {
		return
	}

	a := int32(left)
	b := int32(right)

	var result uint32
	switch op {
	case BINARY_OP_ADD:
		result = uint32(a + b)
	case BINARY_OP_SUB:
		result = uint32(a - b)
	case BINARY_OP_MUL:
		result = uint32(a * b)
	case BINARY_OP_DIV:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		if a == math.MinInt32 && b == -1 {
			// Quotient overflow wraps.
			result = uint32(a)
		} else {
			result = uint32(a / b)
		}
	case BINARY_OP_REM:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		if a == math.MinInt32 && b == -1 {
			result = 0
		} else {
			result = uint32(a % b)
		}
	case BINARY_OP_AND:
		result = left & right
	case BINARY_OP_OR:
		result = left | right
	case BINARY_OP_XOR:
		result = left ^ right
	case BINARY_OP_SHL:
		result = left << (right & 0x1f)
	case BINARY_OP_SHR:
		result = left >> (right & 0x1f)
	case BINARY_OP_ASHR:
		result = uint32(int32(left) >> (right & 0x1f))
	}

	m.Sp += 2

	return m.push(result)
}

// unary pops one operand and pushes one result; Sp is unchanged overall.
func (m *Machine) unary(op UnaryOp) (err error) {
	value, err := m.at(int(m.Sp))
	if err != nil {
		return
	}

	var result uint32
	switch op {
	case UNARY_OP_NEG:
		// Negation of the minimum representable value wraps.
		result = uint32(-int32(value))
	case UNARY_OP_NOT:
		result = ^value
	}

	m.Sp++

	return m.push(result)
}

// compare peeks the right operand at Sp and the left at Sp+1 without
// popping either.
func (m *Machine) compare(op CondOp) (taken bool, err error) {
	right, err := m.at(int(m.Sp))
	if err != nil {
		return
	}
	left, err := m.at(int(m.Sp) + 1)
	if err != nil {
		return
	}

	a := int32(left)
	b := int32(right)

	switch op {
	case COND_OP_EQ:
		taken = a == b
	case COND_OP_NE:
		taken = a != b
	case COND_OP_LT:
		taken = a < b
	case COND_OP_GT:
		taken = a > b
	case COND_OP_LE:
		taken = a <= b
	case COND_OP_GE:
		taken = a >= b
	}

	return
}

// compareZero peeks the word at Sp without popping.
func (m *Machine) compareZero(op UnaryCondOp) (taken bool, err error) {
	value, err := m.at(int(m.Sp))
	if err != nil {
		return
	}

	switch op {
	case UNARY_COND_EZ:
		taken = value == 0
	case UNARY_COND_NZ:
		taken = value != 0
	case UNARY_COND_LTZ:
		taken = int32(value) < 0
	case UNARY_COND_GEZ:
		taken = int32(value) >= 0
	}

	return
}

// readLine reads bytes one at a time, stopping without including a newline
// or NUL. End of stream is never a fault: a reader may also deliver EOF
// together with the final byte.
func (m *Machine) readLine() (line string, err error) {
	var buf []byte
	var one [1]byte
	for {
		var n int
		n, err = m.Input.Read(one[:])
		if n > 0 {
			if one[0] == '\n' || one[0] == 0 {
				break
			}
			buf = append(buf, one[0])
		}
		if err != nil {
			break
		}
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	line = string(buf)

	return
}

// parseNumber parses Input text: hexadecimal with an 0x prefix, binary with
// 0b, decimal otherwise.
func parseNumber(text string) (value uint32, err error) {
	var v64 uint64
	switch {
	case strings.HasPrefix(text, "0x"):
		v64, err = strconv.ParseUint(text[2:], 16, 32)
	case strings.HasPrefix(text, "0b"):
		v64, err = strconv.ParseUint(text[2:], 2, 32)
	default:
		v64, err = strconv.ParseUint(text, 10, 32)
	}
	if err != nil {
		err = ErrParseNumber(text)
		return
	}
	value = uint32(v64)

	return
}

// stringInput reads a line, trims and truncates it, then packs it into
// 3-byte big-endian words pushed most-significant chunk last, so the string
// reconstructs walking forward from Sp. An empty line pushes a single zero
// word.
func (m *Machine) stringInput(maxChars uint32) (err error) {
	line, err := m.readLine()
	if err != nil {
		return
	}

	text := strings.TrimSpace(line)
	if len(text) == 0 {
		return m.push(0)
	}
	if uint32(len(text)) > maxChars {
		text = text[:maxChars]
	}

	buf := []byte(text)
	for len(buf)%3 != 0 {
		buf = append(buf, STRING_PAD)
	}

	// The lexically-last chunk goes in first and is the only one without
	// the continuation flag.
	for n := len(buf); n > 0; n -= 3 {
		word := uint32(buf[n-3])<<16 | uint32(buf[n-2])<<8 | uint32(buf[n-1])
		if n != len(buf) {
			word |= STRING_MORE
		}
		err = m.push(word)
		if err != nil {
			return
		}
	}

	return
}

// stringPrint walks memory forward from Sp plus the byte offset, emitting
// the low three bytes of each word except sentinel padding, until the
// continuation flag is absent or index 0 is reached.
func (m *Machine) stringPrint(offset int32) (err error) {
	index := int(m.Sp) + int(offset/4)
	for {
		var word uint32
		word, err = m.at(index)
		if err != nil {
			return
		}

		for _, b := range [3]byte{byte(word >> 16), byte(word >> 8), byte(word)} {
			if b == STRING_PAD {
				continue
			}
			_, err = m.Output.Write([]byte{b})
			if err != nil {
				return
			}
		}

		if word&STRING_MORE == 0 || index == 0 {
			break
		}
		index++
	}

	return m.flush()
}

// print peeks the word at Sp plus the byte offset and writes it as one line
// in the selected radix. The offset's low 2 bits carry the radix and sit
// below the word granularity of the offset itself.
func (m *Machine) print(offset int32, radix PrintRadix) (err error) {
	value, err := m.at(int(m.Sp) + int(offset/4))
	if err != nil {
		return
	}

	switch radix {
	case RADIX_DEC:
		_, err = fmt.Fprintf(m.Output, "%d\n", int32(value))
	case RADIX_HEX:
		_, err = fmt.Fprintf(m.Output, "0x%x\n", value)
	case RADIX_BIN:
		_, err = fmt.Fprintf(m.Output, "0b%b\n", value)
	case RADIX_OCT:
		_, err = fmt.Fprintf(m.Output, "0o%o\n", value)
	}
	if err != nil {
		return
	}

	return m.flush()
}

// dumpStack writes one line per occupied stack slot, byte addresses
// relative to Sp. An empty stack writes nothing.
func (m *Machine) dumpStack(w io.Writer) (err error) {
	for n := int(m.Sp); n < MEMORY_WORDS; n++ {
		_, err = fmt.Fprintf(w, "%04x: %08x\n", (n-int(m.Sp))*4, m.Ram[n])
		if err != nil {
			return
		}
	}

	return
}

// flush forwards to the output's Flush when it has one; raw streams are
// unbuffered and need none.
func (m *Machine) flush() (err error) {
	type flusher interface{ Flush() error }
	if fl, ok := m.Output.(flusher); ok {
		err = fl.Flush()
	}

	return
}
