package vm

import (
	"encoding/binary"
	"io"
	"iter"
)

// ReadProgram reads a flat binary program: 4-byte little-endian words, the
// first of which must be MAGIC (on disk, bytes EF BE AD DE). A trailing
// chunk shorter than a word is malformed.
func ReadProgram(r io.Reader) (words []uint32, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}
	if len(data)%4 != 0 {
		err = ErrProgramShort
		return
	}

	words = make([]uint32, 0, len(data)/4)
	for n := 0; n < len(data); n += 4 {
		words = append(words, binary.LittleEndian.Uint32(data[n:]))
	}

	return
}

// WriteProgram writes words in the flat binary program format.
func WriteProgram(w io.Writer, words []uint32) (err error) {
	data := make([]byte, 4*len(words))
	for n, word := range words {
		binary.LittleEndian.PutUint32(data[n*4:], word)
	}
	_, err = w.Write(data)

	return
}

// Opcode represents a line of assembled code with its source location and
// generated instruction word.
type Opcode struct {
	LineNo    int      // Source line that produced this word.
	Pc        int      // Load address, in words.
	Words     []string // Tokenized source text.
	Code      uint32   // Encoded instruction word.
	LinkLabel string   // Branch target resolved at link time.
}

// Program is an assembled listing. It keeps the source mapping so runtime
// faults can be reported against assembly lines.
type Program struct {
	Opcodes []Opcode
}

// Debug returns the listing entry loaded at pc, or nil.
func (prog *Program) Debug(pc uint16) (op *Opcode) {
	for n := range prog.Opcodes {
		if prog.Opcodes[n].Pc == int(pc) {
			op = &prog.Opcodes[n]
			break
		}
	}

	return
}

// Binary serializes the listing as a loadable image: the magic word
// followed by one word per opcode.
func (prog *Program) Binary() (bins []uint32) {
	bins = append(bins, MAGIC)
	for _, code := range prog.Codes() {
		bins = append(bins, code)
	}

	return
}

// Codes iterates the generated instruction words in load order.
func (prog *Program) Codes() iter.Seq2[uint16, uint32] {
	return func(yield func(pc uint16, code uint32) bool) {
		for _, op := range prog.Opcodes {
			if !yield(uint16(op.Pc), op.Code) {
				return
			}
		}
	}
}
