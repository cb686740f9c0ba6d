package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadProgram(t *testing.T) {
	assert := assert.New(t)

	// Magic on disk is little-endian: EF BE AD DE.
	words, err := ReadProgram(bytes.NewReader([]byte{
		0xEF, 0xBE, 0xAD, 0xDE,
		0x05, 0x00, 0x00, 0x00,
		0x05, 0x00, 0x00, 0xF0,
	}))
	assert.NoError(err)
	assert.Equal([]uint32{MAGIC, 0x00000005, 0xF0000005}, words)
}

func TestReadProgram_Truncated(t *testing.T) {
	assert := assert.New(t)

	_, err := ReadProgram(bytes.NewReader([]byte{0xEF, 0xBE, 0xAD}))
	assert.ErrorIs(err, ErrProgramShort)
}

func TestReadProgram_Empty(t *testing.T) {
	assert := assert.New(t)

	words, err := ReadProgram(bytes.NewReader(nil))
	assert.NoError(err)
	assert.Empty(words)
}

func TestWriteProgram_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	want := []uint32{MAGIC, MakePush(42), MakeExit(0)}

	buf := &bytes.Buffer{}
	err := WriteProgram(buf, want)
	assert.NoError(err)
	assert.Equal(4*len(want), buf.Len())
	assert.Equal([]byte{0xEF, 0xBE, 0xAD, 0xDE}, buf.Bytes()[:4])

	words, err := ReadProgram(buf)
	assert.NoError(err)
	assert.Equal(want, words)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Pc: 0, Code: MakePush(1)},
			{LineNo: 3, Pc: 1, Code: MakeExit(0)},
		},
	}

	assert.Equal([]uint32{MAGIC, MakePush(1), MakeExit(0)}, prog.Binary())
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 2, Pc: 0, Code: MakeNop()},
			{LineNo: 7, Pc: 1, Code: MakeExit(0)},
		},
	}

	op := prog.Debug(1)
	assert.NotNil(op)
	assert.Equal(7, op.LineNo)

	assert.Nil(prog.Debug(5))
}
