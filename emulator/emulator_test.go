package emulator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryandavidperry/COSC365-VM-Machine/vm"
)

// doAssemble parses source text into a reset emulator.
func doAssemble(t *testing.T, source string) (emu *Emulator) {
	t.Helper()

	asm := &vm.Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(t, err)

	emu = NewEmulator()
	emu.Program = prog
	assert.NoError(t, emu.Reset())
	return
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t, `
    push 3
loop:
    print 0 dec
    push 1
    sub
    ifz nz loop
    exit 0
`)
	out := &bytes.Buffer{}
	emu.Machine.Output = out

	code, err := emu.Run()
	assert.NoError(err)
	assert.Equal(uint8(0), code)
	assert.Equal("3\n2\n1\n", out.String())
}

func TestEmulator_Echo(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t, `
    stinput 80
    stprint
    exit 0
`)
	emu.Machine.Input = strings.NewReader("hello world\n")
	out := &bytes.Buffer{}
	emu.Machine.Output = out

	code, err := emu.Run()
	assert.NoError(err)
	assert.Equal(uint8(0), code)
	assert.Equal("hello world", out.String())
}

func TestEmulator_Step(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t, `
    push 7
    exit 2
`)
	done, _, err := emu.Step()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(int16(1), emu.Machine.Pc)

	done, code, err := emu.Step()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint8(2), code)
}

// A fault carries the assembly source line of the instruction that raised
// it.
func TestEmulator_RuntimeLineNo(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t, `
    push 1
    push 0
    div
    exit 0
`)
	_, err := emu.Run()
	assert.ErrorIs(err, vm.ErrDivideByZero)

	rerr, ok := err.(*ErrRuntime)
	assert.True(ok)
	assert.Equal(4, rerr.LineNo)
}

func TestEmulator_Reset(t *testing.T) {
	assert := assert.New(t)

	emu := doAssemble(t, `
    push 1
    exit 0
`)
	code, err := emu.Run()
	assert.NoError(err)
	assert.Equal(uint8(0), code)

	// Reset rewinds pc and empties the stack for another run.
	assert.NoError(emu.Reset())
	assert.Equal(int16(0), emu.Machine.Pc)

	code, err = emu.Run()
	assert.NoError(err)
	assert.Equal(uint8(0), code)
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("4", defines["WORD_BYTES"])
	assert.Equal("1024", defines["MEMORY_WORDS"])
	assert.Equal("0xdeadbeef", defines["MAGIC"])
	assert.Contains(defines, "STRING_MORE")
	assert.Contains(defines, "STRING_PAD")
}
