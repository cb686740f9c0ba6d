// Package emulator couples a vm.Machine with an assembled listing, so a
// running program's faults can be reported against assembly source lines.
package emulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ryandavidperry/COSC365-VM-Machine/internal"
	"github.com/ryandavidperry/COSC365-VM-Machine/vm"
)

var _emulator_defines = map[string]string{
	"WORD_BYTES": fmt.Sprintf("%v", 4),
}

// Emulator state. Machine + program listing.
type Emulator struct {
	Verbose     bool        // If set, enables verbose logging.
	*vm.Machine             // Reference to the machine simulation.
	Program     *vm.Program // Reference to the currently loaded listing.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine: vm.NewMachine(),
		Program: &vm.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		vm.CodecDefines(),
		emu.Machine.Defines(),
	)
}

// Reset loads the listing's binary image into the machine.
func (emu *Emulator) Reset() (err error) {
	emu.Machine.Verbose = emu.Verbose

	err = emu.Machine.Load(emu.Program.Binary())

	return
}

// LineNo returns the source line number for the instruction at Pc.
func (emu *Emulator) LineNo() (lineno int) {
	op := emu.Program.Debug(uint16(emu.Machine.Pc))
	if op != nil {
		lineno = op.LineNo
	}

	return
}

// Step performs a single step of the emulator.
func (emu *Emulator) Step() (done bool, code uint8, err error) {
	emu.Machine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	done, code, err = emu.Machine.Step()
	if err != nil {
		err = &ErrRuntime{LineNo: lineno, Err: err}
	}

	return
}

// Run steps the emulator until a clean halt or a fault.
func (emu *Emulator) Run() (code uint8, err error) {
	for {
		var done bool
		done, code, err = emu.Step()
		if done || err != nil {
			return
		}
	}
}
