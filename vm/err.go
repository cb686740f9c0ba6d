package vm

import (
	"errors"

	"github.com/ryandavidperry/COSC365-VM-Machine/translate"
)

var f = translate.From

var (
	// Load-time errors
	ErrBadMagic     = errors.New(f("bad magic"))
	ErrProgramSize  = errors.New(f("program too long"))
	ErrProgramShort = errors.New(f("truncated program"))

	// Run-time faults
	ErrStackOverflow = errors.New(f("stack overflow"))
	ErrPcRange       = errors.New(f("pc out of range"))
	ErrMemRange      = errors.New(f("memory access out of range"))
	ErrDivideByZero  = errors.New(f("divide by zero"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOperandMissing  = errors.New(f("operand missing"))
	ErrOperandExtra    = errors.New(f("excessive operands"))
	ErrMnemonicInvalid = errors.New(f("mnemonic invalid"))
	ErrTargetInvalid   = errors.New(f("branch target invalid"))
)

// ErrIllegal is an unrecognized instruction word.
type ErrIllegal uint32

func (ei ErrIllegal) Error() string {
	return f("illegal instruction 0x%08x", uint32(ei))
}

func (ei ErrIllegal) Is(err error) (ok bool) {
	_, ok = err.(ErrIllegal)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

func (err ErrParseNumber) Is(target error) (ok bool) {
	_, ok = target.(ErrParseNumber)
	return
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
