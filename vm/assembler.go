package vm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass line assembler for the machine's instruction
// set. Each source line produces at most one instruction word.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcodes []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of jump labels to load addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// binaryMap maps two-operand arithmetic mnemonics.
var binaryMap = map[string]BinaryOp{
	"add":  BINARY_OP_ADD,
	"sub":  BINARY_OP_SUB,
	"mul":  BINARY_OP_MUL,
	"div":  BINARY_OP_DIV,
	"rem":  BINARY_OP_REM,
	"and":  BINARY_OP_AND,
	"or":   BINARY_OP_OR,
	"xor":  BINARY_OP_XOR,
	"shl":  BINARY_OP_SHL,
	"shr":  BINARY_OP_SHR,
	"ashr": BINARY_OP_ASHR,
}

// unaryMap maps one-operand arithmetic mnemonics.
var unaryMap = map[string]UnaryOp{
	"neg": UNARY_OP_NEG,
	"not": UNARY_OP_NOT,
}

// condMap maps comparison names for the 'if' mnemonic.
var condMap = map[string]CondOp{
	"eq": COND_OP_EQ,
	"ne": COND_OP_NE,
	"lt": COND_OP_LT,
	"gt": COND_OP_GT,
	"le": COND_OP_LE,
	"ge": COND_OP_GE,
}

// condZeroMap maps comparison names for the 'ifz' mnemonic.
var condZeroMap = map[string]UnaryCondOp{
	"ez":  UNARY_COND_EZ,
	"nz":  UNARY_COND_NZ,
	"ltz": UNARY_COND_LTZ,
	"gez": UNARY_COND_GEZ,
}

// radixMap maps output base names for the 'print' mnemonic.
var radixMap = map[string]PrintRadix{
	"dec": RADIX_DEC,
	"hex": RADIX_HEX,
	"bin": RADIX_BIN,
	"oct": RADIX_OCT,
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word[1 : len(word)-1])
		return
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 <= 0xffffffff && v64 >= -int64(0x80000000) {
		if v64 < 0 {
			value = uint32(0xffffffff + (v64 + 1))
		} else {
			value = uint32(v64)
		}
	}

	if invert {
		value = ^value
	}

	return
}

// signedOf returns the value of a simple word, reinterpreted as signed.
func (asm *Assembler) signedOf(word string) (value int32, err error) {
	uvalue, err := asm.valueOf(word)
	value = int32(uvalue)

	return
}

// optValue returns the sole numeric operand, or the default when absent.
func (asm *Assembler) optValue(words []string, def uint32) (value uint32, err error) {
	if len(words) > 1 {
		err = ErrOperandExtra
		return
	}
	value = def
	if len(words) == 1 {
		value, err = asm.valueOf(words[0])
	}

	return
}

// optSigned returns the sole signed operand, or the default when absent.
func (asm *Assembler) optSigned(words []string, def int32) (value int32, err error) {
	uvalue, err := asm.optValue(words, uint32(def))
	value = int32(uvalue)

	return
}

// target parses a branch operand: a numeric word offset is used as-is, any
// other token is a label for the final link pass.
func (asm *Assembler) target(word string) (offset int32, label string, err error) {
	v64, nerr := strconv.ParseInt(word, 0, 32)
	if nerr == nil {
		offset = int32(v64)
		return
	}
	label = word

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)

	return
}

// parseLine expands a single source line into opcode words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentPc()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	return
}

// currentPc gets the load address of the next generated word.
func (asm *Assembler) currentPc() int {
	return len(asm.Opcodes)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcodes = asm.Opcodes[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	// Final linking of jump labels.
	for n := range asm.Opcodes {
		op := &asm.Opcodes[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		pc, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			return
		}
		op.Code, err = Relocate(op.Code, int32(pc-op.Pc))
		if err != nil {
			return
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcodes),
	}

	return
}

// parseWords encodes the words of a source line as one instruction.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	initial_words := words
	var code uint32
	var label string

	defer func() {
		if err != nil {
			return
		}
		opcode := Opcode{LineNo: lineno, Pc: asm.currentPc(), Words: initial_words, Code: code, LinkLabel: label}
		asm.Opcodes = append(asm.Opcodes, opcode)
	}()

	mnemonic := words[0]
	args := words[1:]

	if op, ok := binaryMap[mnemonic]; ok {
		if len(args) != 0 {
			err = ErrOperandExtra
			return
		}
		code = MakeBinary(op)
		return
	}
	if op, ok := unaryMap[mnemonic]; ok {
		if len(args) != 0 {
			err = ErrOperandExtra
			return
		}
		code = MakeUnary(op)
		return
	}

	switch mnemonic {
	case "exit":
		var value uint32
		value, err = asm.optValue(args, 0)
		if err != nil {
			return
		}
		code = MakeExit(uint8(value))
	case "swap":
		if len(args) < 2 {
			err = ErrOperandMissing
			return
		}
		if len(args) > 2 {
			err = ErrOperandExtra
			return
		}
		var from, to int32
		from, err = asm.signedOf(args[0])
		if err != nil {
			return
		}
		to, err = asm.signedOf(args[1])
		if err != nil {
			return
		}
		code = MakeSwap(int16(from), int16(to))
	case "nop":
		if len(args) != 0 {
			err = ErrOperandExtra
			return
		}
		code = MakeNop()
	case "input":
		if len(args) != 0 {
			err = ErrOperandExtra
			return
		}
		code = MakeInput()
	case "stinput":
		if len(args) == 0 {
			err = ErrOperandMissing
			return
		}
		var value uint32
		value, err = asm.optValue(args, 0)
		if err != nil {
			return
		}
		code = MakeStinput(value)
	case "debug":
		var value uint32
		value, err = asm.optValue(args, 0)
		if err != nil {
			return
		}
		code = MakeDebug(value)
	case "pop":
		var value uint32
		value, err = asm.optValue(args, 4)
		if err != nil {
			return
		}
		code = MakePop(value)
	case "stprint":
		var offset int32
		offset, err = asm.optSigned(args, 0)
		if err != nil {
			return
		}
		code = MakeStprint(offset)
	case "call", "goto":
		if len(args) == 0 {
			err = ErrOperandMissing
			return
		}
		if len(args) > 1 {
			err = ErrOperandExtra
			return
		}
		var offset int32
		offset, label, err = asm.target(args[0])
		if err != nil {
			return
		}
		if mnemonic == "call" {
			code = MakeCall(offset)
		} else {
			code = MakeGoto(offset)
		}
	case "return":
		var value uint32
		value, err = asm.optValue(args, 0)
		if err != nil {
			return
		}
		code = MakeReturn(value)
	case "if":
		if len(args) < 2 {
			err = ErrOperandMissing
			return
		}
		if len(args) > 2 {
			err = ErrOperandExtra
			return
		}
		op, ok := condMap[args[0]]
		if !ok {
			err = ErrMnemonicInvalid
			return
		}
		var offset int32
		offset, label, err = asm.target(args[1])
		if err != nil {
			return
		}
		code = MakeIf(op, offset)
	case "ifz":
		if len(args) < 2 {
			err = ErrOperandMissing
			return
		}
		if len(args) > 2 {
			err = ErrOperandExtra
			return
		}
		op, ok := condZeroMap[args[0]]
		if !ok {
			err = ErrMnemonicInvalid
			return
		}
		var offset int32
		offset, label, err = asm.target(args[1])
		if err != nil {
			return
		}
		code = MakeUnaryIf(op, offset)
	case "dup":
		var value uint32
		value, err = asm.optValue(args, 0)
		if err != nil {
			return
		}
		code = MakeDup(value)
	case "print":
		if len(args) > 2 {
			err = ErrOperandExtra
			return
		}
		var offset int32
		radix := RADIX_DEC
		if len(args) >= 1 {
			offset, err = asm.signedOf(args[0])
			if err != nil {
				return
			}
		}
		if len(args) == 2 {
			var ok bool
			radix, ok = radixMap[args[1]]
			if !ok {
				err = ErrMnemonicInvalid
				return
			}
		}
		code = MakePrint(offset, radix)
	case "dump":
		if len(args) != 0 {
			err = ErrOperandExtra
			return
		}
		code = MakeDump()
	case "push":
		if len(args) == 0 {
			err = ErrOperandMissing
			return
		}
		var value int32
		value, err = asm.optSigned(args, 0)
		if err != nil {
			return
		}
		code = MakePush(value)
	default:
		err = ErrMnemonicInvalid
		return
	}

	return
}
