package cpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ezrec/nibble/nibble"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%d", WORD_SIZE_BITS), asm.Equate["WORD_SIZE_BITS"])
	assert.Equal(fmt.Sprintf("%d", NUM_REGISTERS), asm.Equate["NUM_REGISTERS"])
	assert.Equal(fmt.Sprintf("%d", MEM_SIZE_WORDS), asm.Equate["MEM_SIZE_WORDS"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func codes(words ...int) (out []nibble.Uint4) {
	for _, word := range words {
		out = append(out, nibble.NewUint4(word))
	}
	return
}

func TestAssemblerInstructions(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"halt",
		"lda 0xd",
		"ldai -1",
		"ldb 14",
		"sta 0b1111",
		"mov a b",
		"add b, a",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{1, 0, []string{"halt"}, codes(0x0), ""},
		{2, 1, []string{"lda", "0xd"}, codes(0x1, 0xd), ""},
		{3, 3, []string{"ldai", "-1"}, codes(0x2, 0xf), ""},
		{4, 5, []string{"ldb", "14"}, codes(0x3, 0xe), ""},
		{5, 7, []string{"sta", "0b1111"}, codes(0x4, 0xf), ""},
		{6, 9, []string{"mov", "a", "b"}, codes(0x5, 0x1), ""},
		{7, 11, []string{"add", "b", "a"}, codes(0x6, 0x4), ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerJump(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"top:",
		"sub b b",
		"jz next",
		"jnz top",
		"next: jmp 0o7",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{2, 0, []string{"sub", "b", "b"}, codes(0x7, 0x5), ""},
		{3, 2, []string{"jz", "next"}, codes(0x9, 0x6), "next"},
		{4, 4, []string{"jnz", "top"}, codes(0xa, 0x0), "top"},
		{5, 6, []string{"jmp", "0o7"}, codes(0x8, 0x7), ""},
	}

	opEqual(t, expected, prog.Opcodes)
	assert.Equal(map[string]int{"top": 0, "next": 6}, asm.Label)
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("VALUE", "3")
	asm.Predefine("VALUE", "4")

	program := []string{
		".equ SUM 0xe",
		".equ SRC a",
		"ldai VALUE",
		"sta SUM",
		"mov SRC b",
		"ldai $(MEM_SIZE_WORDS - 9)",
		"ldai $(LINENO)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{3, 0, []string{"ldai", "4"}, codes(0x2, 0x4), ""},
		{4, 2, []string{"sta", "0xe"}, codes(0x4, 0xe), ""},
		{5, 4, []string{"mov", "a", "b"}, codes(0x5, 0x1), ""},
		{6, 6, []string{"ldai", "7"}, codes(0x2, 0x7), ""},
		{7, 8, []string{"ldai", "7"}, codes(0x2, 0x7), ""},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".macro seti N",
		"ldai N",
		"mov a b",
		".endm",
		".macro spin",
		"@loop: jmp @loop",
		".endm",
		"seti 3",
		"spin",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{2, 0, []string{"ldai", "3"}, codes(0x2, 0x3), ""},
		{3, 2, []string{"mov", "a", "b"}, codes(0x5, 0x1), ""},
		{6, 4, []string{"jmp", "spin_6_loop"}, codes(0x8, 0x4), "spin_6_loop"},
	}

	opEqual(t, expected, prog.Opcodes)

	// Macro arguments do not leak.
	_, ok := asm.Equate["N"]
	assert.False(ok)
}

func TestAssemblerAddProgram(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := `
; Add 5 and 2, leaving 5 at x and 7 at SUM.
.equ SUM 0xe
start:
	ldai 2
	mov a b
	ldai 5
	sta x      ; x = 5
	add a b
	sta SUM
	halt
.org 0xd
x: .word 0
`

	prog, err := asm.Parse(strings.NewReader(program))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	assert.Equal(codes(2, 2, 5, 1, 2, 5, 4, 0xd, 6, 1, 4, 0xe, 0, 0, 0, 0), prog.Binary())

	cpu := NewCpu()
	prog.Load(cpu.Memory())
	cpu.Run()

	assert.Equal(u4(5), cpu.Memory().Load(u4(0xd)))
	assert.Equal(u4(7), cpu.Memory().Load(u4(0xe)))
}

func TestAssemblerVerbose(t *testing.T) {
	assert := assert.New(t)

	core, logs := observer.New(zapcore.DebugLevel)

	asm := &Assembler{Log: zap.New(core)}
	_, err := asm.Parse(strings.NewReader("halt\nhalt\n"))
	assert.NoError(err)
	assert.Equal(0, logs.FilterMessage("asm").Len())

	asm.Verbose = true
	_, err = asm.Parse(strings.NewReader("halt\nhalt\n"))
	assert.NoError(err)
	assert.Equal(2, logs.FilterMessage("asm").Len())
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
		err  error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"lda nothing", 1, ErrLabelMissing("nothing")},
		{"ldai $(\"aaa\")", 1, ErrParseExpression("\"aaa\"")},
		{"ldai $(more(\"aaa\"))", 1, ErrParseExpression("more(\"aaa\")")},
		{"ldai $(0x10000000000000000)", 1, ErrParseExpression("0x10000000000000000")},
		{"ldai 16", 1, ErrValueRange("16")},
		{"ldai -9", 1, ErrValueRange("-9")},
		{"ldai 0x", 1, ErrParseNumber("0x")},
		{"halt 1", 1, ErrOpcodeExtraArgs},
		{"lda", 1, ErrOpcodeValueMissing},
		{"lda 1 2", 1, ErrOpcodeExtraArgs},
		{"mov a", 1, ErrOpcodeValueMissing},
		{"mov a c", 1, ErrRegisterInvalid},
		{"mov 0 b", 1, ErrRegisterInvalid},
		{"mov a b c", 1, ErrOpcodeExtraArgs},
		{"nop", 1, ErrInstructionInvalid},
		{".equ", 1, ErrEquateSyntax},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".macro\n", 1, ErrMacroSyntax},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro A B\nldai B\n.endm\nA 1\nA 99\n", 5, ErrValueRange("99")},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\nhalt\n", 2, ErrMacroLonely},
		{".org", 1, ErrOrgSyntax},
		{".org x", 1, ErrParseNumber("x")},
		{".org 4\n.org 2", 2, ErrOrgBackwards},
		{".org 17", 1, ErrProgramTooLarge},
		{".word", 1, ErrOpcodeValueMissing},
		{".word 16", 1, ErrValueRange("16")},
		{"jmp end\n.org 16\nend:\n", 1, ErrValueRange("end")},
		{".word 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0", 1, ErrProgramTooLarge},
		{strings.Repeat("halt\n", 17), 17, ErrProgramTooLarge},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
			assert.ErrorIs(err, entry.err, entry.prog)
		}
	}
}

func TestAssemblerParenEval(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".equ BASE 3",
		"mov $(BASE - 3) b", // not a register
	}
	_, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.ErrorIs(err, ErrRegisterInvalid)

	program = []string{
		".equ BASE 3",
		"top: ldai $(BASE + 1)",
		".word $(BASE * 2) $(top) $(-BASE)",
		"ldai $(LINENO * 2)",
	}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{2, 0, []string{"ldai", "4"}, codes(0x2, 0x4), ""},
		{3, 2, []string{".word", "6", "0", "-3"}, codes(0x6, 0x0, 0xd), ""},
		{4, 5, []string{"ldai", "8"}, codes(0x2, 0x8), ""},
	}

	opEqual(t, expected, prog.Opcodes)
}
