package cpu

import (
	"fmt"
	"iter"

	"github.com/ezrec/nibble/nibble"
)

// OpCode is the instruction selector, one full word.
type OpCode uint8

//go:generate go tool stringer -linecomment -type=OpCode
const (
	OP_HALT    = OpCode(0x0) // halt
	OP_LOAD_A  = OpCode(0x1) // lda
	OP_LOAD_AI = OpCode(0x2) // ldai
	OP_LOAD_B  = OpCode(0x3) // ldb
	OP_STORE_A = OpCode(0x4) // sta
	OP_MOV     = OpCode(0x5) // mov
	OP_ADD     = OpCode(0x6) // add
	OP_SUB     = OpCode(0x7) // sub
	OP_JUMP    = OpCode(0x8) // jmp
	OP_JUMP_Z  = OpCode(0x9) // jz
	OP_JUMP_NZ = OpCode(0xa) // jnz
)

// OP_CODE_MAX is the highest defined opcode.
const OP_CODE_MAX = OP_JUMP_NZ

// CodeOperand is the kind of operand word following an opcode.
type CodeOperand int

//go:generate go tool stringer -linecomment -type=CodeOperand
const (
	OPERAND_NONE      = CodeOperand(0) // none
	OPERAND_ADDRESS   = CodeOperand(1) // address
	OPERAND_IMMEDIATE = CodeOperand(2) // immediate
	OPERAND_REGISTERS = CodeOperand(3) // registers
)

// RegisterID indexes the register file.
type RegisterID uint8

//go:generate go tool stringer -linecomment -type=RegisterID
const (
	REG_A = RegisterID(0) // a
	REG_B = RegisterID(1) // b
)

// Valid returns true if the opcode is part of the instruction set.
func (op OpCode) Valid() bool {
	return op <= OP_CODE_MAX
}

// Operand returns the kind of operand word the opcode consumes.
func (op OpCode) Operand() CodeOperand {
	switch op {
	case OP_LOAD_A, OP_LOAD_B, OP_STORE_A, OP_JUMP, OP_JUMP_Z, OP_JUMP_NZ:
		return OPERAND_ADDRESS
	case OP_LOAD_AI:
		return OPERAND_IMMEDIATE
	case OP_MOV, OP_ADD, OP_SUB:
		return OPERAND_REGISTERS
	}
	return OPERAND_NONE
}

// Length returns the instruction length in words.
func (op OpCode) Length() int {
	if op.Operand() == OPERAND_NONE {
		return 1
	}
	return 2
}

// Valid returns true if the register ID names a register.
func (reg RegisterID) Valid() bool {
	return reg < NUM_REGISTERS
}

// PackRegisters packs two 2-bit register selectors into a word, first
// selector in the high bits.
func PackRegisters(first, second RegisterID) nibble.Uint4 {
	return nibble.NewUint4(int(((first & 0x3) << 2) | (second & 0x3)))
}

// UnpackRegisters splits a word into its two 2-bit register selectors.
func UnpackRegisters(word nibble.Uint4) (first, second RegisterID) {
	first = RegisterID((word.Raw() >> 2) & 0x3)
	second = RegisterID(word.Raw() & 0x3)
	return
}

// Code is a decoded instruction.
type Code struct {
	Op  OpCode
	Arg nibble.Uint4 // Operand word, if the opcode takes one.
}

// MakeCode creates an instruction with an operand word.
func MakeCode(op OpCode, arg nibble.Uint4) Code {
	if op.Operand() == OPERAND_NONE {
		arg = nibble.Uint4{}
	}
	return Code{Op: op, Arg: arg}
}

// MakeCodeHalt creates a halt instruction.
func MakeCodeHalt() Code {
	return Code{Op: OP_HALT}
}

// MakeCodeLoadA creates A = M[addr].
func MakeCodeLoadA(addr nibble.Uint4) Code {
	return MakeCode(OP_LOAD_A, addr)
}

// MakeCodeLoadAI creates A = imm.
func MakeCodeLoadAI(imm nibble.Uint4) Code {
	return MakeCode(OP_LOAD_AI, imm)
}

// MakeCodeLoadB creates B = M[addr].
func MakeCodeLoadB(addr nibble.Uint4) Code {
	return MakeCode(OP_LOAD_B, addr)
}

// MakeCodeStoreA creates M[addr] = A.
func MakeCodeStoreA(addr nibble.Uint4) Code {
	return MakeCode(OP_STORE_A, addr)
}

// MakeCodeMov creates R[dst] = R[src].
func MakeCodeMov(src, dst RegisterID) Code {
	return MakeCode(OP_MOV, PackRegisters(src, dst))
}

// MakeCodeAdd creates A = R[a] + R[b].
func MakeCodeAdd(a, b RegisterID) Code {
	return MakeCode(OP_ADD, PackRegisters(a, b))
}

// MakeCodeSub creates A = R[a] - R[b].
func MakeCodeSub(a, b RegisterID) Code {
	return MakeCode(OP_SUB, PackRegisters(a, b))
}

// MakeCodeJump creates an unconditional jump.
func MakeCodeJump(target nibble.Uint4) Code {
	return MakeCode(OP_JUMP, target)
}

// MakeCodeJumpZ creates a jump taken when the Zero flag is set.
func MakeCodeJumpZ(target nibble.Uint4) Code {
	return MakeCode(OP_JUMP_Z, target)
}

// MakeCodeJumpNZ creates a jump taken when the Zero flag is clear.
func MakeCodeJumpNZ(target nibble.Uint4) Code {
	return MakeCode(OP_JUMP_NZ, target)
}

// Length returns the instruction length in words.
func (code Code) Length() int {
	return code.Op.Length()
}

// Words returns the encoded instruction words.
func (code Code) Words() []nibble.Uint4 {
	words := []nibble.Uint4{nibble.NewUint4(int(code.Op))}
	if code.Length() > 1 {
		words = append(words, code.Arg)
	}
	return words
}

// Registers decodes the operand as two register selectors.
func (code Code) Registers() (first, second RegisterID) {
	return UnpackRegisters(code.Arg)
}

// String returns the assembly language representation of the instruction.
func (code Code) String() (out string) {
	if !code.Op.Valid() {
		return fmt.Sprintf(".word %#x", uint8(code.Op))
	}

	switch code.Op.Operand() {
	case OPERAND_NONE:
		out = code.Op.String()
	case OPERAND_ADDRESS:
		out = fmt.Sprintf("%v %#x", code.Op, code.Arg.Raw())
	case OPERAND_IMMEDIATE:
		out = fmt.Sprintf("%v %v", code.Op, code.Arg.Raw())
	case OPERAND_REGISTERS:
		first, second := code.Registers()
		out = fmt.Sprintf("%v %v %v", code.Op, first, second)
	}

	return
}

// Loader reads words from memory.
type Loader interface {
	Load(addr nibble.Uint4) nibble.Uint4
}

// Decode decodes the instruction at ip.
func Decode(mem Loader, ip nibble.Uint4) (code Code) {
	code.Op = OpCode(mem.Load(ip).Raw())
	if code.Length() > 1 {
		code.Arg = mem.Load(ip.Inc())
	}
	return
}

// Disassemble walks memory from address 0 and yields each instruction with
// its address. Words that do not decode are yielded as single word codes.
func Disassemble(mem Loader) iter.Seq2[nibble.Uint4, Code] {
	return func(yield func(ip nibble.Uint4, code Code) bool) {
		ip := 0
		for ip < MEM_SIZE_WORDS {
			addr := nibble.NewUint4(ip)
			code := Decode(mem, addr)
			if !yield(addr, code) {
				return
			}
			ip += code.Length()
		}
	}
}
