package cpu

import (
	"fmt"
	"iter"
	"maps"

	"go.uber.org/zap"

	"github.com/ezrec/nibble/alu"
	"github.com/ezrec/nibble/memory"
	"github.com/ezrec/nibble/nibble"
)

// Register is a CPU register, one word wide.
type Register = nibble.Uint4

// Machine constants.
const (
	WORD_SIZE_BITS = nibble.BITS      // Bits per word.
	NUM_REGISTERS  = 2                // Size of the register file.
	MEM_SIZE_WORDS = memory.MAX_WORDS // Words of main memory.
)

var _cpu_defines = map[string]string{
	"WORD_SIZE_BITS": fmt.Sprintf("%d", WORD_SIZE_BITS),
	"NUM_REGISTERS":  fmt.Sprintf("%d", NUM_REGISTERS),
	"MEM_SIZE_WORDS": fmt.Sprintf("%d", MEM_SIZE_WORDS),
}

// State is a snapshot of the CPU registers.
type State struct {
	Pc        Register // Program counter.
	Is        Register // Instruction register.
	Register  [NUM_REGISTERS]Register
	AluResult Register  // ALU result staging register.
	Flags     alu.Flags // Flags of the last ALU operation.
	Halted    bool
	Ticks     int // Cycles executed since reset.
}

// Cpu is the simulation context for the 4-bit processor.
//
// A Cpu is not safe for concurrent use.
type Cpu struct {
	pc        Register
	is        Register
	register  [NUM_REGISTERS]Register
	aluResult Register
	halt      bool
	ticks     int

	alu    *alu.Alu
	memory *memory.Memory
	log    *zap.Logger
}

// NewCpu creates a CPU with two registers and 16 words of zeroed memory.
func NewCpu() (cpu *Cpu) {
	log := zap.NewNop()

	cpu = &Cpu{
		memory: memory.New(MEM_SIZE_WORDS, log),
		log:    log,
	}
	cpu.alu = alu.NewAlu(&cpu.aluResult, log)

	return
}

// SetLogger sets the diagnostic logger of the CPU, its ALU and its memory.
// A nil logger discards diagnostics.
func (cpu *Cpu) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	cpu.log = log
	cpu.alu.SetLogger(log)
	cpu.memory.SetLogger(log)
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset clears the registers, flags, halt state and tick counter.
// Memory is left untouched.
func (cpu *Cpu) Reset() {
	cpu.pc = Register{}
	cpu.is = Register{}
	clear(cpu.register[:])
	cpu.aluResult = Register{}
	cpu.halt = false
	cpu.ticks = 0
	cpu.alu.Reset()

	cpu.log.Debug("cpu: reset")
}

// Memory returns the main memory, for program loading and inspection.
func (cpu *Cpu) Memory() *memory.Memory {
	return cpu.memory
}

func (cpu *Cpu) RegisterA() Register {
	return cpu.register[REG_A]
}

func (cpu *Cpu) RegisterB() Register {
	return cpu.register[REG_B]
}

// Flags returns the flags of the most recent ALU operation.
func (cpu *Cpu) Flags() alu.Flags {
	return cpu.alu.Flags()
}

func (cpu *Cpu) Pc() Register {
	return cpu.pc
}

func (cpu *Cpu) Halted() bool {
	return cpu.halt
}

func (cpu *Cpu) Ticks() int {
	return cpu.ticks
}

// State returns a snapshot of the CPU registers.
func (cpu *Cpu) State() State {
	return State{
		Pc:        cpu.pc,
		Is:        cpu.is,
		Register:  cpu.register,
		AluResult: cpu.aluResult,
		Flags:     cpu.alu.Flags(),
		Halted:    cpu.halt,
		Ticks:     cpu.ticks,
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{"pc", "is", "a", "b", "alu", "flags", "halt"}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%X", cpu.pc.Raw())
		case "is":
			strval = fmt.Sprintf("%X (%v)", cpu.is.Raw(), OpCode(cpu.is.Raw()))
		case "a", "b":
			val := cpu.register[reg[0]-'a']
			strval = fmt.Sprintf("%X (%v)", val.Raw(), val.Int4())
		case "alu":
			strval = fmt.Sprintf("%X", cpu.aluResult.Raw())
		case "flags":
			strval = cpu.alu.Flags().String()
		case "halt":
			strval = fmt.Sprintf("%v", cpu.halt)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// fetch reads the word at PC and advances PC.
func (cpu *Cpu) fetch() (word nibble.Uint4) {
	word = cpu.memory.Load(cpu.pc)
	cpu.pc = cpu.pc.Inc()
	return
}

// registers unpacks a two register operand. ok is false if either selector
// is outside the register file.
func (cpu *Cpu) registers(op OpCode, arg nibble.Uint4) (first, second RegisterID, ok bool) {
	first, second = UnpackRegisters(arg)
	if !first.Valid() || !second.Valid() {
		cpu.log.Warn("cpu: register invalid",
			zap.Stringer("op", op),
			zap.Uint8("first", uint8(first)),
			zap.Uint8("second", uint8(second)))
		return
	}
	ok = true
	return
}

// Cycle fetches, decodes and executes a single instruction. A halted CPU
// does nothing.
func (cpu *Cpu) Cycle() {
	if cpu.halt {
		return
	}

	ip := cpu.pc

	// Fetch.
	cpu.is = cpu.fetch()

	// Decode.
	op := OpCode(cpu.is.Raw())

	cpu.ticks++

	if ce := cpu.log.Check(zap.DebugLevel, "cpu: cycle"); ce != nil {
		ce.Write(zap.Stringer("ip", ip), zap.Stringer("code", Decode(cpu.memory, ip)))
	}

	// Execute.
	switch op {
	case OP_HALT:
		cpu.halt = true
	case OP_LOAD_A:
		addr := cpu.fetch()
		cpu.register[REG_A] = cpu.memory.Load(addr)
	case OP_LOAD_AI:
		cpu.register[REG_A] = cpu.fetch()
	case OP_LOAD_B:
		addr := cpu.fetch()
		cpu.register[REG_B] = cpu.memory.Load(addr)
	case OP_STORE_A:
		addr := cpu.fetch()
		cpu.memory.Store(cpu.register[REG_A], addr)
	case OP_MOV:
		src, dst, ok := cpu.registers(op, cpu.fetch())
		if !ok {
			return
		}
		cpu.register[dst] = cpu.register[src]
	case OP_ADD, OP_SUB:
		a, b, ok := cpu.registers(op, cpu.fetch())
		if !ok {
			return
		}
		aluOp := alu.ADD
		if op == OP_SUB {
			aluOp = alu.SUB
		}
		cpu.alu.Compute(cpu.register[a], cpu.register[b], aluOp)
		cpu.register[REG_A] = cpu.aluResult
	case OP_JUMP:
		cpu.pc = cpu.fetch()
	case OP_JUMP_Z:
		target := cpu.fetch()
		if cpu.alu.Flags().Zero {
			cpu.pc = target
		}
	case OP_JUMP_NZ:
		target := cpu.fetch()
		if !cpu.alu.Flags().Zero {
			cpu.pc = target
		}
	default:
		cpu.log.Warn("cpu: unknown opcode",
			zap.Stringer("ip", ip),
			zap.Uint8("opcode", uint8(op)))
	}
}

// Run executes cycles until the CPU halts. A program without a reachable
// halt never returns; use RunFor to bound execution.
func (cpu *Cpu) Run() {
	for !cpu.halt {
		cpu.Cycle()
	}
}

// RunFor executes at most limit cycles, stopping early on halt.
func (cpu *Cpu) RunFor(limit int) (ticks int, halted bool) {
	for ticks < limit && !cpu.halt {
		cpu.Cycle()
		ticks++
	}

	halted = cpu.halt
	return
}
