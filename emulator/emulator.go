// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"maps"

	"go.uber.org/zap"

	"github.com/ezrec/nibble/cpu"
	"github.com/ezrec/nibble/internal"
	"github.com/ezrec/nibble/io"
)

const (
	ADDR_LAST = cpu.MEM_SIZE_WORDS - 1 // Last addressable word.
)

var _emulator_defines = map[string]string{
	"ADDR_LAST": fmt.Sprintf("%v", ADDR_LAST),
}

// Emulator state. CPU + program listing + memory image.
type Emulator struct {
	Verbose  bool         // If set, traces every cycle.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.
	Rom      io.Rom       // Memory image loaded on reset.
	MaxTicks int          // If positive, the tick budget for a run.

	log *zap.Logger
}

// NewEmulator creates a new emulator. A nil log discards diagnostics.
func NewEmulator(log *zap.Logger) (emu *Emulator) {
	if log == nil {
		log = zap.NewNop()
	}

	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
		log:     log,
	}

	emu.Cpu.SetLogger(log)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Reset clears memory, loads the image and resets the CPU.
// A non-empty Program replaces the image with its binary.
func (emu *Emulator) Reset() (err error) {
	if emu.Program != nil && len(emu.Program.Opcodes) > 0 {
		emu.Rom.Data = emu.Program.Binary()
	}

	emu.Cpu.Memory().Reset()
	err = emu.Rom.Load(emu.Cpu.Memory())
	if err != nil {
		return
	}

	emu.Cpu.Reset()

	return
}

// Code returns the instruction at the program counter.
func (emu *Emulator) Code() cpu.Code {
	return cpu.Decode(emu.Cpu.Memory(), emu.Cpu.Pc())
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc())
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.Opcode.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Cpu.Halted() {
		done = true
		return
	}

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	if emu.MaxTicks > 0 && emu.Cpu.Ticks() >= emu.MaxTicks {
		err = ErrTickLimit
		return
	}

	if emu.Verbose {
		emu.log.Debug("tick",
			zap.Int("line", lineno),
			zap.Stringer("pc", emu.Cpu.Pc()),
			zap.Stringer("code", emu.Code()))
	}

	emu.Cpu.Cycle()

	done = emu.Cpu.Halted()

	return
}

// Run ticks the emulator until the CPU halts or an error occurs.
func (emu *Emulator) Run() (err error) {
	for {
		var done bool
		done, err = emu.Tick()
		if done || err != nil {
			return
		}
	}
}
