package cpu

import (
	"iter"

	"github.com/ezrec/nibble/nibble"
)

// Opcode is a line of assembled code with its source location and the
// machine words it generated.
type Opcode struct {
	LineNo    int
	Ip        int
	Words     []string
	Codes     []nibble.Uint4
	LinkLabel string
}

// Program is an assembled program.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the source line of a memory word.
type Debug struct {
	*Opcode
	Index int
}

// Storer writes words to memory.
type Storer interface {
	Store(value nibble.Uint4, addr nibble.Uint4)
}

// Debug returns the opcode that generated the word at ip. The Opcode is nil
// if no source line generated that word.
func (prog *Program) Debug(ip nibble.Uint4) (dbg Debug) {
	addr := int(ip.Raw())
	for n, op := range prog.Opcodes {
		if addr >= op.Ip && addr < op.Ip+len(op.Codes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  addr - op.Ip,
			}
			break
		}
	}

	return
}

// Codes iterates over every generated word and its address.
func (prog *Program) Codes() iter.Seq2[nibble.Uint4, nibble.Uint4] {
	return func(yield func(ip nibble.Uint4, code nibble.Uint4) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(nibble.NewUint4(op.Ip+n), code) {
					return
				}
			}
		}
	}
}

// Binary returns the full memory image of the program. Words no line
// generated are zero.
func (prog *Program) Binary() (bins []nibble.Uint4) {
	bins = make([]nibble.Uint4, MEM_SIZE_WORDS)
	for ip, code := range prog.Codes() {
		bins[ip.Raw()] = code
	}

	return
}

// Load stores the memory image of the program into mem.
func (prog *Program) Load(mem Storer) {
	for addr, code := range prog.Binary() {
		mem.Store(code, nibble.NewUint4(addr))
	}
}
