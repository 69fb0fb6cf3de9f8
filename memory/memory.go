// Package memory implements the nibble addressable main memory.
//
// Two words share a byte of storage: the even address is the high nibble and
// the odd address is the low nibble. The packing is not visible to callers.
package memory

import (
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/ezrec/nibble/nibble"
)

const (
	MAX_WORDS = 1 << nibble.BITS // Largest memory a 4-bit address can reach.
)

// Memory is a packed nibble store.
type Memory struct {
	data []uint8
	log  *zap.Logger
}

// New creates a zeroed memory of the requested word count. Odd counts round
// up by one word. Counts above MAX_WORDS are logged and still allocated.
func New(words uint, log *zap.Logger) (mem *Memory) {
	if log == nil {
		log = zap.NewNop()
	}

	mem = &Memory{
		data: make([]uint8, words/2+words%2),
		log:  log,
	}

	if words > MAX_WORDS {
		log.Warn("memory larger than addressable size",
			zap.Uint("words", words),
			zap.Int("max", MAX_WORDS))
	}

	return
}

// SetLogger replaces the diagnostic logger.
func (mem *Memory) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	mem.log = log
}

// Capacity returns the number of words, always even.
func (mem *Memory) Capacity() int {
	return len(mem.data) * 2
}

// Store writes value at addr.
func (mem *Memory) Store(value nibble.Uint4, addr nibble.Uint4) {
	index := int(addr.Raw() / 2)
	if index >= len(mem.data) {
		mem.log.Warn("store beyond capacity dropped",
			zap.Stringer("addr", addr),
			zap.Int("capacity", mem.Capacity()))
		return
	}

	if addr.Raw()%2 == 1 {
		mem.data[index] = (mem.data[index] & 0xf0) | value.Raw()
	} else {
		mem.data[index] = (mem.data[index] & 0x0f) | (value.Raw() << 4)
	}
}

// Load reads the word at addr. Unwritten words read as zero.
func (mem *Memory) Load(addr nibble.Uint4) (value nibble.Uint4) {
	index := int(addr.Raw() / 2)
	if index >= len(mem.data) {
		mem.log.Warn("load beyond capacity reads zero",
			zap.Stringer("addr", addr),
			zap.Int("capacity", mem.Capacity()))
		return
	}

	if addr.Raw()%2 == 1 {
		value = nibble.NewUint4(int(mem.data[index]))
	} else {
		value = nibble.NewUint4(int(mem.data[index] >> 4))
	}

	return
}

// Reset zeros every word.
func (mem *Memory) Reset() {
	clear(mem.data)
}

// Words iterates over the addressable words in address order.
func (mem *Memory) Words() iter.Seq2[nibble.Uint4, nibble.Uint4] {
	return func(yield func(addr, value nibble.Uint4) bool) {
		count := min(mem.Capacity(), MAX_WORDS)
		for n := range count {
			addr := nibble.NewUint4(n)
			if !yield(addr, mem.Load(addr)) {
				return
			}
		}
	}
}

// String returns a hex dump, four words per group.
func (mem *Memory) String() string {
	var sb strings.Builder
	for addr, value := range mem.Words() {
		n := int(addr.Raw())
		switch {
		case n == 0:
		case n%4 == 0:
			sb.WriteByte('_')
		}
		fmt.Fprintf(&sb, "%X", value.Raw())
	}
	return sb.String()
}
