package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ezrec/nibble/nibble"
)

func TestMemoryCapacity(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		words    uint
		capacity int
	}){
		{0, 0},
		{1, 2},
		{2, 2},
		{7, 8},
		{16, 16},
		{17, 18},
		{32, 32},
	}

	for _, entry := range table {
		mem := New(entry.words, nil)
		assert.Equal(entry.capacity, mem.Capacity(), "words %d", entry.words)
	}
}

func TestMemoryZeroed(t *testing.T) {
	assert := assert.New(t)

	mem := New(MAX_WORDS, nil)
	for addr := range 16 {
		assert.Equal(nibble.Uint4{}, mem.Load(nibble.NewUint4(addr)))
	}
	assert.Equal("0000_0000_0000_0000", mem.String())
}

func TestMemoryRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for addr := range 16 {
		for value := range 16 {
			mem := New(MAX_WORDS, nil)
			for other := range 16 {
				mem.Store(nibble.NewUint4(other^0xf), nibble.NewUint4(other))
			}

			mem.Store(nibble.NewUint4(value), nibble.NewUint4(addr))
			assert.Equal(nibble.NewUint4(value), mem.Load(nibble.NewUint4(addr)))

			for other := range 16 {
				if other == addr {
					continue
				}
				assert.Equal(nibble.NewUint4(other^0xf), mem.Load(nibble.NewUint4(other)),
					"store to %d disturbed %d", addr, other)
			}
		}
	}
}

func TestMemoryPacking(t *testing.T) {
	assert := assert.New(t)

	mem := New(4, nil)
	mem.Store(nibble.NewUint4(0xa), nibble.NewUint4(0))
	mem.Store(nibble.NewUint4(0x5), nibble.NewUint4(1))
	mem.Store(nibble.NewUint4(0xc), nibble.NewUint4(3))

	assert.Equal([]uint8{0xa5, 0x0c}, mem.data)
}

func TestMemoryReset(t *testing.T) {
	assert := assert.New(t)

	mem := New(MAX_WORDS, nil)
	mem.Store(nibble.NewUint4(3), nibble.NewUint4(9))
	mem.Reset()
	assert.Equal(nibble.Uint4{}, mem.Load(nibble.NewUint4(9)))
}

func TestMemoryOversize(t *testing.T) {
	assert := assert.New(t)

	core, logs := observer.New(zapcore.WarnLevel)
	mem := New(MAX_WORDS+2, zap.New(core))

	assert.Equal(MAX_WORDS+2, mem.Capacity())
	assert.Equal(1, logs.FilterMessage("memory larger than addressable size").Len())

	core, logs = observer.New(zapcore.WarnLevel)
	New(MAX_WORDS, zap.New(core))
	assert.Equal(0, logs.Len())
}

func TestMemoryUndersize(t *testing.T) {
	assert := assert.New(t)

	core, logs := observer.New(zapcore.WarnLevel)
	mem := New(4, zap.New(core))

	mem.Store(nibble.NewUint4(7), nibble.NewUint4(12))
	assert.Equal(nibble.Uint4{}, mem.Load(nibble.NewUint4(12)))
	assert.Equal(1, logs.FilterMessage("store beyond capacity dropped").Len())
	assert.Equal(1, logs.FilterMessage("load beyond capacity reads zero").Len())
}

func TestMemoryWords(t *testing.T) {
	assert := assert.New(t)

	mem := New(MAX_WORDS, nil)
	mem.Store(nibble.NewUint4(0xd), nibble.NewUint4(5))

	var count int
	for addr, value := range mem.Words() {
		if addr.Raw() == 5 {
			assert.Equal(uint8(0xd), value.Raw())
		} else {
			assert.Equal(uint8(0), value.Raw())
		}
		count++
	}
	assert.Equal(16, count)
	assert.Equal("0000_0D00_0000_0000", mem.String())
}
