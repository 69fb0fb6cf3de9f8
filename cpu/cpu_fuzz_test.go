package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/nibble/nibble"
)

// image expands a 64-bit value into 16 memory words, word 0 in the high bits.
func image(program uint64) (words [MEM_SIZE_WORDS]nibble.Uint4) {
	for n := range words {
		words[n] = nibble.NewUint4(int(program >> (60 - 4*n)))
	}
	return
}

func FuzzCpu(f *testing.F) {
	f.Add(uint64(0), 16)
	f.Add(uint64(0xffff_ffff_ffff_ffff), 64)
	f.Add(uint64(0x2_2_5_1_2_5_4_d_6_1_4_e_0_000), 32)
	f.Add(uint64(0x1_e_3_f_7_1_a_4_0_0_0_0_0_0_0_0), 64)
	f.Add(uint64(0x8_0_0_0_0_0_0_0_0_0_0_0_0_0_0_0), 64)

	f.Fuzz(func(t *testing.T, program uint64, limit int) {
		assert := assert.New(t)

		limit &= 0xff

		words := image(program)

		cpu := NewCpu()
		for addr, word := range words {
			cpu.Memory().Store(word, nibble.NewUint4(addr))
		}

		var ticks int
		for range limit {
			halted := cpu.Halted()
			pc := cpu.Pc()
			code := Decode(cpu.Memory(), pc)

			cpu.Cycle()
			state := cpu.State()

			if halted {
				assert.Equal(pc, state.Pc)
				continue
			}
			ticks++

			assert.Equal(ticks, state.Ticks)
			assert.Equal(nibble.NewUint4(int(code.Op)), state.Is)

			// PC advances by the instruction length unless a jump was taken.
			next := pc
			for range code.Length() {
				next = next.Inc()
			}
			switch code.Op {
			case OP_JUMP:
				assert.Equal(code.Arg, state.Pc)
			case OP_JUMP_Z:
				if state.Flags.Zero {
					assert.Equal(code.Arg, state.Pc)
				} else {
					assert.Equal(next, state.Pc)
				}
			case OP_JUMP_NZ:
				if !state.Flags.Zero {
					assert.Equal(code.Arg, state.Pc)
				} else {
					assert.Equal(next, state.Pc)
				}
			default:
				assert.Equal(next, state.Pc)
			}

			assert.Equal(code.Op == OP_HALT, state.Halted)
		}

		for _, reg := range cpu.State().Register {
			assert.Less(reg.Raw(), uint8(16))
		}
	})
}
