// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package nibble implements 4-bit unsigned and signed value types.
//
// Both types store a 4-bit pattern in a byte. Every operation normalizes its
// result back to the low 4 bits, so arithmetic wraps. Overflow detection is
// left to the ALU.
package nibble

import (
	"strconv"
)

const (
	BITS      = 4    // Width of a nibble in bits.
	MASK      = 0x0f // Mask of the valid nibble bits.
	SIGN_BIT  = 0x08 // Two's complement sign bit.
	EXTENSION = 0xf0 // Sign extension of a negative nibble into a byte.
	MAX       = 15   // Largest unsigned value.
	MIN_INT   = -8   // Smallest signed value.
	MAX_INT   = 7    // Largest signed value.
)

// mask normalizes a wide value to a nibble.
func mask(v uint8) uint8 {
	return v & MASK
}

// Uint4 is a 4-bit unsigned value.
type Uint4 struct {
	value uint8
}

// NewUint4 truncates v to 4 bits.
func NewUint4(v int) Uint4 {
	return Uint4{value: mask(uint8(v))}
}

// Raw returns the 4-bit pattern.
func (n Uint4) Raw() uint8 {
	return n.value
}

func (n Uint4) Add(o Uint4) Uint4 {
	return Uint4{value: mask(n.value + o.value)}
}

func (n Uint4) Sub(o Uint4) Uint4 {
	return Uint4{value: mask(n.value - o.value)}
}

func (n Uint4) Mul(o Uint4) Uint4 {
	return Uint4{value: mask(n.value * o.value)}
}

// Div is the unsigned quotient. Division by zero yields zero.
func (n Uint4) Div(o Uint4) Uint4 {
	if o.value == 0 {
		return Uint4{}
	}
	return Uint4{value: mask(n.value / o.value)}
}

// Mod is the unsigned remainder. Modulo zero yields zero.
func (n Uint4) Mod(o Uint4) Uint4 {
	if o.value == 0 {
		return Uint4{}
	}
	return Uint4{value: mask(n.value % o.value)}
}

// Shl shifts left, discarding bits shifted past bit 3.
func (n Uint4) Shl(count uint) Uint4 {
	if count >= BITS {
		return Uint4{}
	}
	return Uint4{value: mask(n.value << count)}
}

func (n Uint4) Shr(count uint) Uint4 {
	if count >= BITS {
		return Uint4{}
	}
	return Uint4{value: mask(n.value >> count)}
}

func (n Uint4) And(o Uint4) Uint4 {
	return Uint4{value: mask(n.value & o.value)}
}

func (n Uint4) Or(o Uint4) Uint4 {
	return Uint4{value: mask(n.value | o.value)}
}

func (n Uint4) Xor(o Uint4) Uint4 {
	return Uint4{value: mask(n.value ^ o.value)}
}

// Not is the one's complement.
func (n Uint4) Not() Uint4 {
	return Uint4{value: mask(^n.value)}
}

// Neg is the two's complement negation, ^n + 1.
func (n Uint4) Neg() Uint4 {
	return n.Not().Inc()
}

func (n Uint4) Inc() Uint4 {
	return Uint4{value: mask(n.value + 1)}
}

func (n Uint4) Dec() Uint4 {
	return Uint4{value: mask(n.value - 1)}
}

// Bit reports whether bit i is set.
func (n Uint4) Bit(i uint) bool {
	return i < BITS && ((n.value>>i)&1) == 1
}

// Negative reports whether the sign bit is set.
func (n Uint4) Negative() bool {
	return (n.value & SIGN_BIT) != 0
}

// Int4 reinterprets the pattern as signed.
func (n Uint4) Int4() Int4 {
	return Int4{value: n.value}
}

// Int returns the signed view of the pattern.
func (n Uint4) Int() int {
	return int(n.Int4().Int8())
}

// String returns the unsigned decimal value.
func (n Uint4) String() string {
	return strconv.Itoa(int(n.value))
}

// Int4 is a 4-bit two's complement signed value.
type Int4 struct {
	value uint8
}

// NewInt4 truncates v to 4 bits; -1 becomes 0b1111.
func NewInt4(v int) Int4 {
	return Int4{value: mask(uint8(v))}
}

// Raw returns the 4-bit pattern.
func (n Int4) Raw() uint8 {
	return n.value
}

// Int8 sign extends the pattern into an int8.
func (n Int4) Int8() int8 {
	if (n.value & SIGN_BIT) != 0 {
		return int8(n.value | EXTENSION)
	}
	return int8(n.value)
}

// Uint4 reinterprets the pattern as unsigned.
func (n Int4) Uint4() Uint4 {
	return Uint4{value: n.value}
}

// String returns the signed decimal value.
func (n Int4) String() string {
	return strconv.Itoa(int(n.Int8()))
}
