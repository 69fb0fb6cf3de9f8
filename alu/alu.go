// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package alu implements the 4-bit arithmetic logic unit.
//
// The ALU adds with an explicit ripple-carry chain and subtracts by adding the
// two's complement of the second operand. Flags are recomputed from scratch
// on every operation.
package alu

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ezrec/nibble/nibble"
)

// Op is an ALU operation.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	ADD = Op(0) // add
	SUB = Op(1) // sub
)

// Flags are the condition outputs of the last operation.
type Flags struct {
	Zero     bool // Result is zero.
	Negative bool // Result sign bit is set.
	Overflow bool // Signed result does not fit in 4 bits.
}

// Clear resets all flags.
func (fl *Flags) Clear() {
	*fl = Flags{}
}

// String renders set flags as Z, N, V and clear flags as '-'.
func (fl Flags) String() string {
	var sb strings.Builder
	for _, flag := range [](struct {
		set  bool
		name byte
	}){
		{fl.Zero, 'Z'},
		{fl.Negative, 'N'},
		{fl.Overflow, 'V'},
	} {
		if flag.set {
			sb.WriteByte(flag.name)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Alu is the arithmetic unit. It writes results to a register it does not own.
type Alu struct {
	flags  Flags
	result *nibble.Uint4
	log    *zap.Logger
}

// NewAlu creates an ALU writing to result.
func NewAlu(result *nibble.Uint4, log *zap.Logger) (alu *Alu) {
	if log == nil {
		log = zap.NewNop()
	}
	alu = &Alu{
		result: result,
		log:    log,
	}
	return
}

// SetLogger replaces the diagnostic logger.
func (alu *Alu) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	alu.log = log
}

// Flags returns the flags of the last operation.
func (alu *Alu) Flags() Flags {
	return alu.flags
}

// Reset clears the flags.
func (alu *Alu) Reset() {
	alu.flags.Clear()
}

// Compute performs op on a and b, stores the result in the result register,
// and returns the result and flags. An unknown op leaves the result register
// untouched with all flags clear.
func (alu *Alu) Compute(a, b nibble.Uint4, op Op) (result nibble.Uint4, flags Flags) {
	alu.flags.Clear()

	switch op {
	case ADD:
		result = alu.add(a, b)
	case SUB:
		result = alu.add(a, b.Not().Inc())
	default:
		alu.log.Warn("alu: unknown op", zap.Stringer("op", op))
		if alu.result != nil {
			result = *alu.result
		}
		return result, alu.flags
	}

	if alu.result != nil {
		*alu.result = result
	}

	return result, alu.flags
}

// add is a 4-bit ripple-carry adder. The final carry is dropped.
func (alu *Alu) add(a, b nibble.Uint4) (result nibble.Uint4) {
	var sum uint8
	carry := false
	for i := range uint(nibble.BITS) {
		bit_a := a.Bit(i)
		bit_b := b.Bit(i)

		s := bit_a != bit_b != carry
		carry = (bit_a && bit_b) || (bit_a && carry) || (bit_b && carry)

		if s {
			sum |= 1 << i
		}
	}
	result = nibble.NewUint4(int(sum))

	sign_a := a.Bit(nibble.BITS - 1)
	sign_b := b.Bit(nibble.BITS - 1)
	sign_r := result.Bit(nibble.BITS - 1)

	// Only like-signed operands can overflow.
	if sign_a == sign_b && sign_a != sign_r {
		alu.flags.Overflow = true
	}
	if sign_r {
		alu.flags.Negative = true
	}
	if result.Raw() == 0 {
		alu.flags.Zero = true
	}

	alu.log.Debug("alu: add",
		zap.Stringer("a", a),
		zap.Stringer("b", b),
		zap.Stringer("result", result),
		zap.Bool("carry", carry),
		zap.Stringer("flags", alu.flags))

	return
}
