package io

import (
	"errors"

	"github.com/ezrec/nibble/translate"
)

var f = translate.From

var (
	// Image errors
	ErrRomTooLarge = errors.New(f("image exceeds memory"))
	ErrRomSyntax   = errors.New(f("image syntax"))
)

// ErrRomCharacter is an unexpected character in a memory image.
type ErrRomCharacter struct {
	LineNo int
	Char   rune
}

func (err *ErrRomCharacter) Error() string {
	return f("line %d unexpected %q", err.LineNo, err.Char)
}
