// Package io reads and writes memory images.
package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ezrec/nibble/memory"
	"github.com/ezrec/nibble/nibble"
)

// Storer writes words to memory.
type Storer interface {
	Store(value nibble.Uint4, addr nibble.Uint4)
}

// Rom is a memory image, one word per address from address 0.
//
// The text form is one hex digit per word. Whitespace and '_' are ignored,
// and ';' or '#' start a comment that runs to the end of the line.
type Rom struct {
	Data []nibble.Uint4
}

// Unmarshal replaces the image with the text read from r.
func (rom *Rom) Unmarshal(r io.Reader) (err error) {
	var data []nibble.Uint4

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if n := strings.IndexAny(line, ";#"); n >= 0 {
			line = line[:n]
		}

		for _, ch := range line {
			var value int
			switch {
			case ch == ' ' || ch == '\t' || ch == '\r' || ch == '_':
				continue
			case ch >= '0' && ch <= '9':
				value = int(ch - '0')
			case ch >= 'a' && ch <= 'f':
				value = int(ch-'a') + 10
			case ch >= 'A' && ch <= 'F':
				value = int(ch-'A') + 10
			default:
				err = errors.Join(ErrRomSyntax, &ErrRomCharacter{LineNo: lineno, Char: ch})
				return
			}

			if len(data) == memory.MAX_WORDS {
				err = ErrRomTooLarge
				return
			}
			data = append(data, nibble.NewUint4(value))
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	rom.Data = data

	return
}

// Marshal writes the image as text, four groups of four words per line.
func (rom *Rom) Marshal(w io.Writer) (err error) {
	var sb strings.Builder

	for n, word := range rom.Data {
		switch {
		case n == 0:
		case n%16 == 0:
			sb.WriteByte('\n')
		case n%4 == 0:
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf("%x", word.Raw()))
	}
	if len(rom.Data) > 0 {
		sb.WriteByte('\n')
	}

	_, err = io.WriteString(w, sb.String())
	return
}

// Load stores the image into mem, starting at address 0.
func (rom *Rom) Load(mem Storer) (err error) {
	if len(rom.Data) > memory.MAX_WORDS {
		err = ErrRomTooLarge
		return
	}

	for addr, word := range rom.Data {
		mem.Store(word, nibble.NewUint4(addr))
	}

	return
}
