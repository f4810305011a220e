package elfdeps

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// noteGNUBuildID is the n_type of a GNU build-id note (NT_GNU_BUILD_ID).
const noteGNUBuildID = 3

// note is one decoded ELF note entry.
type note struct {
	typ  uint32
	name string
	desc []byte
}

// parseNote decodes the first note entry in a note section. Layout per the
// gABI: namesz, descsz, type (all 32-bit in the file's byte order), then the
// NUL-terminated name and the descriptor, each padded to 4-byte alignment.
func parseNote(data []byte, bo binary.ByteOrder) (note, error) {
	if len(data) < 12 {
		return note{}, fmt.Errorf("%w: note header truncated (%d bytes)", ErrMalformedImage, len(data))
	}
	namesz := bo.Uint32(data[0:4])
	descsz := bo.Uint32(data[4:8])
	typ := bo.Uint32(data[8:12])

	nameEnd := 12 + int(namesz)
	if namesz > uint32(len(data)) || nameEnd > len(data) {
		return note{}, fmt.Errorf("%w: note name overflows section", ErrMalformedImage)
	}
	name := string(bytes.TrimRight(data[12:nameEnd], "\x00"))

	descOff := 12 + align4(int(namesz))
	descEnd := descOff + int(descsz)
	if descsz > uint32(len(data)) || descOff > len(data) || descEnd > len(data) {
		return note{}, fmt.Errorf("%w: note descriptor overflows section", ErrMalformedImage)
	}

	return note{typ: typ, name: name, desc: data[descOff:descEnd]}, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}
