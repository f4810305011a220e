// Package elfdeps derives runtime dependency facts straight from a binary's
// ELF image: the interpreter it needs, the libraries it links against, the
// soname it advertises, its bit width and its GNU build id. Facts are named
// "value(isa)" so capabilities from different architectures never satisfy
// each other.
package elfdeps

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/open-edge-platform/pkg-depscan/internal/analyze"
)

var (
	// ErrMalformedImage marks ELF structure the parser could not decode.
	// Content is static, so the failure is deterministic and never retried.
	ErrMalformedImage = errors.New("malformed ELF image")
	// ErrBuildIDLength marks a GNU build-id descriptor that is neither 8
	// (legacy digest) nor 20 (SHA-1) bytes long.
	ErrBuildIDLength = errors.New("invalid build-id descriptor length")
)

var elfMagic = [4]byte{0x7f, 'E', 'L', 'F'}

// minAdmitSize is the smallest file worth handing to the scanner. Anything
// shorter cannot hold an e_ident, and the floor keeps later reads away from
// end-of-file.
const minAdmitSize = 16

// AdmitStage gates the ELF chain on a cheap magic check.
func AdmitStage() analyze.Stage {
	return analyze.Stage{Name: "elf-admit", Run: Admit}
}

// Admit accepts a file iff it is a regular file of at least 16 bytes whose
// first 4 bytes are the ELF magic. It never touches the file record or the
// bucket; declining just means other chains may still claim the file.
func Admit(f *analyze.File, _ *analyze.Bucket) (analyze.Verdict, error) {
	if f.Kind != analyze.KindRegular {
		return analyze.Decline, nil
	}

	fh, err := os.Open(f.SourcePath)
	if err != nil {
		return analyze.Decline, fmt.Errorf("opening %s: %w", f.SourcePath, err)
	}
	defer fh.Close()

	st, err := fh.Stat()
	if err != nil {
		return analyze.Decline, fmt.Errorf("stat %s: %w", f.SourcePath, err)
	}
	if st.Size() < minAdmitSize {
		return analyze.Decline, nil
	}

	var magic [4]byte
	if _, err := io.ReadFull(fh, magic[:]); err != nil {
		return analyze.Decline, fmt.Errorf("reading %s: %w", f.SourcePath, err)
	}
	if magic != elfMagic {
		return analyze.Decline, nil
	}
	return analyze.Accept, nil
}
