// Package analyze implements the per-file analysis pipeline: files staged
// for packaging are run through ordered chains of stages, and the facts the
// stages discover are accumulated per output target.
package analyze

import "fmt"

// FileKind classifies a staged file the way the walker saw it on disk.
type FileKind int

const (
	KindRegular FileKind = iota
	KindDirectory
	KindSymlink
	KindOther
)

func (k FileKind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// File is one candidate file under analysis. Path is the location the file
// will have once installed; SourcePath is where its bytes live right now
// (typically inside a staging root). Stages mutate BitWidth and BuildID in
// place; everything else is set by the walker before analysis starts.
type File struct {
	Path       string
	SourcePath string
	Kind       FileKind
	Target     string

	// Outputs written by the ELF scan stage.
	BitWidth int    // 0 (unknown), 32 or 64
	BuildID  string // lowercase hex, empty if the binary carries none
}

func (f *File) String() string {
	return fmt.Sprintf("%s (%s, target %s)", f.Path, f.Kind, f.Target)
}
