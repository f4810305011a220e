package elfdeps

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"strings"
)

// Image is the view of a parsed ELF binary the scanner works against. The
// production implementation wraps debug/elf; tests substitute fakes.
type Image interface {
	// Class64 reports whether the image is 64-bit.
	Class64() bool
	// ISA is the machine architecture string used to qualify capability
	// names, e.g. "x86_64". Empty when the machine field is unset.
	ISA() string
	// ByteOrder is the image's data encoding, needed to decode notes.
	ByteOrder() binary.ByteOrder
	// SectionNames lists the named sections in file order.
	SectionNames() []string
	// Section returns the full contents of the named section.
	Section(name string) ([]byte, error)
	// DynamicInfo decodes the dynamic-linking table: the DT_NEEDED library
	// names in table order and the DT_SONAME value (empty if absent).
	DynamicInfo() (needed []string, soname string, err error)
	Close() error
}

// Opener parses the file at path into an Image.
type Opener func(path string) (Image, error)

type elfImage struct {
	f *elf.File
}

// OpenImage parses an on-disk ELF file via debug/elf.
func OpenImage(path string) (Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedImage, path, err)
	}
	return &elfImage{f: f}, nil
}

func (i *elfImage) Class64() bool {
	return i.f.Class == elf.ELFCLASS64
}

func (i *elfImage) ByteOrder() binary.ByteOrder {
	return i.f.ByteOrder
}

func (i *elfImage) SectionNames() []string {
	names := make([]string, 0, len(i.f.Sections))
	for _, s := range i.f.Sections {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

func (i *elfImage) Section(name string) ([]byte, error) {
	s := i.f.Section(name)
	if s == nil {
		return nil, fmt.Errorf("%w: section %s missing", ErrMalformedImage, name)
	}
	data, err := s.Data()
	if err != nil {
		return nil, fmt.Errorf("%w: reading section %s: %v", ErrMalformedImage, name, err)
	}
	return data, nil
}

func (i *elfImage) DynamicInfo() ([]string, string, error) {
	needed, err := i.f.DynString(elf.DT_NEEDED)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decoding DT_NEEDED: %v", ErrMalformedImage, err)
	}
	sonames, err := i.f.DynString(elf.DT_SONAME)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decoding DT_SONAME: %v", ErrMalformedImage, err)
	}
	soname := ""
	if len(sonames) > 0 {
		soname = sonames[0]
	}
	return needed, soname, nil
}

func (i *elfImage) Close() error {
	return i.f.Close()
}

func (i *elfImage) ISA() string {
	switch i.f.Machine {
	case elf.EM_NONE:
		return ""
	case elf.EM_386:
		return "i386"
	case elf.EM_X86_64:
		return "x86_64"
	case elf.EM_ARM:
		return "arm"
	case elf.EM_AARCH64:
		return "aarch64"
	case elf.EM_PPC:
		return "ppc"
	case elf.EM_PPC64:
		return "ppc64"
	case elf.EM_SPARCV9:
		return "sparc64"
	case elf.EM_S390:
		return "s390x"
	case elf.EM_MIPS:
		return "mips"
	case elf.EM_RISCV:
		if i.Class64() {
			return "riscv64"
		}
		return "riscv32"
	case elf.EM_LOONGARCH:
		return "loongarch64"
	}
	// EM_FOO -> "foo"; keeps the qualifier non-empty for exotic machines.
	return strings.ToLower(strings.TrimPrefix(i.f.Machine.String(), "EM_"))
}
