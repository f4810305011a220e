package elfdeps

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/open-edge-platform/pkg-depscan/internal/analyze"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/logger"
)

// Scanner is the ELF scan stage. It is stateless across files; a single
// Scanner may be shared by any number of goroutines.
type Scanner struct {
	open Opener
}

func NewScanner() *Scanner {
	return &Scanner{open: OpenImage}
}

// Stage wraps the scanner for use in an analysis chain, after AdmitStage.
func (s *Scanner) Stage() analyze.Stage {
	return analyze.Stage{Name: "elf-scan", Run: s.Scan}
}

// Scan walks the sections of an admitted ELF file once, writing the bit
// width and build id onto the file record and dependency/provider facts
// into the bucket. Facts recorded before a build-id failure are kept; the
// scan is not transactional.
func (s *Scanner) Scan(f *analyze.File, b *analyze.Bucket) (analyze.Verdict, error) {
	img, err := s.open(f.SourcePath)
	if err != nil {
		return analyze.Decline, err
	}
	defer img.Close()

	if img.Class64() {
		f.BitWidth = 64
	} else {
		f.BitWidth = 32
	}
	isa := img.ISA()

	// ELF reserves each of these names for at most one section, so a single
	// pass with per-name handling covers the whole file. Unknown names are
	// none of our business.
	for _, name := range img.SectionNames() {
		switch name {
		case ".interp":
			if err := s.scanInterp(f, b, img, isa); err != nil {
				return analyze.Decline, err
			}
		case ".dynamic":
			if err := s.scanDynamic(f, b, img, isa); err != nil {
				return analyze.Decline, err
			}
		case ".note.gnu.build-id":
			if err := s.scanBuildID(f, img); err != nil {
				return analyze.Decline, err
			}
		}
	}
	return analyze.Accept, nil
}

// scanInterp records the program loader path as an interpreter dependency.
func (s *Scanner) scanInterp(f *analyze.File, b *analyze.Bucket, img Image, isa string) error {
	data, err := img.Section(".interp")
	if err != nil {
		return err
	}
	interp := cString(data)
	if interp == "" {
		return nil
	}
	b.AddDependency(analyze.Dependency{Name: qualify(interp, isa), Kind: analyze.CapInterpreter})
	return nil
}

// scanDynamic records one shared-library dependency per DT_NEEDED entry and,
// for files that look like shared libraries, a provider for the soname.
func (s *Scanner) scanDynamic(f *analyze.File, b *analyze.Bucket, img Image, isa string) error {
	needed, soname, err := img.DynamicInfo()
	if err != nil {
		return err
	}
	for _, n := range needed {
		b.AddDependency(analyze.Dependency{Name: qualify(n, isa), Kind: analyze.CapSharedLibrary})
	}

	// Executables occasionally carry a soname too; only advertise one for
	// files whose install path at least looks like a shared library. The
	// ".so" substring test is deliberately coarse and downstream resolution
	// depends on it staying that way.
	if soname == "" || !strings.Contains(f.Path, ".so") {
		return nil
	}

	if aliases := linkerAliases(f, soname); aliases != nil {
		// This file is the system dynamic linker. Other binaries may name
		// it by any of its canonical locations, as an interpreter or as a
		// plain library, so it provides every combination.
		for _, a := range aliases {
			b.AddProvider(analyze.Provider{Name: qualify(a, isa), Kind: analyze.CapInterpreter})
			b.AddProvider(analyze.Provider{Name: qualify(a, isa), Kind: analyze.CapSharedLibrary})
		}
		return nil
	}

	b.AddProvider(analyze.Provider{Name: qualify(soname, isa), Kind: analyze.CapSharedLibrary})
	return nil
}

// linkerAliases returns the canonical alias paths if the file is the system
// dynamic linker, nil otherwise. The linker installs at a /usr/lib* path one
// level deep and its soname starts with "ld-".
func linkerAliases(f *analyze.File, soname string) []string {
	local := path.Base(soname)
	if !strings.HasPrefix(local, "ld-") {
		return nil
	}
	if strings.Count(f.Path, "/") != 3 || !strings.HasPrefix(f.Path, "/usr/lib") {
		return nil
	}

	dirs := []string{"/usr/lib/", "/lib/", "/lib32/"}
	if f.BitWidth == 64 {
		dirs = []string{"/usr/lib64/", "/lib64/", "/lib/"}
	}
	aliases := make([]string, 0, len(dirs)+1)
	for _, d := range dirs {
		aliases = append(aliases, d+local)
	}
	return append(aliases, f.Path)
}

// scanBuildID validates the GNU build-id note and records its hex form.
func (s *Scanner) scanBuildID(f *analyze.File, img Image) error {
	data, err := img.Section(".note.gnu.build-id")
	if err != nil {
		return err
	}
	n, err := parseNote(data, img.ByteOrder())
	if err != nil {
		return err
	}
	if n.typ != noteGNUBuildID || n.name != "GNU" {
		// Not every note in a section of this name must be a GNU build id.
		logger.Logger().Debugf("ignoring non-GNU note (type %d, name %q) in %s", n.typ, n.name, f.Path)
		return nil
	}
	if len(n.desc) != 8 && len(n.desc) != 20 {
		return fmt.Errorf("%w: %d bytes in %s", ErrBuildIDLength, len(n.desc), f.Path)
	}
	f.BuildID = hex.EncodeToString(n.desc)
	return nil
}

// qualify embeds the architecture into a capability name. The "name(isa)"
// form is a wire convention the downstream resolver matches on exactly.
func qualify(name, isa string) string {
	if isa == "" {
		return name
	}
	return fmt.Sprintf("%s(%s)", name, isa)
}

// cString decodes up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
