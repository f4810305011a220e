// Package rpmdeps feeds a target's bucket from package metadata instead of
// binary content: RPM files staged into a target contribute the Provides and
// Requires capabilities their headers declare.
package rpmdeps

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/sassoftware/go-rpmutils"

	"github.com/open-edge-platform/pkg-depscan/internal/analyze"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/logger"
	"github.com/open-edge-platform/pkg-depscan/internal/utils/security"
)

// rpmLead is the magic at offset 0 of every RPM package.
var rpmLead = [4]byte{0xed, 0xab, 0xee, 0xdb}

// Scanner extracts declared capabilities from RPM files. With a non-nil
// Keyring each package's GPG signature is verified before its header is
// trusted.
type Scanner struct {
	Keyring openpgp.EntityList
}

// LoadKeyring reads an armored GPG public keyring for signature checks.
// Symlinked keyrings are followed; distros routinely link key files into
// place under /etc.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	data, err := security.SafeReadFile(path, security.ResolveSymlinks)
	if err != nil {
		return nil, fmt.Errorf("reading public key %s: %w", path, err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loading keyring %s: %w", path, err)
	}
	return keyring, nil
}

// AdmitStage gates the RPM chain on the package lead magic.
func AdmitStage() analyze.Stage {
	return analyze.Stage{Name: "rpm-admit", Run: Admit}
}

// Admit accepts regular files that start with the RPM lead magic.
func Admit(f *analyze.File, _ *analyze.Bucket) (analyze.Verdict, error) {
	if f.Kind != analyze.KindRegular {
		return analyze.Decline, nil
	}

	fh, err := os.Open(f.SourcePath)
	if err != nil {
		return analyze.Decline, fmt.Errorf("opening %s: %w", f.SourcePath, err)
	}
	defer fh.Close()

	var magic [4]byte
	if _, err := io.ReadFull(fh, magic[:]); err != nil {
		// Shorter than a lead, so not an RPM.
		return analyze.Decline, nil
	}
	if magic != rpmLead {
		return analyze.Decline, nil
	}
	return analyze.Accept, nil
}

// Stage wraps the scanner for use in an analysis chain, after AdmitStage.
func (s *Scanner) Stage() analyze.Stage {
	return analyze.Stage{Name: "rpm-scan", Run: s.Scan}
}

// Scan records the declared Provides and Requires of an admitted RPM into
// the target's bucket. Capability names are kept verbatim: RPM metadata is
// already in the resolver's vocabulary, including any architecture or
// version decoration it chose to apply.
func (s *Scanner) Scan(f *analyze.File, b *analyze.Bucket) (analyze.Verdict, error) {
	log := logger.Logger()

	fh, err := os.Open(f.SourcePath)
	if err != nil {
		return analyze.Decline, fmt.Errorf("opening %s: %w", f.SourcePath, err)
	}
	defer fh.Close()

	if s.Keyring != nil {
		_, sigs, err := rpmutils.Verify(fh, s.Keyring)
		if err != nil {
			return analyze.Decline, fmt.Errorf("verifying %s: %w", f.Path, err)
		}
		if len(sigs) == 0 {
			return analyze.Decline, fmt.Errorf("no GPG signatures found in %s", f.Path)
		}
		if _, err := fh.Seek(0, io.SeekStart); err != nil {
			return analyze.Decline, fmt.Errorf("rewinding %s: %w", f.SourcePath, err)
		}
	}

	pkg, err := rpmutils.ReadRpm(fh)
	if err != nil {
		return analyze.Decline, fmt.Errorf("reading rpm %s: %w", f.Path, err)
	}

	provides, err := pkg.Header.GetStrings(rpmutils.PROVIDENAME)
	if err != nil {
		log.Debugf("rpm %s declares no provides: %v", f.Path, err)
	}
	for _, p := range provides {
		b.AddProvider(analyze.Provider{Name: p, Kind: analyze.CapDeclared})
	}

	requires, err := pkg.Header.GetStrings(rpmutils.REQUIRENAME)
	if err != nil {
		log.Debugf("rpm %s declares no requires: %v", f.Path, err)
	}
	for _, r := range requires {
		b.AddDependency(analyze.Dependency{Name: r, Kind: analyze.CapDeclared})
	}

	return analyze.Accept, nil
}
