package rpmdeps_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/open-edge-platform/pkg-depscan/internal/analyze"
	"github.com/open-edge-platform/pkg-depscan/internal/rpmdeps"
)

func candidate(t *testing.T, data []byte) *analyze.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidate.rpm")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return &analyze.File{
		Path:       "/packages/candidate.rpm",
		SourcePath: path,
		Target:     "core",
		Kind:       analyze.KindRegular,
	}
}

func TestAdmit_LeadMagic(t *testing.T) {
	f := candidate(t, []byte{0xed, 0xab, 0xee, 0xdb, 0, 0, 0, 0})
	v, err := rpmdeps.Admit(f, analyze.NewBucket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != analyze.Accept {
		t.Error("file with the lead magic should be accepted")
	}
}

func TestAdmit_WrongMagic(t *testing.T) {
	f := candidate(t, []byte{0x7f, 'E', 'L', 'F', 0, 0, 0, 0})
	v, err := rpmdeps.Admit(f, analyze.NewBucket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != analyze.Decline {
		t.Error("non-rpm magic should be declined")
	}
}

func TestAdmit_TooShort(t *testing.T) {
	f := candidate(t, []byte{0xed, 0xab})
	v, err := rpmdeps.Admit(f, analyze.NewBucket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != analyze.Decline {
		t.Error("truncated file should be declined without error")
	}
}

func TestAdmit_NonRegular(t *testing.T) {
	f := &analyze.File{Path: "/packages", Kind: analyze.KindDirectory, Target: "core"}
	v, err := rpmdeps.Admit(f, analyze.NewBucket())
	if err != nil || v != analyze.Decline {
		t.Errorf("directory should be declined, got (%v, %v)", v, err)
	}
}

func TestAdmit_MissingFile(t *testing.T) {
	f := &analyze.File{
		Path:       "/packages/gone.rpm",
		SourcePath: filepath.Join(t.TempDir(), "gone.rpm"),
		Kind:       analyze.KindRegular,
		Target:     "core",
	}
	if _, err := rpmdeps.Admit(f, analyze.NewBucket()); err == nil {
		t.Error("expected an error for an unreadable candidate")
	}
}

func TestScan_MalformedRPM(t *testing.T) {
	// Valid lead magic but garbage after it; the header read must fail.
	data := append([]byte{0xed, 0xab, 0xee, 0xdb}, make([]byte, 64)...)
	f := candidate(t, data)

	s := &rpmdeps.Scanner{}
	if _, err := s.Scan(f, analyze.NewBucket()); err == nil {
		t.Error("expected an error for a truncated rpm")
	}
}

func TestLoadKeyring_MissingFile(t *testing.T) {
	if _, err := rpmdeps.LoadKeyring(filepath.Join(t.TempDir(), "absent.asc")); err == nil {
		t.Error("expected an error for a missing keyring")
	}
}

func TestLoadKeyring_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.asc")
	if err := os.WriteFile(real, []byte("not a keyring"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.asc")
	if err := os.Symlink(real, link); err != nil {
		t.Fatal(err)
	}

	// The link must be followed to the target; the failure is the armor
	// parse, not a symlink rejection.
	_, err := rpmdeps.LoadKeyring(link)
	if err == nil {
		t.Fatal("expected an error for a non-armored keyring target")
	}
	if strings.Contains(err.Error(), "symlinks are not allowed") {
		t.Errorf("symlinked keyring was rejected instead of resolved: %v", err)
	}
}

func TestLoadKeyring_NotArmored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.asc")
	if err := os.WriteFile(path, []byte("not a keyring"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := rpmdeps.LoadKeyring(path); err == nil {
		t.Error("expected an error for a non-armored keyring")
	}
}
