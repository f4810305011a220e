package elfdeps_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/open-edge-platform/pkg-depscan/internal/analyze"
	"github.com/open-edge-platform/pkg-depscan/internal/elfdeps"
)

func writeCandidate(t *testing.T, name string, data []byte) *analyze.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o755); err != nil {
		t.Fatalf("writing candidate: %v", err)
	}
	return &analyze.File{
		Path:       "/usr/bin/" + name,
		SourcePath: path,
		Kind:       analyze.KindRegular,
		Target:     "test",
	}
}

func pad(data []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, data)
	return out
}

func TestAdmit_ELFMagic(t *testing.T) {
	f := writeCandidate(t, "bin", pad([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1}, 64))

	v, err := elfdeps.Admit(f, analyze.NewBucket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != analyze.Accept {
		t.Error("expected ELF magic to be accepted")
	}
}

func TestAdmit_WrongMagic(t *testing.T) {
	f := writeCandidate(t, "script", pad([]byte("#!/bin/sh\nexit 0\n"), 64))

	v, err := elfdeps.Admit(f, analyze.NewBucket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != analyze.Decline {
		t.Error("expected non-ELF content to be declined")
	}
}

func TestAdmit_TooSmall(t *testing.T) {
	// A valid magic is not enough: anything under 16 bytes is declined
	// regardless of content.
	f := writeCandidate(t, "tiny", []byte{0x7f, 'E', 'L', 'F', 2, 1})

	v, err := elfdeps.Admit(f, analyze.NewBucket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != analyze.Decline {
		t.Error("expected sub-16-byte file to be declined")
	}
}

func TestAdmit_EmptyFile(t *testing.T) {
	f := writeCandidate(t, "empty", nil)

	v, err := elfdeps.Admit(f, analyze.NewBucket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != analyze.Decline {
		t.Error("expected empty file to be declined")
	}
}

func TestAdmit_NonRegularKinds(t *testing.T) {
	f := writeCandidate(t, "bin", pad([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1}, 64))

	for _, kind := range []analyze.FileKind{analyze.KindDirectory, analyze.KindSymlink, analyze.KindOther} {
		f.Kind = kind
		v, err := elfdeps.Admit(f, analyze.NewBucket())
		if err != nil {
			t.Fatalf("kind %s: unexpected error: %v", kind, err)
		}
		if v != analyze.Decline {
			t.Errorf("kind %s: expected decline even with valid ELF bytes", kind)
		}
	}
}

func TestAdmit_MissingFile(t *testing.T) {
	f := &analyze.File{
		Path:       "/usr/bin/gone",
		SourcePath: filepath.Join(t.TempDir(), "gone"),
		Kind:       analyze.KindRegular,
		Target:     "test",
	}
	if _, err := elfdeps.Admit(f, analyze.NewBucket()); err == nil {
		t.Error("expected error for unreadable file")
	}
}
