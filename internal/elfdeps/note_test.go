package elfdeps

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestParseNote_GNU(t *testing.T) {
	data := buildNote(3, "GNU", []byte{0xaa, 0xbb, 0xcc, 0xdd})

	n, err := parseNote(data, binary.LittleEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.typ != 3 {
		t.Errorf("typ = %d, want 3", n.typ)
	}
	if n.name != "GNU" {
		t.Errorf("name = %q, want GNU", n.name)
	}
	if len(n.desc) != 4 || n.desc[0] != 0xaa {
		t.Errorf("unexpected descriptor %x", n.desc)
	}
}

func TestParseNote_NamePadding(t *testing.T) {
	// A 5-byte name ("Linux" without NUL would be 5, with NUL 6) forces
	// padding before the descriptor.
	data := buildNote(1, "Linux", []byte{1, 2})

	n, err := parseNote(data, binary.LittleEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.name != "Linux" {
		t.Errorf("name = %q, want Linux", n.name)
	}
	if len(n.desc) != 2 || n.desc[0] != 1 || n.desc[1] != 2 {
		t.Errorf("unexpected descriptor %x", n.desc)
	}
}

func TestParseNote_BigEndian(t *testing.T) {
	nameb := []byte{'G', 'N', 'U', 0}
	data := make([]byte, 12)
	binary.BigEndian.PutUint32(data[0:4], 4)
	binary.BigEndian.PutUint32(data[4:8], 1)
	binary.BigEndian.PutUint32(data[8:12], 3)
	data = append(data, nameb...)
	data = append(data, 0x42)

	n, err := parseNote(data, binary.BigEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.typ != 3 || n.name != "GNU" || len(n.desc) != 1 {
		t.Errorf("unexpected note %+v", n)
	}
}

func TestParseNote_Truncated(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		{1, 2, 3},
		make([]byte, 11),
	} {
		if _, err := parseNote(data, binary.LittleEndian); !errors.Is(err, ErrMalformedImage) {
			t.Errorf("len %d: expected ErrMalformedImage, got %v", len(data), err)
		}
	}
}

func TestParseNote_OverflowingSizes(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data[0:4], 1000) // namesz way past the end
	binary.LittleEndian.PutUint32(data[4:8], 0)
	binary.LittleEndian.PutUint32(data[8:12], 3)

	if _, err := parseNote(data, binary.LittleEndian); !errors.Is(err, ErrMalformedImage) {
		t.Errorf("expected ErrMalformedImage for oversized namesz, got %v", err)
	}

	binary.LittleEndian.PutUint32(data[0:4], 4)
	binary.LittleEndian.PutUint32(data[4:8], 1000) // descsz past the end
	if _, err := parseNote(data, binary.LittleEndian); !errors.Is(err, ErrMalformedImage) {
		t.Errorf("expected ErrMalformedImage for oversized descsz, got %v", err)
	}
}
