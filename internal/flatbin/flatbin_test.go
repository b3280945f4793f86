package flatbin

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestBytesReadAt(t *testing.T) {
	src := Bytes{0x10, 0x20, 0x30, 0x40}

	got, err := src.ReadAt(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0x20 || got[1] != 0x30 {
		t.Errorf("read %x, want 2030", got)
	}

	// The returned slice is a copy; mutating it must not touch the source.
	got[0] = 0xFF
	if src[1] != 0x20 {
		t.Error("ReadAt aliased the backing slice")
	}
}

func TestBytesReadAtOutOfRange(t *testing.T) {
	src := Bytes{1, 2, 3, 4}

	tests := []struct {
		name string
		off  uint64
		n    uint32
	}{
		{"past end", 4, 1},
		{"straddles end", 2, 3},
		{"far offset", 100, 1},
		{"offset near max", math.MaxUint64 - 1, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.ReadAt(tt.off, tt.n)
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("got %v, want ErrOutOfRange", err)
			}
		})
	}
}

func TestBytesReadAtZeroLength(t *testing.T) {
	src := Bytes{1, 2}
	got, err := src.ReadAt(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("read %d bytes, want 0", len(got))
	}
}

func TestFileReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.bin")
	if err := os.WriteFile(path, []byte{0xE9, 0x01, 0x02, 0x03}, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if f.Size() != 4 {
		t.Errorf("Size = %d, want 4", f.Size())
	}

	got, err := f.ReadAt(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0xE9 || got[1] != 0x01 {
		t.Errorf("read %x, want e901", got)
	}

	if _, err := f.ReadAt(3, 2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got %v, want ErrOutOfRange", err)
	}
}

func TestOpenRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("got %v, want ErrEmpty", err)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
