// Package flatbin provides bounds-checked random access over a raw flash dump.
package flatbin

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrOutOfRange = errors.New("flatbin: read past end of source")
	ErrEmpty      = errors.New("flatbin: empty source")
)

// Source is random access over an immutable byte stream. Reads never mutate
// the source and may run concurrently.
type Source interface {
	// ReadAt reads exactly n bytes starting at off. A range that extends
	// past the end of the source fails with ErrOutOfRange.
	ReadAt(off uint64, n uint32) ([]byte, error)
	// Size returns the total length of the source in bytes.
	Size() uint64
}

// File is a Source backed by a flash dump on disk.
type File struct {
	f    *os.File
	size uint64
}

// Open opens a flash dump file. The content is opaque at this layer; only
// an empty file is rejected.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flatbin: open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("flatbin: stat: %w", err)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	return &File{f: f, size: uint64(info.Size())}, nil
}

// Close releases the underlying file.
func (f *File) Close() error { return f.f.Close() }

// Size returns the size of the dump.
func (f *File) Size() uint64 { return f.size }

// ReadAt reads n bytes at the given file offset.
func (f *File) ReadAt(off uint64, n uint32) ([]byte, error) {
	if err := checkRange(off, n, f.size); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := f.f.ReadAt(buf, int64(off)); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("flatbin: read %d bytes at 0x%x: %w", n, off, err)
	}
	return buf, nil
}

// Bytes is an in-memory Source over a byte slice.
type Bytes []byte

// Size returns the length of the slice.
func (b Bytes) Size() uint64 { return uint64(len(b)) }

// ReadAt reads n bytes at off, copying out of the backing slice.
func (b Bytes) ReadAt(off uint64, n uint32) ([]byte, error) {
	if err := checkRange(off, n, uint64(len(b))); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b[off:off+uint64(n)])
	return out, nil
}

func checkRange(off uint64, n uint32, size uint64) error {
	end := off + uint64(n)
	if end < off || end > size {
		return fmt.Errorf("%w: %d bytes at 0x%x (source size 0x%x)", ErrOutOfRange, n, off, size)
	}
	return nil
}
