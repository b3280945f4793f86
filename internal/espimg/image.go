// Package espimg decodes the chained firmware image format used by the
// ESP8266 boot ROM out of a flat flash dump: a fixed 8-byte image header
// followed by a chain of length-prefixed segment records.
package espimg

import (
	"encoding/binary"
	"errors"
	"fmt"

	"unesp/internal/flatbin"
)

var (
	ErrTruncated      = errors.New("espimg: source truncated")
	ErrOffsetOverflow = errors.New("espimg: segment chain overflows offset range")
)

// ROMMagic is the first byte of a well-formed image header. The decoder
// carries it through without enforcement; a mismatch is surfaced as a
// diagnostic, never an error.
const ROMMagic = 0xE9

// HeaderLen is the size of the fixed image header.
const HeaderLen = 8

// ImageHeader holds the decoded 8-byte image header.
// Layout:
//
//	+0x00: magic           uint8  (0xe9 on well-formed images; not enforced)
//	+0x01: segment count   uint8
//	+0x02: flash interface uint8  (opaque, carried unchanged)
//	+0x03: memory info     uint8  (opaque, carried unchanged)
//	+0x04: entry point     uint32 (little-endian)
type ImageHeader struct {
	Magic          byte   `json:"magic"`
	SegmentCount   byte   `json:"segment_count"`
	FlashInterface byte   `json:"flash_interface"`
	MemoryInfo     byte   `json:"memory_info"`
	EntryPoint     uint32 `json:"entry_point"`
}

// DecodeHeader reads the 8-byte image header at off. Exactly HeaderLen bytes
// are consumed; a source too short for them fails with ErrTruncated.
func DecodeHeader(src flatbin.Source, off uint64) (ImageHeader, error) {
	raw, err := src.ReadAt(off, HeaderLen)
	if err != nil {
		return ImageHeader{}, fmt.Errorf("%w: image header at 0x%x: %v", ErrTruncated, off, err)
	}
	return ImageHeader{
		Magic:          raw[0],
		SegmentCount:   raw[1],
		FlashInterface: raw[2],
		MemoryInfo:     raw[3],
		EntryPoint:     binary.LittleEndian.Uint32(raw[4:8]),
	}, nil
}
