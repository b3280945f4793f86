package espimg

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"unesp/internal/flatbin"
)

// SegmentHeaderLen is the size of one segment record header.
const SegmentHeaderLen = 8

// Segment describes one walked segment record.
// Record layout (both fields little-endian):
//
//	+0x00: mapped address uint32
//	+0x04: size           uint32 (data bytes following this header)
type Segment struct {
	Name         string `json:"name"`
	MappedAddr   uint32 `json:"mapped_addr"`
	Size         uint32 `json:"size"`
	SourceOffset uint64 `json:"source_offset"` // offset of the segment data in the dump
}

// NameFunc produces the label for the segment at the given zero-based index.
type NameFunc func(index int) string

// BaseName returns a NameFunc that appends the decimal index to base
// ("Segment0", "Segment1", ...).
func BaseName(base string) NameFunc {
	return func(i int) string { return base + strconv.Itoa(i) }
}

// WalkSegments walks the segment chain starting at the first segment header.
// Each record's size field positions the next record: the cursor advances by
// SegmentHeaderLen + size per segment. Exactly count records are read in
// file order; there is no terminator to scan for.
func WalkSegments(src flatbin.Source, firstHeaderOff uint64, count int, name NameFunc) ([]Segment, error) {
	segs := make([]Segment, 0, count)
	cursor := firstHeaderOff
	for i := 0; i < count; i++ {
		raw, err := src.ReadAt(cursor, SegmentHeaderLen)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d header at 0x%x: %v", ErrTruncated, i, cursor, err)
		}
		dataOff := cursor + SegmentHeaderLen
		if dataOff < cursor {
			return nil, fmt.Errorf("%w: segment %d header at 0x%x", ErrOffsetOverflow, i, cursor)
		}
		seg := Segment{
			Name:         name(i),
			MappedAddr:   binary.LittleEndian.Uint32(raw[0:4]),
			Size:         binary.LittleEndian.Uint32(raw[4:8]),
			SourceOffset: dataOff,
		}
		segs = append(segs, seg)

		next := dataOff + uint64(seg.Size)
		if next < dataOff {
			return nil, fmt.Errorf("%w: segment %d size 0x%x at 0x%x", ErrOffsetOverflow, i, seg.Size, cursor)
		}
		cursor = next
	}
	return segs, nil
}
