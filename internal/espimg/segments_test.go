package espimg

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"unesp/internal/flatbin"
)

// segSpec describes one synthetic segment for test image construction.
type segSpec struct {
	addr uint32
	data []byte
}

// appendSegments appends count segment records (header + payload) to buf.
func appendSegments(buf []byte, segs []segSpec) []byte {
	for _, s := range segs {
		buf = binary.LittleEndian.AppendUint32(buf, s.addr)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.data)))
		buf = append(buf, s.data...)
	}
	return buf
}

// buildImage constructs a full image region: 8-byte header plus segment chain.
func buildImage(magic byte, entry uint32, segs []segSpec) []byte {
	buf := []byte{magic, byte(len(segs)), 0x02, 0x40}
	buf = binary.LittleEndian.AppendUint32(buf, entry)
	return appendSegments(buf, segs)
}

func TestWalkSegments(t *testing.T) {
	segs := []segSpec{
		{addr: 0x40100000, data: make([]byte, 16)},
		{addr: 0x3FFE8000, data: make([]byte, 4)},
		{addr: 0x40240000, data: nil},
		{addr: 0x3FFE8400, data: make([]byte, 9)},
	}
	src := flatbin.Bytes(appendSegments(nil, segs))

	got, err := WalkSegments(src, 0, len(segs), BaseName("Segment"))
	if err != nil {
		t.Fatal(err)
	}

	want := []Segment{
		{Name: "Segment0", MappedAddr: 0x40100000, Size: 16, SourceOffset: 8},
		{Name: "Segment1", MappedAddr: 0x3FFE8000, Size: 4, SourceOffset: 32},
		{Name: "Segment2", MappedAddr: 0x40240000, Size: 0, SourceOffset: 44},
		{Name: "Segment3", MappedAddr: 0x3FFE8400, Size: 9, SourceOffset: 52},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

// Each segment's data follows its own 8-byte header, so consecutive source
// offsets differ by the predecessor's size plus 8.
func TestWalkSegmentsCumulativeOffsets(t *testing.T) {
	segs := []segSpec{
		{addr: 0x1000, data: make([]byte, 3)},
		{addr: 0x2000, data: make([]byte, 0)},
		{addr: 0x3000, data: make([]byte, 117)},
		{addr: 0x4000, data: make([]byte, 1)},
		{addr: 0x5000, data: make([]byte, 64)},
	}
	src := flatbin.Bytes(appendSegments(nil, segs))

	got, err := WalkSegments(src, 0, len(segs), BaseName("s"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(got); i++ {
		want := got[i].SourceOffset + uint64(got[i].Size) + SegmentHeaderLen
		if got[i+1].SourceOffset != want {
			t.Errorf("segment %d: SourceOffset = %d, want %d", i+1, got[i+1].SourceOffset, want)
		}
	}
}

func TestWalkSegmentsZeroCount(t *testing.T) {
	got, err := WalkSegments(flatbin.Bytes{}, 0, 0, BaseName("s"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d segments, want 0", len(got))
	}
}

func TestWalkSegmentsTruncated(t *testing.T) {
	// One complete segment, then a second header cut off mid-record.
	buf := appendSegments(nil, []segSpec{{addr: 0x1000, data: make([]byte, 4)}})
	buf = append(buf, 0x00, 0x20, 0x00, 0x00) // 4 of 8 header bytes

	_, err := WalkSegments(flatbin.Bytes(buf), 0, 2, BaseName("s"))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestWalkSegmentsCountBeyondData(t *testing.T) {
	// Count says 3 but only 1 record exists; the walk must fail, not stop early.
	buf := appendSegments(nil, []segSpec{{addr: 0x1000, data: make([]byte, 2)}})
	_, err := WalkSegments(flatbin.Bytes(buf), 0, 3, BaseName("s"))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

// unboundedSource pretends every read succeeds, to drive the cursor into
// offset ranges no real dump can reach.
type unboundedSource struct{}

func (unboundedSource) Size() uint64 { return math.MaxUint64 }

func (unboundedSource) ReadAt(off uint64, n uint32) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = 0xFF
	}
	return buf, nil
}

func TestWalkSegmentsOffsetOverflow(t *testing.T) {
	t.Run("header offset wraps", func(t *testing.T) {
		_, err := WalkSegments(unboundedSource{}, math.MaxUint64-3, 1, BaseName("s"))
		if !errors.Is(err, ErrOffsetOverflow) {
			t.Errorf("got %v, want ErrOffsetOverflow", err)
		}
	})
	t.Run("size wraps cursor", func(t *testing.T) {
		// Size field reads as 0xFFFFFFFF; data offset close enough to the
		// top of the range that adding it wraps.
		_, err := WalkSegments(unboundedSource{}, math.MaxUint64-SegmentHeaderLen-10, 1, BaseName("s"))
		if !errors.Is(err, ErrOffsetOverflow) {
			t.Errorf("got %v, want ErrOffsetOverflow", err)
		}
	})
}

func TestBaseName(t *testing.T) {
	name := BaseName("bootloader")
	for i, want := range []string{"bootloader0", "bootloader1", "bootloader2"} {
		if got := name(i); got != want {
			t.Errorf("name(%d) = %q, want %q", i, got, want)
		}
	}
	if got := BaseName("Segment")(12); got != "Segment12" {
		t.Errorf("name(12) = %q, want Segment12", got)
	}
}
