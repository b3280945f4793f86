package espimg

import (
	"unesp/internal/flatbin"
)

// Image is one decoded image region: its header plus the segment chain that
// follows it, in file order.
type Image struct {
	Offset   uint64      `json:"offset"`
	Header   ImageHeader `json:"header"`
	Segments []Segment   `json:"segments"`
	Diags    []Diag      `json:"diagnostics,omitempty"`
}

// EntryPoint returns the region's decoded entry point.
func (img *Image) EntryPoint() uint32 { return img.Header.EntryPoint }

// ProcessRegion decodes one image region: the 8-byte image header at
// regionOff and the segment chain immediately after it. Segment names are
// base plus the zero-based index. The two regions of a dump are decoded by
// independent calls; no state or error carries over between them.
func ProcessRegion(src flatbin.Source, regionOff uint64, base string) (*Image, error) {
	hdr, err := DecodeHeader(src, regionOff)
	if err != nil {
		return nil, err
	}

	var diags Diags
	if hdr.Magic != ROMMagic {
		diags.Addf(regionOff, DiagBadMagic,
			"magic byte 0x%02x (expected 0x%02x); decoding anyway", hdr.Magic, ROMMagic)
	}

	segs, err := WalkSegments(src, regionOff+HeaderLen, int(hdr.SegmentCount), BaseName(base))
	if err != nil {
		return nil, err
	}

	return &Image{
		Offset:   regionOff,
		Header:   hdr,
		Segments: segs,
		Diags:    diags.Items(),
	}, nil
}
