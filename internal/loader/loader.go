// Package loader drives firmware image decoding over an ESP8266 flash dump
// and populates an address space with the resulting memory layout.
package loader

import (
	"fmt"

	"unesp/internal/espimg"
	"unesp/internal/flatbin"
	"unesp/internal/memmap"
)

// Flash layout of an ESP8266 dump: the boot ROM loads the bootloader image
// from the start of flash and the application image from the second sector.
const (
	BootloaderOffset uint64 = 0x0
	AppImageOffset   uint64 = 0x1000
)

// Segment base names. The application uses the generic label; the
// bootloader's segments are prefixed so the two regions stay distinguishable
// in one layout.
const (
	BootloaderBaseName = "bootloader"
	AppSegmentBaseName = "Segment"
)

// Region pairs a region's flash offset with the base name for its segments.
type Region struct {
	Name   string `json:"name"`
	Offset uint64 `json:"offset"`
	Base   string `json:"base"`
}

// DefaultRegions returns the two fixed regions of an ESP8266 dump.
func DefaultRegions() []Region {
	return []Region{
		{Name: "bootloader", Offset: BootloaderOffset, Base: BootloaderBaseName},
		{Name: "application", Offset: AppImageOffset, Base: AppSegmentBaseName},
	}
}

// Options controls how a load reacts to a region that fails.
type Options struct {
	// Strict aborts the whole load on the first region failure. The default
	// keeps going: the regions are independent, and a corrupt bootloader
	// image does not make the application image unreadable.
	Strict bool
}

// Report is the outcome of loading one region. Image is set once decoding
// succeeded, even if mapping a segment failed afterwards.
type Report struct {
	Region Region
	Image  *espimg.Image
	Err    error
}

// Load decodes each region of the dump and maps its segments into as.
// Every segment becomes one writable and executable view backed by the dump
// bytes immediately after the segment's own header, in segment order; after
// all of a region's segments are mapped its entry point is registered.
func Load(src flatbin.Source, as memmap.AddressSpace, regions []Region, opts Options) ([]Report, error) {
	reports := make([]Report, 0, len(regions))
	for _, r := range regions {
		img, err := loadRegion(src, as, r)
		reports = append(reports, Report{Region: r, Image: img, Err: err})
		if err != nil && opts.Strict {
			return reports, fmt.Errorf("loader: region %s at 0x%x: %w", r.Name, r.Offset, err)
		}
	}
	return reports, nil
}

func loadRegion(src flatbin.Source, as memmap.AddressSpace, r Region) (*espimg.Image, error) {
	img, err := espimg.ProcessRegion(src, r.Offset, r.Base)
	if err != nil {
		return nil, err
	}

	for _, seg := range img.Segments {
		h, err := as.CreateMappedView(seg.Name, seg.MappedAddr, seg.SourceOffset, seg.Size)
		if err != nil {
			return img, fmt.Errorf("loader: map %s: %w", seg.Name, err)
		}
		if err := as.SetViewPermissions(h, true, true); err != nil {
			return img, fmt.Errorf("loader: permissions %s: %w", seg.Name, err)
		}
	}

	as.RegisterEntryPoint(img.EntryPoint())
	return img, nil
}
