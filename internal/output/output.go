// Package output writes unesp decoding results to files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"unesp/internal/espimg"
	"unesp/internal/memmap"
)

// Layout is the serialized memory layout derived from one dump.
type Layout struct {
	DumpSize    uint64        `json:"dump_size"`
	Views       []memmap.View `json:"views"`
	EntryPoints []uint32      `json:"entry_points"`
}

// BuildLayout snapshots an address space into a Layout.
func BuildLayout(space *memmap.Space, dumpSize uint64) Layout {
	return Layout{
		DumpSize:    dumpSize,
		Views:       space.Views(),
		EntryPoints: space.EntryPoints(),
	}
}

// WriteLayoutJSON writes the memory layout to layout.json.
func WriteLayoutJSON(dir string, layout Layout) error {
	return writeJSON(filepath.Join(dir, "layout.json"), layout)
}

// WriteImagesJSON writes decoded image regions to images.json.
func WriteImagesJSON(dir string, images []*espimg.Image) error {
	return writeJSON(filepath.Join(dir, "images.json"), images)
}

// WriteSegmentBin writes raw segment payload bytes to seg/<name>.bin.
func WriteSegmentBin(dir string, name string, data []byte) error {
	path := filepath.Join(dir, "seg", name+".bin")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir seg: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
