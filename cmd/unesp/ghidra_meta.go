package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"unesp/internal/flatbin"
	"unesp/internal/loader"
	"unesp/internal/memmap"
)

// ghidraMetaBlock is a byte-mapped memory block entry in ghidra_meta.json.
type ghidraMetaBlock struct {
	Name         string `json:"name"`
	Addr         string `json:"addr"`
	Size         uint32 `json:"size"`
	SourceOffset uint64 `json:"source_offset"`
	Writable     bool   `json:"writable"`
	Executable   bool   `json:"executable"`
}

// ghidraMetaJSON is the top-level ghidra_meta.json structure.
type ghidraMetaJSON struct {
	Version     string            `json:"version"`
	Dump        string            `json:"dump"`
	Blocks      []ghidraMetaBlock `json:"blocks"`
	EntryPoints []string          `json:"entry_points"`
}

func cmdGhidraMeta(args []string) error {
	fs := flag.NewFlagSet("ghidra-meta", flag.ExitOnError)
	dump := fs.String("dump", "", "path to the flash dump")
	outPath := fs.String("out", "", "output JSON file (default: ghidra_meta.json next to the dump)")
	appOff := fs.Uint64("app-offset", loader.AppImageOffset, "flash offset of the application image")
	strict := fs.Bool("strict", false, "fail on the first region that does not decode")
	klog.InitFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	defer klog.Flush()

	if *dump == "" {
		return fmt.Errorf("--dump is required")
	}
	if *outPath == "" {
		*outPath = filepath.Join(filepath.Dir(*dump), "ghidra_meta.json")
	}

	src, err := flatbin.Open(*dump)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer src.Close()

	space := memmap.NewSpace(src)
	reports, err := loader.Load(src, space, regionsAt(*appOff), loader.Options{Strict: *strict})
	if err != nil {
		return err
	}
	decoded := 0
	for _, rep := range reports {
		if rep.Err != nil {
			klog.Warningf("region %s at 0x%x: %v", rep.Region.Name, rep.Region.Offset, rep.Err)
			continue
		}
		decoded++
	}
	if decoded == 0 {
		return fmt.Errorf("no image region decoded")
	}

	meta := buildGhidraMeta(*dump, space)

	f, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", *outPath, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("encode %s: %w", *outPath, err)
	}

	fmt.Fprintf(os.Stderr, "wrote %d blocks, %d entry points -> %s\n",
		len(meta.Blocks), len(meta.EntryPoints), *outPath)
	return nil
}

func buildGhidraMeta(dump string, space *memmap.Space) ghidraMetaJSON {
	meta := ghidraMetaJSON{
		Version: "1",
		Dump:    filepath.Base(dump),
	}
	for _, v := range space.Views() {
		meta.Blocks = append(meta.Blocks, ghidraMetaBlock{
			Name:         v.Name,
			Addr:         fmt.Sprintf("0x%x", v.MappedAddr),
			Size:         v.Size,
			SourceOffset: v.SourceOff,
			Writable:     v.Writable,
			Executable:   v.Executable,
		})
	}
	for _, e := range space.EntryPoints() {
		meta.EntryPoints = append(meta.EntryPoints, fmt.Sprintf("0x%x", e))
	}
	return meta
}
