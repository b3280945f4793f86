package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"unesp/internal/espimg"
	"unesp/internal/flatbin"
	"unesp/internal/loader"
	"unesp/internal/output"
)

func cmdExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	dump := fs.String("dump", "", "path to the flash dump")
	outDir := fs.String("out", "", "output directory")
	appOff := fs.Uint64("app-offset", loader.AppImageOffset, "flash offset of the application image")
	strict := fs.Bool("strict", false, "fail on the first region that does not decode")
	klog.InitFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	defer klog.Flush()

	if *dump == "" || *outDir == "" {
		return fmt.Errorf("--dump and --out are required")
	}

	src, err := flatbin.Open(*dump)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	written := 0
	for _, r := range regionsAt(*appOff) {
		img, err := espimg.ProcessRegion(src, r.Offset, r.Base)
		if err != nil {
			if *strict {
				return fmt.Errorf("region %s: %w", r.Name, err)
			}
			klog.Warningf("region %s at 0x%x: %v", r.Name, r.Offset, err)
			continue
		}
		for _, seg := range img.Segments {
			data, err := src.ReadAt(seg.SourceOffset, seg.Size)
			if err != nil {
				return fmt.Errorf("segment %s: %w", seg.Name, err)
			}
			if err := output.WriteSegmentBin(*outDir, seg.Name, data); err != nil {
				return err
			}
			written++
		}
	}
	if written == 0 {
		return fmt.Errorf("no segments extracted")
	}

	fmt.Fprintf(os.Stderr, "wrote %d segments -> %s/seg\n", written, *outDir)
	return nil
}
