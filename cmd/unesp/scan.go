package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"unesp/internal/espimg"
	"unesp/internal/flatbin"
	"unesp/internal/loader"
)

func cmdScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	dump := fs.String("dump", "", "path to the flash dump")
	appOff := fs.Uint64("app-offset", loader.AppImageOffset, "flash offset of the application image")
	strict := fs.Bool("strict", false, "fail on the first region that does not decode")
	jsonOut := fs.Bool("json", false, "output as JSON")
	klog.InitFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	defer klog.Flush()

	if *dump == "" {
		return fmt.Errorf("--dump is required")
	}

	src, err := flatbin.Open(*dump)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer src.Close()

	klog.V(1).Infof("dump: %s, %d bytes", *dump, src.Size())

	var images []*espimg.Image
	for _, r := range regionsAt(*appOff) {
		img, err := espimg.ProcessRegion(src, r.Offset, r.Base)
		if err != nil {
			if *strict {
				return fmt.Errorf("region %s: %w", r.Name, err)
			}
			klog.Warningf("region %s at 0x%x: %v", r.Name, r.Offset, err)
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return fmt.Errorf("no image region decoded")
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(images)
	}

	for _, img := range images {
		printImage(img)
	}
	return nil
}

func printImage(img *espimg.Image) {
	fmt.Printf("Image @ 0x%x:\n", img.Offset)
	fmt.Printf("  Magic:     0x%02x\n", img.Header.Magic)
	fmt.Printf("  Entry:     0x%08x\n", img.Header.EntryPoint)
	fmt.Printf("  FlashIf:   0x%02x  MemInfo: 0x%02x\n", img.Header.FlashInterface, img.Header.MemoryInfo)
	fmt.Printf("  Segments:  %d\n", img.Header.SegmentCount)
	for _, s := range img.Segments {
		fmt.Printf("    %-16s addr=0x%08x size=0x%08x data@0x%x\n",
			s.Name, s.MappedAddr, s.Size, s.SourceOffset)
	}
	for _, d := range img.Diags {
		fmt.Printf("  ! %s\n", d)
	}
	fmt.Println()
}

// regionsAt returns the fixed dump regions with the application image offset
// overridden, for dumps carved at a non-standard base.
func regionsAt(appOff uint64) []loader.Region {
	regions := loader.DefaultRegions()
	for i := range regions {
		if regions[i].Name == "application" {
			regions[i].Offset = appOff
		}
	}
	return regions
}
