package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"unesp/internal/espimg"
	"unesp/internal/flatbin"
	"unesp/internal/loader"
	"unesp/internal/memmap"
	"unesp/internal/output"
)

func cmdMap(args []string) error {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
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

	space := memmap.NewSpace(src)
	reports, err := loader.Load(src, space, regionsAt(*appOff), loader.Options{Strict: *strict})
	if err != nil {
		return err
	}

	var images []*espimg.Image
	for _, rep := range reports {
		if rep.Err != nil {
			klog.Warningf("region %s at 0x%x: %v", rep.Region.Name, rep.Region.Offset, rep.Err)
			continue
		}
		images = append(images, rep.Image)
		klog.V(1).Infof("region %s: %d segments, entry 0x%08x",
			rep.Region.Name, len(rep.Image.Segments), rep.Image.Header.EntryPoint)
	}
	if len(images) == 0 {
		return fmt.Errorf("no image region decoded")
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := output.WriteImagesJSON(*outDir, images); err != nil {
		return err
	}
	if err := output.WriteLayoutJSON(*outDir, output.BuildLayout(space, src.Size())); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "mapped %d views, %d entry points -> %s\n",
		len(space.Views()), len(space.EntryPoints()), *outDir)
	return nil
}
