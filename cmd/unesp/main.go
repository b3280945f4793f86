package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = cmdScan(os.Args[2:])
	case "map":
		err = cmdMap(os.Args[2:])
	case "extract":
		err = cmdExtract(os.Args[2:])
	case "ghidra-meta":
		err = cmdGhidraMeta(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `unesp — ESP8266 flash dump mapper

Usage:
  unesp scan        --dump <path> [--json]       Decode both image regions and print them
  unesp map         --dump <path> --out <dir>    Build the memory layout and write layout.json
  unesp extract     --dump <path> --out <dir>    Write each segment payload to seg/<name>.bin
  unesp ghidra-meta --dump <path> --out <file>   Export memory blocks + entry points for Ghidra

Flags:
  --dump <path>        Path to the flat flash dump
  --out <dir|file>     Output directory or file
  --app-offset <n>     Flash offset of the application image (default 0x1000)
  --strict             Fail on the first region that does not decode
  --json               Output as JSON (scan)
`)
}
