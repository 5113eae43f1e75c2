package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshpack/pkg/bundle"
)

func cmdBundle(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshpack bundle <list|extract> <file.meshpack> ...")
		os.Exit(1)
	}

	switch args[0] {
	case "list", "ls":
		cmdBundleList(args[1:])
	case "extract", "x":
		cmdBundleExtract(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown bundle command: %s\n", args[0])
		os.Exit(1)
	}
}

func cmdBundleList(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshpack bundle list <file.meshpack>")
		os.Exit(1)
	}

	archive, err := bundle.Open(args[0])
	if err != nil {
		fatal(err)
	}
	defer archive.Close()

	for _, name := range archive.List() {
		e, _ := archive.Entry(name)
		fmt.Printf("%-40s %10d %10d  %s\n", name, e.UncompressedSize, e.CompressedSize, e.Method)
	}
}

func cmdBundleExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	pattern := fs.String("p", "", "Only extract files matching this glob")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshpack bundle extract [-p pattern] <file.meshpack> [output_dir]")
		os.Exit(1)
	}

	outputDir := "."
	if fs.NArg() > 1 {
		outputDir = fs.Arg(1)
	}

	archive, err := bundle.Open(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	defer archive.Close()

	extracted := 0
	for _, f := range archive.List() {
		if *pattern != "" {
			matched, _ := filepath.Match(strings.ToLower(*pattern), strings.ToLower(filepath.Base(f)))
			if !matched {
				continue
			}
		}

		data, err := archive.Read(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f, err)
			continue
		}

		// Preserve directory structure
		outputPath := filepath.Join(outputDir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
			continue
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}

		fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
}
