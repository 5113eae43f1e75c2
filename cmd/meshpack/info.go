package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/meshpack/internal/config"
	"github.com/Faultbox/meshpack/pkg/dxgi"
	"github.com/Faultbox/meshpack/pkg/layout"
)

func cmdLayouts(args []string) {
	for _, name := range layout.Presets() {
		s, err := layout.Preset(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", name, err)
			continue
		}
		var cats []string
		for _, c := range s.Categories() {
			cats = append(cats, fmt.Sprintf("%s:%d", c.Name, c.Stride))
		}
		fmt.Printf("%-16s stride %-4d index %-9s %s\n", name, s.RecordSize(), s.IndexFormat, strings.Join(cats, " "))
	}
}

func cmdLayout(cfg *config.Config, args []string) {
	ref := cfg.Export.Layout
	if len(args) > 0 {
		ref = args[0]
	}

	s, err := layout.Resolve(ref)
	if err != nil {
		fatal(err)
	}
	if err := layout.WriteFmt(os.Stdout, s, ""); err != nil {
		fatal(err)
	}
}

func cmdFormats(args []string) {
	fmt.Printf("%-24s %5s %5s  %s\n", "FORMAT", "COMPS", "BYTES", "KIND")
	for _, f := range dxgi.All() {
		fmt.Printf("%-24s %5d %5d  %s\n", f, f.Components(), f.Size(), f.Kind())
	}
}
