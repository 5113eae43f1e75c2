package main

import (
	"flag"
	"fmt"

	"github.com/Faultbox/meshpack/internal/config"
)

// cmdInit writes the effective configuration so it can be edited later.
func cmdInit(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	user := fs.Bool("user", false, "Write to the user config directory instead of ./meshpack.yaml")
	force := fs.Bool("f", false, "Overwrite an existing file")
	fs.Parse(args)

	path := "meshpack.yaml"
	var err error
	if *user {
		path, err = cfg.Save(*force)
	} else {
		err = cfg.SaveTo(path, *force)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote: %s\n", path)
}
