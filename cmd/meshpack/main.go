// meshpack converts triangulated meshes into fixed-layout vertex and index
// buffers for shader-injection tooling.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/meshpack/internal/config"
	"github.com/Faultbox/meshpack/internal/logger"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := args[0]
	args = args[1:]

	switch command {
	case "convert", "c":
		cmdConvert(cfg, args)
	case "watch", "w":
		cmdWatch(cfg, args)
	case "init":
		cmdInit(cfg, args)
	case "layouts":
		cmdLayouts(args)
	case "layout":
		cmdLayout(cfg, args)
	case "formats":
		cmdFormats(args)
	case "bundle":
		cmdBundle(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshpack - mesh to vertex buffer converter

Usage:
  meshpack [flags] <command> [options]

Commands:
  convert <in.gltf> [prefix]             Convert one mesh to .ib/.buf/.fmt files
  watch <in.gltf> [prefix]               Re-convert whenever the input or layout changes
  init [-user] [-f]                      Write the current settings to meshpack.yaml
  layouts                                List built-in layouts
  layout [name|file]                     Print a layout as a .fmt description
  formats                                List supported DXGI formats
  bundle list <file.meshpack>            List files in a bundle
  bundle extract <file.meshpack> [out]   Extract a bundle to a directory

Flags:
  -config <file>        Config file (default ./meshpack.yaml or user config dir)
  -layout <name|file>   Target layout (default gpu-skinned)
  -recalc-tangent       Recompute tangents from averaged normals
  -recalc-color         Store averaged normals in COLOR
  -patch-weights        Leave blend weights zeroed
  -out <dir>            Output directory
  -bundle               Write a single .meshpack archive
  -compression <m>      Bundle compression: none, zlib, lz4, zstd
  -debug                Enable debug logging

Examples:
  meshpack -layout cpu-compact convert body.glb
  meshpack -recalc-color -bundle -compression zstd convert hair.gltf hair
  meshpack layout half-precision
  meshpack bundle extract out/body.meshpack ./mod`)
}

// fatal is only reached after logger.Init, so the console core reports err.
func fatal(err error) {
	logger.Error("command failed", zap.Error(err))
	logger.Sync()
	os.Exit(1)
}
