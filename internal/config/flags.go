package config

import "flag"

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagLayout        = flag.String("layout", "", "Layout preset name or layout file")
	flagRecalcTangent = flag.Bool("recalc-tangent", false, "Recompute tangents from averaged normals")
	flagRecalcColor   = flag.Bool("recalc-color", false, "Store averaged normals in COLOR")
	flagPatchWeights  = flag.Bool("patch-weights", false, "Leave blend weights zeroed for an external patcher")
	flagOut           = flag.String("out", "", "Output directory")
	flagBundle        = flag.Bool("bundle", false, "Write a single .meshpack archive")
	flagCompression   = flag.String("compression", "", "Bundle compression: none, zlib, lz4, zstd")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments left after ParseFlags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLayout != "" {
		cfg.Export.Layout = *flagLayout
	}
	if *flagRecalcTangent {
		cfg.Export.RecalcTangent = true
	}
	if *flagRecalcColor {
		cfg.Export.RecalcColor = true
	}
	if *flagPatchWeights {
		cfg.Export.PatchBlendWeights = true
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagBundle {
		cfg.Output.Bundle = true
	}
	if *flagCompression != "" {
		cfg.Output.Compression = *flagCompression
	}
}
