// Package config handles meshpack configuration loading and management.
package config

// Config holds all converter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig selects the target layout and optional passes.
type ExportConfig struct {
	Layout            string `yaml:"layout"` // preset name or layout file path
	RecalcTangent     bool   `yaml:"recalc_tangent"`
	RecalcColor       bool   `yaml:"recalc_color"`
	PatchBlendWeights bool   `yaml:"patch_blendweights"`
}

// OutputConfig holds where and how converted files are written.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Bundle      bool   `yaml:"bundle"`      // write one .meshpack archive instead of loose files
	Compression string `yaml:"compression"` // none, zlib, lz4 or zstd
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Layout:            "gpu-skinned",
			RecalcTangent:     false,
			RecalcColor:       false,
			PatchBlendWeights: false,
		},
		Output: OutputConfig{
			Dir:         "out",
			Bundle:      false,
			Compression: "lz4",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
