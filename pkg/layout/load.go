package layout

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Load reads a layout file. The decoder is chosen by extension:
// .yaml/.yml or .toml.
func Load(filePath string) (*Schema, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return nil, fmt.Errorf("%w: unknown layout file extension %q", ErrInvalidLayout, filepath.Ext(filePath))
	}
}

// ParseYAML decodes a YAML layout definition.
func ParseYAML(data []byte) (*Schema, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decoding yaml layout: %w", err)
	}
	return New(def)
}

// ParseTOML decodes a TOML layout definition.
func ParseTOML(data []byte) (*Schema, error) {
	var def Definition
	if err := toml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decoding toml layout: %w", err)
	}
	return New(def)
}

// Preset returns a built-in layout by name.
func Preset(name string) (*Schema, error) {
	data, err := presetFS.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	s, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", name, err)
	}
	return s, nil
}

// Presets lists the built-in layout names.
func Presets() []string {
	entries, err := fs.ReadDir(presetFS, "presets")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Resolve loads ref as a file when it exists on disk, otherwise as a preset name.
func Resolve(ref string) (*Schema, error) {
	if _, err := os.Stat(ref); err == nil {
		return Load(ref)
	}
	return Preset(ref)
}
