// Package dxgi encodes vertex element values into DXGI numeric formats.
package dxgi

import (
	"errors"
	"fmt"
	"strings"
)

// Codec errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDimensionMismatch = errors.New("component count mismatch")
)

// Kind is the numeric interpretation of a format's components.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindUnorm
	KindSnorm
	KindFloat
	KindUint
	KindSint
)

// String returns the DXGI suffix for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnorm:
		return "UNORM"
	case KindSnorm:
		return "SNORM"
	case KindFloat:
		return "FLOAT"
	case KindUint:
		return "UINT"
	case KindSint:
		return "SINT"
	default:
		return "UNKNOWN"
	}
}

// Format identifies a vertex element format.
type Format uint8

// Supported formats.
const (
	Unknown Format = iota
	R8G8B8A8Unorm
	R8G8B8A8Snorm
	R8G8B8A8Uint
	R8G8Unorm
	R16G16B16A16Unorm
	R16G16B16A16Snorm
	R16G16B16A16Float
	R16G16B16A16Uint
	R16G16Float
	R16Uint
	R32G32B32A32Float
	R32G32B32Float
	R32G32Float
	R32Float
	R32G32B32A32Uint
	R32G32B32A32Sint
	R32Uint

	formatCount
)

type formatInfo struct {
	name       string
	components int
	size       int // bytes per component
	kind       Kind
}

var formatTable = [formatCount]formatInfo{
	Unknown:           {name: "UNKNOWN"},
	R8G8B8A8Unorm:     {"R8G8B8A8_UNORM", 4, 1, KindUnorm},
	R8G8B8A8Snorm:     {"R8G8B8A8_SNORM", 4, 1, KindSnorm},
	R8G8B8A8Uint:      {"R8G8B8A8_UINT", 4, 1, KindUint},
	R8G8Unorm:         {"R8G8_UNORM", 2, 1, KindUnorm},
	R16G16B16A16Unorm: {"R16G16B16A16_UNORM", 4, 2, KindUnorm},
	R16G16B16A16Snorm: {"R16G16B16A16_SNORM", 4, 2, KindSnorm},
	R16G16B16A16Float: {"R16G16B16A16_FLOAT", 4, 2, KindFloat},
	R16G16B16A16Uint:  {"R16G16B16A16_UINT", 4, 2, KindUint},
	R16G16Float:       {"R16G16_FLOAT", 2, 2, KindFloat},
	R16Uint:           {"R16_UINT", 1, 2, KindUint},
	R32G32B32A32Float: {"R32G32B32A32_FLOAT", 4, 4, KindFloat},
	R32G32B32Float:    {"R32G32B32_FLOAT", 3, 4, KindFloat},
	R32G32Float:       {"R32G32_FLOAT", 2, 4, KindFloat},
	R32Float:          {"R32_FLOAT", 1, 4, KindFloat},
	R32G32B32A32Uint:  {"R32G32B32A32_UINT", 4, 4, KindUint},
	R32G32B32A32Sint:  {"R32G32B32A32_SINT", 4, 4, KindSint},
	R32Uint:           {"R32_UINT", 1, 4, KindUint},
}

func (f Format) info() formatInfo {
	if f >= formatCount {
		return formatTable[Unknown]
	}
	return formatTable[f]
}

// String returns the DXGI name without the DXGI_FORMAT_ prefix.
func (f Format) String() string {
	return f.info().name
}

// Valid reports whether the format can be encoded.
func (f Format) Valid() bool {
	return f != Unknown && f < formatCount
}

// Components returns the number of components per element.
func (f Format) Components() int {
	return f.info().components
}

// ComponentSize returns the byte width of a single component.
func (f Format) ComponentSize() int {
	return f.info().size
}

// Size returns the byte width of a whole element.
func (f Format) Size() int {
	info := f.info()
	return info.components * info.size
}

// Kind returns the numeric interpretation of the components.
func (f Format) Kind() Kind {
	return f.info().kind
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, uint8(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Parse looks up a format by its DXGI name. The DXGI_FORMAT_ prefix is optional
// and matching is case-insensitive.
func Parse(name string) (Format, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "DXGI_FORMAT_")
	for f := Unknown + 1; f < formatCount; f++ {
		if formatTable[f].name == key {
			return f, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// All returns every supported format in declaration order.
func All() []Format {
	out := make([]Format, 0, formatCount-1)
	for f := Unknown + 1; f < formatCount; f++ {
		out = append(out, f)
	}
	return out
}
