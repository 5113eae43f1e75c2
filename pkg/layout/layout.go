// Package layout describes target vertex layouts: the ordered element list,
// each element's DXGI format, and how elements are grouped into buffers.
package layout

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Faultbox/meshpack/pkg/dxgi"
)

// Layout errors.
var (
	ErrInvalidLayout  = errors.New("invalid layout")
	ErrStrideMismatch = errors.New("category stride mismatch")
	ErrUnknownPreset  = errors.New("unknown layout preset")
)

// Element is one named vertex attribute inside a record.
type Element struct {
	Name          string
	SemanticName  string
	SemanticIndex int
	Format        dxgi.Format
	Category      string
	Offset        int // byte offset within the full record
}

// Size returns the encoded byte width of the element.
func (e Element) Size() int {
	return e.Format.Size()
}

// Category is a named vertex stream: a contiguous byte range of every record.
type Category struct {
	Name   string
	Offset int
	Stride int
}

// Definition is the declarative form of a layout as stored in preset files.
type Definition struct {
	Name              string              `yaml:"name" toml:"name"`
	IndexFormat       string              `yaml:"index_format" toml:"index_format"`
	PatchBlendWeights bool                `yaml:"patch_blendweights" toml:"patch_blendweights"`
	Elements          []ElementDefinition `yaml:"elements" toml:"elements"`
	CategoryStrides   map[string]int      `yaml:"category_strides,omitempty" toml:"category_strides,omitempty"`
}

// ElementDefinition declares one element of a Definition.
type ElementDefinition struct {
	Name     string `yaml:"name" toml:"name"`
	Format   string `yaml:"format" toml:"format"`
	Category string `yaml:"category" toml:"category"`
}

// Schema is a validated, read-only vertex layout.
type Schema struct {
	Name string
	// IndexFormat is R16_UINT or R32_UINT.
	IndexFormat dxgi.Format
	// PatchBlendWeights marks blend weights as patched in by an external tool,
	// so their bytes are left zero on export.
	PatchBlendWeights bool

	elements   []Element
	categories []Category
	byName     map[string]int
	size       int
}

// New validates a definition and computes element offsets and category strides.
func New(def Definition) (*Schema, error) {
	if len(def.Elements) == 0 {
		return nil, fmt.Errorf("%w: %q has no elements", ErrInvalidLayout, def.Name)
	}

	s := &Schema{
		Name:              def.Name,
		IndexFormat:       dxgi.R32Uint,
		PatchBlendWeights: def.PatchBlendWeights,
		byName:            make(map[string]int, len(def.Elements)),
	}

	if def.IndexFormat != "" {
		f, err := dxgi.Parse(def.IndexFormat)
		if err != nil {
			return nil, fmt.Errorf("index format: %w", err)
		}
		if f != dxgi.R16Uint && f != dxgi.R32Uint {
			return nil, fmt.Errorf("%w: index format %s must be R16_UINT or R32_UINT", ErrInvalidLayout, f)
		}
		s.IndexFormat = f
	}

	closed := make(map[string]bool)
	for _, ed := range def.Elements {
		name := strings.TrimSpace(ed.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: element with empty name", ErrInvalidLayout)
		}
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate element %s", ErrInvalidLayout, name)
		}
		if ed.Category == "" {
			return nil, fmt.Errorf("%w: element %s has no category", ErrInvalidLayout, name)
		}
		f, err := dxgi.Parse(ed.Format)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", name, err)
		}

		// Elements of a category must be adjacent so that each category is a
		// single slice of the record.
		n := len(s.categories)
		if n == 0 || s.categories[n-1].Name != ed.Category {
			if closed[ed.Category] {
				return nil, fmt.Errorf("%w: elements of category %s are not contiguous", ErrInvalidLayout, ed.Category)
			}
			if n > 0 {
				closed[s.categories[n-1].Name] = true
			}
			s.categories = append(s.categories, Category{Name: ed.Category, Offset: s.size})
		}

		sem, idx := splitSemantic(name)
		s.byName[name] = len(s.elements)
		s.elements = append(s.elements, Element{
			Name:          name,
			SemanticName:  sem,
			SemanticIndex: idx,
			Format:        f,
			Category:      ed.Category,
			Offset:        s.size,
		})
		s.categories[len(s.categories)-1].Stride += f.Size()
		s.size += f.Size()
	}

	for name, declared := range def.CategoryStrides {
		c, ok := s.Category(name)
		if !ok {
			return nil, fmt.Errorf("%w: stride declared for unknown category %s", ErrInvalidLayout, name)
		}
		if c.Stride != declared {
			return nil, fmt.Errorf("%w: %s declares %d, elements sum to %d", ErrStrideMismatch, name, declared, c.Stride)
		}
	}

	return s, nil
}

// MustNew is New for static definitions; it panics on error.
func MustNew(def Definition) *Schema {
	s, err := New(def)
	if err != nil {
		panic(err)
	}
	return s
}

// Elements returns the ordered element list.
func (s *Schema) Elements() []Element {
	return slices.Clone(s.elements)
}

// Categories returns categories in record order.
func (s *Schema) Categories() []Category {
	return slices.Clone(s.categories)
}

// RecordSize returns the byte width of a full vertex record.
func (s *Schema) RecordSize() int {
	return s.size
}

// Element looks up an element by its full name.
func (s *Schema) Element(name string) (Element, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Element{}, false
	}
	return s.elements[i], true
}

// Has reports whether the schema contains the named element.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// BySemantic returns the element with the given semantic name and index,
// so "COLOR" and "COLOR0" both match ("COLOR", 0).
func (s *Schema) BySemantic(semantic string, index int) (Element, bool) {
	for _, e := range s.elements {
		if e.SemanticName == semantic && e.SemanticIndex == index {
			return e, true
		}
	}
	return Element{}, false
}

// Category looks up a category by name.
func (s *Schema) Category(name string) (Category, bool) {
	for _, c := range s.categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Definition returns the declarative form of the schema.
func (s *Schema) Definition() Definition {
	def := Definition{
		Name:              s.Name,
		IndexFormat:       s.IndexFormat.String(),
		PatchBlendWeights: s.PatchBlendWeights,
		Elements:          make([]ElementDefinition, len(s.elements)),
	}
	for i, e := range s.elements {
		def.Elements[i] = ElementDefinition{Name: e.Name, Format: e.Format.String(), Category: e.Category}
	}
	return def
}

// splitSemantic splits "TEXCOORD1" into ("TEXCOORD", 1).
func splitSemantic(name string) (string, int) {
	end := len(name)
	for end > 0 && name[end-1] >= '0' && name[end-1] <= '9' {
		end--
	}
	if end == len(name) || end == 0 {
		return name, 0
	}
	idx, err := strconv.Atoi(name[end:])
	if err != nil {
		return name, 0
	}
	return name[:end], idx
}
