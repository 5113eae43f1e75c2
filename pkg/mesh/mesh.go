// Package mesh defines the host-side view of a triangulated mesh: loops,
// triangles and named per-vertex or per-loop attribute arrays.
package mesh

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mesh errors.
var (
	ErrNotTriangulated   = errors.New("mesh is not triangulated")
	ErrDimensionMismatch = errors.New("attribute dimension mismatch")
)

// Attribute names understood by the extractor.
const (
	AttrPosition      = "position"       // vertex, 3
	AttrNormal        = "normal"         // loop, 3
	AttrTangent       = "tangent"        // loop, 3
	AttrBitangentSign = "bitangent_sign" // loop, 1
	AttrBlendIndices  = "blend_indices"  // vertex, MaxInfluences
	AttrBlendWeights  = "blend_weights"  // vertex, MaxInfluences

	colorPrefix = "color:"
	uvPrefix    = "uv:"
)

// MaxInfluences is the number of blend (index, weight) pairs kept per vertex.
const MaxInfluences = 4

// ColorAttr returns the attribute name of a color set.
func ColorAttr(set string) string { return colorPrefix + set }

// UVAttr returns the attribute name of a UV set.
func UVAttr(set string) string { return uvPrefix + set }

// Domain says whether an attribute is stored per vertex or per loop.
type Domain uint8

const (
	DomainLoop Domain = iota
	DomainVertex
)

func (d Domain) String() string {
	if d == DomainVertex {
		return "vertex"
	}
	return "loop"
}

// Attribute is a flat array of Components floats per element.
type Attribute struct {
	Domain     Domain
	Components int
	Data       []float32
}

// Len returns the number of elements in the attribute.
func (a Attribute) Len() int {
	if a.Components == 0 {
		return 0
	}
	return len(a.Data) / a.Components
}

// Triangle is a run of loops forming one face.
type Triangle struct {
	LoopStart int
	LoopTotal int
}

// Source is the narrow capability set a host application implements.
type Source interface {
	LoopCount() int
	Triangles() []Triangle
	// LoopVertices maps each loop to its vertex index.
	LoopVertices() []int
	Attribute(name string) (Attribute, bool)
}

// Mesh is an in-memory Source.
type Mesh struct {
	loopVertices []int
	triangles    []Triangle
	vertexCount  int
	attrs        map[string]Attribute
}

// New creates a mesh from a triangle index list: every entry is one loop and
// each consecutive triple is a triangle.
func New(vertexCount int, indices []int) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrNotTriangulated, len(indices))
	}
	for i, v := range indices {
		if v < 0 || v >= vertexCount {
			return nil, fmt.Errorf("%w: loop %d references vertex %d of %d", ErrDimensionMismatch, i, v, vertexCount)
		}
	}
	m := &Mesh{
		loopVertices: append([]int(nil), indices...),
		triangles:    make([]Triangle, len(indices)/3),
		vertexCount:  vertexCount,
		attrs:        make(map[string]Attribute),
	}
	for i := range m.triangles {
		m.triangles[i] = Triangle{LoopStart: i * 3, LoopTotal: 3}
	}
	return m, nil
}

// LoopCount implements Source.
func (m *Mesh) LoopCount() int { return len(m.loopVertices) }

// Triangles implements Source.
func (m *Mesh) Triangles() []Triangle { return m.triangles }

// LoopVertices implements Source.
func (m *Mesh) LoopVertices() []int { return m.loopVertices }

// VertexCount returns the number of distinct vertices.
func (m *Mesh) VertexCount() int { return m.vertexCount }

// Attribute implements Source.
func (m *Mesh) Attribute(name string) (Attribute, bool) {
	a, ok := m.attrs[name]
	return a, ok
}

// SetAttribute stores an attribute after checking its length against the domain.
func (m *Mesh) SetAttribute(name string, a Attribute) error {
	want := m.LoopCount()
	if a.Domain == DomainVertex {
		want = m.vertexCount
	}
	if a.Components <= 0 || len(a.Data) != want*a.Components {
		return fmt.Errorf("%w: %s has %d floats, want %d×%d",
			ErrDimensionMismatch, name, len(a.Data), want, a.Components)
	}
	m.attrs[name] = a
	return nil
}

// SetPositions stores per-vertex positions.
func (m *Mesh) SetPositions(p [][3]float32) error {
	return m.SetAttribute(AttrPosition, Attribute{Domain: DomainVertex, Components: 3, Data: flatten3(p)})
}

// SetNormals stores per-loop normals.
func (m *Mesh) SetNormals(n [][3]float32) error {
	return m.SetAttribute(AttrNormal, Attribute{Domain: DomainLoop, Components: 3, Data: flatten3(n)})
}

// SetTangents stores per-loop tangents and bitangent signs.
func (m *Mesh) SetTangents(t [][3]float32, signs []float32) error {
	if err := m.SetAttribute(AttrTangent, Attribute{Domain: DomainLoop, Components: 3, Data: flatten3(t)}); err != nil {
		return err
	}
	return m.SetAttribute(AttrBitangentSign, Attribute{Domain: DomainLoop, Components: 1, Data: append([]float32(nil), signs...)})
}

// SetColors stores a per-loop RGBA color set.
func (m *Mesh) SetColors(set string, c [][4]float32) error {
	data := make([]float32, 0, len(c)*4)
	for _, v := range c {
		data = append(data, v[:]...)
	}
	return m.SetAttribute(ColorAttr(set), Attribute{Domain: DomainLoop, Components: 4, Data: data})
}

// SetUVs stores a per-loop UV set, e.g. "TEXCOORD.xy".
func (m *Mesh) SetUVs(set string, uv [][2]float32) error {
	data := make([]float32, 0, len(uv)*2)
	for _, v := range uv {
		data = append(data, v[:]...)
	}
	return m.SetAttribute(UVAttr(set), Attribute{Domain: DomainLoop, Components: 2, Data: data})
}

// SetInfluences reduces each vertex's group weights to the top MaxInfluences
// pairs and stores them as blend indices and weights.
func (m *Mesh) SetInfluences(groups [][]Influence) error {
	if len(groups) != m.vertexCount {
		return fmt.Errorf("%w: %d influence lists for %d vertices", ErrDimensionMismatch, len(groups), m.vertexCount)
	}
	indices := make([]float32, 0, m.vertexCount*MaxInfluences)
	weights := make([]float32, 0, m.vertexCount*MaxInfluences)
	for _, g := range groups {
		top := TopInfluences(g)
		for _, inf := range top {
			indices = append(indices, float32(inf.Group))
			weights = append(weights, inf.Weight)
		}
	}
	if err := m.SetAttribute(AttrBlendIndices, Attribute{Domain: DomainVertex, Components: MaxInfluences, Data: indices}); err != nil {
		return err
	}
	return m.SetAttribute(AttrBlendWeights, Attribute{Domain: DomainVertex, Components: MaxInfluences, Data: weights})
}

// ColorSets returns the names of the color sets present, sorted.
func (m *Mesh) ColorSets() []string { return m.sets(colorPrefix) }

// UVSets returns the names of the UV sets present, sorted.
func (m *Mesh) UVSets() []string { return m.sets(uvPrefix) }

func (m *Mesh) sets(prefix string) []string {
	var out []string
	for name := range m.attrs {
		if set, ok := strings.CutPrefix(name, prefix); ok {
			out = append(out, set)
		}
	}
	sort.Strings(out)
	return out
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, e := range v {
		out = append(out, e[:]...)
	}
	return out
}
