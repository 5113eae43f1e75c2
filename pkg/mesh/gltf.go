package mesh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// OpenGLTF loads one mesh of a .gltf or .glb file.
func OpenGLTF(path string, meshIndex int) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gltf: %w", err)
	}
	return FromGLTF(doc, meshIndex)
}

// gltfVertices accumulates per-vertex data across primitives.
type gltfVertices struct {
	count     int
	indices   []int
	positions [][3]float32
	normals   [][3]float32
	tangents  [][4]float32
	uvs       map[string][][2]float32
	colors    map[string][][4]float32
	influence [][]Influence
}

// FromGLTF converts one glTF mesh into a loop-based Mesh. Every index entry
// becomes a loop. All primitives are merged. UVs are flipped to a
// bottom-left origin and tangent handedness follows, matching the convention
// of meshes authored in a DCC tool.
func FromGLTF(doc *gltf.Document, meshIndex int) (*Mesh, error) {
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range (%d meshes)", meshIndex, len(doc.Meshes))
	}

	acc := &gltfVertices{
		uvs:    make(map[string][][2]float32),
		colors: make(map[string][][4]float32),
	}
	for i, prim := range doc.Meshes[meshIndex].Primitives {
		if err := acc.addPrimitive(doc, prim); err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
	}

	m, err := New(acc.count, acc.indices)
	if err != nil {
		return nil, err
	}
	if err := m.SetPositions(acc.positions); err != nil {
		return nil, err
	}

	loops := m.LoopVertices()
	normals := make([][3]float32, len(loops))
	tangents := make([][3]float32, len(loops))
	signs := make([]float32, len(loops))
	for l, v := range loops {
		normals[l] = acc.normals[v]
		t := acc.tangents[v]
		tangents[l] = [3]float32{t[0], t[1], t[2]}
		signs[l] = -t[3]
	}
	if err := m.SetNormals(normals); err != nil {
		return nil, err
	}
	if err := m.SetTangents(tangents, signs); err != nil {
		return nil, err
	}

	for set, data := range acc.uvs {
		uv := make([][2]float32, len(loops))
		for l, v := range loops {
			uv[l] = [2]float32{data[v][0], 1 - data[v][1]}
		}
		if err := m.SetUVs(set, uv); err != nil {
			return nil, err
		}
	}
	for set, data := range acc.colors {
		c := make([][4]float32, len(loops))
		for l, v := range loops {
			c[l] = data[v]
		}
		if err := m.SetColors(set, c); err != nil {
			return nil, err
		}
	}
	if acc.influence != nil {
		if err := m.SetInfluences(acc.influence); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (a *gltfVertices) addPrimitive(doc *gltf.Document, prim *gltf.Primitive) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		return fmt.Errorf("%w: primitive mode %v", ErrNotTriangulated, prim.Mode)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("reading positions: %w", err)
	}
	base := a.count
	n := len(positions)

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrNotTriangulated, len(indices))
	}
	for _, idx := range indices {
		a.indices = append(a.indices, base+int(idx))
	}
	a.positions = append(a.positions, positions...)

	normals := make([][3]float32, n)
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("reading normals: %w", err)
		}
	}
	a.normals = append(a.normals, normals...)

	tangents := make([][4]float32, n)
	if idx, ok := prim.Attributes["TANGENT"]; ok {
		if tangents, err = modeler.ReadTangent(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("reading tangents: %w", err)
		}
	}
	a.tangents = append(a.tangents, tangents...)

	for name, idx := range prim.Attributes {
		switch {
		case strings.HasPrefix(name, "TEXCOORD_"):
			uv, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
			if err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}
			set := gltfSetName("TEXCOORD", name) + ".xy"
			a.uvs[set] = append(pad(a.uvs[set], base), uv...)

		case strings.HasPrefix(name, "COLOR_"):
			raw, err := modeler.ReadColor(doc, doc.Accessors[idx], nil)
			if err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}
			colors := make([][4]float32, len(raw))
			for i, c := range raw {
				colors[i] = [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
			}
			set := gltfSetName("COLOR", name)
			a.colors[set] = append(pad(a.colors[set], base), colors...)
		}
	}

	jointIdx, hasJoints := prim.Attributes["JOINTS_0"]
	weightIdx, hasWeights := prim.Attributes["WEIGHTS_0"]
	if hasJoints && hasWeights {
		joints, err := modeler.ReadJoints(doc, doc.Accessors[jointIdx], nil)
		if err != nil {
			return fmt.Errorf("reading joints: %w", err)
		}
		weights, err := modeler.ReadWeights(doc, doc.Accessors[weightIdx], nil)
		if err != nil {
			return fmt.Errorf("reading weights: %w", err)
		}
		a.influence = pad(a.influence, base)
		for i := range joints {
			groups := make([]Influence, 0, 4)
			for k := 0; k < 4; k++ {
				groups = append(groups, Influence{Group: int(joints[i][k]), Weight: weights[i][k]})
			}
			a.influence = append(a.influence, groups)
		}
	}

	a.count += n

	// Sets missing from this primitive are zero for its vertices.
	for set := range a.uvs {
		a.uvs[set] = pad(a.uvs[set], a.count)
	}
	for set := range a.colors {
		a.colors[set] = pad(a.colors[set], a.count)
	}
	if a.influence != nil {
		a.influence = pad(a.influence, a.count)
	}
	return nil
}

// gltfSetName maps TEXCOORD_0 to TEXCOORD and TEXCOORD_2 to TEXCOORD2.
func gltfSetName(semantic, attr string) string {
	n, err := strconv.Atoi(strings.TrimPrefix(attr, semantic+"_"))
	if err != nil || n == 0 {
		return semantic
	}
	return semantic + strconv.Itoa(n)
}

func pad[T any](s []T, n int) []T {
	for len(s) < n {
		var zero T
		s = append(s, zero)
	}
	return s
}
