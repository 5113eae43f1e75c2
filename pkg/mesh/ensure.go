package mesh

import "github.com/Faultbox/meshpack/pkg/layout"

// EnsureLayout adds the color and UV sets the schema needs but the mesh lacks,
// so the extractor never reads a half-populated layout. New color sets are
// opaque white and new UV sets are zero. A mesh with exactly one UV set gets
// it renamed to TEXCOORD.xy when the schema asks for TEXCOORD.
// It returns the attribute names it created or renamed.
func (m *Mesh) EnsureLayout(s *layout.Schema) []string {
	var changed []string

	for _, e := range s.Elements() {
		switch e.SemanticName {
		case "COLOR":
			name := ColorAttr(e.Name)
			if _, ok := m.attrs[name]; ok {
				continue
			}
			data := make([]float32, m.LoopCount()*4)
			for i := range data {
				data[i] = 1
			}
			m.attrs[name] = Attribute{Domain: DomainLoop, Components: 4, Data: data}
			changed = append(changed, name)

		case "TEXCOORD":
			name := UVAttr(e.Name + ".xy")
			if _, ok := m.attrs[name]; ok {
				continue
			}
			if sets := m.UVSets(); len(sets) == 1 && e.Name == "TEXCOORD" {
				old := UVAttr(sets[0])
				m.attrs[name] = m.attrs[old]
				delete(m.attrs, old)
			} else {
				m.attrs[name] = Attribute{Domain: DomainLoop, Components: 2, Data: make([]float32, m.LoopCount()*2)}
			}
			changed = append(changed, name)
		}
	}

	return changed
}
