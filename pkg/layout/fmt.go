package layout

import (
	"bufio"
	"fmt"
	"io"
)

// WriteFmt writes the 3DMigoto .fmt description of the schema. Each category
// is its own input slot and AlignedByteOffset is relative to that slot.
func WriteFmt(w io.Writer, s *Schema, prefix string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "stride: %d\n", s.RecordSize())
	fmt.Fprintf(bw, "topology: trianglelist\n")
	fmt.Fprintf(bw, "format: DXGI_FORMAT_%s\n", s.IndexFormat)
	fmt.Fprintf(bw, "gametypename: %s\n", s.Name)
	if prefix != "" {
		fmt.Fprintf(bw, "prefix: %s\n", prefix)
	}

	slots := make(map[string]int, len(s.categories))
	for i, c := range s.categories {
		slots[c.Name] = i
	}

	for i, e := range s.elements {
		c := s.categories[slots[e.Category]]
		fmt.Fprintf(bw, "element[%d]:\n", i)
		fmt.Fprintf(bw, "  SemanticName: %s\n", e.SemanticName)
		fmt.Fprintf(bw, "  SemanticIndex: %d\n", e.SemanticIndex)
		fmt.Fprintf(bw, "  Format: %s\n", e.Format)
		fmt.Fprintf(bw, "  InputSlot: %d\n", slots[e.Category])
		fmt.Fprintf(bw, "  AlignedByteOffset: %d\n", e.Offset-c.Offset)
		fmt.Fprintf(bw, "  InputSlotClass: per-vertex\n")
		fmt.Fprintf(bw, "  InstanceDataStepRate: 0\n")
	}

	return bw.Flush()
}
