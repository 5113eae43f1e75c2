// Package weld deduplicates vertex records into an index buffer and one flat
// vertex buffer per layout category.
package weld

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshpack/pkg/layout"
	"github.com/Faultbox/meshpack/pkg/mesh"
	"github.com/Faultbox/meshpack/pkg/vertex"
)

// ErrLoopOutOfRange is returned when a triangle references a loop past the
// end of the records.
var ErrLoopOutOfRange = errors.New("triangle loop out of range")

// Table assigns dense ids to distinct records in first-seen order.
type Table struct {
	stride int
	ids    map[string]uint32
	arena  []byte
}

// NewTable creates an empty table for records of the given stride.
func NewTable(stride int) *Table {
	return &Table{stride: stride, ids: make(map[string]uint32)}
}

// Insert returns the id of rec, adding it when unseen.
func (t *Table) Insert(rec []byte) (id uint32, added bool) {
	if id, ok := t.ids[string(rec)]; ok {
		return id, false
	}
	id = uint32(len(t.ids))
	t.ids[string(rec)] = id
	t.arena = append(t.arena, rec...)
	return id, true
}

// Len returns the number of unique records.
func (t *Table) Len() int {
	return len(t.ids)
}

// Record returns the bytes of the record with the given id.
func (t *Table) Record(id uint32) []byte {
	start := int(id) * t.stride
	return t.arena[start : start+t.stride : start+t.stride]
}

// Result is the welded output of one mesh.
type Result struct {
	// Indices holds one id per loop in triangle order.
	Indices []uint32
	// Categories maps a category name to its unique records, sliced to the
	// category and concatenated in id order.
	Categories map[string][]byte
	// CategoryOrder lists category names in record order.
	CategoryOrder []string
	Unique        int
}

// Build walks triangles in order, deduplicates the records of their loops and
// splits the unique records into per-category buffers.
func Build(recs *vertex.Records, triangles []mesh.Triangle, s *layout.Schema) (*Result, error) {
	if recs.Stride != s.RecordSize() {
		return nil, fmt.Errorf("%w: records are %d bytes, layout is %d", vertex.ErrDimensionMismatch, recs.Stride, s.RecordSize())
	}

	n := recs.Len()
	table := NewTable(recs.Stride)
	indices := make([]uint32, 0, n)

	for ti, tri := range triangles {
		if tri.LoopStart < 0 || tri.LoopTotal < 0 || tri.LoopStart+tri.LoopTotal > n {
			return nil, fmt.Errorf("%w: triangle %d spans loops [%d, %d) of %d",
				ErrLoopOutOfRange, ti, tri.LoopStart, tri.LoopStart+tri.LoopTotal, n)
		}
		for loop := tri.LoopStart; loop < tri.LoopStart+tri.LoopTotal; loop++ {
			id, _ := table.Insert(recs.At(loop))
			indices = append(indices, id)
		}
	}

	res := &Result{
		Indices:    indices,
		Categories: make(map[string][]byte),
		Unique:     table.Len(),
	}
	for _, c := range s.Categories() {
		buf := make([]byte, 0, table.Len()*c.Stride)
		for id := 0; id < table.Len(); id++ {
			rec := table.Record(uint32(id))
			buf = append(buf, rec[c.Offset:c.Offset+c.Stride]...)
		}
		res.Categories[c.Name] = buf
		res.CategoryOrder = append(res.CategoryOrder, c.Name)
	}

	return res, nil
}

// MaxIndex returns the largest id in the index buffer, or 0 when it is empty.
func (r *Result) MaxIndex() uint32 {
	if r.Unique == 0 {
		return 0
	}
	return uint32(r.Unique - 1)
}
