// Package vertex turns mesh attributes into fixed-width vertex records laid
// out by a layout.Schema.
package vertex

import "github.com/Faultbox/meshpack/pkg/layout"

// Records is a flat arena of equally sized vertex records, one per loop.
type Records struct {
	Stride int
	Data   []byte
}

// NewRecords allocates n zeroed records of the given stride.
func NewRecords(n, stride int) *Records {
	return &Records{Stride: stride, Data: make([]byte, n*stride)}
}

// Len returns the number of records.
func (r *Records) Len() int {
	if r.Stride == 0 {
		return 0
	}
	return len(r.Data) / r.Stride
}

// At returns record i. The slice aliases the arena.
func (r *Records) At(i int) []byte {
	start := i * r.Stride
	return r.Data[start : start+r.Stride : start+r.Stride]
}

// Field returns the bytes of element e inside record i.
func (r *Records) Field(i int, e layout.Element) []byte {
	start := i*r.Stride + e.Offset
	end := start + e.Size()
	return r.Data[start:end:end]
}

// Clone returns a deep copy.
func (r *Records) Clone() *Records {
	return &Records{Stride: r.Stride, Data: append([]byte(nil), r.Data...)}
}
