// Package recompute rewrites TANGENT and COLOR elements of extracted vertex
// records from the averaged normals of loops that share a position.
package recompute

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshpack/pkg/dxgi"
	"github.com/Faultbox/meshpack/pkg/layout"
	"github.com/Faultbox/meshpack/pkg/vertex"
)

// GroupByPosition partitions record indices by the exact bytes of their
// POSITION element (semantic index 0). Groups come out in position byte order and members keep
// their record order. Without a POSITION element every record is its own group.
func GroupByPosition(recs *vertex.Records, s *layout.Schema) [][]int {
	n := recs.Len()
	pos, ok := s.BySemantic("POSITION", 0)
	if !ok {
		groups := make([][]int, n)
		for i := range groups {
			groups[i] = []int{i}
		}
		return groups
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return bytes.Compare(recs.Field(a, pos), recs.Field(b, pos))
	})

	var groups [][]int
	for start := 0; start < n; {
		key := recs.Field(order[start], pos)
		end := start + 1
		for end < n && bytes.Equal(recs.Field(order[end], pos), key) {
			end++
		}
		groups = append(groups, order[start:end:end])
		start = end
	}
	return groups
}

// Tangents overwrites TANGENT.xyz of every record with the normalized sum of
// its position group's normals. TANGENT.w becomes -1 where it was >= 0 and +1
// otherwise. It does nothing when the schema lacks NORMAL or TANGENT.
func Tangents(recs *vertex.Records, s *layout.Schema) error {
	normal, hasNormal := s.BySemantic("NORMAL", 0)
	tangent, hasTangent := s.BySemantic("TANGENT", 0)
	if !hasNormal || !hasTangent {
		return nil
	}
	if err := needComponents(normal, 3); err != nil {
		return err
	}
	if err := needComponents(tangent, 3); err != nil {
		return err
	}

	var scratch []byte
	for _, group := range GroupByPosition(recs, s) {
		var sum mgl64.Vec3
		for _, i := range group {
			n, err := readVec3(recs, i, normal)
			if err != nil {
				return err
			}
			sum = sum.Add(n)
		}
		dir := normalize(sum)

		for _, i := range group {
			field := recs.Field(i, tangent)
			old, err := dxgi.Decode(tangent.Format, field)
			if err != nil {
				return fmt.Errorf("element %s: %w", tangent.Name, err)
			}
			vals := make([]float64, len(old))
			copy(vals, dir[:])
			if len(vals) > 3 {
				vals[3] = 1
				if old[3] >= 0 {
					vals[3] = -1
				}
			}
			scratch, err = dxgi.AppendEncode(scratch[:0], tangent.Format, vals)
			if err != nil {
				return fmt.Errorf("element %s: %w", tangent.Name, err)
			}
			copy(field, scratch)
		}
	}
	return nil
}

// Colors stores the mean normal of each position group in COLOR.rgb, mapped
// from [-1, 1] to [0, 255]. The alpha bytes of each record are kept as they
// were. It does nothing when the schema lacks NORMAL or COLOR.
func Colors(recs *vertex.Records, s *layout.Schema) error {
	normal, hasNormal := s.BySemantic("NORMAL", 0)
	color, hasColor := s.BySemantic("COLOR", 0)
	if !hasNormal || !hasColor {
		return nil
	}
	if err := needComponents(normal, 3); err != nil {
		return err
	}
	if err := needComponents(color, 3); err != nil {
		return err
	}

	comps := color.Format.Components()
	alphaStart := 3 * color.Format.ComponentSize()
	var scratch []byte

	for _, group := range GroupByPosition(recs, s) {
		var sum mgl64.Vec3
		for _, i := range group {
			n, err := readVec3(recs, i, normal)
			if err != nil {
				return err
			}
			sum = sum.Add(n)
		}
		mean := sum.Mul(1 / float64(len(group)))

		vals := make([]float64, comps)
		for k := 0; k < 3; k++ {
			vals[k] = math.RoundToEven((mean[k]+1)/2*255) / 255
		}
		var err error
		scratch, err = dxgi.AppendEncode(scratch[:0], color.Format, vals)
		if err != nil {
			return fmt.Errorf("element %s: %w", color.Name, err)
		}

		for _, i := range group {
			// rgb only; alpha stays bit-for-bit
			copy(recs.Field(i, color)[:alphaStart], scratch[:alphaStart])
		}
	}
	return nil
}

func readVec3(recs *vertex.Records, i int, e layout.Element) (mgl64.Vec3, error) {
	v, err := dxgi.Decode(e.Format, recs.Field(i, e))
	if err != nil {
		return mgl64.Vec3{}, fmt.Errorf("element %s: %w", e.Name, err)
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

// normalize returns the zero vector for a zero-length input.
func normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

func needComponents(e layout.Element, min int) error {
	if c := e.Format.Components(); c < min {
		return fmt.Errorf("%w: element %s has %d components, need %d", dxgi.ErrDimensionMismatch, e.Name, c, min)
	}
	return nil
}
