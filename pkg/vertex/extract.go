package vertex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/meshpack/pkg/dxgi"
	"github.com/Faultbox/meshpack/pkg/layout"
	"github.com/Faultbox/meshpack/pkg/mesh"
)

// Extraction errors. ErrDimensionMismatch is shared with the codec so callers
// can match either with errors.Is.
var (
	ErrDimensionMismatch = dxgi.ErrDimensionMismatch
	ErrIndexOutOfRange   = errors.New("vertex index out of range")
)

// Options controls extraction.
type Options struct {
	// PatchBlendWeights leaves BLENDWEIGHT elements zeroed. The schema's own
	// PatchBlendWeights flag has the same effect.
	PatchBlendWeights bool
}

// fillFunc writes the component values of one loop into vals.
type fillFunc func(loop int, vals []float64)

type extractor struct {
	src          mesh.Source
	loops        int
	loopVertices []int
	patch        bool
}

// Extract builds one record per loop of src, laid out by s.
func Extract(src mesh.Source, s *layout.Schema, opts Options) (*Records, error) {
	x := &extractor{
		src:          src,
		loops:        src.LoopCount(),
		loopVertices: src.LoopVertices(),
		patch:        opts.PatchBlendWeights || s.PatchBlendWeights,
	}
	if len(x.loopVertices) != x.loops {
		return nil, fmt.Errorf("%w: %d loop vertices for %d loops", ErrDimensionMismatch, len(x.loopVertices), x.loops)
	}

	recs := NewRecords(x.loops, s.RecordSize())
	var scratch []byte

	for _, e := range s.Elements() {
		if !e.Format.Valid() {
			return nil, fmt.Errorf("element %s: %w", e.Name, dxgi.ErrUnsupportedFormat)
		}
		fill, err := x.filler(e)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", e.Name, err)
		}
		if fill == nil {
			continue
		}

		vals := make([]float64, e.Format.Components())
		for i := 0; i < x.loops; i++ {
			clear(vals)
			fill(i, vals)
			scratch, err = dxgi.AppendEncode(scratch[:0], e.Format, vals)
			if err != nil {
				return nil, fmt.Errorf("element %s: %w", e.Name, err)
			}
			copy(recs.Field(i, e), scratch)
		}
	}

	return recs, nil
}

// filler picks the source data for an element. A nil fillFunc leaves the
// element zeroed.
func (x *extractor) filler(e layout.Element) (fillFunc, error) {
	comps := e.Format.Components()

	switch {
	case e.SemanticName == "POSITION":
		return x.vec3(mesh.AttrPosition, mesh.DomainVertex, comps, 1)

	case e.SemanticName == "NORMAL":
		return x.vec3(mesh.AttrNormal, mesh.DomainLoop, comps, 1)

	case e.SemanticName == "TANGENT":
		return x.tangent(comps)

	case e.SemanticName == "COLOR":
		if comps != 4 {
			return nil, fmt.Errorf("%w: color wants 4 components, format has %d", ErrDimensionMismatch, comps)
		}
		a, ok, err := x.attribute(mesh.ColorAttr(e.Name), mesh.DomainLoop, 4)
		if err != nil || !ok {
			return nil, err
		}
		return func(loop int, vals []float64) {
			copyFloats(vals, a.Data[loop*4:loop*4+4])
		}, nil

	case e.SemanticName == "TEXCOORD":
		return x.texcoord(e.Name, comps)

	case strings.HasPrefix(e.SemanticName, "BLENDINDICES"):
		return x.blend(mesh.AttrBlendIndices, comps)

	case strings.HasPrefix(e.SemanticName, "BLENDWEIGHT"):
		if x.patch {
			return nil, nil
		}
		return x.blend(mesh.AttrBlendWeights, comps)
	}

	return nil, nil
}

// vec3 fills a 3 or 4 component element from a 3 component attribute, using
// w for the fourth component.
func (x *extractor) vec3(name string, domain mesh.Domain, comps int, w float64) (fillFunc, error) {
	if comps != 3 && comps != 4 {
		return nil, fmt.Errorf("%w: %s has 3 components, format has %d", ErrDimensionMismatch, name, comps)
	}
	a, ok, err := x.attribute(name, domain, 3)
	if err != nil || !ok {
		return nil, err
	}
	return func(loop int, vals []float64) {
		i := x.index(loop, domain)
		copyFloats(vals, a.Data[i*3:i*3+3])
		if comps == 4 {
			vals[3] = w
		}
	}, nil
}

// tangent packs xyz with the inverted bitangent sign in w. The host's
// handedness is opposite to the target's, so the sign flips here and only here.
func (x *extractor) tangent(comps int) (fillFunc, error) {
	if comps != 4 {
		return nil, fmt.Errorf("%w: tangent wants 4 components, format has %d", ErrDimensionMismatch, comps)
	}
	t, ok, err := x.attribute(mesh.AttrTangent, mesh.DomainLoop, 3)
	if err != nil || !ok {
		return nil, err
	}
	sign, hasSign, err := x.attribute(mesh.AttrBitangentSign, mesh.DomainLoop, 1)
	if err != nil {
		return nil, err
	}
	return func(loop int, vals []float64) {
		copyFloats(vals, t.Data[loop*3:loop*3+3])
		if hasSign {
			vals[3] = -float64(sign.Data[loop])
		}
	}, nil
}

// texcoord reads NAME.xy, and NAME.zw for four component elements, flipping V.
func (x *extractor) texcoord(name string, comps int) (fillFunc, error) {
	var suffixes []string
	switch comps {
	case 2:
		suffixes = []string{".xy"}
	case 4:
		suffixes = []string{".xy", ".zw"}
	default:
		return nil, fmt.Errorf("%w: texcoord wants 2 or 4 components, format has %d", ErrDimensionMismatch, comps)
	}

	sets := make([]*mesh.Attribute, len(suffixes))
	found := false
	for i, suffix := range suffixes {
		a, ok, err := x.attribute(mesh.UVAttr(name+suffix), mesh.DomainLoop, 2)
		if err != nil {
			return nil, err
		}
		if ok {
			sets[i] = &a
			found = true
		}
	}
	if !found {
		return nil, nil
	}

	return func(loop int, vals []float64) {
		for i, a := range sets {
			if a == nil {
				continue
			}
			vals[i*2] = float64(a.Data[loop*2])
			vals[i*2+1] = 1 - float64(a.Data[loop*2+1])
		}
	}, nil
}

func (x *extractor) blend(name string, comps int) (fillFunc, error) {
	if comps != mesh.MaxInfluences {
		return nil, fmt.Errorf("%w: %s has %d components, format has %d", ErrDimensionMismatch, name, mesh.MaxInfluences, comps)
	}
	a, ok, err := x.attribute(name, mesh.DomainVertex, mesh.MaxInfluences)
	if err != nil || !ok {
		return nil, err
	}
	return func(loop int, vals []float64) {
		v := x.loopVertices[loop]
		copyFloats(vals, a.Data[v*mesh.MaxInfluences:(v+1)*mesh.MaxInfluences])
	}, nil
}

// attribute fetches and validates a source attribute. A missing attribute is
// not an error.
func (x *extractor) attribute(name string, domain mesh.Domain, comps int) (mesh.Attribute, bool, error) {
	a, ok := x.src.Attribute(name)
	if !ok {
		return a, false, nil
	}
	if a.Domain != domain {
		return a, false, fmt.Errorf("%w: %s is per %s, want per %s", ErrDimensionMismatch, name, a.Domain, domain)
	}
	if a.Components != comps || len(a.Data)%comps != 0 {
		return a, false, fmt.Errorf("%w: %s has %d components, want %d", ErrDimensionMismatch, name, a.Components, comps)
	}

	switch domain {
	case mesh.DomainLoop:
		if a.Len() != x.loops {
			return a, false, fmt.Errorf("%w: %s has %d entries for %d loops", ErrDimensionMismatch, name, a.Len(), x.loops)
		}
	case mesh.DomainVertex:
		n := a.Len()
		for loop, v := range x.loopVertices {
			if v < 0 || v >= n {
				return a, false, fmt.Errorf("%w: loop %d references vertex %d, %s has %d", ErrIndexOutOfRange, loop, v, name, n)
			}
		}
	}
	return a, true, nil
}

func (x *extractor) index(loop int, domain mesh.Domain) int {
	if domain == mesh.DomainVertex {
		return x.loopVertices[loop]
	}
	return loop
}

func copyFloats(dst []float64, src []float32) {
	for i, v := range src {
		dst[i] = float64(v)
	}
}
