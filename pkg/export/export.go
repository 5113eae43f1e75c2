// Package export runs the conversion pipeline from a mesh source to welded
// vertex buffers and writes the result as .ib/.buf/.fmt files.
package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/meshpack/pkg/layout"
	"github.com/Faultbox/meshpack/pkg/mesh"
	"github.com/Faultbox/meshpack/pkg/recompute"
	"github.com/Faultbox/meshpack/pkg/vertex"
	"github.com/Faultbox/meshpack/pkg/weld"
)

// Options selects the optional passes of a conversion.
type Options struct {
	RecalcTangent     bool
	RecalcColor       bool
	PatchBlendWeights bool
}

// Result is the output of one conversion.
type Result struct {
	*weld.Result
	RunID string
	Loops int
}

// Converter runs conversions. The zero value logs nothing.
type Converter struct {
	Logger *zap.Logger
}

// NewConverter returns a converter logging to logger. A nil logger is
// replaced by a no-op one.
func NewConverter(logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{Logger: logger}
}

// Convert extracts one record per loop, applies the enabled recompute passes
// and welds the records into index and category buffers.
func (c *Converter) Convert(src mesh.Source, s *layout.Schema, opts Options) (*Result, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.NewString()
	log = log.With(zap.String("run", runID), zap.String("layout", s.Name))
	start := time.Now()

	recs, err := vertex.Extract(src, s, vertex.Options{PatchBlendWeights: opts.PatchBlendWeights})
	if err != nil {
		return nil, fmt.Errorf("extracting: %w", err)
	}
	log.Debug("extracted records",
		zap.Int("loops", recs.Len()),
		zap.Int("stride", recs.Stride),
		zap.Duration("elapsed", time.Since(start)))

	if opts.RecalcTangent {
		if !hasSemantics(s, "NORMAL", "TANGENT") {
			log.Warn("tangent recompute skipped, layout lacks NORMAL or TANGENT")
		}
		if err := recompute.Tangents(recs, s); err != nil {
			return nil, fmt.Errorf("recomputing tangents: %w", err)
		}
	}
	if opts.RecalcColor {
		if !hasSemantics(s, "NORMAL", "COLOR") {
			log.Warn("color recompute skipped, layout lacks NORMAL or COLOR")
		}
		if err := recompute.Colors(recs, s); err != nil {
			return nil, fmt.Errorf("recomputing colors: %w", err)
		}
	}

	welded, err := weld.Build(recs, src.Triangles(), s)
	if err != nil {
		return nil, fmt.Errorf("welding: %w", err)
	}

	log.Info("converted mesh",
		zap.Int("loops", recs.Len()),
		zap.Int("unique", welded.Unique),
		zap.Int("indices", len(welded.Indices)),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{Result: welded, RunID: runID, Loops: recs.Len()}, nil
}

// hasSemantics reports whether s has an element with semantic index 0 for
// every name, the same lookup the recompute passes use.
func hasSemantics(s *layout.Schema, semantics ...string) bool {
	for _, sem := range semantics {
		if _, ok := s.BySemantic(sem, 0); !ok {
			return false
		}
	}
	return true
}
