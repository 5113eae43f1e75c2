package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshpack/internal/assets"
	"github.com/Faultbox/meshpack/internal/config"
	"github.com/Faultbox/meshpack/internal/logger"
	"github.com/Faultbox/meshpack/pkg/bundle"
	"github.com/Faultbox/meshpack/pkg/export"
	"github.com/Faultbox/meshpack/pkg/mesh"
)

// job is one input mesh converted with a fixed configuration.
type job struct {
	cfg       *config.Config
	layouts   *assets.Manager
	converter *export.Converter
	input     string
	meshIndex int
	prefix    string
}

func newJob(cfg *config.Config, name string, args []string) *job {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	meshIndex := fs.Int("mesh", 0, "Index of the glTF mesh to convert")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: meshpack %s [-mesh N] <in.gltf> [prefix]\n", name)
		os.Exit(1)
	}

	j := &job{
		cfg:       cfg,
		layouts:   assets.NewManager(),
		converter: export.NewConverter(logger.Named(name)),
		input:     fs.Arg(0),
		meshIndex: *meshIndex,
	}
	j.prefix = strings.TrimSuffix(filepath.Base(j.input), filepath.Ext(j.input))
	if fs.NArg() > 1 {
		j.prefix = fs.Arg(1)
	}
	return j
}

// run converts the input once and writes the output files.
func (j *job) run() error {
	s, err := j.layouts.Layout(j.cfg.Export.Layout)
	if err != nil {
		return err
	}
	logger.Debug("resolved layout", zap.String("layout", s.Name), zap.Int("stride", s.RecordSize()))

	m, err := mesh.OpenGLTF(j.input, j.meshIndex)
	if err != nil {
		return err
	}
	if added := m.EnsureLayout(s); len(added) > 0 {
		logger.Warn("mesh lacks layout sets, filled with defaults", zap.Strings("sets", added))
	}

	res, err := j.converter.Convert(m, s, export.Options{
		RecalcTangent:     j.cfg.Export.RecalcTangent,
		RecalcColor:       j.cfg.Export.RecalcColor,
		PatchBlendWeights: j.cfg.Export.PatchBlendWeights,
	})
	if err != nil {
		return err
	}

	if j.cfg.Output.Bundle {
		method, err := bundle.ParseMethod(j.cfg.Output.Compression)
		if err != nil {
			return err
		}
		path := filepath.Join(j.cfg.Output.Dir, j.prefix+".meshpack")
		if err := export.WriteBundle(path, j.prefix, res, s, method); err != nil {
			return err
		}
		logger.Info("wrote bundle", zap.String("run", res.RunID), zap.String("path", path))
		fmt.Printf("Wrote: %s (%d vertices, %d indices)\n", path, res.Unique, len(res.Indices))
		return nil
	}

	paths, err := export.WriteFiles(j.cfg.Output.Dir, j.prefix, res, s)
	if err != nil {
		return err
	}
	logger.Info("wrote files", zap.String("run", res.RunID), zap.Strings("paths", paths))
	for _, p := range paths {
		fmt.Printf("Wrote: %s\n", p)
	}
	fmt.Printf("%d loops -> %d unique vertices\n", res.Loops, res.Unique)
	return nil
}

func cmdConvert(cfg *config.Config, args []string) {
	j := newJob(cfg, "convert", args)
	if err := j.run(); err != nil {
		fatal(err)
	}
}
