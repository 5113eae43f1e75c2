package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/Faultbox/meshpack/pkg/bundle"
	"github.com/Faultbox/meshpack/pkg/dxgi"
	"github.com/Faultbox/meshpack/pkg/layout"
)

// ErrIndexOverflow is returned when a mesh has more unique vertices than the
// layout's index format can address.
var ErrIndexOverflow = errors.New("index overflow")

// File is one output file of a conversion.
type File struct {
	Name string
	Data []byte
}

// Files renders a result as <prefix>.ib, one <prefix>-<Category>.buf per
// category in record order and <prefix>.fmt.
func Files(prefix string, res *Result, s *layout.Schema) ([]File, error) {
	ib, err := IndexBytes(res.Indices, res.MaxIndex(), s.IndexFormat)
	if err != nil {
		return nil, err
	}

	files := []File{{Name: prefix + ".ib", Data: ib}}
	for _, name := range res.CategoryOrder {
		files = append(files, File{Name: fmt.Sprintf("%s-%s.buf", prefix, name), Data: res.Categories[name]})
	}

	var fmtBuf bytes.Buffer
	if err := layout.WriteFmt(&fmtBuf, s, prefix); err != nil {
		return nil, fmt.Errorf("writing fmt: %w", err)
	}
	files = append(files, File{Name: prefix + ".fmt", Data: fmtBuf.Bytes()})
	return files, nil
}

// IndexBytes encodes indices as little-endian R16_UINT or R32_UINT.
func IndexBytes(indices []uint32, maxIndex uint32, f dxgi.Format) ([]byte, error) {
	switch f {
	case dxgi.R16Uint:
		if maxIndex > math.MaxUint16 {
			return nil, fmt.Errorf("%w: index %d does not fit %s", ErrIndexOverflow, maxIndex, f)
		}
		out := make([]byte, 0, len(indices)*2)
		for _, i := range indices {
			out = binary.LittleEndian.AppendUint16(out, uint16(i))
		}
		return out, nil

	case dxgi.R32Uint:
		out := make([]byte, 0, len(indices)*4)
		for _, i := range indices {
			out = binary.LittleEndian.AppendUint32(out, i)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: index format %s", dxgi.ErrUnsupportedFormat, f)
}

// WriteFiles writes the output files into dir, creating it if needed.
func WriteFiles(dir, prefix string, res *Result, s *layout.Schema) ([]string, error) {
	files, err := Files(prefix, res, s)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteBundle packs the output files into one archive at path.
func WriteBundle(path, prefix string, res *Result, s *layout.Schema, m bundle.Method) error {
	files, err := Files(prefix, res, s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	w, err := bundle.Create(path, m)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := w.Add(f.Name, f.Data); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
