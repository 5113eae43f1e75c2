package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/meshpack/pkg/bundle"
	"github.com/Faultbox/meshpack/pkg/dxgi"
	"github.com/Faultbox/meshpack/pkg/layout"
	"github.com/Faultbox/meshpack/pkg/mesh"
)

var flatSchema = layout.MustNew(layout.Definition{
	Name: "flat",
	Elements: []layout.ElementDefinition{
		{Name: "POSITION", Format: "R32G32B32_FLOAT", Category: "Position"},
		{Name: "NORMAL", Format: "R32G32B32_FLOAT", Category: "Position"},
	},
})

// createTestQuad builds a flat quad of two triangles with shared corners.
func createTestQuad(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(4, []int{0, 1, 2, 2, 1, 3})
	if err != nil {
		t.Fatalf("mesh.New failed: %v", err)
	}
	if err := m.SetPositions([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	normals := make([][3]float32, 6)
	for i := range normals {
		normals[i] = [3]float32{0, 0, 1}
	}
	if err := m.SetNormals(normals); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestConvertQuad(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewConverter(zap.New(core))

	res, err := c.Convert(createTestQuad(t), flatSchema, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := []uint32{0, 1, 2, 2, 1, 3}
	for i := range want {
		if res.Indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", res.Indices, want)
		}
	}
	if res.Unique != 4 || res.Loops != 6 {
		t.Errorf("unique = %d loops = %d, want 4 and 6", res.Unique, res.Loops)
	}
	if got := len(res.Categories["Position"]); got != 24*res.Unique {
		t.Errorf("Position buffer is %d bytes, want %d", got, 24*res.Unique)
	}

	entries := logs.FilterMessage("converted mesh").All()
	if len(entries) != 1 {
		t.Fatalf("expected one info entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["unique"] != int64(4) || fields["run"] != res.RunID {
		t.Errorf("unexpected log fields: %v", fields)
	}
}

func TestConvertDeterministic(t *testing.T) {
	s, err := layout.Preset("gpu-skinned")
	if err != nil {
		t.Fatalf("Preset failed: %v", err)
	}
	opts := Options{RecalcTangent: true, RecalcColor: true}

	run := func() *Result {
		m := createTestQuad(t)
		if err := m.SetTangents(make([][3]float32, 6), []float32{1, 1, 1, -1, -1, -1}); err != nil {
			t.Fatal(err)
		}
		m.EnsureLayout(s)
		res, err := (&Converter{}).Convert(m, s, opts)
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if a.RunID == b.RunID {
		t.Error("run ids should differ between conversions")
	}
	for _, name := range a.CategoryOrder {
		if !bytes.Equal(a.Categories[name], b.Categories[name]) {
			t.Errorf("category %s differs between runs", name)
		}
	}
	if len(a.Indices) != len(b.Indices) {
		t.Fatalf("index counts differ: %d vs %d", len(a.Indices), len(b.Indices))
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			t.Fatalf("indices differ: %v vs %v", a.Indices, b.Indices)
		}
	}
}

func TestConvertEmpty(t *testing.T) {
	m, err := mesh.New(0, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := NewConverter(nil).Convert(m, flatSchema, Options{RecalcColor: true})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(res.Indices) != 0 || res.Unique != 0 {
		t.Errorf("expected empty result, got %d indices %d unique", len(res.Indices), res.Unique)
	}

	paths, err := WriteFiles(t.TempDir(), "empty", res, flatSchema)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("expected ib, one buf and fmt, got %v", paths)
	}
}

func TestConvertErrors(t *testing.T) {
	s := layout.MustNew(layout.Definition{Elements: []layout.ElementDefinition{
		{Name: "POSITION", Format: "R32G32B32_FLOAT", Category: "Position"},
		{Name: "COLOR", Format: "R32G32B32_FLOAT", Category: "Position"},
	}})
	_, err := NewConverter(nil).Convert(createTestQuad(t), s, Options{})
	if !errors.Is(err, dxgi.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "COLOR") {
		t.Errorf("error should name the element: %v", err)
	}
}

func TestConvertIndexedColor(t *testing.T) {
	s := layout.MustNew(layout.Definition{
		Name: "indexed",
		Elements: []layout.ElementDefinition{
			{Name: "POSITION", Format: "R32G32B32_FLOAT", Category: "Position"},
			{Name: "NORMAL", Format: "R32G32B32_FLOAT", Category: "Position"},
			{Name: "COLOR0", Format: "R8G8B8A8_UNORM", Category: "Color"},
		},
	})
	core, logs := observer.New(zap.DebugLevel)

	res, err := NewConverter(zap.New(core)).Convert(createTestQuad(t), s, Options{RecalcColor: true})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if n := logs.FilterMessage("color recompute skipped, layout lacks NORMAL or COLOR").Len(); n != 0 {
		t.Errorf("color recompute reported as skipped")
	}

	colors := res.Categories["Color"]
	if len(colors) != 4*res.Unique {
		t.Fatalf("Color buffer is %d bytes, want %d", len(colors), 4*res.Unique)
	}
	for i := 0; i < res.Unique; i++ {
		if got := colors[i*4 : i*4+3]; !bytes.Equal(got, []byte{128, 128, 255}) {
			t.Errorf("vertex %d color rgb = %v, want [128 128 255]", i, got)
		}
	}
}

func TestIndexBytes(t *testing.T) {
	tests := []struct {
		name    string
		format  dxgi.Format
		max     uint32
		want    []byte
		wantErr error
	}{
		{"r16", dxgi.R16Uint, 2, []byte{0, 0, 2, 0, 1, 0}, nil},
		{"r32", dxgi.R32Uint, 2, []byte{0, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0}, nil},
		{"r16 overflow", dxgi.R16Uint, 70000, nil, ErrIndexOverflow},
		{"bad format", dxgi.R32Float, 2, nil, dxgi.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IndexBytes([]uint32{0, 2, 1}, tt.max, tt.format)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("IndexBytes failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("IndexBytes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteFiles(t *testing.T) {
	res, err := NewConverter(nil).Convert(createTestQuad(t), flatSchema, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	if _, err := WriteFiles(dir, "quad", res, flatSchema); err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}

	sizes := map[string]int{
		"quad.ib":           6 * 4,
		"quad-Position.buf": 4 * 24,
	}
	for name, want := range sizes {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s not written: %v", name, err)
			continue
		}
		if int(info.Size()) != want {
			t.Errorf("%s is %d bytes, want %d", name, info.Size(), want)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "quad.fmt"))
	if err != nil {
		t.Fatalf("reading fmt: %v", err)
	}
	if !strings.Contains(string(data), "stride: 24") || !strings.Contains(string(data), "prefix: quad") {
		t.Errorf("unexpected fmt:\n%s", data)
	}
}

func TestWriteBundle(t *testing.T) {
	res, err := NewConverter(nil).Convert(createTestQuad(t), flatSchema, Options{})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "quad.meshpack")
	if err := WriteBundle(path, "quad", res, flatSchema, bundle.MethodLZ4); err != nil {
		t.Fatalf("WriteBundle failed: %v", err)
	}

	archive, err := bundle.Open(path)
	if err != nil {
		t.Fatalf("bundle.Open failed: %v", err)
	}
	defer archive.Close()

	want := []string{"quad.ib", "quad-Position.buf", "quad.fmt"}
	got := archive.List()
	if len(got) != len(want) {
		t.Fatalf("bundle lists %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got[i], want[i])
		}
	}

	buf, err := archive.Read("quad-Position.buf")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(buf, res.Categories["Position"]) {
		t.Error("bundled Position buffer differs from result")
	}
}
