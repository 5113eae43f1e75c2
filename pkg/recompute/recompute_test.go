package recompute

import (
	"bytes"
	"math"
	"testing"

	"github.com/Faultbox/meshpack/pkg/dxgi"
	"github.com/Faultbox/meshpack/pkg/layout"
	"github.com/Faultbox/meshpack/pkg/vertex"
)

var testSchema = layout.MustNew(layout.Definition{
	Name: "recompute",
	Elements: []layout.ElementDefinition{
		{Name: "POSITION", Format: "R32G32B32_FLOAT", Category: "Position"},
		{Name: "NORMAL", Format: "R32G32B32_FLOAT", Category: "Position"},
		{Name: "TANGENT", Format: "R32G32B32A32_FLOAT", Category: "Position"},
		{Name: "COLOR", Format: "R8G8B8A8_UNORM", Category: "Texcoord"},
	},
})

// testVertex is the decoded form of one record of testSchema.
type testVertex struct {
	pos     [3]float64
	normal  [3]float64
	tangent [4]float64
	color   [4]float64
}

// buildRecords encodes vertices with testSchema.
func buildRecords(t *testing.T, verts []testVertex) *vertex.Records {
	t.Helper()
	recs := vertex.NewRecords(len(verts), testSchema.RecordSize())
	for i, v := range verts {
		put(t, recs, i, "POSITION", v.pos[:])
		put(t, recs, i, "NORMAL", v.normal[:])
		put(t, recs, i, "TANGENT", v.tangent[:])
		put(t, recs, i, "COLOR", v.color[:])
	}
	return recs
}

func put(t *testing.T, recs *vertex.Records, i int, name string, vals []float64) {
	t.Helper()
	e, _ := testSchema.Element(name)
	b, err := dxgi.Encode(e.Format, vals)
	if err != nil {
		t.Fatalf("Encode %s failed: %v", name, err)
	}
	copy(recs.Field(i, e), b)
}

func get(t *testing.T, recs *vertex.Records, i int, name string) []float64 {
	t.Helper()
	e, _ := testSchema.Element(name)
	v, err := dxgi.Decode(e.Format, recs.Field(i, e))
	if err != nil {
		t.Fatalf("Decode %s failed: %v", name, err)
	}
	return v
}

func TestGroupByPosition(t *testing.T) {
	recs := buildRecords(t, []testVertex{
		{pos: [3]float64{1, 0, 0}},
		{pos: [3]float64{0, 0, 0}},
		{pos: [3]float64{1, 0, 0}},
		{pos: [3]float64{0, 0, 0}},
		{pos: [3]float64{2, 0, 0}},
	})

	groups := GroupByPosition(recs, testSchema)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %v", groups)
	}

	pos, _ := testSchema.Element("POSITION")
	seen := make(map[int]bool)
	for _, g := range groups {
		for k, i := range g {
			if seen[i] {
				t.Errorf("record %d in more than one group", i)
			}
			seen[i] = true
			if k > 0 && g[k-1] > i {
				t.Errorf("group %v does not keep record order", g)
			}
			if !bytes.Equal(recs.Field(i, pos), recs.Field(g[0], pos)) {
				t.Errorf("group %v mixes positions", g)
			}
		}
	}
	if len(seen) != 5 {
		t.Errorf("expected all 5 records grouped, got %d", len(seen))
	}

	// Same input, same grouping.
	again := GroupByPosition(recs, testSchema)
	for i := range groups {
		if len(groups[i]) != len(again[i]) || groups[i][0] != again[i][0] {
			t.Fatalf("grouping not deterministic: %v vs %v", groups, again)
		}
	}
}

func TestTangentsAverageAndSign(t *testing.T) {
	recs := buildRecords(t, []testVertex{
		{pos: [3]float64{0, 0, 0}, normal: [3]float64{1, 0, 0}, tangent: [4]float64{0, 1, 0, 1}},
		{pos: [3]float64{0, 0, 0}, normal: [3]float64{0, 1, 0}, tangent: [4]float64{0, 1, 0, -1}},
		{pos: [3]float64{5, 0, 0}, normal: [3]float64{0, 0, 2}, tangent: [4]float64{1, 0, 0, 0}},
	})

	if err := Tangents(recs, testSchema); err != nil {
		t.Fatalf("Tangents failed: %v", err)
	}

	h := 1 / math.Sqrt2
	tests := []struct {
		rec  int
		want [4]float64
	}{
		{0, [4]float64{h, h, 0, -1}},
		{1, [4]float64{h, h, 0, 1}},
		// w of exactly zero counts as non-negative
		{2, [4]float64{0, 0, 1, -1}},
	}
	for _, tt := range tests {
		got := get(t, recs, tt.rec, "TANGENT")
		for k := range tt.want {
			if math.Abs(got[k]-tt.want[k]) > 1e-6 {
				t.Errorf("record %d tangent = %v, want %v", tt.rec, got, tt.want)
				break
			}
		}
	}
}

func TestTangentsZeroSum(t *testing.T) {
	recs := buildRecords(t, []testVertex{
		{normal: [3]float64{0, 0, 1}, tangent: [4]float64{1, 0, 0, 1}},
		{normal: [3]float64{0, 0, -1}, tangent: [4]float64{1, 0, 0, 1}},
	})

	if err := Tangents(recs, testSchema); err != nil {
		t.Fatalf("Tangents failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		got := get(t, recs, i, "TANGENT")
		for k := 0; k < 3; k++ {
			if got[k] != 0 || math.IsNaN(got[k]) {
				t.Errorf("record %d tangent = %v, want zero xyz", i, got)
				break
			}
		}
	}
}

func TestColorsPreserveAlpha(t *testing.T) {
	recs := buildRecords(t, []testVertex{
		{pos: [3]float64{0, 0, 0}, normal: [3]float64{0, 0, 1}, color: [4]float64{1, 1, 1, 1}},
		{pos: [3]float64{0, 0, 0}, normal: [3]float64{0, 0, 1}, color: [4]float64{0, 0, 0, 0.5}},
		{pos: [3]float64{1, 0, 0}, normal: [3]float64{-1, 0, 0}, color: [4]float64{0, 0, 0, 0}},
	})

	if err := Colors(recs, testSchema); err != nil {
		t.Fatalf("Colors failed: %v", err)
	}

	e, _ := testSchema.Element("COLOR")
	tests := []struct {
		rec  int
		want []byte
	}{
		{0, []byte{128, 128, 255, 255}},
		{1, []byte{128, 128, 255, 128}},
		{2, []byte{0, 128, 128, 0}},
	}
	for _, tt := range tests {
		if got := recs.Field(tt.rec, e); !bytes.Equal(got, tt.want) {
			t.Errorf("record %d color = %v, want %v", tt.rec, got, tt.want)
		}
	}
}

func TestColorsMeanNotNormalized(t *testing.T) {
	recs := buildRecords(t, []testVertex{
		{normal: [3]float64{1, 0, 0}},
		{normal: [3]float64{0, 1, 0}},
	})
	if err := Colors(recs, testSchema); err != nil {
		t.Fatalf("Colors failed: %v", err)
	}
	// Mean is (0.5, 0.5, 0): 0.75*255 = 191.25 and 0.5*255 = 127.5.
	e, _ := testSchema.Element("COLOR")
	want := []byte{191, 191, 128, 0}
	if got := recs.Field(0, e); !bytes.Equal(got, want) {
		t.Errorf("color = %v, want %v", got, want)
	}
}

func TestPassesWithoutNormal(t *testing.T) {
	s := layout.MustNew(layout.Definition{Elements: []layout.ElementDefinition{
		{Name: "POSITION", Format: "R32G32B32_FLOAT", Category: "Position"},
		{Name: "TANGENT", Format: "R32G32B32A32_FLOAT", Category: "Position"},
		{Name: "COLOR", Format: "R8G8B8A8_UNORM", Category: "Position"},
	}})
	recs := vertex.NewRecords(3, s.RecordSize())
	for i := range recs.Data {
		recs.Data[i] = byte(i)
	}
	before := recs.Clone()

	if err := Tangents(recs, s); err != nil {
		t.Errorf("Tangents failed: %v", err)
	}
	if err := Colors(recs, s); err != nil {
		t.Errorf("Colors failed: %v", err)
	}
	if !bytes.Equal(recs.Data, before.Data) {
		t.Error("records changed without a NORMAL element")
	}
}

func TestIndexedSemanticNames(t *testing.T) {
	s := layout.MustNew(layout.Definition{
		Name: "indexed",
		Elements: []layout.ElementDefinition{
			{Name: "POSITION0", Format: "R32G32B32_FLOAT", Category: "Position"},
			{Name: "NORMAL0", Format: "R32G32B32_FLOAT", Category: "Position"},
			{Name: "TANGENT0", Format: "R32G32B32A32_FLOAT", Category: "Position"},
			{Name: "COLOR0", Format: "R8G8B8A8_UNORM", Category: "Texcoord"},
		},
	})
	field := func(name string) layout.Element {
		e, ok := s.Element(name)
		if !ok {
			t.Fatalf("missing element %s", name)
		}
		return e
	}
	encode := func(recs *vertex.Records, i int, name string, vals ...float64) {
		e := field(name)
		b, err := dxgi.Encode(e.Format, vals)
		if err != nil {
			t.Fatalf("Encode %s failed: %v", name, err)
		}
		copy(recs.Field(i, e), b)
	}

	recs := vertex.NewRecords(2, s.RecordSize())
	for i := 0; i < 2; i++ {
		encode(recs, i, "POSITION0", 1, 2, 3)
		encode(recs, i, "NORMAL0", 0, 0, 1)
		encode(recs, i, "TANGENT0", 0, 0, 0, 1)
	}

	if groups := GroupByPosition(recs, s); len(groups) != 1 {
		t.Errorf("expected one position group, got %v", groups)
	}
	if err := Tangents(recs, s); err != nil {
		t.Fatalf("Tangents failed: %v", err)
	}
	if err := Colors(recs, s); err != nil {
		t.Fatalf("Colors failed: %v", err)
	}

	want := []byte{128, 128, 255, 0}
	for i := 0; i < 2; i++ {
		if got := recs.Field(i, field("COLOR0")); !bytes.Equal(got, want) {
			t.Errorf("record %d COLOR0 = %v, want %v", i, got, want)
		}
		tan, err := dxgi.Decode(field("TANGENT0").Format, recs.Field(i, field("TANGENT0")))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if tan[2] != 1 || tan[3] != -1 {
			t.Errorf("record %d TANGENT0 = %v, want (0 0 1 -1)", i, tan)
		}
	}
}
