package shape

import (
	"errors"
	"reflect"
	"testing"

	"github.com/binzume/shapebuilder/geom"
)

func TestCleanOffsetsEpsilon(t *testing.T) {
	vertices := []int{1, 2, 3, 4}
	points := []geom.Vector4{
		{X: 0.0001, Y: 0, Z: 0, W: 1},
		{X: 0.00009, Y: -0.00009, Z: 0, W: 1},
		{X: 0, Y: 0, Z: 0, W: 1},
		{X: 0.00005, Y: 2, Z: -0.0001, W: 1},
	}

	clean, err := CleanOffsets(vertices, points)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(clean.Vertices, []int{1, 4}) {
		t.Error("vertices: ", clean.Vertices)
	}
	expected := []geom.Vector4{
		{X: 0.0001, Y: 0, Z: 0, W: 1},
		{X: 0, Y: 2, Z: -0.0001, W: 1},
	}
	if !reflect.DeepEqual(clean.Points, expected) {
		t.Error("points: ", clean.Points)
	}

	// input is a snapshot
	if points[1].X != 0.00009 || points[3].X != 0.00005 {
		t.Error("input modified: ", points)
	}
}

func TestCleanOffsetsIdempotent(t *testing.T) {
	vertices := []int{0, 3, 4, 9}
	points := []geom.Vector4{
		{X: 0.00002, Y: 0.5, Z: 0, W: 1},
		{X: 0, Y: 0, Z: 0.00001, W: 1},
		{X: -1, Y: 0.0003, Z: 0.00003, W: 1},
		{X: 0, Y: 0, Z: 0, W: 1},
	}
	once, err := CleanOffsets(vertices, points)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := once.Clean()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Error("clean(clean(x)) != clean(x): ", once, twice)
	}
	if once.Len() != 2 {
		t.Error("len: ", once.Len())
	}
}

func TestCleanOffsetsKeepsNonUnitW(t *testing.T) {
	clean, _ := CleanOffsets([]int{7}, []geom.Vector4{{W: 0}})
	if clean.Len() != 1 {
		t.Error("(0,0,0,0) is not the zero offset")
	}
}

func TestCleanOffsetsLengthMismatch(t *testing.T) {
	_, err := CleanOffsets([]int{1, 2}, []geom.Vector4{{X: 1, W: 1}})
	if !errors.Is(err, ErrOffsetLength) {
		t.Error("expected ErrOffsetLength: ", err)
	}
}

func TestExtractOffsets(t *testing.T) {
	h := newFakeHost()
	h.addMesh("body", 10, nil)
	d := h.addDeformer("bs", 1)
	d.setTarget(2, "smile", 1, []int{1, 2, 3, 8}, []geom.Vector4{
		{X: 1, W: 1}, {Y: 1, W: 1}, {Z: 1, W: 1}, {X: -1, W: 1},
	})

	table, err := ExtractOffsets(h, "body", "bs", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(table.Vertices, []int{1, 2, 3, 8}) {
		t.Error("vertices: ", table.Vertices)
	}
	offsets := table.Offsets()
	if len(offsets) != 4 || offsets[3].Vertex != 8 || offsets[3].Delta.X != -1 {
		t.Error("offsets: ", offsets)
	}
}
