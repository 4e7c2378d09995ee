package shape

import (
	"errors"
	"testing"
)

func TestInvertAssignsDefaultMaterial(t *testing.T) {
	h, _ := newRig(1)
	inverted, err := Invert(h, "body", "sculpt")
	if err != nil {
		t.Fatal(err)
	}
	if !h.HasMesh(inverted) || h.materials[inverted] != "default" {
		t.Error("inverted mesh should have the default material: ", inverted, h.materials)
	}
}

func TestInvertMaterialFailure(t *testing.T) {
	h, d := newRig(1)
	h.assignErr = errors.New("no shading group")

	if _, err := Invert(h, "body", "sculpt"); !errors.Is(err, h.assignErr) {
		t.Error("expected material error: ", err)
	}
	if len(h.meshes) != 2 || len(h.materials) != 0 {
		t.Error("no mesh should be left behind: ", h.meshes)
	}

	if _, err := NewBuilder(h).AddRegularTarget(&Request{Source: "body", Sculpted: "sculpt", Deformer: "bs"}); !errors.Is(err, h.assignErr) {
		t.Error("expected material error: ", err)
	}
	if len(h.meshes) != 2 || len(d.targets) != 0 || d.envelope != 1 {
		t.Error("scene should be left as it was")
	}
}

func TestInvertSameMesh(t *testing.T) {
	h, _ := newRig(1)
	if _, err := Invert(h, "body", "body"); !errors.Is(err, ErrSelection) {
		t.Error("expected ErrSelection: ", err)
	}
	if h.counter != 0 {
		t.Error("host should not be called")
	}
}
