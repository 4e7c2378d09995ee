package geom

import (
	"testing"
)

func TestVector3(t *testing.T) {
	zero := NewVector3(0, 0, 0)
	if zero.Len() != 0 || !zero.IsZero() {
		t.Error("len != 0")
	}

	if *NewVector3(1, 0, 0).Add(NewVector3(0, 1, 0)) != *NewVector3(1, 1, 0) {
		t.Error("Vector.Add()")
	}

	if *NewVector3(1, 2, 3).Scale(0.5).Negate() != *NewVector3(-0.5, -1, -1.5) {
		t.Error("Vector.Scale().Negate()")
	}

	if p := NewVector3(1, 2, 3).Point(); p != (Vector4{1, 2, 3, 1}) {
		t.Error("Vector.Point()", p)
	}
}

func TestVector4(t *testing.T) {
	zero := NewVector4(0, 0, 0, 0)
	if zero.Len() != 0 {
		t.Error("len != 0")
	}

	if *zero.Normalize() != *NewVector4(0, 0, 0, 1) {
		t.Error("Normalize shoud returns unit vector.", zero)
	}

	if *NewVector4(1, 2, 3, 1).Vector3() != *NewVector3(1, 2, 3) {
		t.Error("Vector4.Vector3()")
	}
}
