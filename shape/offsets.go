package shape

import (
	"fmt"

	"github.com/binzume/shapebuilder/geom"
)

// OffsetEpsilon is the smallest per-axis delta kept in an offset table.
const OffsetEpsilon = 0.0001

var zeroOffset = geom.Vector4{X: 0, Y: 0, Z: 0, W: 1}

// Offset is the delta of one vertex of a target.
type Offset struct {
	Vertex int
	Delta  geom.Vector4
}

// OffsetTable is a sparse target: Vertices[i] is displaced by Points[i].
type OffsetTable struct {
	Vertices []int
	Points   []geom.Vector4
}

// ExtractOffsets reads the stored deltas of a deformer target. Components are
// expanded against mesh, which must share the target's topology.
func ExtractOffsets(h Host, mesh, deformer string, index int) (*OffsetTable, error) {
	components, points, err := h.TargetOffsets(deformer, index)
	if err != nil {
		return nil, err
	}
	vertices, err := h.ExpandComponents(mesh, components)
	if err != nil {
		return nil, err
	}
	return &OffsetTable{Vertices: vertices, Points: points}, nil
}

// CleanOffsets snaps per-axis noise below OffsetEpsilon to zero and drops
// entries that end up as (0, 0, 0, 1). The inputs are not modified.
func CleanOffsets(vertices []int, points []geom.Vector4) (*OffsetTable, error) {
	if len(vertices) != len(points) {
		return nil, fmt.Errorf("%w: %d vertices, %d offsets", ErrOffsetLength, len(vertices), len(points))
	}
	clean := &OffsetTable{}
	for i, p := range points {
		p.X = snapToZero(p.X)
		p.Y = snapToZero(p.Y)
		p.Z = snapToZero(p.Z)
		if p == zeroOffset {
			continue
		}
		clean.Vertices = append(clean.Vertices, vertices[i])
		clean.Points = append(clean.Points, p)
	}
	return clean, nil
}

func snapToZero(v float32) float32 {
	if v < OffsetEpsilon && v > -OffsetEpsilon {
		return 0
	}
	return v
}

// Clean returns a cleaned copy of t.
func (t *OffsetTable) Clean() (*OffsetTable, error) {
	return CleanOffsets(t.Vertices, t.Points)
}

// Len returns the number of entries, or -1 if the table is inconsistent.
func (t *OffsetTable) Len() int {
	if len(t.Vertices) != len(t.Points) {
		return -1
	}
	return len(t.Points)
}

func (t *OffsetTable) Offsets() []Offset {
	offsets := make([]Offset, 0, len(t.Points))
	for i, p := range t.Points {
		if i >= len(t.Vertices) {
			break
		}
		offsets = append(offsets, Offset{Vertex: t.Vertices[i], Delta: p})
	}
	return offsets
}
