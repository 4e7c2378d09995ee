package scene

import (
	"fmt"

	"github.com/binzume/shapebuilder/geom"
	"github.com/binzume/shapebuilder/shape"
)

func NewNode(name string, parent int) *Node {
	return &Node{
		Name:     name,
		Parent:   parent,
		Rotation: geom.Quaternion{W: 1},
		Scale:    geom.Vector3{X: 1, Y: 1, Z: 1},
	}
}

func (n *Node) Local() *geom.Matrix4 {
	if n.Matrix != nil {
		return n.Matrix.Clone()
	}
	rot := n.Rotation
	return geom.NewTRSMatrix4(&n.Translation, rot.Normalize(), &n.Scale)
}

// WorldMatrix returns the transform of node i in scene space.
func (s *Scene) WorldMatrix(i int) *geom.Matrix4 {
	mat := geom.NewMatrix4()
	for depth := 0; i >= 0 && i < len(s.Nodes) && depth <= len(s.Nodes); depth++ {
		mat = s.Nodes[i].Local().Mul(mat)
		i = s.Nodes[i].Parent
	}
	return mat
}

// skinMatrices returns the deformation matrix of every vertex of m.
func (s *Scene) skinMatrices(m *Mesh) []*geom.Matrix4 {
	mats := make([]*geom.Matrix4, len(m.Points))
	if m.Skin == nil {
		world := geom.NewMatrix4()
		if m.Node >= 0 {
			world = s.WorldMatrix(m.Node)
		}
		for i := range mats {
			mats[i] = world
		}
		return mats
	}

	joints := make([]*geom.Matrix4, len(m.Skin.Joints))
	for j, node := range m.Skin.Joints {
		joints[j] = s.WorldMatrix(node)
		if j < len(m.Skin.InverseBind) && m.Skin.InverseBind[j] != nil {
			joints[j] = joints[j].Mul(m.Skin.InverseBind[j])
		}
	}
	for i := range mats {
		mat := &geom.Matrix4{}
		var sum float32
		if i < len(m.Skin.Weights) {
			for k, w := range m.Skin.Weights[i] {
				j := int(m.Skin.Influences[i][k])
				if w == 0 || j >= len(joints) {
					continue
				}
				mat.AddScaled(joints[j], w)
				sum += w
			}
		}
		if sum == 0 {
			mat = geom.NewMatrix4()
		} else if sum != 1 {
			for e := range mat {
				mat[e] /= sum
			}
		}
		mats[i] = mat
	}
	return mats
}

func (s *Scene) blendOffsets(m *Mesh) ([]geom.Vector3, error) {
	if m.Deformer == "" {
		return make([]geom.Vector3, len(m.Points)), nil
	}
	d, err := s.deformer(m.Deformer)
	if err != nil {
		return nil, err
	}
	return d.Offsets(len(m.Points))
}

// Evaluate returns the points of mesh after blendshapes and skinning.
func (s *Scene) Evaluate(mesh string) ([]geom.Vector3, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return nil, err
	}
	offsets, err := s.blendOffsets(m)
	if err != nil {
		return nil, err
	}
	mats := s.skinMatrices(m)
	posed := make([]geom.Vector3, len(m.Points))
	for i := range m.Points {
		posed[i] = *mats[i].ApplyTo(m.Points[i].Add(&offsets[i]))
	}
	return posed, nil
}

// InvertShape creates "<sculpted>_inverted": the rest-space shape that, used as
// a target of source at weight 1, deforms into sculpted.
func (s *Scene) InvertShape(source, sculpted string) (string, error) {
	src, err := s.mesh(source)
	if err != nil {
		return "", err
	}
	sc, err := s.mesh(sculpted)
	if err != nil {
		return "", err
	}
	if len(src.Points) != len(sc.Points) {
		return "", fmt.Errorf("%w: %q has %d vertices, %q has %d",
			shape.ErrVertexCountMismatch, source, len(src.Points), sculpted, len(sc.Points))
	}

	offsets, err := s.blendOffsets(src)
	if err != nil {
		return "", err
	}
	mats := s.skinMatrices(src)
	points := make([]geom.Vector3, len(sc.Points))
	for i := range sc.Points {
		if mats[i].Det() == 0 {
			return "", fmt.Errorf("%w: vertex %d of %q", ErrSingular, i, source)
		}
		points[i] = *mats[i].Inverse().ApplyTo(&sc.Points[i]).Sub(&offsets[i])
	}

	m := NewMesh(s.uniqueName(sculpted+"_inverted"), points)
	s.Meshes = append(s.Meshes, m)
	return m.Name, nil
}
