package scene

import (
	"errors"
	"fmt"

	"github.com/binzume/shapebuilder/geom"
	"github.com/binzume/shapebuilder/shape"
	"github.com/qmuntal/gltf"
)

const DefaultMaterial = "initialShadingGroup"

var (
	ErrTargetExists = errors.New("target already exists")
	ErrDriven       = errors.New("weight is driven by a combination")
	ErrSingular     = errors.New("skin matrix is not invertible")
)

type Node struct {
	Name        string
	Parent      int // -1: root
	Translation geom.Vector3
	Rotation    geom.Quaternion
	Scale       geom.Vector3
	Matrix      *geom.Matrix4 // overrides TRS if set
}

// Skin binds mesh vertices to joint nodes. Every vertex has 4 influences.
type Skin struct {
	Joints      []int // node index
	InverseBind []*geom.Matrix4
	Influences  [][4]uint16 // index into Joints
	Weights     [][4]float32
}

type Mesh struct {
	Name     string
	Points   []geom.Vector3
	Skin     *Skin
	Node     int // -1: not placed in the node tree
	Material string
	Deformer string

	gltfMesh int // -1: not loaded from a document
}

type Target struct {
	Name       string
	Index      int
	Weight     float32
	Components []string
	Points     []geom.Vector4
}

// BlendShape is a deformer applied to the rest points of Base.
type BlendShape struct {
	Name         string
	Base         string
	Envelope     float32
	Targets      []*Target // ordered by Index
	Combinations []*shape.CombinationRule
}

type Scene struct {
	Nodes      []*Node
	Meshes     []*Mesh
	Deformers  []*BlendShape
	Selection  []string
	doc        *gltf.Document
	sources    map[*Mesh]*gltfSource
	imported   map[string]*Mesh // by file path
	renameSeed int
}

func New() *Scene {
	return &Scene{}
}

var _ shape.Host = (*Scene)(nil)
var _ shape.Importer = (*Scene)(nil)

func NewMesh(name string, points []geom.Vector3) *Mesh {
	return &Mesh{Name: name, Points: points, Node: -1, gltfMesh: -1}
}

func (s *Scene) AddMesh(m *Mesh) (*Mesh, error) {
	if s.FindMesh(m.Name) != nil {
		return nil, fmt.Errorf("mesh %q already exists", m.Name)
	}
	s.Meshes = append(s.Meshes, m)
	return m, nil
}

// AddBlendShape creates an empty deformer on mesh base.
func (s *Scene) AddBlendShape(name, base string) (*BlendShape, error) {
	m := s.FindMesh(base)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", shape.ErrMeshNotFound, base)
	}
	if s.FindBlendShape(name) != nil {
		return nil, fmt.Errorf("deformer %q already exists", name)
	}
	bs := &BlendShape{Name: name, Base: base, Envelope: 1}
	m.Deformer = name
	s.Deformers = append(s.Deformers, bs)
	return bs, nil
}

func (s *Scene) FindMesh(name string) *Mesh {
	for _, m := range s.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (s *Scene) FindBlendShape(name string) *BlendShape {
	for _, d := range s.Deformers {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (s *Scene) mesh(name string) (*Mesh, error) {
	if m := s.FindMesh(name); m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q", shape.ErrMeshNotFound, name)
}

func (s *Scene) uniqueName(base string) string {
	name := base
	for s.FindMesh(name) != nil {
		s.renameSeed++
		name = fmt.Sprintf("%s%d", base, s.renameSeed)
	}
	return name
}

func (s *Scene) HasMesh(name string) bool {
	return s.FindMesh(name) != nil
}

func (s *Scene) VertexCount(mesh string) (int, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return 0, err
	}
	return len(m.Points), nil
}

func (s *Scene) ExpandComponents(mesh string, components []string) ([]int, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return nil, err
	}
	indices, err := shape.ExpandComponentList(components)
	if err != nil {
		return nil, err
	}
	for _, i := range indices {
		if i >= len(m.Points) {
			return nil, fmt.Errorf("%w: vtx[%d] out of range on %q", shape.ErrInvalidComponent, i, mesh)
		}
	}
	return indices, nil
}

func (s *Scene) VertexPosition(mesh string, index int) (*geom.Vector3, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(m.Points) {
		return nil, fmt.Errorf("vertex %d out of range on %q", index, mesh)
	}
	v := m.Points[index]
	return &v, nil
}

func (s *Scene) TranslateVertex(mesh string, index int, delta *geom.Vector3) error {
	m, err := s.mesh(mesh)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(m.Points) {
		return fmt.Errorf("vertex %d out of range on %q", index, mesh)
	}
	m.Points[index] = *m.Points[index].Add(delta)
	return nil
}

func (s *Scene) AssignDefaultMaterial(mesh string) error {
	m, err := s.mesh(mesh)
	if err != nil {
		return err
	}
	m.Material = DefaultMaterial
	return nil
}

// RenameMesh renames mesh, picking a unique name if name is taken.
func (s *Scene) RenameMesh(mesh, name string) (string, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return "", err
	}
	if name == mesh {
		return name, nil
	}
	m.Name = s.uniqueName(name)
	for _, d := range s.Deformers {
		if d.Base == mesh {
			d.Base = m.Name
		}
	}
	return m.Name, nil
}

// DeleteMesh removes a mesh. Meshes carrying a deformer cannot be deleted.
func (s *Scene) DeleteMesh(mesh string) error {
	for i, m := range s.Meshes {
		if m.Name != mesh {
			continue
		}
		if m.Deformer != "" {
			return fmt.Errorf("mesh %q has deformer %q", mesh, m.Deformer)
		}
		s.Meshes = append(s.Meshes[:i], s.Meshes[i+1:]...)
		delete(s.sources, m)
		s.Selection = removeString(s.Selection, mesh)
		return nil
	}
	return fmt.Errorf("%w: %q", shape.ErrMeshNotFound, mesh)
}

func (s *Scene) Select(names ...string) {
	s.Selection = append([]string(nil), names...)
}

func removeString(list []string, v string) []string {
	var r []string
	for _, s := range list {
		if s != v {
			r = append(r, s)
		}
	}
	return r
}
