package shape

import "github.com/binzume/shapebuilder/geom"

// CombineMethod selects how driver weights are combined by a combination rule.
type CombineMethod int

const (
	CombineMultiply CombineMethod = 0
	CombineLowest   CombineMethod = 1
)

// TargetRef is a named target slot of a blendshape deformer.
type TargetRef struct {
	Name  string
	Index int
}

// CombinationRule drives the Output target by the weights of Drivers.
type CombinationRule struct {
	Output  int
	Drivers []int
	Method  CombineMethod
}

// MeshHost gives access to the meshes of a scene.
type MeshHost interface {
	HasMesh(name string) bool
	VertexCount(mesh string) (int, error)
	// ExpandComponents expands condensed components ("vtx[2:5]") of mesh into
	// discrete vertex indices, in order.
	ExpandComponents(mesh string, components []string) ([]int, error)
	VertexPosition(mesh string, index int) (*geom.Vector3, error)
	// TranslateVertex moves a vertex relative to its current position.
	TranslateVertex(mesh string, index int, delta *geom.Vector3) error

	// InvertShape creates a new mesh in the rest space of source that, after
	// the deformation stack of source is applied, matches sculpted.
	InvertShape(source, sculpted string) (string, error)
	AssignDefaultMaterial(mesh string) error
	RenameMesh(mesh, name string) (string, error)
	DeleteMesh(mesh string) error
}

// DeformerHost gives access to blendshape deformers.
type DeformerHost interface {
	HasDeformer(name string) bool
	Targets(deformer string) ([]TargetRef, error)
	Weight(deformer string, index int) (float32, error)
	SetWeight(deformer string, index int, weight float32) error
	Envelope(deformer string) (float32, error)
	SetEnvelope(deformer string, envelope float32) error

	// AddTarget appends target (a mesh with the topology of base) at index.
	AddTarget(deformer, base string, index int, target string, weight float32) error
	// TargetOffsets returns the stored sparse deltas of a target: condensed
	// components and one point (x, y, z, 1) per expanded vertex.
	TargetOffsets(deformer string, index int) ([]string, []geom.Vector4, error)
	AddCombination(deformer string, rule *CombinationRule) error
}

type Host interface {
	MeshHost
	DeformerHost
}

// Importer loads meshes from files into a host.
type Importer interface {
	ImportMesh(path string) (string, error)
}
