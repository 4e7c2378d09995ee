package shape

import (
	"errors"
	"fmt"

	"github.com/binzume/shapebuilder/geom"
)

type fakeTarget struct {
	name       string
	weight     float32
	components []string
	points     []geom.Vector4
	shape      []geom.Vector3 // snapshot of the target mesh when added
}

type fakeDeformer struct {
	envelope     float32
	targets      map[int]*fakeTarget
	combinations []*CombinationRule
}

// fakeHost is an in-memory Host. Inversion copies the sculpt.
type fakeHost struct {
	meshes    map[string][]geom.Vector3
	deformers map[string]*fakeDeformer

	invertErr         error
	assignErr         error
	envelopeAtInvert  float32
	materials         map[string]string
	truncateOffsetsOf int
	counter           int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		meshes:            map[string][]geom.Vector3{},
		deformers:         map[string]*fakeDeformer{},
		materials:         map[string]string{},
		truncateOffsetsOf: -1,
	}
}

func (h *fakeHost) addMesh(name string, n int, f func(i int) geom.Vector3) {
	pts := make([]geom.Vector3, n)
	for i := range pts {
		if f != nil {
			pts[i] = f(i)
		}
	}
	h.meshes[name] = pts
}

func (h *fakeHost) addDeformer(name string, envelope float32) *fakeDeformer {
	d := &fakeDeformer{envelope: envelope, targets: map[int]*fakeTarget{}}
	h.deformers[name] = d
	return d
}

func (h *fakeHost) HasMesh(name string) bool {
	_, ok := h.meshes[name]
	return ok
}

func (h *fakeHost) VertexCount(mesh string) (int, error) {
	m, ok := h.meshes[mesh]
	if !ok {
		return 0, ErrMeshNotFound
	}
	return len(m), nil
}

func (h *fakeHost) ExpandComponents(mesh string, components []string) ([]int, error) {
	if !h.HasMesh(mesh) {
		return nil, ErrMeshNotFound
	}
	return ExpandComponentList(components)
}

func (h *fakeHost) VertexPosition(mesh string, index int) (*geom.Vector3, error) {
	m, ok := h.meshes[mesh]
	if !ok {
		return nil, ErrMeshNotFound
	}
	v := m[index]
	return &v, nil
}

func (h *fakeHost) TranslateVertex(mesh string, index int, delta *geom.Vector3) error {
	m, ok := h.meshes[mesh]
	if !ok {
		return ErrMeshNotFound
	}
	m[index] = *m[index].Add(delta)
	return nil
}

func (h *fakeHost) InvertShape(source, sculpted string) (string, error) {
	for _, d := range h.deformers {
		h.envelopeAtInvert = d.envelope
	}
	if h.invertErr != nil {
		return "", h.invertErr
	}
	h.counter++
	name := fmt.Sprintf("%s_inverted%d", sculpted, h.counter)
	h.meshes[name] = append([]geom.Vector3(nil), h.meshes[sculpted]...)
	return name, nil
}

func (h *fakeHost) AssignDefaultMaterial(mesh string) error {
	if h.assignErr != nil {
		return h.assignErr
	}
	h.materials[mesh] = "default"
	return nil
}

func (h *fakeHost) RenameMesh(mesh, name string) (string, error) {
	if h.HasMesh(name) {
		name += "1"
	}
	h.meshes[name] = h.meshes[mesh]
	delete(h.meshes, mesh)
	return name, nil
}

func (h *fakeHost) DeleteMesh(mesh string) error {
	if !h.HasMesh(mesh) {
		return ErrMeshNotFound
	}
	delete(h.meshes, mesh)
	return nil
}

func (h *fakeHost) deformer(name string) (*fakeDeformer, error) {
	d, ok := h.deformers[name]
	if !ok {
		return nil, ErrDeformerNotFound
	}
	return d, nil
}

func (h *fakeHost) HasDeformer(name string) bool {
	_, ok := h.deformers[name]
	return ok
}

func (h *fakeHost) Targets(deformer string) ([]TargetRef, error) {
	d, err := h.deformer(deformer)
	if err != nil {
		return nil, err
	}
	var refs []TargetRef
	for i, t := range d.targets {
		refs = append(refs, TargetRef{Name: t.name, Index: i})
	}
	return refs, nil
}

func (h *fakeHost) Weight(deformer string, index int) (float32, error) {
	d, err := h.deformer(deformer)
	if err != nil {
		return 0, err
	}
	return d.targets[index].weight, nil
}

func (h *fakeHost) SetWeight(deformer string, index int, weight float32) error {
	d, err := h.deformer(deformer)
	if err != nil {
		return err
	}
	d.targets[index].weight = weight
	return nil
}

func (h *fakeHost) Envelope(deformer string) (float32, error) {
	d, err := h.deformer(deformer)
	if err != nil {
		return 0, err
	}
	return d.envelope, nil
}

func (h *fakeHost) SetEnvelope(deformer string, envelope float32) error {
	d, err := h.deformer(deformer)
	if err != nil {
		return err
	}
	d.envelope = envelope
	return nil
}

func (h *fakeHost) AddTarget(deformer, base string, index int, target string, weight float32) error {
	d, err := h.deformer(deformer)
	if err != nil {
		return err
	}
	if _, exists := d.targets[index]; exists {
		return errors.New("index in use")
	}
	rest, shape := h.meshes[base], h.meshes[target]
	t := &fakeTarget{name: target, weight: weight, shape: append([]geom.Vector3(nil), shape...)}
	var vertices []int
	for i := range shape {
		delta := shape[i].Sub(&rest[i])
		if !delta.IsZero() {
			vertices = append(vertices, i)
			t.points = append(t.points, delta.Point())
		}
	}
	t.components = CondenseIndices(vertices)
	d.targets[index] = t
	return nil
}

func (h *fakeHost) TargetOffsets(deformer string, index int) ([]string, []geom.Vector4, error) {
	d, err := h.deformer(deformer)
	if err != nil {
		return nil, nil, err
	}
	t := d.targets[index]
	if index == h.truncateOffsetsOf && len(t.points) > 0 {
		return t.components, t.points[1:], nil
	}
	return t.components, t.points, nil
}

func (h *fakeHost) AddCombination(deformer string, rule *CombinationRule) error {
	d, err := h.deformer(deformer)
	if err != nil {
		return err
	}
	d.combinations = append(d.combinations, rule)
	return nil
}

// setTarget stores a target directly, bypassing AddTarget.
func (d *fakeDeformer) setTarget(index int, name string, weight float32, vertices []int, points []geom.Vector4) {
	d.targets[index] = &fakeTarget{name: name, weight: weight, components: CondenseIndices(vertices), points: points}
}
