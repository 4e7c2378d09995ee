package scene

import (
	"fmt"

	"github.com/binzume/shapebuilder/geom"
	"github.com/binzume/shapebuilder/shape"
)

func (s *Scene) deformer(name string) (*BlendShape, error) {
	if d := s.FindBlendShape(name); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q", shape.ErrDeformerNotFound, name)
}

func (d *BlendShape) Target(index int) *Target {
	for _, t := range d.Targets {
		if t.Index == index {
			return t
		}
	}
	return nil
}

func (d *BlendShape) target(index int) (*Target, error) {
	if t := d.Target(index); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("deformer %q has no target %d", d.Name, index)
}

func (d *BlendShape) TargetByName(name string) *Target {
	for _, t := range d.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (d *BlendShape) combination(index int) *shape.CombinationRule {
	for _, c := range d.Combinations {
		if c.Output == index && len(c.Drivers) > 0 {
			return c
		}
	}
	return nil
}

// EffectiveWeight returns the weight of a target, resolving combination rules.
func (d *BlendShape) EffectiveWeight(t *Target) float32 {
	return d.effectiveWeight(t, 0)
}

func (d *BlendShape) effectiveWeight(t *Target, depth int) float32 {
	rule := d.combination(t.Index)
	if rule == nil || depth > len(d.Targets) {
		return t.Weight
	}
	var w float32 = 1
	for i, index := range rule.Drivers {
		driver := d.Target(index)
		if driver == nil {
			return 0
		}
		dw := d.effectiveWeight(driver, depth+1)
		switch rule.Method {
		case shape.CombineLowest:
			if i == 0 || dw < w {
				w = dw
			}
		default:
			w *= dw
		}
	}
	return w
}

// Offsets returns the dense delta of every vertex of the base mesh,
// envelope and weights applied.
func (d *BlendShape) Offsets(vertexCount int) ([]geom.Vector3, error) {
	offsets := make([]geom.Vector3, vertexCount)
	if d.Envelope == 0 {
		return offsets, nil
	}
	for _, t := range d.Targets {
		w := d.EffectiveWeight(t) * d.Envelope
		if w == 0 {
			continue
		}
		vertices, err := shape.ExpandComponentList(t.Components)
		if err != nil {
			return nil, err
		}
		if len(vertices) != len(t.Points) {
			return nil, fmt.Errorf("target %q: %w", t.Name, shape.ErrOffsetLength)
		}
		for i, v := range vertices {
			if v >= vertexCount {
				return nil, fmt.Errorf("target %q: vtx[%d] out of range", t.Name, v)
			}
			offsets[v] = *offsets[v].Add(t.Points[i].Vector3().Scale(w))
		}
	}
	return offsets, nil
}

func (s *Scene) HasDeformer(name string) bool {
	return s.FindBlendShape(name) != nil
}

func (s *Scene) Targets(deformer string) ([]shape.TargetRef, error) {
	d, err := s.deformer(deformer)
	if err != nil {
		return nil, err
	}
	refs := make([]shape.TargetRef, 0, len(d.Targets))
	for _, t := range d.Targets {
		refs = append(refs, shape.TargetRef{Name: t.Name, Index: t.Index})
	}
	return refs, nil
}

func (s *Scene) Weight(deformer string, index int) (float32, error) {
	d, err := s.deformer(deformer)
	if err != nil {
		return 0, err
	}
	t, err := d.target(index)
	if err != nil {
		return 0, err
	}
	return d.EffectiveWeight(t), nil
}

func (s *Scene) SetWeight(deformer string, index int, weight float32) error {
	d, err := s.deformer(deformer)
	if err != nil {
		return err
	}
	t, err := d.target(index)
	if err != nil {
		return err
	}
	if d.combination(index) != nil {
		return fmt.Errorf("%w: %q", ErrDriven, t.Name)
	}
	t.Weight = weight
	return nil
}

// SetWeightByName sets the weight of the target aliased name.
func (s *Scene) SetWeightByName(deformer, name string, weight float32) error {
	d, err := s.deformer(deformer)
	if err != nil {
		return err
	}
	t := d.TargetByName(name)
	if t == nil {
		return fmt.Errorf("deformer %q has no target %q", deformer, name)
	}
	return s.SetWeight(deformer, t.Index, weight)
}

func (s *Scene) Envelope(deformer string) (float32, error) {
	d, err := s.deformer(deformer)
	if err != nil {
		return 0, err
	}
	return d.Envelope, nil
}

func (s *Scene) SetEnvelope(deformer string, envelope float32) error {
	d, err := s.deformer(deformer)
	if err != nil {
		return err
	}
	d.Envelope = envelope
	return nil
}

// AddTarget stores target - base for every vertex that moved.
func (s *Scene) AddTarget(deformer, base string, index int, target string, weight float32) error {
	d, err := s.deformer(deformer)
	if err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("invalid target index %d", index)
	}
	if d.Target(index) != nil {
		return fmt.Errorf("%w: index %d on %q", ErrTargetExists, index, deformer)
	}
	if d.TargetByName(target) != nil {
		return fmt.Errorf("%w: %q on %q", ErrTargetExists, target, deformer)
	}
	b, err := s.mesh(base)
	if err != nil {
		return err
	}
	m, err := s.mesh(target)
	if err != nil {
		return err
	}
	if len(b.Points) != len(m.Points) {
		return fmt.Errorf("%w: %q and %q", shape.ErrVertexCountMismatch, base, target)
	}

	t := &Target{Name: target, Index: index, Weight: weight}
	var vertices []int
	for i := range m.Points {
		delta := m.Points[i].Sub(&b.Points[i])
		if delta.IsZero() {
			continue
		}
		vertices = append(vertices, i)
		t.Points = append(t.Points, delta.Point())
	}
	t.Components = shape.CondenseIndices(vertices)
	d.Targets = append(d.Targets, t)
	sortTargets(d)
	return nil
}

func (s *Scene) TargetOffsets(deformer string, index int) ([]string, []geom.Vector4, error) {
	d, err := s.deformer(deformer)
	if err != nil {
		return nil, nil, err
	}
	t, err := d.target(index)
	if err != nil {
		return nil, nil, err
	}
	return append([]string(nil), t.Components...), append([]geom.Vector4(nil), t.Points...), nil
}

func (s *Scene) AddCombination(deformer string, rule *shape.CombinationRule) error {
	d, err := s.deformer(deformer)
	if err != nil {
		return err
	}
	if _, err := d.target(rule.Output); err != nil {
		return err
	}
	for _, index := range rule.Drivers {
		if index == rule.Output {
			return fmt.Errorf("target %d cannot drive itself", index)
		}
		if _, err := d.target(index); err != nil {
			return err
		}
	}
	if d.combination(rule.Output) != nil {
		return fmt.Errorf("%w: combination for %d", ErrTargetExists, rule.Output)
	}
	d.Combinations = append(d.Combinations, &shape.CombinationRule{
		Output:  rule.Output,
		Drivers: append([]int{}, rule.Drivers...),
		Method:  rule.Method,
	})
	return nil
}
