package main

import (
	"fmt"
	"log"

	"github.com/binzume/shapebuilder/config"
	"github.com/binzume/shapebuilder/scene"
	"github.com/binzume/shapebuilder/shape"
)

func run(recipe *config.Recipe) error {
	s, err := scene.Load(recipe.Scene)
	if err != nil {
		return err
	}
	b := shape.NewBuilder(s)
	for i, c := range recipe.Correctives {
		res, err := buildCorrective(s, b, c)
		if err != nil {
			return fmt.Errorf("corrective %d (%s): %w", i, c.Sculpt, err)
		}
		for _, d := range res.Drivers {
			log.Printf("  driver %q[%d] w=%.3f offsets=%d", d.Name, d.Index, d.Weight, len(d.Offsets))
		}
	}
	return s.Save(recipe.Output)
}

func buildCorrective(s *scene.Scene, b *shape.Builder, c *config.Corrective) (*shape.Result, error) {
	sculpt, err := s.ImportMesh(c.Sculpt)
	if err != nil {
		return nil, err
	}

	source := c.Source
	if source == "" && len(s.Deformers) == 1 {
		source = s.Deformers[0].Base
	}
	s.Select(source, sculpt)
	req := &shape.Request{Deformer: c.Deformer, Name: c.Name}
	if err := req.WithSelection(s.Selection); err != nil {
		return nil, err
	}
	if req.Deformer == "" {
		if m := s.FindMesh(req.Source); m != nil && m.Deformer != "" {
			req.Deformer = m.Deformer
		}
	}

	restore, err := pose(s, req.Deformer, c)
	if err != nil {
		return nil, err
	}
	defer restore()

	if c.Combination {
		return b.AddCombinationTarget(req)
	}
	return b.AddRegularTarget(req)
}

// pose applies the weights of c and returns a func that puts the previous
// weights back.
func pose(s *scene.Scene, deformer string, c *config.Corrective) (func(), error) {
	restore := func() {}
	for _, name := range c.WeightNames() {
		var prev float32
		if bs := s.FindBlendShape(deformer); bs != nil {
			if t := bs.TargetByName(name); t != nil {
				prev = t.Weight
			}
		}
		if err := s.SetWeightByName(deformer, name, c.Weights[name]); err != nil {
			restore()
			return nil, err
		}
		next, name := restore, name
		restore = func() {
			if err := s.SetWeightByName(deformer, name, prev); err != nil {
				log.Print("restore weight ", name, ": ", err)
			}
			next()
		}
	}
	return restore, nil
}
