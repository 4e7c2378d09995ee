package config

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Recipe is a batch of corrective targets built on one scene.
type Recipe struct {
	Scene       string        `yaml:"scene"`
	Output      string        `yaml:"output"`
	Correctives []*Corrective `yaml:"correctives"`
}

type Corrective struct {
	Name        string             `yaml:"name"`
	Source      string             `yaml:"source"` // empty: base of the only deformer
	Sculpt      string             `yaml:"sculpt"` // file path
	Deformer    string             `yaml:"deformer"`
	Combination bool               `yaml:"combination"`
	Weights     map[string]float32 `yaml:"weights"` // pose applied before building
}

// LoadRecipe reads a YAML recipe. Relative paths are resolved from the
// directory of the recipe file.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := ParseRecipe(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.resolve(filepath.Dir(path))
	return r, nil
}

func ParseRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.UnmarshalStrict(data, &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Recipe) Validate() error {
	if r.Scene == "" {
		return fmt.Errorf("scene is required")
	}
	if len(r.Correctives) == 0 {
		return fmt.Errorf("no correctives")
	}
	if r.Output == "" {
		r.Output = r.Scene
	}
	for i, c := range r.Correctives {
		if c == nil || c.Sculpt == "" {
			return fmt.Errorf("corrective %d: sculpt is required", i)
		}
		if c.Deformer == "" && c.Source != "" {
			c.Deformer = c.Source + "_blendShape"
		}
	}
	return nil
}

func (r *Recipe) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	r.Scene = abs(r.Scene)
	r.Output = abs(r.Output)
	for _, c := range r.Correctives {
		c.Sculpt = abs(c.Sculpt)
	}
}

// WeightNames returns the names in Weights, sorted.
func (c *Corrective) WeightNames() []string {
	var names []string
	for name := range c.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseWeights parses "name=weight,name=weight".
func ParseWeights(s string) (map[string]float32, error) {
	weights := map[string]float32{}
	for _, kv := range strings.Split(s, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		i := strings.LastIndex(kv, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid weight %q", kv)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(kv[i+1:]), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", kv, err)
		}
		weights[strings.TrimSpace(kv[:i])] = float32(w)
	}
	return weights, nil
}
