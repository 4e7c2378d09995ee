package scene

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/shapebuilder/geom"
)

// ImportMesh loads the first mesh of a .glb/.gltf/.vrm/.mqo file in world
// space. If a mesh with the same name, or the mesh imported earlier from the
// same path, exists and carries no deformer, its points are replaced and the
// existing name is returned.
func (s *Scene) ImportMesh(path string) (string, error) {
	name, points, err := readMeshFile(path)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	key := filepath.Clean(path)
	if m := s.imported[key]; m != nil && s.FindMesh(m.Name) == m && mergeable(m) {
		log.Printf("merge %s into previously imported mesh %q", path, m.Name)
		m.Points = points
		return m.Name, nil
	}
	if m := s.FindMesh(name); m != nil {
		if mergeable(m) {
			log.Printf("merge %s into existing mesh %q", path, name)
			m.Points = points
			s.remember(key, m)
			return name, nil
		}
		name = s.uniqueName(name)
	}
	m := NewMesh(name, points)
	s.Meshes = append(s.Meshes, m)
	s.remember(key, m)
	return name, nil
}

func mergeable(m *Mesh) bool {
	return m.Deformer == "" && m.Skin == nil
}

func (s *Scene) remember(path string, m *Mesh) {
	if s.imported == nil {
		s.imported = map[string]*Mesh{}
	}
	s.imported[path] = m
}

func readMeshFile(path string) (string, []geom.Vector3, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf", ".vrm":
		sc, err := Load(path)
		if err != nil {
			return "", nil, err
		}
		if len(sc.Meshes) == 0 {
			return "", nil, fmt.Errorf("%s: no mesh", path)
		}
		m := sc.Meshes[0]
		// sculpts are read as posed, with any deformer left as saved
		points, err := sc.Evaluate(m.Name)
		if err != nil {
			return "", nil, err
		}
		return m.Name, points, nil
	case ".mqo":
		r, err := os.Open(path)
		if err != nil {
			return "", nil, err
		}
		defer r.Close()
		objects, err := newMQOReader(r, path).Read()
		if err != nil {
			return "", nil, err
		}
		for _, o := range objects {
			if len(o.Vertexes) > 0 {
				return o.Name, o.Vertexes, nil
			}
		}
		return "", nil, fmt.Errorf("%s: no object with vertices", path)
	}
	return "", nil, fmt.Errorf("unsupported mesh file: %s", path)
}
