package scene

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strings"

	"github.com/binzume/shapebuilder/geom"
	"github.com/binzume/shapebuilder/shape"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// meshPart is the range of Mesh.Points read from one POSITION accessor.
type meshPart struct {
	accessor uint32
	offset   int
	count    int
}

type gltfSource struct {
	parts []meshPart
}

// Load opens a .glb/.gltf/.vrm file.
func Load(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// Save writes the scene back into the document it was loaded from.
func (s *Scene) Save(path string) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	if strings.ToLower(filepath.Ext(path)) == ".gltf" {
		return gltf.Save(doc, path)
	}
	return gltf.SaveBinary(doc, path)
}

func FromDocument(doc *gltf.Document) (*Scene, error) {
	s := &Scene{doc: doc, sources: map[*Mesh]*gltfSource{}}

	s.Nodes = make([]*Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		s.Nodes[i] = convertNode(n)
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(s.Nodes) {
				s.Nodes[c].Parent = i
			}
		}
	}

	// a glTF mesh instanced by several nodes is loaded once, on its first node,
	// so that it carries a single deformer
	loaded := map[uint32]string{}
	for i, n := range doc.Nodes {
		if n.Mesh == nil {
			continue
		}
		if first, ok := loaded[*n.Mesh]; ok {
			log.Printf("node %q shares mesh %d with %q, skipped", n.Name, *n.Mesh, first)
			continue
		}
		loaded[*n.Mesh] = n.Name
		if err := s.loadMesh(i, n); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
	}
	return s, nil
}

func convertNode(n *gltf.Node) *Node {
	node := NewNode(n.Name, -1)
	node.Translation = *geom.NewVector3FromArray(n.Translation)
	if n.Rotation != [4]float32{} {
		node.Rotation = *geom.NewQuaternionFromArray(n.Rotation)
	}
	if n.Scale != [3]float32{} {
		node.Scale = *geom.NewVector3FromArray(n.Scale)
	}
	if n.Matrix != [16]float32{} && *geom.NewMatrix4FromSlice(n.Matrix[:]) != *geom.NewMatrix4() {
		node.Matrix = geom.NewMatrix4FromSlice(n.Matrix[:])
	}
	return node
}

func (s *Scene) loadMesh(nodeIndex int, n *gltf.Node) error {
	doc := s.doc
	gm := doc.Meshes[*n.Mesh]
	name := n.Name
	if name == "" {
		name = gm.Name
	}
	m := NewMesh(s.uniqueName(name), nil)
	m.Node = nodeIndex
	m.gltfMesh = int(*n.Mesh)
	src := &gltfSource{}

	var firstPrims []*gltf.Primitive
	for _, p := range gm.Primitives {
		a, ok := p.Attributes["POSITION"]
		if !ok || src.part(a) != nil {
			continue
		}
		pos, err := modeler.ReadPosition(doc, doc.Accessors[a], [][3]float32{})
		if err != nil {
			return err
		}
		src.parts = append(src.parts, meshPart{accessor: a, offset: len(m.Points), count: len(pos)})
		firstPrims = append(firstPrims, p)
		for _, v := range pos {
			m.Points = append(m.Points, *geom.NewVector3FromArray(v))
		}
	}

	if n.Skin != nil {
		skin, err := s.loadSkin(doc.Skins[*n.Skin], firstPrims, len(m.Points))
		if err != nil {
			return err
		}
		m.Skin = skin
	}

	s.Meshes = append(s.Meshes, m)
	s.sources[m] = src
	return s.loadBlendShape(m, n, gm, firstPrims)
}

func (src *gltfSource) part(accessor uint32) *meshPart {
	for i := range src.parts {
		if src.parts[i].accessor == accessor {
			return &src.parts[i]
		}
	}
	return nil
}

func (s *Scene) loadSkin(gs *gltf.Skin, prims []*gltf.Primitive, vertexCount int) (*Skin, error) {
	doc := s.doc
	skin := &Skin{
		Influences: make([][4]uint16, 0, vertexCount),
		Weights:    make([][4]float32, 0, vertexCount),
	}
	for _, j := range gs.Joints {
		skin.Joints = append(skin.Joints, int(j))
	}
	if gs.InverseBindMatrices != nil {
		mats, err := readMatrices(doc, doc.Accessors[*gs.InverseBindMatrices])
		if err != nil {
			return nil, err
		}
		skin.InverseBind = mats
	}
	for _, p := range prims {
		pos := doc.Accessors[p.Attributes["POSITION"]]
		ja, jok := p.Attributes["JOINTS_0"]
		wa, wok := p.Attributes["WEIGHTS_0"]
		if !jok || !wok {
			// unweighted part: identity
			skin.Influences = append(skin.Influences, make([][4]uint16, pos.Count)...)
			skin.Weights = append(skin.Weights, make([][4]float32, pos.Count)...)
			continue
		}
		joints, err := modeler.ReadJoints(doc, doc.Accessors[ja], [][4]uint16{})
		if err != nil {
			return nil, err
		}
		weights, err := modeler.ReadWeights(doc, doc.Accessors[wa], [][4]float32{})
		if err != nil {
			return nil, err
		}
		skin.Influences = append(skin.Influences, joints...)
		skin.Weights = append(skin.Weights, weights...)
	}
	if len(skin.Weights) != vertexCount || len(skin.Influences) != vertexCount {
		return nil, fmt.Errorf("skin has %d weights for %d vertices", len(skin.Weights), vertexCount)
	}
	return skin, nil
}

func readMatrices(doc *gltf.Document, acr *gltf.Accessor) ([]*geom.Matrix4, error) {
	if acr.BufferView == nil {
		return nil, nil
	}
	if acr.Sparse != nil {
		return nil, fmt.Errorf("sparse inverseBindMatrices not supported")
	}
	bufferView := doc.BufferViews[*acr.BufferView]
	data := doc.Buffers[bufferView.Buffer].Data
	stride := bufferView.ByteStride
	if stride == 0 {
		stride = 64
	}
	var mats []*geom.Matrix4
	for i := uint32(0); i < acr.Count; i++ {
		offset := bufferView.ByteOffset + acr.ByteOffset + i*stride
		if int(offset+64) > len(data) {
			return nil, fmt.Errorf("inverseBindMatrices out of range")
		}
		mat := &geom.Matrix4{}
		for e := 0; e < 16; e++ {
			mat[e] = math.Float32frombits(binary.LittleEndian.Uint32(data[int(offset)+e*4:]))
		}
		mats = append(mats, mat)
	}
	return mats, nil
}

func (s *Scene) loadBlendShape(m *Mesh, n *gltf.Node, gm *gltf.Mesh, prims []*gltf.Primitive) error {
	extras, _ := gm.Extras.(map[string]interface{})
	targetCount := 0
	for _, p := range prims {
		if len(p.Targets) > targetCount {
			targetCount = len(p.Targets)
		}
	}
	bsName, _ := extras["blendShape"].(string)
	if targetCount == 0 && bsName == "" {
		return nil
	}
	if bsName == "" {
		bsName = m.Name + "_blendShape"
	}
	bs, err := s.AddBlendShape(bsName, m.Name)
	if err != nil {
		return err
	}
	if env, ok := floatExtra(extras["envelope"]); ok {
		bs.Envelope = env
	}

	names := stringsExtra(extras["targetNames"])
	indices := intsExtra(extras["targetIndices"])
	weights := gm.Weights
	if len(n.Weights) > 0 {
		weights = n.Weights
	}

	src := s.sources[m]
	for t := 0; t < targetCount; t++ {
		deltas := make([]geom.Vector3, len(m.Points))
		for pi, p := range prims {
			if t >= len(p.Targets) {
				continue
			}
			a, ok := p.Targets[t]["POSITION"]
			if !ok {
				continue
			}
			acr := s.doc.Accessors[a]
			if acr.Sparse != nil {
				return fmt.Errorf("target %d: sparse accessor not supported", t)
			}
			pos, err := modeler.ReadPosition(s.doc, acr, [][3]float32{})
			if err != nil {
				return err
			}
			part := src.parts[pi]
			for i := 0; i < part.count && i < len(pos); i++ {
				deltas[part.offset+i] = *geom.NewVector3FromArray(pos[i])
			}
		}

		target := &Target{Name: fmt.Sprintf("target%d", t), Index: t}
		if t < len(names) && names[t] != "" {
			target.Name = names[t]
		}
		if t < len(indices) {
			target.Index = indices[t]
		}
		if t < len(weights) {
			target.Weight = weights[t]
		}
		var vertices []int
		for i, d := range deltas {
			if !d.IsZero() {
				vertices = append(vertices, i)
				target.Points = append(target.Points, d.Point())
			}
		}
		target.Components = shape.CondenseIndices(vertices)
		if bs.Target(target.Index) != nil || bs.TargetByName(target.Name) != nil {
			return fmt.Errorf("%w: %q (%d)", ErrTargetExists, target.Name, target.Index)
		}
		bs.Targets = append(bs.Targets, target)
	}
	sortTargets(bs)

	if list, ok := extras["combinations"].([]interface{}); ok {
		for _, c := range list {
			rule, ok := combinationExtra(c)
			if !ok {
				log.Print("skip invalid combination: ", c)
				continue
			}
			if err := s.AddCombination(bs.Name, rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// Document returns the source document with deformer data written back.
func (s *Scene) Document() (*gltf.Document, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("scene was not loaded from a glTF document")
	}
	for _, m := range s.Meshes {
		src, ok := s.sources[m]
		if !ok || m.gltfMesh < 0 || m.Deformer == "" {
			continue
		}
		bs, err := s.deformer(m.Deformer)
		if err != nil {
			return nil, err
		}
		if err := s.writeBlendShape(m, src, bs); err != nil {
			return nil, err
		}
	}
	return s.doc, nil
}

func (s *Scene) writeBlendShape(m *Mesh, src *gltfSource, bs *BlendShape) error {
	gm := s.doc.Meshes[m.gltfMesh]

	accessors := make([][]uint32, len(src.parts)) // [part][target]
	var names []string
	var indices []int
	var weights []float32
	for _, t := range bs.Targets {
		deltas := make([][3]float32, len(m.Points))
		vertices, err := shape.ExpandComponentList(t.Components)
		if err != nil {
			return err
		}
		if len(vertices) != len(t.Points) {
			return fmt.Errorf("target %q: %w", t.Name, shape.ErrOffsetLength)
		}
		for i, v := range vertices {
			if v < len(deltas) {
				deltas[v] = t.Points[i].Vector3().Array()
			}
		}
		for pi, part := range src.parts {
			accessors[pi] = append(accessors[pi], modeler.WritePosition(s.doc, deltas[part.offset:part.offset+part.count]))
		}
		names = append(names, t.Name)
		indices = append(indices, t.Index)
		weights = append(weights, t.Weight)
	}

	for _, p := range gm.Primitives {
		a, ok := p.Attributes["POSITION"]
		if !ok {
			continue
		}
		pi := -1
		for i, part := range src.parts {
			if part.accessor == a {
				pi = i
			}
		}
		if pi < 0 {
			continue
		}
		p.Targets = nil
		for _, acr := range accessors[pi] {
			p.Targets = append(p.Targets, map[string]uint32{"POSITION": acr})
		}
	}

	gm.Weights = weights
	for _, node := range s.doc.Nodes {
		if node.Mesh != nil && int(*node.Mesh) == m.gltfMesh && len(node.Weights) > 0 {
			node.Weights = weights
		}
	}

	extras, ok := gm.Extras.(map[string]interface{})
	if !ok {
		extras = map[string]interface{}{}
	}
	extras["blendShape"] = bs.Name
	extras["envelope"] = bs.Envelope
	extras["targetNames"] = names
	extras["targetIndices"] = indices
	var combinations []interface{}
	for _, c := range bs.Combinations {
		combinations = append(combinations, map[string]interface{}{
			"output":  c.Output,
			"drivers": c.Drivers,
			"method":  int(c.Method),
		})
	}
	if len(combinations) > 0 {
		extras["combinations"] = combinations
	} else {
		delete(extras, "combinations")
	}
	gm.Extras = extras
	return nil
}
