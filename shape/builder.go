package shape

import (
	"fmt"
	"log"
	"sort"
)

// ActiveWeightThreshold is the weight above which a target counts as a driver.
const ActiveWeightThreshold = 0.001

// Request names the meshes and deformer of one corrective target.
type Request struct {
	Source   string // skinned mesh carrying the deformer
	Sculpted string // sculpt in posed space
	Deformer string
	Name     string // target alias; defaults to the inverted mesh name
}

type DriverReport struct {
	Name    string
	Index   int
	Weight  float32
	Offsets []Offset // subtracted, before scaling by Weight
}

type Result struct {
	Index       int
	Target      string
	Combination *CombinationRule
	Drivers     []*DriverReport
	Written     []Offset
}

type Builder struct {
	host Host
}

func NewBuilder(host Host) *Builder {
	return &Builder{host: host}
}

// NextTargetIndex returns max(index) + 1, or 0 if there are no targets.
func NextTargetIndex(targets []TargetRef) int {
	next := 0
	for _, t := range targets {
		if t.Index >= next {
			next = t.Index + 1
		}
	}
	return next
}

func (b *Builder) validate(req *Request) error {
	if req.Source == "" || req.Sculpted == "" {
		return fmt.Errorf("%w: source=%q sculpted=%q", ErrSelection, req.Source, req.Sculpted)
	}
	for _, name := range []string{req.Source, req.Sculpted} {
		if !b.host.HasMesh(name) {
			return fmt.Errorf("%w: %q", ErrMeshNotFound, name)
		}
	}
	if !b.host.HasDeformer(req.Deformer) {
		return fmt.Errorf("%w: %q", ErrDeformerNotFound, req.Deformer)
	}
	srcCount, err := b.host.VertexCount(req.Source)
	if err != nil {
		return err
	}
	sculptCount, err := b.host.VertexCount(req.Sculpted)
	if err != nil {
		return err
	}
	if srcCount != sculptCount {
		return fmt.Errorf("%w: %q has %d vertices, %q has %d",
			ErrVertexCountMismatch, req.Source, srcCount, req.Sculpted, sculptCount)
	}
	if req.Name == "" {
		return nil
	}
	// the inverted mesh is renamed to the alias, so it must be free as a mesh name too
	if b.host.HasMesh(req.Name) {
		return fmt.Errorf("%w: mesh %q exists", ErrNameInUse, req.Name)
	}
	targets, err := b.host.Targets(req.Deformer)
	if err != nil {
		return err
	}
	for _, t := range targets {
		if t.Name == req.Name {
			return fmt.Errorf("%w: %q is target %d of %q", ErrNameInUse, req.Name, t.Index, req.Deformer)
		}
	}
	return nil
}

// withEnvelopeDisabled runs f with the deformer envelope at 0 and restores the
// previous envelope afterwards, whatever f returns.
func (b *Builder) withEnvelopeDisabled(deformer string, f func() error) (err error) {
	prev, err := b.host.Envelope(deformer)
	if err != nil {
		return err
	}
	if err := b.host.SetEnvelope(deformer, 0); err != nil {
		return err
	}
	defer func() {
		if rerr := b.host.SetEnvelope(deformer, prev); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return f()
}

func (b *Builder) invert(req *Request) (string, error) {
	var inverted string
	err := b.withEnvelopeDisabled(req.Deformer, func() error {
		var err error
		inverted, err = Invert(b.host, req.Source, req.Sculpted)
		return err
	})
	return inverted, err
}

// activeDrivers returns the targets weighted above ActiveWeightThreshold,
// ordered by index.
func (b *Builder) activeDrivers(deformer string, targets []TargetRef) ([]*DriverReport, error) {
	sorted := append([]TargetRef(nil), targets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	var drivers []*DriverReport
	for _, t := range sorted {
		w, err := b.host.Weight(deformer, t.Index)
		if err != nil {
			return nil, err
		}
		if w > ActiveWeightThreshold {
			drivers = append(drivers, &DriverReport{Name: t.Name, Index: t.Index, Weight: w})
		}
	}
	return drivers, nil
}

// subtract removes the current contribution of a driver from mesh.
func (b *Builder) subtract(mesh, deformer string, d *DriverReport) error {
	table, err := ExtractOffsets(b.host, mesh, deformer, d.Index)
	if err != nil {
		return fmt.Errorf("target %q: %w", d.Name, err)
	}
	clean, err := table.Clean()
	if err != nil {
		return fmt.Errorf("target %q: %w", d.Name, err)
	}
	d.Offsets = clean.Offsets()
	for _, o := range d.Offsets {
		delta := o.Delta.Vector3().Scale(d.Weight).Negate()
		if err := b.host.TranslateVertex(mesh, o.Vertex, delta); err != nil {
			return err
		}
	}
	return nil
}

// AddRegularTarget appends the inverted sculpt as a new target with weight 0.
func (b *Builder) AddRegularTarget(req *Request) (*Result, error) {
	return b.build(req, false)
}

// AddCombinationTarget appends the inverted sculpt minus the contribution of
// every active target, and drives it by those targets.
func (b *Builder) AddCombinationTarget(req *Request) (*Result, error) {
	return b.build(req, true)
}

func (b *Builder) build(req *Request, combination bool) (*Result, error) {
	if err := b.validate(req); err != nil {
		return nil, err
	}

	tmp, err := b.invert(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := b.host.DeleteMesh(tmp); err != nil {
			log.Print("delete ", tmp, ": ", err)
		}
	}()

	targets, err := b.host.Targets(req.Deformer)
	if err != nil {
		return nil, err
	}
	result := &Result{Index: NextTargetIndex(targets)}

	if combination {
		if result.Drivers, err = b.activeDrivers(req.Deformer, targets); err != nil {
			return nil, err
		}
		for _, d := range result.Drivers {
			if err := b.subtract(tmp, req.Deformer, d); err != nil {
				return nil, err
			}
		}
	}

	if req.Name != "" && req.Name != tmp {
		if tmp, err = b.host.RenameMesh(tmp, req.Name); err != nil {
			return nil, err
		}
		if tmp != req.Name {
			return nil, fmt.Errorf("%w: renamed to %q", ErrNameInUse, tmp)
		}
	}
	result.Target = tmp

	if err := b.host.AddTarget(req.Deformer, req.Source, result.Index, tmp, 0); err != nil {
		return nil, err
	}

	if combination {
		rule := &CombinationRule{Output: result.Index, Method: CombineMultiply, Drivers: []int{}}
		for _, d := range result.Drivers {
			rule.Drivers = append(rule.Drivers, d.Index)
		}
		if err := b.host.AddCombination(req.Deformer, rule); err != nil {
			return nil, err
		}
		result.Combination = rule
	}

	written, err := ExtractOffsets(b.host, req.Source, req.Deformer, result.Index)
	if err != nil {
		return nil, err
	}
	clean, err := written.Clean()
	if err != nil {
		return nil, err
	}
	result.Written = clean.Offsets()

	log.Printf("added target %q at index %d (%d drivers, %d offsets)",
		result.Target, result.Index, len(result.Drivers), len(result.Written))
	return result, nil
}
