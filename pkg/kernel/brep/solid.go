package brep

import (
	"fmt"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
	"github.com/philipparndt/stepcolor/pkg/step"
)

// Compile-time interface checks.
var (
	_ kernel.Solid = (*solid)(nil)
	_ kernel.Face  = (*face)(nil)
)

// rootTypes are the entities a solid is assembled from
var rootTypes = []string{"MANIFOLD_SOLID_BREP", "BREP_WITH_VOIDS", "SHELL_BASED_SURFACE_MODEL"}

// representationTypes are the shape representations that own solid items
var representationTypes = []string{
	"ADVANCED_BREP_SHAPE_REPRESENTATION",
	"MANIFOLD_SURFACE_SHAPE_REPRESENTATION",
	"FACETED_BREP_SHAPE_REPRESENTATION",
	"SHAPE_REPRESENTATION",
}

// solid wraps a parsed model together with the faces of its B-rep roots
type solid struct {
	model   *step.Model
	roots   []int
	faces   []*face
	context int
	bounds  geometry.BoundingBox
	closed  bool
}

// face is one ADVANCED_FACE or FACE_SURFACE of a solid
type face struct {
	owner   *solid
	id      int
	surf    surface
	flipped bool
	domain  geometry.Domain
	area    float64
	areaErr error
}

// newSolid resolves the B-rep structure of m
func newSolid(m *step.Model) (*solid, error) {
	s := &solid{model: m, bounds: geometry.NewBoundingBox()}
	r := newReader(m)

	for _, e := range m.Entities() {
		for _, typ := range rootTypes {
			if e.Is(typ) {
				s.roots = append(s.roots, e.ID)
			}
		}
	}
	if len(s.roots) == 0 {
		return nil, kernel.ErrNoSolid
	}

	seen := make(map[int]bool)
	for _, root := range s.roots {
		shells, err := r.rootShells(root)
		if err != nil {
			return nil, err
		}
		for _, sh := range shells {
			for _, ref := range sh.faces {
				if seen[ref.id] {
					continue
				}
				seen[ref.id] = true

				f, err := s.buildFace(r, ref.id, ref.flipped != sh.flipped)
				if err != nil {
					return nil, fmt.Errorf("face #%d: %w", ref.id, err)
				}
				s.faces = append(s.faces, f)
			}
		}
	}

	s.context = findContext(m, s.roots)
	return s, nil
}

type faceRef struct {
	id      int
	flipped bool
}

type shell struct {
	faces   []faceRef
	flipped bool
}

// rootShells lists the shells of a solid root in file order
func (r *reader) rootShells(id int) ([]shell, error) {
	e, err := r.entity(id, rootTypes...)
	if err != nil {
		return nil, err
	}

	var shellIDs []int
	switch e.Type() {
	case "MANIFOLD_SOLID_BREP":
		outer, err := r.ref(e, 1)
		if err != nil {
			return nil, err
		}
		shellIDs = []int{outer}
	case "BREP_WITH_VOIDS":
		outer, err := r.ref(e, 1)
		if err != nil {
			return nil, err
		}
		voids, err := r.refs(e, 2)
		if err != nil {
			return nil, err
		}
		shellIDs = append([]int{outer}, voids...)
	case "SHELL_BASED_SURFACE_MODEL":
		if shellIDs, err = r.refs(e, 1); err != nil {
			return nil, err
		}
	}

	shells := make([]shell, 0, len(shellIDs))
	for _, sid := range shellIDs {
		sh, err := r.shell(sid)
		if err != nil {
			return nil, err
		}
		shells = append(shells, sh)
	}
	return shells, nil
}

// shell reads a CLOSED_SHELL or OPEN_SHELL, possibly wrapped in an
// ORIENTED_CLOSED_SHELL or ORIENTED_OPEN_SHELL
func (r *reader) shell(id int) (shell, error) {
	e, err := r.entity(id, "CLOSED_SHELL", "OPEN_SHELL", "ORIENTED_CLOSED_SHELL", "ORIENTED_OPEN_SHELL")
	if err != nil {
		return shell{}, err
	}

	if e.Type() == "ORIENTED_CLOSED_SHELL" || e.Type() == "ORIENTED_OPEN_SHELL" {
		if err := r.enter(id); err != nil {
			return shell{}, err
		}
		defer r.leave(id)

		inner, err := r.ref(e, 2)
		if err != nil {
			return shell{}, err
		}
		orientation, err := r.flag(e, 3)
		if err != nil {
			return shell{}, err
		}
		sh, err := r.shell(inner)
		if err != nil {
			return shell{}, err
		}
		sh.flipped = sh.flipped != !orientation
		return sh, nil
	}

	ids, err := r.refs(e, 1)
	if err != nil {
		return shell{}, err
	}
	sh := shell{faces: make([]faceRef, 0, len(ids))}
	for _, fid := range ids {
		ref, err := r.faceRef(fid)
		if err != nil {
			return shell{}, err
		}
		sh.faces = append(sh.faces, ref)
	}
	return sh, nil
}

// faceRef unwraps ORIENTED_FACE down to the face that carries geometry
func (r *reader) faceRef(id int) (faceRef, error) {
	e, err := r.entity(id, "ADVANCED_FACE", "FACE_SURFACE", "ORIENTED_FACE")
	if err != nil {
		return faceRef{}, err
	}
	if e.Type() != "ORIENTED_FACE" {
		return faceRef{id: id}, nil
	}
	if err := r.enter(id); err != nil {
		return faceRef{}, err
	}
	defer r.leave(id)

	inner, err := r.ref(e, 2)
	if err != nil {
		return faceRef{}, err
	}
	orientation, err := r.flag(e, 3)
	if err != nil {
		return faceRef{}, err
	}
	ref, err := r.faceRef(inner)
	if err != nil {
		return faceRef{}, err
	}
	ref.flipped = ref.flipped != !orientation
	return ref, nil
}

func (s *solid) buildFace(r *reader, id int, flipped bool) (*face, error) {
	e, err := r.entity(id, "ADVANCED_FACE", "FACE_SURFACE")
	if err != nil {
		return nil, err
	}
	boundIDs, err := r.refs(e, 1)
	if err != nil {
		return nil, err
	}
	surfID, err := r.ref(e, 2)
	if err != nil {
		return nil, err
	}
	sameSense, err := r.flag(e, 3)
	if err != nil {
		return nil, err
	}
	surf, err := r.surface(surfID)
	if err != nil {
		return nil, err
	}

	loops := make([]loop, 0, len(boundIDs))
	var points []geometry.Vector3
	for _, bid := range boundIDs {
		l, err := r.bound(bid)
		if err != nil {
			return nil, err
		}
		loops = append(loops, l)
		points = append(points, l.points...)
	}
	for _, p := range points {
		s.bounds.Extend(p)
	}

	f := &face{
		owner:   s,
		id:      id,
		surf:    surf,
		flipped: flipped != !sameSense,
	}
	if len(points) == 0 {
		f.areaErr = fmt.Errorf("face #%d has no bounds", id)
		return f, nil
	}
	f.domain = surf.domain(loops, sameSense)
	f.area, f.areaErr = surf.area(f.domain, loops)
	return f, nil
}

// findContext returns the representation context the roots live in, or 0
func findContext(m *step.Model, roots []int) int {
	isRoot := make(map[int]bool, len(roots))
	for _, id := range roots {
		isRoot[id] = true
	}

	for _, typ := range representationTypes {
		for _, e := range m.OfType(typ) {
			params := e.Params()
			if len(params) < 3 {
				continue
			}
			items, err := params[1].AsRefs()
			if err != nil {
				continue
			}
			for _, item := range items {
				if !isRoot[item] {
					continue
				}
				if ctx, err := params[2].AsRef(); err == nil {
					return ctx
				}
			}
		}
	}

	for _, e := range m.Entities() {
		if e.Has("GEOMETRIC_REPRESENTATION_CONTEXT") {
			return e.ID
		}
	}
	return 0
}

func (s *solid) Faces() []kernel.Face {
	if s.closed {
		return nil
	}
	out := make([]kernel.Face, len(s.faces))
	for i, f := range s.faces {
		out[i] = f
	}
	return out
}

func (s *solid) BoundingBox() geometry.BoundingBox {
	return s.bounds
}

func (s *solid) Close() error {
	s.closed = true
	s.model = nil
	s.faces = nil
	return nil
}

// owns reports whether f is a live face handle of s
func (s *solid) owns(f kernel.Face) (*face, bool) {
	bf, ok := f.(*face)
	if !ok || bf.owner != s {
		return nil, false
	}
	return bf, true
}

func (f *face) ID() int {
	return f.id
}

func (f *face) Kind() string {
	return f.surf.kind()
}

func (f *face) Domain() geometry.Domain {
	return f.domain
}

func (f *face) Value(u, v float64) (geometry.Vector3, error) {
	return f.surf.value(u, v)
}

func (f *face) Normal(u, v float64) (geometry.Vector3, error) {
	n, err := f.surf.normal(u, v)
	if err != nil {
		return n, err
	}
	if f.flipped {
		n = n.Mul(-1)
	}
	return n, nil
}

func (f *face) Area() (float64, error) {
	return f.area, f.areaErr
}

func (f *face) String() string {
	return fmt.Sprintf("#%d %s", f.id, f.surf.kind())
}
