package brep

import (
	"fmt"
	"math"
	"slices"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/step"
)

// reader resolves typed entities out of a model
type reader struct {
	m *step.Model
	// angleFactor converts plane angle values of the file into radians
	angleFactor float64
	// visiting holds the wrapper instances being unwrapped on the current path
	visiting map[int]bool
}

func newReader(m *step.Model) *reader {
	return &reader{m: m, angleFactor: planeAngleFactor(m), visiting: make(map[int]bool)}
}

// enter marks id as being unwrapped and fails when it already is, which
// means the file references itself in a loop
func (r *reader) enter(id int) error {
	if r.visiting[id] {
		return fmt.Errorf("reference cycle at #%d", id)
	}
	r.visiting[id] = true
	return nil
}

func (r *reader) leave(id int) {
	delete(r.visiting, id)
}

// entity returns the simple instance id, checking that it has one of types
func (r *reader) entity(id int, types ...string) (*step.Entity, error) {
	e, ok := r.m.Get(id)
	if !ok {
		return nil, fmt.Errorf("dangling reference #%d", id)
	}
	if len(types) > 0 && (e.Complex || !slices.Contains(types, e.Type())) {
		return nil, fmt.Errorf("#%d: expected %v, found %s", id, types, e.Type())
	}
	return e, nil
}

// ref resolves parameter i of e as a reference
func (r *reader) ref(e *step.Entity, i int) (int, error) {
	p, err := e.Param(i)
	if err != nil {
		return 0, err
	}
	id, err := p.AsRef()
	if err != nil {
		return 0, fmt.Errorf("#%d %s parameter %d: %w", e.ID, e.Type(), i, err)
	}
	return id, nil
}

func (r *reader) float(e *step.Entity, i int) (float64, error) {
	p, err := e.Param(i)
	if err != nil {
		return 0, err
	}
	v, err := p.AsFloat()
	if err != nil {
		return 0, fmt.Errorf("#%d %s parameter %d: %w", e.ID, e.Type(), i, err)
	}
	return v, nil
}

func (r *reader) flag(e *step.Entity, i int) (bool, error) {
	p, err := e.Param(i)
	if err != nil {
		return false, err
	}
	v, err := p.AsBool()
	if err != nil {
		return false, fmt.Errorf("#%d %s parameter %d: %w", e.ID, e.Type(), i, err)
	}
	return v, nil
}

func (r *reader) refs(e *step.Entity, i int) ([]int, error) {
	p, err := e.Param(i)
	if err != nil {
		return nil, err
	}
	ids, err := p.AsRefs()
	if err != nil {
		return nil, fmt.Errorf("#%d %s parameter %d: %w", e.ID, e.Type(), i, err)
	}
	return ids, nil
}

// triple reads a three component coordinate list
func (r *reader) triple(id int, typ string) (geometry.Vector3, error) {
	e, err := r.entity(id, typ)
	if err != nil {
		return geometry.Vector3{}, err
	}
	p, err := e.Param(1)
	if err != nil {
		return geometry.Vector3{}, err
	}
	c, err := p.AsFloats()
	if err != nil {
		return geometry.Vector3{}, fmt.Errorf("#%d %s: %w", id, typ, err)
	}
	if len(c) != 3 {
		return geometry.Vector3{}, fmt.Errorf("#%d %s: expected 3 coordinates, found %d", id, typ, len(c))
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

func (r *reader) point(id int) (geometry.Vector3, error) {
	return r.triple(id, "CARTESIAN_POINT")
}

func (r *reader) direction(id int) (geometry.Vector3, error) {
	d, err := r.triple(id, "DIRECTION")
	if err != nil {
		return d, err
	}
	if d.IsZero() {
		return d, fmt.Errorf("#%d DIRECTION: zero length", id)
	}
	return d.Normalize(), nil
}

// optionalDirection reads parameter i of e as a direction, falling back to
// def when it is unset
func (r *reader) optionalDirection(e *step.Entity, i int, def geometry.Vector3) (geometry.Vector3, error) {
	p, err := e.Param(i)
	if err != nil || p.IsUnset() {
		return def, nil
	}
	id, err := p.AsRef()
	if err != nil {
		return def, fmt.Errorf("#%d parameter %d: %w", e.ID, i, err)
	}
	return r.direction(id)
}

// placement reads an AXIS2_PLACEMENT_3D into an orthonormal frame
func (r *reader) placement(id int) (frame, error) {
	e, err := r.entity(id, "AXIS2_PLACEMENT_3D")
	if err != nil {
		return frame{}, err
	}
	locID, err := r.ref(e, 1)
	if err != nil {
		return frame{}, err
	}
	origin, err := r.point(locID)
	if err != nil {
		return frame{}, err
	}
	z, err := r.optionalDirection(e, 2, geometry.Up)
	if err != nil {
		return frame{}, err
	}
	ref, err := r.optionalDirection(e, 3, geometry.XAxis)
	if err != nil {
		return frame{}, err
	}

	// Project the reference direction onto the plane normal to z.
	x := ref.Sub(z.Mul(ref.Dot(z)))
	if x.Length() < 1e-12 {
		x = geometry.XAxis.Sub(z.Mul(z.X))
		if x.Length() < 1e-12 {
			x = geometry.YAxis.Sub(z.Mul(z.Y))
		}
	}
	x = x.Normalize()
	return frame{origin: origin, x: x, y: z.Cross(x), z: z}, nil
}

// surface reads the geometry a face lies on
func (r *reader) surface(id int) (surface, error) {
	e, err := r.entity(id)
	if err != nil {
		return nil, err
	}
	if e.Complex {
		return unsupported{typ: e.Type()}, nil
	}

	switch e.Type() {
	case "PLANE":
		f, err := r.position(e)
		if err != nil {
			return nil, err
		}
		return plane{f: f}, nil

	case "CYLINDRICAL_SURFACE":
		f, err := r.position(e)
		if err != nil {
			return nil, err
		}
		radius, err := r.float(e, 2)
		if err != nil {
			return nil, err
		}
		return cylinder{f: f, radius: radius}, nil

	case "CONICAL_SURFACE":
		f, err := r.position(e)
		if err != nil {
			return nil, err
		}
		radius, err := r.float(e, 2)
		if err != nil {
			return nil, err
		}
		semi, err := r.float(e, 3)
		if err != nil {
			return nil, err
		}
		return cone{f: f, radius: radius, semiAngle: semi * r.angleFactor}, nil

	case "SPHERICAL_SURFACE":
		f, err := r.position(e)
		if err != nil {
			return nil, err
		}
		radius, err := r.float(e, 2)
		if err != nil {
			return nil, err
		}
		return sphere{f: f, radius: radius}, nil
	}
	return unsupported{typ: e.Type()}, nil
}

func (r *reader) position(e *step.Entity) (frame, error) {
	id, err := r.ref(e, 1)
	if err != nil {
		return frame{}, err
	}
	return r.placement(id)
}

// planeAngleFactor finds the plane angle unit of the file. The unit
// assigned by a GLOBAL_UNIT_ASSIGNED_CONTEXT wins; otherwise the first
// conversion based plane angle unit is used. Files in degrees declare a
// CONVERSION_BASED_UNIT whose measure gives the size of one degree in
// radians.
func planeAngleFactor(m *step.Model) float64 {
	for _, e := range m.Entities() {
		rec, ok := e.Record("GLOBAL_UNIT_ASSIGNED_CONTEXT")
		if !ok || len(rec.Params) == 0 {
			continue
		}
		units, err := rec.Params[0].AsRefs()
		if err != nil {
			continue
		}
		for _, id := range units {
			if u, ok := m.Get(id); ok && u.Has("PLANE_ANGLE_UNIT") {
				return unitFactor(m, u)
			}
		}
	}

	for _, e := range m.Entities() {
		if e.Has("PLANE_ANGLE_UNIT") && e.Has("CONVERSION_BASED_UNIT") {
			return unitFactor(m, e)
		}
	}
	return 1
}

// unitFactor returns the size of a plane angle unit in radians
func unitFactor(m *step.Model, unit *step.Entity) float64 {
	conv, ok := unit.Record("CONVERSION_BASED_UNIT")
	if !ok || len(conv.Params) < 2 {
		return 1
	}
	id, err := conv.Params[1].AsRef()
	if err != nil {
		return 1
	}
	measure, ok := m.Get(id)
	if !ok || len(measure.Params()) == 0 {
		return 1
	}
	f, err := measure.Params()[0].AsFloat()
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return 1
	}
	return f
}
