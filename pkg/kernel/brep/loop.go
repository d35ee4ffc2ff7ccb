package brep

import (
	"fmt"
	"math"

	"github.com/philipparndt/stepcolor/pkg/geometry"
)

// loop is one face boundary sampled into a closed polygon
type loop struct {
	points []geometry.Vector3
	outer  bool
}

// bound reads a FACE_BOUND or FACE_OUTER_BOUND
func (r *reader) bound(id int) (loop, error) {
	e, err := r.entity(id, "FACE_BOUND", "FACE_OUTER_BOUND")
	if err != nil {
		return loop{}, err
	}
	loopID, err := r.ref(e, 1)
	if err != nil {
		return loop{}, err
	}
	orientation, err := r.flag(e, 2)
	if err != nil {
		return loop{}, err
	}

	points, err := r.loopPoints(loopID)
	if err != nil {
		return loop{}, err
	}
	if !orientation {
		reverse(points)
	}
	return loop{points: points, outer: e.Type() == "FACE_OUTER_BOUND"}, nil
}

func (r *reader) loopPoints(id int) ([]geometry.Vector3, error) {
	e, err := r.entity(id, "EDGE_LOOP", "POLY_LOOP", "VERTEX_LOOP")
	if err != nil {
		return nil, err
	}

	switch e.Type() {
	case "VERTEX_LOOP":
		vertex, err := r.ref(e, 1)
		if err != nil {
			return nil, err
		}
		p, err := r.vertex(vertex)
		if err != nil {
			return nil, err
		}
		return []geometry.Vector3{p}, nil

	case "POLY_LOOP":
		ids, err := r.refs(e, 1)
		if err != nil {
			return nil, err
		}
		points := make([]geometry.Vector3, 0, len(ids))
		for _, pid := range ids {
			p, err := r.point(pid)
			if err != nil {
				return nil, err
			}
			points = append(points, p)
		}
		return points, nil
	}

	edges, err := r.refs(e, 1)
	if err != nil {
		return nil, err
	}
	var points []geometry.Vector3
	for _, oe := range edges {
		sampled, err := r.orientedEdge(oe)
		if err != nil {
			return nil, fmt.Errorf("edge loop #%d: %w", id, err)
		}
		// The last point of an edge is the first point of the next one.
		if len(sampled) > 1 {
			sampled = sampled[:len(sampled)-1]
		}
		points = append(points, sampled...)
	}
	return points, nil
}

// orientedEdge samples an ORIENTED_EDGE from its start to its end
func (r *reader) orientedEdge(id int) ([]geometry.Vector3, error) {
	e, err := r.entity(id, "ORIENTED_EDGE")
	if err != nil {
		return nil, err
	}
	edgeID, err := r.ref(e, 3)
	if err != nil {
		return nil, err
	}
	orientation, err := r.flag(e, 4)
	if err != nil {
		return nil, err
	}

	points, err := r.edgeCurve(edgeID)
	if err != nil {
		return nil, err
	}
	if !orientation {
		reverse(points)
	}
	return points, nil
}

// edgeCurve samples an EDGE_CURVE from its start vertex to its end vertex
func (r *reader) edgeCurve(id int) ([]geometry.Vector3, error) {
	e, err := r.entity(id, "EDGE_CURVE")
	if err != nil {
		return nil, err
	}
	startID, err := r.ref(e, 1)
	if err != nil {
		return nil, err
	}
	endID, err := r.ref(e, 2)
	if err != nil {
		return nil, err
	}
	curveID, err := r.ref(e, 3)
	if err != nil {
		return nil, err
	}
	sameSense, err := r.flag(e, 4)
	if err != nil {
		return nil, err
	}

	start, err := r.vertex(startID)
	if err != nil {
		return nil, err
	}
	end, err := r.vertex(endID)
	if err != nil {
		return nil, err
	}

	c, err := r.conic(curveID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return []geometry.Vector3{start, end}, nil
	}
	return c.sample(start, end, sameSense), nil
}

func (r *reader) vertex(id int) (geometry.Vector3, error) {
	e, err := r.entity(id, "VERTEX_POINT")
	if err != nil {
		return geometry.Vector3{}, err
	}
	pid, err := r.ref(e, 1)
	if err != nil {
		return geometry.Vector3{}, err
	}
	return r.point(pid)
}

// conic is a circle or an ellipse: P(t) = O + a·cos t·X + b·sin t·Y
type conic struct {
	f    frame
	a, b float64
}

// conic reads the 3D curve of an edge. Curves other than circles and
// ellipses yield nil and are approximated by their end points.
func (r *reader) conic(id int) (*conic, error) {
	e, err := r.entity(id)
	if err != nil {
		return nil, err
	}
	if e.Complex {
		return nil, nil
	}

	switch e.Type() {
	case "SURFACE_CURVE", "SEAM_CURVE", "INTERSECTION_CURVE":
		if err := r.enter(id); err != nil {
			return nil, err
		}
		defer r.leave(id)

		inner, err := r.ref(e, 1)
		if err != nil {
			return nil, err
		}
		return r.conic(inner)

	case "CIRCLE":
		f, err := r.position(e)
		if err != nil {
			return nil, err
		}
		radius, err := r.float(e, 2)
		if err != nil {
			return nil, err
		}
		if radius <= 0 {
			return nil, fmt.Errorf("#%d CIRCLE: radius %g must be positive", id, radius)
		}
		return &conic{f: f, a: radius, b: radius}, nil

	case "ELLIPSE":
		f, err := r.position(e)
		if err != nil {
			return nil, err
		}
		a, err := r.float(e, 2)
		if err != nil {
			return nil, err
		}
		b, err := r.float(e, 3)
		if err != nil {
			return nil, err
		}
		if a <= 0 || b <= 0 {
			return nil, fmt.Errorf("#%d ELLIPSE: semi-axes %g and %g must be positive", id, a, b)
		}
		return &conic{f: f, a: a, b: b}, nil
	}
	return nil, nil
}

func (c *conic) param(p geometry.Vector3) float64 {
	x, y, _ := c.f.local(p)
	return math.Atan2(y/c.b, x/c.a)
}

func (c *conic) at(t float64) geometry.Vector3 {
	return c.f.origin.Add(c.f.x.Mul(c.a * math.Cos(t))).Add(c.f.y.Mul(c.b * math.Sin(t)))
}

// sample walks the curve from start to end. When sameSense is false the
// edge runs against the curve's parametrisation.
func (c *conic) sample(start, end geometry.Vector3, sameSense bool) []geometry.Vector3 {
	ts, te := c.param(start), c.param(end)

	var sweep float64
	if sameSense {
		sweep = normalizeAngle(te - ts)
	} else {
		sweep = -normalizeAngle(ts - te)
	}
	if math.Abs(sweep) < 1e-9 {
		// Coincident end points: the edge is the whole curve.
		sweep = 2 * math.Pi
		if !sameSense {
			sweep = -sweep
		}
	}

	n := int(math.Ceil(math.Abs(sweep) / (2 * math.Pi) * segmentsPerTurn))
	if n < 2 {
		n = 2
	}
	points := make([]geometry.Vector3, 0, n+1)
	points = append(points, start)
	for i := 1; i < n; i++ {
		points = append(points, c.at(ts+sweep*float64(i)/float64(n)))
	}
	return append(points, end)
}

func reverse(points []geometry.Vector3) {
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
}
