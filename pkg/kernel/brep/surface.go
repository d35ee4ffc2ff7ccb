package brep

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
)

// segmentsPerTurn controls how finely circular edges are sampled
const segmentsPerTurn = 64

// frame is a right-handed placement: origin plus orthonormal axes
type frame struct {
	origin  geometry.Vector3
	x, y, z geometry.Vector3
}

func (f frame) local(p geometry.Vector3) (x, y, z float64) {
	d := p.Sub(f.origin)
	return d.Dot(f.x), d.Dot(f.y), d.Dot(f.z)
}

// radial returns cos(u)·x + sin(u)·y
func (f frame) radial(u float64) geometry.Vector3 {
	return f.x.Mul(math.Cos(u)).Add(f.y.Mul(math.Sin(u)))
}

// winding returns how often the loops turn around the z axis, counted
// positive counter-clockwise
func (f frame) winding(loops []loop) int {
	var total float64
	for _, l := range loops {
		angles := make([]float64, 0, len(l.points))
		for _, p := range l.points {
			x, y, _ := f.local(p)
			if math.Hypot(x, y) > 1e-12 {
				angles = append(angles, math.Atan2(y, x))
			}
		}
		for i := range angles {
			total += math.Remainder(angles[(i+1)%len(angles)]-angles[i], 2*math.Pi)
		}
	}
	return int(math.Round(total / (2 * math.Pi)))
}

// surface is an analytic surface with the usual B-rep parametrisation
type surface interface {
	kind() string
	value(u, v float64) (geometry.Vector3, error)
	normal(u, v float64) (geometry.Vector3, error)
	// domain returns the parameter box covered by the face bounded by
	// loops. sameSense tells whether the face normal follows the surface
	// normal, which decides the side a loop encloses.
	domain(loops []loop, sameSense bool) geometry.Domain
	// area returns the area of the face with the given domain and loops
	area(d geometry.Domain, loops []loop) (float64, error)
}

// plane: P(u, v) = O + u·X + v·Y
type plane struct {
	f frame
}

func (s plane) kind() string { return "plane" }

func (s plane) value(u, v float64) (geometry.Vector3, error) {
	return s.f.origin.Add(s.f.x.Mul(u)).Add(s.f.y.Mul(v)), nil
}

func (s plane) normal(u, v float64) (geometry.Vector3, error) {
	return s.f.z, nil
}

func (s plane) domain(loops []loop, _ bool) geometry.Domain {
	d := geometry.NewDomain()
	for _, p := range allPoints(loops) {
		u, v, _ := s.f.local(p)
		d.Extend(u, v)
	}
	return d
}

// area subtracts the inner loops from the outer one. Without an explicit
// outer bound the largest loop is taken as outer.
func (s plane) area(_ geometry.Domain, loops []loop) (float64, error) {
	if len(loops) == 0 {
		return 0, fmt.Errorf("plane face has no bounds")
	}

	areas := make([]float64, len(loops))
	outer := -1
	for i, l := range loops {
		areas[i] = math.Abs(polygonArea(l.points, s.f.z))
		if l.outer {
			outer = i
		}
	}
	if outer < 0 {
		for i := range areas {
			if outer < 0 || areas[i] > areas[outer] {
				outer = i
			}
		}
	}

	total := areas[outer]
	for i, a := range areas {
		if i != outer {
			total -= a
		}
	}
	return math.Max(total, 0), nil
}

// cylinder: P(u, v) = O + r·(cos u·X + sin u·Y) + v·Z
type cylinder struct {
	f      frame
	radius float64
}

func (s cylinder) kind() string { return "cylinder" }

func (s cylinder) value(u, v float64) (geometry.Vector3, error) {
	return s.f.origin.Add(s.f.radial(u).Mul(s.radius)).Add(s.f.z.Mul(v)), nil
}

func (s cylinder) normal(u, v float64) (geometry.Vector3, error) {
	return s.f.radial(u), nil
}

func (s cylinder) domain(loops []loop, _ bool) geometry.Domain {
	points := allPoints(loops)
	angles := make([]float64, 0, len(points))
	d := geometry.NewDomain()
	for _, p := range points {
		x, y, z := s.f.local(p)
		angles = append(angles, math.Atan2(y, x))
		d.VMin, d.VMax = math.Min(d.VMin, z), math.Max(d.VMax, z)
	}
	d.UMin, d.UMax = angularRange(angles)
	return d
}

func (s cylinder) area(d geometry.Domain, _ []loop) (float64, error) {
	return s.radius * d.Width() * d.Height(), nil
}

// cone: P(u, v) = O + (r + v·sin a)·(cos u·X + sin u·Y) + v·cos a·Z
type cone struct {
	f         frame
	radius    float64
	semiAngle float64
}

func (s cone) kind() string { return "cone" }

func (s cone) value(u, v float64) (geometry.Vector3, error) {
	r := s.radius + v*math.Sin(s.semiAngle)
	return s.f.origin.Add(s.f.radial(u).Mul(r)).Add(s.f.z.Mul(v * math.Cos(s.semiAngle))), nil
}

func (s cone) normal(u, v float64) (geometry.Vector3, error) {
	n := s.f.radial(u).Mul(math.Cos(s.semiAngle)).Sub(s.f.z.Mul(math.Sin(s.semiAngle)))
	return n.Normalize(), nil
}

// apex returns the v parameter of the cone apex
func (s cone) apex() float64 {
	return -s.radius / math.Sin(s.semiAngle)
}

// domain extends v to the apex when the loops wind around the axis, as
// for a pointed cone bounded by its base circle only
func (s cone) domain(loops []loop, _ bool) geometry.Domain {
	points := allPoints(loops)
	angles := make([]float64, 0, len(points))
	d := geometry.NewDomain()
	for _, p := range points {
		x, y, z := s.f.local(p)
		v := z / math.Cos(s.semiAngle)
		d.VMin, d.VMax = math.Min(d.VMin, v), math.Max(d.VMax, v)
		// The apex has no meaningful angle.
		if math.Hypot(x, y) > 1e-12 {
			angles = append(angles, math.Atan2(y, x))
		}
	}
	d.UMin, d.UMax = angularRange(angles)
	if s.f.winding(loops) != 0 && math.Sin(s.semiAngle) != 0 {
		apex := s.apex()
		d.VMin, d.VMax = math.Min(d.VMin, apex), math.Max(d.VMax, apex)
	}
	return d
}

func (s cone) area(d geometry.Domain, _ []loop) (float64, error) {
	v0, v1 := d.VMin, d.VMax
	a := d.Width() * (s.radius*(v1-v0) + math.Sin(s.semiAngle)*(v1*v1-v0*v0)/2)
	return math.Abs(a), nil
}

// sphere: P(u, v) = O + r·cos v·(cos u·X + sin u·Y) + r·sin v·Z
type sphere struct {
	f      frame
	radius float64
}

func (s sphere) kind() string { return "sphere" }

func (s sphere) direction(u, v float64) geometry.Vector3 {
	return s.f.radial(u).Mul(math.Cos(v)).Add(s.f.z.Mul(math.Sin(v)))
}

func (s sphere) value(u, v float64) (geometry.Vector3, error) {
	return s.f.origin.Add(s.direction(u, v).Mul(s.radius)), nil
}

func (s sphere) normal(u, v float64) (geometry.Vector3, error) {
	return s.direction(u, v), nil
}

// domain extends v to a pole when the loops wind around the axis. A loop
// running counter-clockwise about the face normal encloses the pole on
// the side that normal points to.
func (s sphere) domain(loops []loop, sameSense bool) geometry.Domain {
	points := allPoints(loops)
	angles := make([]float64, 0, len(points))
	d := geometry.NewDomain()
	for _, p := range points {
		x, y, z := s.f.local(p)
		v := math.Asin(clamp(z/s.radius, -1, 1))
		d.VMin, d.VMax = math.Min(d.VMin, v), math.Max(d.VMax, v)
		if math.Hypot(x, y) > 1e-12 {
			angles = append(angles, math.Atan2(y, x))
		}
	}
	d.UMin, d.UMax = angularRange(angles)

	w := s.f.winding(loops)
	if !sameSense {
		w = -w
	}
	switch {
	case w > 0:
		d.VMax = math.Pi / 2
	case w < 0:
		d.VMin = -math.Pi / 2
	}
	return d
}

func (s sphere) area(d geometry.Domain, _ []loop) (float64, error) {
	return s.radius * s.radius * d.Width() * (math.Sin(d.VMax) - math.Sin(d.VMin)), nil
}

// unsupported stands in for surfaces without an evaluator
type unsupported struct {
	typ string
}

func (s unsupported) kind() string { return s.typ }

func (s unsupported) err() error {
	return fmt.Errorf("%w: %s", kernel.ErrUnsupportedSurface, s.typ)
}

func (s unsupported) value(u, v float64) (geometry.Vector3, error) {
	return geometry.Vector3{}, s.err()
}

func (s unsupported) normal(u, v float64) (geometry.Vector3, error) {
	return geometry.Vector3{}, s.err()
}

func (s unsupported) domain([]loop, bool) geometry.Domain {
	return geometry.Domain{}
}

func (s unsupported) area(geometry.Domain, []loop) (float64, error) {
	return 0, s.err()
}

// angularRange returns the smallest interval [lo, hi] covering all angles,
// found as the complement of the largest gap between them. Angles spread
// around the whole circle yield [0, 2π].
func angularRange(angles []float64) (lo, hi float64) {
	if len(angles) == 0 {
		return 0, 2 * math.Pi
	}

	sorted := make([]float64, len(angles))
	for i, a := range angles {
		sorted[i] = normalizeAngle(a)
	}
	sort.Float64s(sorted)

	n := len(sorted)
	gapAfter := n - 1
	maxGap := sorted[0] + 2*math.Pi - sorted[n-1]
	for i := 0; i < n-1; i++ {
		if gap := sorted[i+1] - sorted[i]; gap > maxGap {
			maxGap, gapAfter = gap, i
		}
	}

	if maxGap <= 1.5*2*math.Pi/segmentsPerTurn {
		return 0, 2 * math.Pi
	}
	lo = sorted[(gapAfter+1)%n]
	return lo, lo + 2*math.Pi - maxGap
}

// normalizeAngle maps a into [0, 2π)
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func allPoints(loops []loop) []geometry.Vector3 {
	var points []geometry.Vector3
	for _, l := range loops {
		points = append(points, l.points...)
	}
	return points
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// polygonArea returns the signed area of a closed polygon projected on
// the plane with the given normal (Newell's method)
func polygonArea(points []geometry.Vector3, normal geometry.Vector3) float64 {
	if len(points) < 3 {
		return 0
	}
	var sum geometry.Vector3
	for i, p := range points {
		q := points[(i+1)%len(points)]
		sum = sum.Add(p.Cross(q))
	}
	return sum.Dot(normal) / 2
}
