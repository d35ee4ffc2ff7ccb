package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// angularEpsilon is the angle below which two directions are treated as
// parallel when building a rotation between them.
const angularEpsilon = 1e-12

// Rotation is a rigid rotation about an axis through the origin
type Rotation struct {
	q     r3.Rotation
	axis  Vector3
	angle float64
}

// Identity returns the rotation that leaves every vector unchanged
func Identity() Rotation {
	return Rotation{q: r3.Rotation{Real: 1}, axis: Up}
}

// RotationAbout returns the rotation by angle radians about axis, following
// the right-hand rule. A zero axis or zero angle yields the identity.
func RotationAbout(axis Vector3, angle float64) Rotation {
	if axis.IsZero() || angle == 0 {
		return Identity()
	}
	axis = axis.Normalize()
	return Rotation{
		q:     r3.NewRotation(angle, toR3(axis)),
		axis:  axis,
		angle: angle,
	}
}

// RotationBetween returns the shortest rotation that maps direction from
// onto direction to. Opposite directions are turned by half a revolution
// about an axis perpendicular to from.
func RotationBetween(from, to Vector3) Rotation {
	from, to = from.Normalize(), to.Normalize()
	if from.IsZero() || to.IsZero() {
		return Identity()
	}

	angle := from.Angle(to)
	if angle < angularEpsilon {
		return Identity()
	}

	axis := from.Cross(to)
	if math.Pi-angle < angularEpsilon || axis.Length() < angularEpsilon {
		axis = perpendicular(from)
		angle = math.Pi
	}
	return RotationAbout(axis, angle)
}

// Apply rotates v. The zero Rotation is the identity.
func (r Rotation) Apply(v Vector3) Vector3 {
	if r.IsIdentity() {
		return v
	}
	return fromR3(r.q.Rotate(toR3(v)))
}

// Axis returns the unit rotation axis
func (r Rotation) Axis() Vector3 {
	return r.axis
}

// Angle returns the rotation angle in radians
func (r Rotation) Angle() float64 {
	return r.angle
}

// AngleDegrees returns the rotation angle in degrees
func (r Rotation) AngleDegrees() float64 {
	return r.angle * 180 / math.Pi
}

// IsIdentity reports whether the rotation leaves vectors unchanged
func (r Rotation) IsIdentity() bool {
	return r.angle == 0
}

// Matrix returns the row-major 3x3 rotation matrix
func (r Rotation) Matrix() [3][3]float64 {
	var out [3][3]float64
	if r.IsIdentity() {
		out[0][0], out[1][1], out[2][2] = 1, 1, 1
		return out
	}
	m := r.q.Mat()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// perpendicular returns a unit vector orthogonal to v
func perpendicular(v Vector3) Vector3 {
	// Cross with the principal axis least aligned with v.
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	ref := Up
	switch {
	case ax <= ay && ax <= az:
		ref = XAxis
	case ay <= az:
		ref = YAxis
	}
	return v.Cross(ref).Normalize()
}

func toR3(v Vector3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromR3(v r3.Vec) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}
