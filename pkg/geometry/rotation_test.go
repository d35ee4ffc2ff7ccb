package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func assertVector(t *testing.T, expected, got Vector3) {
	t.Helper()
	assert.InDelta(t, expected.X, got.X, eps, "x of %v", got)
	assert.InDelta(t, expected.Y, got.Y, eps, "y of %v", got)
	assert.InDelta(t, expected.Z, got.Z, eps, "z of %v", got)
}

func TestRotationAboutZ(t *testing.T) {
	r := RotationAbout(Up, math.Pi/2)

	assertVector(t, YAxis, r.Apply(XAxis))
	assertVector(t, XAxis.Mul(-1), r.Apply(YAxis))
	assertVector(t, Up, r.Apply(Up))
	assert.InDelta(t, 90, r.AngleDegrees(), eps)
}

func TestRotationBetween(t *testing.T) {
	cases := []struct {
		name string
		from Vector3
	}{
		{"x", XAxis},
		{"y", YAxis},
		{"tilted", NewVector3(1, 2, 3)},
		{"up", Up},
		{"down", Down},
		{"almost down", NewVector3(1e-14, 0, -1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := RotationBetween(tc.from, Down)
			assertVector(t, Down, r.Apply(tc.from.Normalize()))
		})
	}
}

func TestRotationBetweenParallelIsIdentity(t *testing.T) {
	r := RotationBetween(Down, Down.Mul(2))
	assert.True(t, r.IsIdentity())
}

func TestRotationPreservesLength(t *testing.T) {
	r := RotationBetween(NewVector3(3, -1, 2), Down)
	v := NewVector3(4, 5, 6)
	assert.InDelta(t, v.Length(), r.Apply(v).Length(), eps)
}

func TestZeroRotationIsIdentity(t *testing.T) {
	var r Rotation
	v := NewVector3(1, 2, 3)
	assert.Equal(t, v, r.Apply(v))
	assert.Equal(t, [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, r.Matrix())
}

func TestRotationMatrixMatchesApply(t *testing.T) {
	r := RotationAbout(NewVector3(1, 1, 0), 0.7)
	v := NewVector3(0.3, -2, 5)
	m := r.Matrix()

	got := NewVector3(
		m[0][0]*v.X+m[0][1]*v.Y+m[0][2]*v.Z,
		m[1][0]*v.X+m[1][1]*v.Y+m[1][2]*v.Z,
		m[2][0]*v.X+m[2][1]*v.Y+m[2][2]*v.Z,
	)
	assertVector(t, r.Apply(v), got)
}
