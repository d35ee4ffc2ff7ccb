// Package kerneltest provides kernel.Face stand-ins for tests.
package kerneltest

import (
	"fmt"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
)

var _ kernel.Face = (*Face)(nil)

// Face has a constant normal and a fixed area
type Face struct {
	FaceID  int
	Surface string
	N       geometry.Vector3
	A       float64
	// Err is returned by Value, Normal and Area when set
	Err error
}

// NewFace returns a planar face with the given normal and area
func NewFace(id int, normal geometry.Vector3, area float64) *Face {
	return &Face{FaceID: id, Surface: "plane", N: normal.Normalize(), A: area}
}

// Broken returns a face whose evaluation always fails with err
func Broken(id int, err error) *Face {
	return &Face{FaceID: id, Surface: "broken", Err: err}
}

func (f *Face) ID() int { return f.FaceID }

func (f *Face) Kind() string { return f.Surface }

func (f *Face) Domain() geometry.Domain {
	return geometry.Domain{UMin: 0, UMax: 1, VMin: 0, VMax: 1}
}

func (f *Face) Value(u, v float64) (geometry.Vector3, error) {
	return geometry.NewVector3(u, v, 0), f.Err
}

func (f *Face) Normal(u, v float64) (geometry.Vector3, error) {
	if f.Err != nil {
		return geometry.Vector3{}, f.Err
	}
	return f.N, nil
}

func (f *Face) Area() (float64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.A, nil
}

func (f *Face) String() string {
	return fmt.Sprintf("#%d %s", f.FaceID, f.Surface)
}

// Faces converts concrete fakes into the kernel interface
func Faces(faces ...*Face) []kernel.Face {
	out := make([]kernel.Face, len(faces))
	for i, f := range faces {
		out[i] = f
	}
	return out
}
