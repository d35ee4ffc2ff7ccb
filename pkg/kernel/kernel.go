// Package kernel defines the abstract geometry kernel interface.
// Implementations read boundary-represented solids from exchange files,
// evaluate their faces, apply rigid rotations and write colour annotated
// results. The abstraction keeps orientation and classification code free
// of any file format.
package kernel

import (
	"errors"
	"fmt"

	"github.com/philipparndt/stepcolor/pkg/geometry"
)

var (
	// ErrNoSolid is returned when a file holds no solid or shell
	ErrNoSolid = errors.New("no solid found")
	// ErrUnsupportedSurface is returned when a face lies on a surface the
	// kernel cannot evaluate
	ErrUnsupportedSurface = errors.New("unsupported surface")
	// ErrStaleFace is returned when a face handle does not belong to the
	// solid it is used with, typically because the solid was transformed
	ErrStaleFace = errors.New("face does not belong to solid")
	// ErrClosed is returned when a released solid is used
	ErrClosed = errors.New("solid is closed")
)

// Face is an opaque handle to one boundary face of a Solid.
// Handles are only valid together with the Solid they were taken from.
type Face interface {
	// ID identifies the face within its solid
	ID() int
	// Kind names the underlying surface, such as "plane" or "cylinder"
	Kind() string
	// Domain returns the (u, v) parameter rectangle covered by the face
	Domain() geometry.Domain
	// Value evaluates the surface point at (u, v)
	Value(u, v float64) (geometry.Vector3, error)
	// Normal returns the outward unit normal at (u, v)
	Normal(u, v float64) (geometry.Vector3, error)
	// Area returns the surface area of the face
	Area() (float64, error)
}

// Solid is an opaque handle to a boundary-represented shape.
type Solid interface {
	// Faces enumerates the boundary faces in a stable order
	Faces() []Face
	// BoundingBox returns the axis-aligned bounds of the boundary
	BoundingBox() geometry.BoundingBox
	// Close releases the solid; later use fails with ErrClosed
	Close() error
}

// Color is an RGB triple with components in [0, 1]
type Color struct {
	R, G, B float64
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%.2f, %.2f, %.2f)", c.R, c.G, c.B)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Read loads the solid stored in an exchange file
	Read(path string) (Solid, error)
	// Transform returns a new solid rotated by r. The input solid is left
	// unchanged and its face handles do not apply to the result.
	Transform(s Solid, r geometry.Rotation) (Solid, error)
	// Write stores the solid with a colour per face. Every face must
	// belong to s.
	Write(path string, s Solid, colors map[Face]Color) error
}

// Shape pairs a solid with the faces extracted from it. A Shape is
// rebuilt whenever the solid changes so the two never disagree.
type Shape struct {
	Solid Solid
	Faces []Face
}

// NewShape extracts the faces of s
func NewShape(s Solid) Shape {
	return Shape{Solid: s, Faces: s.Faces()}
}

// Transform rotates the shape through k and returns the new pairing
func (sh Shape) Transform(k Kernel, r geometry.Rotation) (Shape, error) {
	s, err := k.Transform(sh.Solid, r)
	if err != nil {
		return Shape{}, err
	}
	return NewShape(s), nil
}

// MidNormal evaluates the normal of f at the midpoint of its parameter
// domain. For strongly curved faces this differs from the average normal.
func MidNormal(f Face) (geometry.Vector3, error) {
	u, v := f.Domain().Mid()
	return f.Normal(u, v)
}
