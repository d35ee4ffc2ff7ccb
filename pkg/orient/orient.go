// Package orient selects the rigid rotation that brings a solid into its
// working orientation before classification.
package orient

import (
	"fmt"
	"math"
	"strings"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
)

// Criterion selects an orientation strategy
type Criterion int

const (
	// LargestFaceDown turns the face with the largest area to face -Z
	LargestFaceDown Criterion = iota
	// ZAxisUp rotates the solid 90° about Z, whatever its current
	// orientation. The name does not describe the effect; the behaviour is
	// kept as users of existing output files know it.
	ZAxisUp
)

// Criteria lists all strategies in presentation order
func Criteria() []Criterion {
	return []Criterion{LargestFaceDown, ZAxisUp}
}

func (c Criterion) String() string {
	switch c {
	case LargestFaceDown:
		return "largest_face_down"
	case ZAxisUp:
		return "z_axis_up"
	}
	return fmt.Sprintf("criterion(%d)", int(c))
}

// Label returns the human readable name shown in front-ends
func (c Criterion) Label() string {
	switch c {
	case LargestFaceDown:
		return "Largest Face Down"
	case ZAxisUp:
		return "Z-Axis Up"
	}
	return c.String()
}

// ParseCriterion accepts the identifier or the label of a criterion, case
// insensitively, with spaces, dashes or underscores as separators
func ParseCriterion(s string) (Criterion, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for _, c := range Criteria() {
		if key == c.String() {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown orientation criterion %q", s)
}

// LargestFace returns the first face with the largest positive area. Faces
// whose area cannot be computed are skipped. ok is false when no face
// qualifies.
func LargestFace(faces []kernel.Face) (face kernel.Face, area float64, ok bool) {
	for _, f := range faces {
		a, err := f.Area()
		if err != nil {
			continue
		}
		// Strict comparison keeps the earliest of equal faces.
		if a > area {
			face, area, ok = f, a, true
		}
	}
	return face, area, ok
}

// Select computes the rotation for criterion c. It does not touch the
// solid the faces belong to.
func Select(faces []kernel.Face, c Criterion) (geometry.Rotation, error) {
	switch c {
	case LargestFaceDown:
		return largestFaceDown(faces)
	case ZAxisUp:
		return geometry.RotationAbout(geometry.Up, math.Pi/2), nil
	}
	return geometry.Identity(), fmt.Errorf("unknown orientation criterion %d", int(c))
}

func largestFaceDown(faces []kernel.Face) (geometry.Rotation, error) {
	face, _, ok := LargestFace(faces)
	if !ok {
		return geometry.Identity(), nil
	}
	n, err := kernel.MidNormal(face)
	if err != nil {
		return geometry.Identity(), fmt.Errorf("normal of face %d: %w", face.ID(), err)
	}
	return geometry.RotationBetween(n, geometry.Down), nil
}
