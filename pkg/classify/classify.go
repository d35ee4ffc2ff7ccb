// Package classify sorts the faces of a solid into direction categories by
// the angle between their normal and the principal axes.
package classify

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
)

// DefaultTolerance is the angle tolerance in degrees used when none is set
const DefaultTolerance = 15.0

// angleSteps is the number of steps per degree angles are rounded to before
// they are compared, so a normal built from a whole degree value lands
// exactly on its band boundary. The price is that an angle within 5e-10
// degrees below a boundary, such as 14.9999999996 at tolerance 15, counts
// as on the boundary and falls outside the band.
const angleSteps = 1e9

// Category is the direction bucket of a face
type Category int

const (
	Top Category = iota
	Bottom
	SideX
	SideY
	Other
)

var categoryColors = map[Category]kernel.Color{
	Top:    {R: 1, G: 0, B: 0},
	Bottom: {R: 0, G: 1, B: 0},
	SideX:  {R: 0, G: 0, B: 1},
	SideY:  {R: 1, G: 1, B: 0},
	Other:  {R: 0.5, G: 0.5, B: 0.5},
}

// Categories lists every category in priority order
func Categories() []Category {
	return []Category{Top, Bottom, SideX, SideY, Other}
}

func (c Category) String() string {
	switch c {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case SideX:
		return "side-x"
	case SideY:
		return "side-y"
	case Other:
		return "other"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Color returns the fixed colour of the category
func (c Category) Color() kernel.Color {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[Other]
}

// Categorize assigns a category to a unit normal. The tests run in a fixed
// order and the first match wins, so overlapping tolerance bands resolve to
// Top, then Bottom, then the sides.
func Categorize(normal geometry.Vector3, toleranceDegrees float64) Category {
	angleToZ := angleDegrees(normal, geometry.Up)

	switch {
	case angleToZ < toleranceDegrees:
		return Top
	case math.Abs(angleToZ-180) < toleranceDegrees:
		return Bottom
	case math.Abs(angleToZ-90) < toleranceDegrees:
		angleToX := angleDegrees(normal, geometry.XAxis)
		if angleToX < 45 || angleToX > 135 {
			return SideX
		}
		return SideY
	}
	return Other
}

// Classification is the outcome for a single face
type Classification struct {
	Face     kernel.Face
	Normal   geometry.Vector3
	AngleToZ float64
	Category Category
}

// FaceError records a face that could not be classified
type FaceError struct {
	Face kernel.Face
	Err  error
}

func (e *FaceError) Error() string {
	return fmt.Sprintf("face %d: %v", e.Face.ID(), e.Err)
}

func (e *FaceError) Unwrap() error {
	return e.Err
}

// Result holds one classification pass over a face list
type Result struct {
	Tolerance float64
	// Faces are the classified faces in enumeration order
	Faces []Classification
	// Failures are the faces left out of Faces
	Failures []*FaceError
}

// Colors returns the colour of every classified face
func (r *Result) Colors() map[kernel.Face]kernel.Color {
	out := make(map[kernel.Face]kernel.Color, len(r.Faces))
	for _, c := range r.Faces {
		out[c.Face] = c.Category.Color()
	}
	return out
}

// Counts returns the number of faces per category
func (r *Result) Counts() map[Category]int {
	out := make(map[Category]int, len(categoryColors))
	for _, c := range r.Faces {
		out[c.Category]++
	}
	return out
}

// classifyFace evaluates the normal at the domain midpoint and categorizes it
func classifyFace(f kernel.Face, toleranceDegrees float64) (Classification, error) {
	n, err := kernel.MidNormal(f)
	if err != nil {
		return Classification{}, err
	}
	if n.IsZero() {
		return Classification{}, fmt.Errorf("degenerate normal at domain midpoint")
	}
	n = n.Normalize()
	return Classification{
		Face:     f,
		Normal:   n,
		AngleToZ: angleDegrees(n, geometry.Up),
		Category: Categorize(n, toleranceDegrees),
	}, nil
}

// Classify categorizes faces one after another. A face that cannot be
// evaluated is recorded in Failures and does not stop the pass.
func Classify(faces []kernel.Face, toleranceDegrees float64) *Result {
	res := &Result{Tolerance: toleranceDegrees, Faces: make([]Classification, 0, len(faces))}
	for _, f := range faces {
		c, err := classifyFace(f, toleranceDegrees)
		if err != nil {
			res.Failures = append(res.Failures, &FaceError{Face: f, Err: err})
			continue
		}
		res.Faces = append(res.Faces, c)
	}
	return res
}

// ClassifyParallel evaluates faces on up to workers goroutines. The result
// is identical to Classify; only ctx cancellation makes it fail.
func ClassifyParallel(ctx context.Context, faces []kernel.Face, toleranceDegrees float64, workers int) (*Result, error) {
	if workers <= 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Classify(faces, toleranceDegrees), nil
	}

	classified := make([]Classification, len(faces))
	errs := make([]error, len(faces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range faces {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			classified[i], errs[i] = classifyFace(f, toleranceDegrees)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Tolerance: toleranceDegrees, Faces: make([]Classification, 0, len(faces))}
	for i, f := range faces {
		if errs[i] != nil {
			res.Failures = append(res.Failures, &FaceError{Face: f, Err: errs[i]})
			continue
		}
		res.Faces = append(res.Faces, classified[i])
	}
	return res, nil
}

func angleDegrees(a, b geometry.Vector3) float64 {
	return math.Round(a.AngleDegrees(b)*angleSteps) / angleSteps
}
