package classify

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/stepcolor/internal/fixture"
	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
	"github.com/philipparndt/stepcolor/pkg/kernel/brep"
	"github.com/philipparndt/stepcolor/pkg/kernel/kerneltest"
)

// tilted returns a unit normal in the XZ plane at deg degrees from +Z
func tilted(deg float64) geometry.Vector3 {
	rad := deg * math.Pi / 180
	return geometry.NewVector3(math.Sin(rad), 0, math.Cos(rad))
}

func cubeFaces() []kernel.Face {
	return kerneltest.Faces(
		kerneltest.NewFace(1, geometry.Up, 1),
		kerneltest.NewFace(2, geometry.Down, 1),
		kerneltest.NewFace(3, geometry.XAxis, 1),
		kerneltest.NewFace(4, geometry.XAxis.Mul(-1), 1),
		kerneltest.NewFace(5, geometry.YAxis, 1),
		kerneltest.NewFace(6, geometry.YAxis.Mul(-1), 1),
	)
}

func TestCategorizeRoundsNearBoundary(t *testing.T) {
	// Within half a step of the boundary the angle counts as on it.
	assert.Equal(t, Other, Categorize(tilted(14.9999999996), 15))
	assert.Equal(t, Top, Categorize(tilted(14.999999998), 15))
	assert.Equal(t, Top, Categorize(tilted(14), 15))
}

func TestClassifyCube(t *testing.T) {
	faces := cubeFaces()
	res := Classify(faces, 15)

	require.Empty(t, res.Failures)
	expected := []Category{Top, Bottom, SideX, SideX, SideY, SideY}
	for i, c := range res.Faces {
		assert.Equal(t, faces[i], c.Face)
		assert.Equal(t, expected[i], c.Category, "face %d", c.Face.ID())
	}

	colors := res.Colors()
	assert.Equal(t, kernel.Color{R: 1}, colors[faces[0]])
	assert.Equal(t, kernel.Color{G: 1}, colors[faces[1]])
	assert.Equal(t, kernel.Color{B: 1}, colors[faces[2]])
	assert.Equal(t, kernel.Color{B: 1}, colors[faces[3]])
	assert.Equal(t, kernel.Color{R: 1, G: 1}, colors[faces[4]])
	assert.Equal(t, kernel.Color{R: 1, G: 1}, colors[faces[5]])

	assert.Equal(t, map[Category]int{Top: 1, Bottom: 1, SideX: 2, SideY: 2}, res.Counts())
}

func TestClassifyBoxFile(t *testing.T) {
	path := fixture.Write(t, t.TempDir(), "box.step", fixture.Box(1, 1, 1, fixture.BoxOptions{}))
	s, err := brep.New().Read(path)
	require.NoError(t, err)
	defer s.Close()

	res := Classify(s.Faces(), DefaultTolerance)
	require.Empty(t, res.Failures)

	// Faces are listed bottom, top, -Y, +Y, -X, +X.
	var got []Category
	for _, c := range res.Faces {
		got = append(got, c.Category)
	}
	assert.Equal(t, []Category{Bottom, Top, SideY, SideY, SideX, SideX}, got)
}

func TestColorsCoverEveryFace(t *testing.T) {
	faces := cubeFaces()
	faces = append(faces, kerneltest.Faces(
		kerneltest.NewFace(7, tilted(60), 1),
		kerneltest.NewFace(8, geometry.NewVector3(1, 1, 1), 1),
	)...)

	colors := Classify(faces, 15).Colors()
	require.Len(t, colors, len(faces))
	for _, f := range faces {
		assert.Contains(t, colors, f)
	}
}

func TestCategorizeDiagonalIsSideY(t *testing.T) {
	assert.Equal(t, SideY, Categorize(geometry.NewVector3(1, 1, 0).Normalize(), 15))
	assert.Equal(t, SideY, Categorize(geometry.NewVector3(1, -1, 0).Normalize(), 15))
	assert.Equal(t, SideY, Categorize(geometry.NewVector3(-1, 1, 0).Normalize(), 15))
	assert.Equal(t, SideX, Categorize(geometry.NewVector3(-1, 0.9, 0).Normalize(), 15))
	assert.Equal(t, SideY, Categorize(geometry.NewVector3(-0.9, 1, 0).Normalize(), 15))
}

func TestCategorizeBandGap(t *testing.T) {
	// 46° is outside the top band and exactly on the edge of the side band.
	assert.Equal(t, Other, Categorize(tilted(46), 44))
	assert.Equal(t, Other, Categorize(tilted(134), 44))
	assert.Equal(t, SideX, Categorize(tilted(47), 44))
}

func TestCategorizeAxesForAnyTolerance(t *testing.T) {
	for _, tol := range []float64{1e-6, 0.5, 1, 15, 45, 89} {
		assert.Equal(t, Top, Categorize(geometry.Up, tol), "tolerance %v", tol)
		assert.Equal(t, Bottom, Categorize(geometry.Down, tol), "tolerance %v", tol)
	}
}

func TestCategorizePriority(t *testing.T) {
	// With wide bands the top test wins over the side test.
	assert.Equal(t, Top, Categorize(tilted(50), 60))
	assert.Equal(t, Bottom, Categorize(tilted(130), 60))
	assert.Equal(t, SideX, Categorize(tilted(90), 60))
}

func TestCategorizeTolerance(t *testing.T) {
	cases := []struct {
		deg      float64
		tol      float64
		expected Category
	}{
		{14.9, 15, Top},
		{15, 15, Other},
		{165.1, 15, Bottom},
		{165, 15, Other},
		{75.1, 15, SideX},
		{75, 15, Other},
		{30, 15, Other},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, Categorize(tilted(tc.deg), tc.tol), "%v° at %v", tc.deg, tc.tol)
	}
}

func TestClassifyRecordsFailures(t *testing.T) {
	broken := kerneltest.Broken(2, kernel.ErrUnsupportedSurface)
	faces := kerneltest.Faces(
		kerneltest.NewFace(1, geometry.Up, 1),
		broken,
		kerneltest.NewFace(3, geometry.Down, 1),
	)

	res := Classify(faces, 15)
	require.Len(t, res.Faces, 2)
	require.Len(t, res.Failures, 1)

	failure := res.Failures[0]
	assert.Equal(t, kernel.Face(broken), failure.Face)
	assert.ErrorIs(t, failure, kernel.ErrUnsupportedSurface)
	assert.Contains(t, failure.Error(), "face 2")
	assert.NotContains(t, res.Colors(), kernel.Face(broken))
}

func TestClassifyZeroNormal(t *testing.T) {
	res := Classify(kerneltest.Faces(&kerneltest.Face{FaceID: 1, Surface: "plane"}), 15)
	assert.Empty(t, res.Faces)
	require.Len(t, res.Failures, 1)
}

func TestClassifyIsIdempotent(t *testing.T) {
	faces := append(cubeFaces(), kerneltest.Faces(kerneltest.NewFace(7, tilted(33), 1))...)

	assert.Equal(t, Classify(faces, 20).Colors(), Classify(faces, 20).Colors())
}

func TestClassifyEmpty(t *testing.T) {
	res := Classify(nil, 15)
	assert.Empty(t, res.Faces)
	assert.Empty(t, res.Failures)
	assert.Empty(t, res.Colors())
}

func TestClassifyParallelMatchesSequential(t *testing.T) {
	faces := cubeFaces()
	for i := 0; i < 50; i++ {
		faces = append(faces, kerneltest.NewFace(100+i, tilted(float64(i)*3.7), 1))
	}
	faces = append(faces, kerneltest.Broken(999, errors.New("degenerate")))

	expected := Classify(faces, 15)
	for _, workers := range []int{0, 1, 4, 16} {
		got, err := ClassifyParallel(context.Background(), faces, 15, workers)
		require.NoError(t, err)
		assert.Equal(t, expected.Faces, got.Faces, "workers %d", workers)
		require.Len(t, got.Failures, 1)
		assert.Equal(t, 999, got.Failures[0].Face.ID())
	}
}

func TestClassifyParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, err := ClassifyParallel(ctx, cubeFaces(), 15, workers)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestCategoryColors(t *testing.T) {
	expected := map[Category]kernel.Color{
		Top:    {R: 1},
		Bottom: {G: 1},
		SideX:  {B: 1},
		SideY:  {R: 1, G: 1},
		Other:  {R: 0.5, G: 0.5, B: 0.5},
	}
	for _, c := range Categories() {
		assert.Equal(t, expected[c], c.Color(), c.String())
	}
	assert.Equal(t, Other.Color(), Category(9).Color())
	assert.Equal(t, "category(9)", Category(9).String())
}
