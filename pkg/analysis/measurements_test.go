package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/stepcolor/internal/fixture"
	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
	"github.com/philipparndt/stepcolor/pkg/kernel/brep"
)

func readBox(t *testing.T, content string) kernel.Solid {
	t.Helper()
	path := fixture.Write(t, t.TempDir(), "box.step", content)
	s, err := brep.New().Read(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAnalyzeSolid(t *testing.T) {
	s := readBox(t, fixture.Box(1, 2, 4, fixture.BoxOptions{}))

	result := AnalyzeSolid(s)
	assert.Equal(t, 6, result.FaceCount)
	assert.Zero(t, result.UnsupportedCount)
	assert.InDelta(t, 28, result.SurfaceArea, 1e-9)
	assert.Equal(t, map[string]int{"plane": 6}, result.KindCounts)
	assert.InDelta(t, 4, result.Dimensions.Z, 1e-9)
}

func TestFindLargestFaces(t *testing.T) {
	s := readBox(t, fixture.Box(1, 2, 4, fixture.BoxOptions{}))
	result := AnalyzeSolid(s)

	largest := FindLargestFaces(result, 3)
	require.Len(t, largest, 3)
	assert.InDelta(t, 8, largest[0].Area, 1e-9)
	assert.InDelta(t, 8, largest[1].Area, 1e-9)
	assert.InDelta(t, 4, largest[2].Area, 1e-9)
	// Equal areas keep enumeration order.
	assert.Equal(t, s.Faces()[4].ID(), largest[0].ID)

	assert.Len(t, FindLargestFaces(result, 100), 6)
}

func TestAnalyzeCylinder(t *testing.T) {
	s := readBox(t, fixture.Cylinder(1, 1))

	result := AnalyzeSolid(s)
	assert.Equal(t, []string{"plane", "cylinder"}, result.Kinds())
	assert.Equal(t, 2, result.KindCounts["plane"])
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.500000 mm", FormatMeasurement(1.5, "mm"))
	assert.Equal(t, "2.000000 units", FormatMeasurement(2, ""))
	assert.Equal(t, "(1.000000, -2.000000, 0.500000)", FormatVector(geometry.NewVector3(1, -2, 0.5)))
}

func TestAnalyzeUnsupportedFaces(t *testing.T) {
	content := strings.Replace(fixture.Box(1, 1, 1, fixture.BoxOptions{}),
		"PLANE(", "TOROIDAL_SURFACE(", 1)
	s := readBox(t, content)

	result := AnalyzeSolid(s)
	assert.Equal(t, 6, result.FaceCount)
	assert.Equal(t, 1, result.UnsupportedCount)
	assert.InDelta(t, 5, result.SurfaceArea, 1e-9)
	assert.Len(t, FindLargestFaces(result, 10), 5)
	assert.Equal(t, []string{"plane", "TOROIDAL_SURFACE"}, result.Kinds())
}
