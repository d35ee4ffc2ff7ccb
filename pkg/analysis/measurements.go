package analysis

import (
	"fmt"
	"sort"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
)

// FaceInfo contains information about a face of the solid
type FaceInfo struct {
	ID   int
	Kind string
	Area float64
	// Err is set when the area could not be computed
	Err error
}

// MeasurementResult contains various measurements of a solid
type MeasurementResult struct {
	BoundingBox      geometry.BoundingBox
	Dimensions       geometry.Vector3
	SurfaceArea      float64
	FaceCount        int
	UnsupportedCount int
	KindCounts       map[string]int
	AllFaces         []FaceInfo
}

// AnalyzeSolid measures the faces of a solid
func AnalyzeSolid(s kernel.Solid) *MeasurementResult {
	result := &MeasurementResult{
		BoundingBox: s.BoundingBox(),
		KindCounts:  make(map[string]int),
	}
	result.Dimensions = result.BoundingBox.Size()

	for _, f := range s.Faces() {
		info := FaceInfo{ID: f.ID(), Kind: f.Kind()}
		info.Area, info.Err = f.Area()
		if info.Err != nil {
			result.UnsupportedCount++
		} else {
			result.SurfaceArea += info.Area
		}
		result.KindCounts[info.Kind]++
		result.AllFaces = append(result.AllFaces, info)
	}
	result.FaceCount = len(result.AllFaces)

	return result
}

// Kinds returns the surface kinds present, most frequent first
func (r *MeasurementResult) Kinds() []string {
	kinds := make([]string, 0, len(r.KindCounts))
	for k := range r.KindCounts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		ci, cj := r.KindCounts[kinds[i]], r.KindCounts[kinds[j]]
		if ci != cj {
			return ci > cj
		}
		return kinds[i] < kinds[j]
	})
	return kinds
}

// FindLargestFaces returns the N largest measurable faces. Equal areas keep
// enumeration order.
func FindLargestFaces(result *MeasurementResult, count int) []FaceInfo {
	faces := make([]FaceInfo, 0, len(result.AllFaces))
	for _, f := range result.AllFaces {
		if f.Err == nil {
			faces = append(faces, f)
		}
	}

	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Area > faces[j].Area
	})

	if count > len(faces) {
		count = len(faces)
	}

	return faces[:count]
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
