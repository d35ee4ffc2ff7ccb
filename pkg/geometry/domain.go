package geometry

import "math"

// Domain is the (u, v) parameter rectangle a face occupies on its surface
type Domain struct {
	UMin, UMax float64
	VMin, VMax float64
}

// NewDomain creates an empty domain that grows with Extend
func NewDomain() Domain {
	return Domain{
		UMin: math.MaxFloat64, UMax: -math.MaxFloat64,
		VMin: math.MaxFloat64, VMax: -math.MaxFloat64,
	}
}

// Extend expands the domain to include (u, v)
func (d *Domain) Extend(u, v float64) {
	d.UMin = math.Min(d.UMin, u)
	d.UMax = math.Max(d.UMax, u)
	d.VMin = math.Min(d.VMin, v)
	d.VMax = math.Max(d.VMax, v)
}

// IsEmpty reports whether no point has been added
func (d Domain) IsEmpty() bool {
	return d.UMin > d.UMax || d.VMin > d.VMax
}

// Mid returns the midpoint of each parameter range. This is not the
// geometric centroid of the face.
func (d Domain) Mid() (u, v float64) {
	return (d.UMin + d.UMax) / 2, (d.VMin + d.VMax) / 2
}

// Width returns the extent of the u range
func (d Domain) Width() float64 {
	return d.UMax - d.UMin
}

// Height returns the extent of the v range
func (d Domain) Height() float64 {
	return d.VMax - d.VMin
}
