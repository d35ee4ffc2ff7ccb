package geometry

import (
	"testing"
)

func TestBoundingBoxExtend(t *testing.T) {
	bbox := NewBoundingBox()

	bbox.Extend(NewVector3(1, 2, 3))
	bbox.Extend(NewVector3(4, 5, 6))
	bbox.Extend(NewVector3(-1, 0, 2))

	expectedMin := NewVector3(-1, 0, 2)
	expectedMax := NewVector3(4, 5, 6)

	if bbox.Min != expectedMin {
		t.Errorf("Min failed: expected %v, got %v", expectedMin, bbox.Min)
	}
	if bbox.Max != expectedMax {
		t.Errorf("Max failed: expected %v, got %v", expectedMax, bbox.Max)
	}
}

func TestBoundingBoxEmpty(t *testing.T) {
	bbox := NewBoundingBox()
	if !bbox.IsEmpty() {
		t.Errorf("IsEmpty failed: expected new box to be empty")
	}
	if size := bbox.Size(); size != (Vector3{}) {
		t.Errorf("Size failed: expected zero for empty box, got %v", size)
	}
}

func TestDomainMid(t *testing.T) {
	d := NewDomain()
	if !d.IsEmpty() {
		t.Errorf("IsEmpty failed: expected new domain to be empty")
	}

	d.Extend(-2, 1)
	d.Extend(4, 3)

	u, v := d.Mid()
	if u != 1 || v != 2 {
		t.Errorf("Mid failed: expected (1, 2), got (%v, %v)", u, v)
	}
	if d.Width() != 6 || d.Height() != 2 {
		t.Errorf("Extent failed: expected 6x2, got %vx%v", d.Width(), d.Height())
	}
}
