// Package fixture generates small STEP files for tests.
package fixture

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/step"
)

type builder struct {
	lines []string
	next  int
	// degrees declares plane angles in degrees instead of radians
	degrees bool
}

func (b *builder) add(format string, args ...any) int {
	b.next++
	b.lines = append(b.lines, fmt.Sprintf("#%d=", b.next)+fmt.Sprintf(format, args...)+";")
	return b.next
}

func (b *builder) point(v geometry.Vector3) int {
	return b.add("CARTESIAN_POINT('',(%s,%s,%s))", real(v.X), real(v.Y), real(v.Z))
}

func (b *builder) direction(v geometry.Vector3) int {
	return b.add("DIRECTION('',(%s,%s,%s))", real(v.X), real(v.Y), real(v.Z))
}

func (b *builder) placement(origin, axis, ref geometry.Vector3) int {
	o := b.point(origin)
	a := b.direction(axis)
	r := b.direction(ref)
	return b.add("AXIS2_PLACEMENT_3D('',#%d,#%d,#%d)", o, a, r)
}

func (b *builder) vertex(v geometry.Vector3) int {
	return b.add("VERTEX_POINT('',#%d)", b.point(v))
}

func (b *builder) line(from, to geometry.Vector3) int {
	p := b.point(from)
	d := b.direction(to.Sub(from).Normalize())
	vec := b.add("VECTOR('',#%d,%s)", d, real(to.Sub(from).Length()))
	return b.add("LINE('',#%d,#%d)", p, vec)
}

func (b *builder) orientedEdge(edge int, forward bool) int {
	return b.add("ORIENTED_EDGE('',*,*,#%d,%s)", edge, logical(forward))
}

// face adds an ADVANCED_FACE with a single outer bound made of edges
func (b *builder) face(surface int, sameSense bool, edges ...int) int {
	loop := b.add("EDGE_LOOP('',(%s))", refList(edges))
	bound := b.add("FACE_OUTER_BOUND('',#%d,.T.)", loop)
	return b.add("ADVANCED_FACE('',(#%d),#%d,%s)", bound, surface, logical(sameSense))
}

// finish wraps the solid into a representation and the file frame
func (b *builder) finish(name string, solid int) string {
	length := b.add("( LENGTH_UNIT() NAMED_UNIT(*) SI_UNIT(.MILLI.,.METRE.) )")
	angle := b.add("( NAMED_UNIT(*) PLANE_ANGLE_UNIT() SI_UNIT($,.RADIAN.) )")
	if b.degrees {
		measure := b.add("PLANE_ANGLE_MEASURE_WITH_UNIT(PLANE_ANGLE_MEASURE(%s),#%d)", real(math.Pi/180), angle)
		exponents := b.add("DIMENSIONAL_EXPONENTS(0.,0.,0.,0.,0.,0.,0.)")
		angle = b.add("( CONVERSION_BASED_UNIT('DEGREE',#%d) NAMED_UNIT(#%d) PLANE_ANGLE_UNIT() )", measure, exponents)
	}
	ctx := b.add("( GEOMETRIC_REPRESENTATION_CONTEXT(3) GLOBAL_UNIT_ASSIGNED_CONTEXT((#%d,#%d)) "+
		"REPRESENTATION_CONTEXT('Context #1','3D Context with UNIT and UNCERTAINTY') )",
		length, angle)
	origin := b.placement(geometry.Vector3{}, geometry.Up, geometry.XAxis)
	b.add("ADVANCED_BREP_SHAPE_REPRESENTATION('%s',(#%d,#%d),#%d)", name, solid, origin, ctx)
	return File(name, strings.Join(b.lines, "\n"))
}

// File wraps Part 21 data section lines into a complete exchange file
func File(name, data string) string {
	var sb strings.Builder
	sb.WriteString("ISO-10303-21;\nHEADER;\n")
	sb.WriteString("FILE_DESCRIPTION(('fixture'),'2;1');\n")
	fmt.Fprintf(&sb, "FILE_NAME('%s.step','2024-01-01T00:00:00',(''),(''),'','','');\n", name)
	sb.WriteString("FILE_SCHEMA(('CONFIG_CONTROL_DESIGN'));\nENDSEC;\nDATA;\n")
	sb.WriteString(strings.TrimSpace(data))
	sb.WriteString("\nENDSEC;\nEND-ISO-10303-21;\n")
	return sb.String()
}

// BoxOptions tweaks the generated box
type BoxOptions struct {
	// ReversedBottom writes the bottom face on a +Z plane with
	// same_sense .F. instead of on a -Z plane
	ReversedBottom bool
	// OrientedBottom writes the bottom face on a +Z plane wrapped in an
	// ORIENTED_FACE with orientation .F.
	OrientedBottom bool
	// OrientedShell wraps the shell in an ORIENTED_CLOSED_SHELL with
	// orientation .F., turning every face inside out
	OrientedShell bool
}

// Box returns a STEP file with an axis-aligned box spanning (0,0,0) to
// (sx,sy,sz). Faces are listed bottom, top, -Y, +Y, -X, +X.
func Box(sx, sy, sz float64, opts BoxOptions) string {
	b := &builder{}
	shell := b.add("CLOSED_SHELL('',(%s))", refList(b.box(geometry.Vector3{}, sx, sy, sz, opts)))
	if opts.OrientedShell {
		shell = b.add("ORIENTED_CLOSED_SHELL('',*,#%d,.F.)", shell)
	}
	solid := b.add("MANIFOLD_SOLID_BREP('box',#%d)", shell)
	return b.finish("box", solid)
}

// HollowBox returns a STEP file with a cube of the given size holding a
// cubic void whose walls are wall thick. Outer faces come first, then the
// void faces, both in Box order.
func HollowBox(size, wall float64) string {
	b := &builder{}
	outer := b.add("CLOSED_SHELL('',(%s))", refList(b.box(geometry.Vector3{}, size, size, size, BoxOptions{})))
	inner := size - 2*wall
	void := b.add("CLOSED_SHELL('',(%s))",
		refList(b.box(geometry.NewVector3(wall, wall, wall), inner, inner, inner, BoxOptions{})))
	void = b.add("ORIENTED_CLOSED_SHELL('',*,#%d,.F.)", void)
	solid := b.add("BREP_WITH_VOIDS('hollow',#%d,(#%d))", outer, void)
	return b.finish("hollow", solid)
}

// box adds the six faces of an axis-aligned box with its minimum corner at
// origin
func (b *builder) box(origin geometry.Vector3, sx, sy, sz float64, opts BoxOptions) []int {
	corner := func(i int) geometry.Vector3 {
		return origin.Add(geometry.NewVector3(float64(i&1)*sx, float64(i>>1&1)*sy, float64(i>>2&1)*sz))
	}
	vertices := make([]int, 8)
	for i := range vertices {
		vertices[i] = b.vertex(corner(i))
	}

	type edgeKey struct{ a, b int }
	edges := make(map[edgeKey]int)
	orientedEdge := func(from, to int) int {
		if id, ok := edges[edgeKey{from, to}]; ok {
			return b.orientedEdge(id, true)
		}
		if id, ok := edges[edgeKey{to, from}]; ok {
			return b.orientedEdge(id, false)
		}
		curve := b.line(corner(from), corner(to))
		id := b.add("EDGE_CURVE('',#%d,#%d,#%d,.T.)", vertices[from], vertices[to], curve)
		edges[edgeKey{from, to}] = id
		return b.orientedEdge(id, true)
	}

	type faceSpec struct {
		loop      [4]int
		normal    geometry.Vector3
		ref       geometry.Vector3
		sameSense bool
	}
	specs := []faceSpec{
		{[4]int{0, 2, 3, 1}, geometry.Down, geometry.XAxis, true},
		{[4]int{4, 5, 7, 6}, geometry.Up, geometry.XAxis, true},
		{[4]int{0, 1, 5, 4}, geometry.YAxis.Mul(-1), geometry.XAxis, true},
		{[4]int{2, 6, 7, 3}, geometry.YAxis, geometry.XAxis, true},
		{[4]int{0, 4, 6, 2}, geometry.XAxis.Mul(-1), geometry.YAxis, true},
		{[4]int{1, 3, 7, 5}, geometry.XAxis, geometry.YAxis, true},
	}
	if opts.ReversedBottom {
		specs[0].normal, specs[0].sameSense = geometry.Up, false
	}
	if opts.OrientedBottom {
		specs[0].normal = geometry.Up
	}

	faces := make([]int, 0, len(specs))
	for i, s := range specs {
		oes := make([]int, 4)
		for j := range s.loop {
			oes[j] = orientedEdge(s.loop[j], s.loop[(j+1)%4])
		}
		plane := b.add("PLANE('',#%d)", b.placement(corner(s.loop[0]), s.normal, s.ref))
		f := b.face(plane, s.sameSense, oes...)
		if i == 0 && opts.OrientedBottom {
			f = b.add("ORIENTED_FACE('',*,#%d,.F.)", f)
		}
		faces = append(faces, f)
	}
	return faces
}

// Cylinder returns a STEP file with a cylinder of the given radius standing
// on the XY plane with its axis along +Z. Faces are listed lateral, bottom,
// top.
func Cylinder(radius, height float64) string {
	b := &builder{}
	surface := b.add("CYLINDRICAL_SURFACE('',#%d,%s)",
		b.placement(geometry.Vector3{}, geometry.Up, geometry.XAxis), real(radius))
	shell := b.add("CLOSED_SHELL('',(%s))", refList(b.lathe(radius, radius, height, surface)))
	solid := b.add("MANIFOLD_SOLID_BREP('cylinder',#%d)", shell)
	return b.finish("cylinder", solid)
}

// Frustum returns a STEP file with a conical frustum standing on the XY
// plane, bottomRadius at z=0 widening to topRadius at z=height. Plane
// angles are declared in degrees. Faces are listed lateral, bottom, top.
func Frustum(bottomRadius, topRadius, height float64) string {
	b := &builder{degrees: true}
	semiAngle := math.Atan2(topRadius-bottomRadius, height) * 180 / math.Pi
	surface := b.add("CONICAL_SURFACE('',#%d,%s,%s)",
		b.placement(geometry.Vector3{}, geometry.Up, geometry.XAxis), real(bottomRadius), real(semiAngle))
	shell := b.add("CLOSED_SHELL('',(%s))", refList(b.lathe(bottomRadius, topRadius, height, surface)))
	solid := b.add("MANIFOLD_SOLID_BREP('frustum',#%d)", shell)
	return b.finish("frustum", solid)
}

// lathe adds the faces of a solid of revolution around +Z whose lateral
// surface runs from a circle of r0 at z=0 to a circle of r1 at z=height
func (b *builder) lathe(r0, r1, height float64, lateralSurface int) []int {
	bottom := geometry.NewVector3(r0, 0, 0)
	top := geometry.NewVector3(r1, 0, height)
	v0 := b.vertex(bottom)
	v1 := b.vertex(top)

	c0 := b.add("EDGE_CURVE('',#%d,#%d,#%d,.T.)", v0, v0, b.circle(geometry.Vector3{}, r0))
	c1 := b.add("EDGE_CURVE('',#%d,#%d,#%d,.T.)", v1, v1, b.circle(geometry.NewVector3(0, 0, height), r1))
	seam := b.add("EDGE_CURVE('',#%d,#%d,#%d,.T.)", v0, v1, b.line(bottom, top))

	lateral := b.face(lateralSurface, true,
		b.orientedEdge(c0, true), b.orientedEdge(seam, true), b.orientedEdge(c1, false), b.orientedEdge(seam, false))

	bottomPlane := b.add("PLANE('',#%d)", b.placement(geometry.Vector3{}, geometry.Down, geometry.XAxis))
	bottomFace := b.face(bottomPlane, true, b.orientedEdge(c0, false))

	topPlane := b.add("PLANE('',#%d)", b.placement(geometry.NewVector3(0, 0, height), geometry.Up, geometry.XAxis))
	topFace := b.face(topPlane, true, b.orientedEdge(c1, true))

	return []int{lateral, bottomFace, topFace}
}

func (b *builder) circle(center geometry.Vector3, radius float64) int {
	ax := b.placement(center, geometry.Up, geometry.XAxis)
	return b.add("CIRCLE('',#%d,%s)", ax, real(radius))
}

// Hemisphere returns a STEP file with the upper half of a sphere centred at
// the origin. The dome is bounded by the equator only. Faces are listed
// dome, base.
func Hemisphere(radius float64) string {
	b := &builder{}
	v := b.vertex(geometry.NewVector3(radius, 0, 0))
	equator := b.add("EDGE_CURVE('',#%d,#%d,#%d,.T.)", v, v, b.circle(geometry.Vector3{}, radius))

	sphere := b.add("SPHERICAL_SURFACE('',#%d,%s)",
		b.placement(geometry.Vector3{}, geometry.Up, geometry.XAxis), real(radius))
	dome := b.face(sphere, true, b.orientedEdge(equator, true))

	plane := b.add("PLANE('',#%d)", b.placement(geometry.Vector3{}, geometry.Down, geometry.XAxis))
	base := b.face(plane, true, b.orientedEdge(equator, false))

	shell := b.add("CLOSED_SHELL('',(#%d,#%d))", dome, base)
	solid := b.add("MANIFOLD_SOLID_BREP('hemisphere',#%d)", shell)
	return b.finish("hemisphere", solid)
}

// EllipticPlate returns a STEP surface model with a single face on the XY
// plane bounded by an ellipse with semi-axes a along X and semiB along Y
func EllipticPlate(a, semiB float64) string {
	b := &builder{}
	v := b.vertex(geometry.NewVector3(a, 0, 0))
	ellipse := b.add("ELLIPSE('',#%d,%s,%s)",
		b.placement(geometry.Vector3{}, geometry.Up, geometry.XAxis), real(a), real(semiB))
	edge := b.add("EDGE_CURVE('',#%d,#%d,#%d,.T.)", v, v, ellipse)

	plane := b.add("PLANE('',#%d)", b.placement(geometry.Vector3{}, geometry.Up, geometry.XAxis))
	face := b.face(plane, true, b.orientedEdge(edge, true))

	shell := b.add("OPEN_SHELL('',(#%d))", face)
	model := b.add("SHELL_BASED_SURFACE_MODEL('plate',(#%d))", shell)
	return b.finish("plate", model)
}

// Write stores content under dir and returns the path
func Write(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}

func real(f float64) string {
	return step.FormatReal(f)
}

func logical(b bool) string {
	if b {
		return ".T."
	}
	return ".F."
}

func refList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ",")
}
