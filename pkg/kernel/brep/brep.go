// Package brep implements kernel.Kernel on top of STEP exchange files.
//
// Solids are read from the B-rep entities of a Part 21 file. Faces on
// planes, cylinders, cones and spheres can be evaluated; other surfaces
// are enumerated but report kernel.ErrUnsupportedSurface. Results are
// written with the AP214 (automotive design) schema so per-face colours
// survive the round trip into other CAD systems.
package brep

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
	"github.com/philipparndt/stepcolor/pkg/step"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// SchemaAP214 is the FILE_SCHEMA identifier written to every output file
const SchemaAP214 = "AUTOMOTIVE_DESIGN { 1 0 10303 214 1 1 1 1 }"

// presentationTypes are dropped before new colours are written
var presentationTypes = []string{
	"STYLED_ITEM",
	"OVER_RIDING_STYLED_ITEM",
	"MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION",
}

// Kernel reads and writes STEP files
type Kernel struct {
	// Now stamps FILE_NAME headers
	Now func() time.Time
	// Originator is written as the originating system of output files
	Originator string
}

// New returns a Kernel stamping output files with the current time
func New() *Kernel {
	return &Kernel{Now: time.Now, Originator: "stepcolor"}
}

// Read parses a STEP file and resolves its solid
func (k *Kernel) Read(path string) (kernel.Solid, error) {
	model, err := step.Parse(path)
	if err != nil {
		return nil, err
	}
	s, err := newSolid(model)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Transform rotates every 3D point and direction of the solid about the
// origin. The result is built from a copy of the model.
func (k *Kernel) Transform(s kernel.Solid, r geometry.Rotation) (kernel.Solid, error) {
	src, err := live(s)
	if err != nil {
		return nil, err
	}

	model := src.model.Clone()
	for _, id := range model.Reachable(src.roots...) {
		e, _ := model.Get(id)
		if !e.Is("CARTESIAN_POINT") && !e.Is("DIRECTION") {
			continue
		}
		params := e.Records[0].Params
		if len(params) < 2 {
			continue
		}
		c, err := params[1].AsFloats()
		// Points and directions in parameter space have two components.
		if err != nil || len(c) != 3 {
			continue
		}
		v := r.Apply(geometry.NewVector3(c[0], c[1], c[2]))
		params[1] = step.Reals(v.X, v.Y, v.Z)
	}

	out, err := newSolid(model)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Write stores the solid with one STYLED_ITEM per coloured face
func (k *Kernel) Write(path string, s kernel.Solid, colors map[kernel.Face]kernel.Color) error {
	src, err := live(s)
	if err != nil {
		return err
	}

	faces := make([]*face, 0, len(colors))
	for f := range colors {
		bf, ok := src.owns(f)
		if !ok {
			return fmt.Errorf("face %d: %w", f.ID(), kernel.ErrStaleFace)
		}
		faces = append(faces, bf)
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].id < faces[j].id })

	model := src.model.Clone()
	removePresentation(model)

	styles := make(map[kernel.Color]int)
	styled := make([]int, 0, len(faces))
	for _, f := range faces {
		c := colors[f]
		psa, ok := styles[c]
		if !ok {
			psa = addSurfaceStyle(model, c)
			styles[c] = psa
		}
		styled = append(styled, model.Add("STYLED_ITEM",
			step.String("color"), step.Refs(psa), step.Ref(f.id)))
	}

	if len(styled) > 0 {
		ctx := step.Unset()
		if src.context != 0 {
			ctx = step.Ref(src.context)
		}
		model.Add("MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION",
			step.String(""), step.Refs(styled...), ctx)
	}

	k.stampHeader(model, filepath.Base(path))
	return step.WriteFile(path, model)
}

// removePresentation drops existing styled items together with the style
// entities only they referenced
func removePresentation(m *step.Model) {
	var removed []int
	for _, typ := range presentationTypes {
		for _, e := range m.OfType(typ) {
			removed = append(removed, e.ID)
		}
	}
	if len(removed) == 0 {
		return
	}

	candidate := make(map[int]bool)
	for _, id := range m.Reachable(removed...) {
		candidate[id] = true
	}
	var roots []int
	for _, e := range m.Entities() {
		if !candidate[e.ID] {
			roots = append(roots, e.ID)
		}
	}
	for _, id := range m.Reachable(roots...) {
		delete(candidate, id)
	}

	drop := make([]int, 0, len(candidate))
	for id := range candidate {
		drop = append(drop, id)
	}
	m.Remove(drop...)
}

// addSurfaceStyle adds the presentation chain for a surface colour and
// returns the PRESENTATION_STYLE_ASSIGNMENT id
func addSurfaceStyle(m *step.Model, c kernel.Color) int {
	rgb := m.Add("COLOUR_RGB", step.String(""), step.Real(c.R), step.Real(c.G), step.Real(c.B))
	fillColour := m.Add("FILL_AREA_STYLE_COLOUR", step.String(""), step.Ref(rgb))
	fill := m.Add("FILL_AREA_STYLE", step.String(""), step.Refs(fillColour))
	fillArea := m.Add("SURFACE_STYLE_FILL_AREA", step.Ref(fill))
	side := m.Add("SURFACE_SIDE_STYLE", step.String(""), step.Refs(fillArea))
	usage := m.Add("SURFACE_STYLE_USAGE", step.Enum("BOTH"), step.Ref(side))
	return m.Add("PRESENTATION_STYLE_ASSIGNMENT", step.Refs(usage))
}

func (k *Kernel) stampHeader(m *step.Model, name string) {
	now := time.Now
	if k.Now != nil {
		now = k.Now
	}

	if _, ok := m.HeaderRecord("FILE_DESCRIPTION"); !ok {
		m.SetHeaderRecord(step.Record{Type: "FILE_DESCRIPTION", Params: []step.Param{
			step.List(step.String("")), step.String("2;1"),
		}})
	}
	m.SetHeaderRecord(step.Record{Type: "FILE_NAME", Params: []step.Param{
		step.String(name),
		step.String(now().UTC().Format("2006-01-02T15:04:05")),
		step.List(step.String("")),
		step.List(step.String("")),
		step.String(k.Originator),
		step.String(k.Originator),
		step.String(""),
	}})
	m.SetHeaderRecord(step.Record{Type: "FILE_SCHEMA", Params: []step.Param{
		step.List(step.String(SchemaAP214)),
	}})
	orderHeader(m)
}

// orderHeader keeps the three mandatory header records in their required
// sequence, followed by any others
func orderHeader(m *step.Model) {
	rank := map[string]int{"FILE_DESCRIPTION": 0, "FILE_NAME": 1, "FILE_SCHEMA": 2}
	sort.SliceStable(m.Header, func(i, j int) bool {
		ri, ok := rank[m.Header[i].Type]
		if !ok {
			ri = len(rank)
		}
		rj, ok := rank[m.Header[j].Type]
		if !ok {
			rj = len(rank)
		}
		return ri < rj
	})
}

// live unwraps a solid created by this package that has not been closed
func live(s kernel.Solid) (*solid, error) {
	bs, ok := s.(*solid)
	if !ok {
		return nil, errors.New("solid was not created by the brep kernel")
	}
	if bs.closed {
		return nil, kernel.ErrClosed
	}
	return bs, nil
}
