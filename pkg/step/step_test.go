package step

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `ISO-10303-21;
HEADER;
/* generated for tests */
FILE_DESCRIPTION(('sample'),'2;1');
FILE_NAME('part.stp','2024-01-01T00:00:00',('it''s me'),(''),'','','');
FILE_SCHEMA(('CONFIG_CONTROL_DESIGN'));
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,-1.5,2.E-3));
#2=DIRECTION('axis',(0.,0.,1.));
#3=AXIS2_PLACEMENT_3D('',#1,#2,$);
#4=( LENGTH_UNIT() NAMED_UNIT(*) SI_UNIT(.MILLI.,.METRE.) );
#5=UNCERTAINTY_MEASURE_WITH_UNIT(LENGTH_MEASURE(1.E-07),#4,'distance_accuracy_value','');
#6=EDGE_CURVE('',#7,#7,#8,.T.);
#7=VERTEX_POINT('',#1);
#8=CIRCLE('',#3,10);
#9=BINARY_THING("0FF");
ENDSEC;
END-ISO-10303-21;
`

func mustDecode(t *testing.T, src string) *Model {
	t.Helper()
	m, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	return m
}

func TestDecodeSample(t *testing.T) {
	m := mustDecode(t, sample)

	require.Equal(t, 9, m.Len())
	require.Len(t, m.Header, 3)

	name, ok := m.HeaderRecord("FILE_NAME")
	require.True(t, ok)
	author, err := name.Params[2].List[0].AsString()
	require.NoError(t, err)
	assert.Equal(t, "it's me", author)

	pt, ok := m.Get(1)
	require.True(t, ok)
	assert.True(t, pt.Is("CARTESIAN_POINT"))
	coords, err := pt.Params()[1].AsFloats()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -1.5, 0.002}, coords)

	placement, _ := m.Get(3)
	assert.True(t, placement.Params()[3].IsUnset())

	unit, _ := m.Get(4)
	assert.True(t, unit.Complex)
	assert.False(t, unit.Is("LENGTH_UNIT"))
	assert.True(t, unit.Has("SI_UNIT"))
	si, _ := unit.Record("SI_UNIT")
	prefix, err := si.Params[0].AsEnum()
	require.NoError(t, err)
	assert.Equal(t, "MILLI", prefix)

	uncertainty, _ := m.Get(5)
	v, err := uncertainty.Params()[0].AsFloat()
	require.NoError(t, err)
	assert.InDelta(t, 1e-7, v, 1e-20)

	circle, _ := m.Get(8)
	radius, err := circle.Params()[2].AsFloat()
	require.NoError(t, err)
	assert.Equal(t, 10.0, radius)

	edge, _ := m.Get(6)
	sense, err := edge.Params()[4].AsBool()
	require.NoError(t, err)
	assert.True(t, sense)
}

func TestRoundTrip(t *testing.T) {
	m := mustDecode(t, sample)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m))

	again := mustDecode(t, buf.String())
	if diff := cmp.Diff(m.Entities(), again.Entities()); diff != "" {
		t.Errorf("entities changed after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m.Header, again.Header); diff != "" {
		t.Errorf("header changed after round trip (-want +got):\n%s", diff)
	}
	assert.Contains(t, buf.String(), "#1=CARTESIAN_POINT('',(0.,-1.5,2.E-3));")
	assert.Contains(t, buf.String(), "#4=(LENGTH_UNIT()NAMED_UNIT(*)SI_UNIT(.MILLI.,.METRE.));")
}

func TestSyntaxErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
	}{
		{"not step", "solid cube\nfacet normal 0 0 1\n", 1},
		{"missing semicolon", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=POINT(1.)\n#2=POINT(2.);\nENDSEC;\nEND-ISO-10303-21;\n", 6},
		{"unterminated string", "ISO-10303-21;\nHEADER;\nFILE_NAME('abc);\n", 3},
		{"duplicate id", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=A();\n#1=B();\nENDSEC;\nEND-ISO-10303-21;\n", 6},
		{"truncated", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=A(", 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax), "expected ErrSyntax, got %v", err)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tc.line, syntaxErr.Line)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := mustDecode(t, sample)
	c := m.Clone()

	pt, _ := c.Get(1)
	pt.Records[0].Params[1].List[0] = Real(42)
	c.Add("DIRECTION", String(""), Reals(1, 0, 0))

	orig, _ := m.Get(1)
	coords, _ := orig.Params()[1].AsFloats()
	assert.Equal(t, 0.0, coords[0])
	assert.Equal(t, 9, m.Len())
	assert.Equal(t, 10, c.Len())
}

func TestAddAllocatesAfterHighestID(t *testing.T) {
	m := mustDecode(t, sample)
	id := m.Add("COLOUR_RGB", String(""), Real(1), Real(0), Real(0))
	assert.Equal(t, 10, id)

	m.Remove(id, 3, 999)
	_, ok := m.Get(3)
	assert.False(t, ok)
	assert.Equal(t, 8, m.Len())
	assert.Equal(t, 11, m.Add("X"))
}

func TestReachable(t *testing.T) {
	m := mustDecode(t, sample)
	assert.Equal(t, []int{1, 2, 3, 6, 7, 8}, m.Reachable(6))
	assert.Equal(t, []int{4, 5}, m.Reachable(5))
}

func TestOfType(t *testing.T) {
	m := mustDecode(t, sample)
	points := m.OfType("CARTESIAN_POINT")
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].ID)
	assert.Empty(t, m.OfType("SI_UNIT"), "complex instances are not simple types")
}

func TestFormatReal(t *testing.T) {
	cases := map[float64]string{
		0:       "0.",
		1:       "1.",
		-2.5:    "-2.5",
		100:     "100.",
		1e-5:    "1.E-05",
		1.25e22: "1.25E+22",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatReal(in), "FormatReal(%v)", in)
	}
}

func TestStringEscaping(t *testing.T) {
	p := String("it's")
	assert.Equal(t, "it''s", p.Str)
	s, err := p.AsString()
	require.NoError(t, err)
	assert.Equal(t, "it's", s)
}

func TestWriteFileAndParse(t *testing.T) {
	m := mustDecode(t, sample)
	path := filepath.Join(t.TempDir(), "out.step")
	require.NoError(t, WriteFile(path, m))

	again, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, m.Len(), again.Len())
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.step")
	require.Error(t, WriteFile(path, NewModel()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.step"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
