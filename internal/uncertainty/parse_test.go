package uncertainty

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
		text string
		want Value
	}{
		{"relative b", TagBGRRelative, " -0.1 ", Float(-0.1)},
		{"absolute max mag", TagMaxMagGRAbsolute, "7.5", Float(7.5)},
		{"ab pair", TagABGRAbsolute, "3.2  0.9", FloatPair{A: 3.2, B: 0.9}},
		{"slip rate", TagTruncatedGRFromSlipAbsolute, "5 30", SlipRate{Rate: 5, Rigidity: 30}},
		{"source model", TagSourceModel, "a.xml b.xml", ModelPaths{"a.xml", "b.xml"}},
		{"msr", TagSetMSRAbsolute, "WC1994", Name("WC1994")},
		{"incremental", TagIncrementalMFDAbsolute, "5.0 0.1 0.01 0.005", IncrementalMFD{MinMag: 5, BinWidth: 0.1, Rates: []float64{0.01, 0.005}}},
		{"dummy", TagDummy, "", Dummy{}},
		{"bare gsim", TagGmpeModel, "BooreAtkinson2008", Gsim{Name: "BooreAtkinson2008"}},
		{"unknown tag falls back to float", Tag("someNewTag"), "0.25", Float(0.25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.tag, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSimpleFaultGeometry(t *testing.T) {
	v, err := Parse(TagSimpleFaultGeometryAbsolute, "trace=10 45, 10.5 45.2; upper=0; lower=15; dip=60; spacing=1")
	require.NoError(t, err)

	g := v.(SimpleFaultGeometry)
	assert.Equal(t, []Point{{Lon: 10, Lat: 45}, {Lon: 10.5, Lat: 45.2}}, g.Trace)
	assert.Equal(t, 15.0, g.LowerDepth)
	assert.Equal(t, 60.0, g.Dip)
}

func TestParseComplexFaultGeometry(t *testing.T) {
	v, err := Parse(TagComplexFaultGeometryAbsolute, "edge=10 45 0, 11 45 0; edge=10 45.1 20, 11 45.1 20; spacing=2")
	require.NoError(t, err)

	g := v.(ComplexFaultGeometry)
	require.Len(t, g.Edges, 2)
	assert.Equal(t, 20.0, g.Edges[1][0].Depth)
	assert.Equal(t, 2.0, g.Spacing)
}

func TestParseCharacteristicGeometry(t *testing.T) {
	simple, err := Parse(TagCharacteristicFaultGeometryAbsolute, "trace=10 45, 11 45; upper=0; lower=10; dip=90; spacing=1")
	require.NoError(t, err)
	assert.NotNil(t, simple.(CharacteristicGeometry).Simple)

	complex, err := Parse(TagCharacteristicFaultGeometryAbsolute, "edge=10 45 0, 11 45 0; edge=10 45 10, 11 45 10; spacing=1")
	require.NoError(t, err)
	assert.NotNil(t, complex.(CharacteristicGeometry).Complex)
}

func TestParseErrorsNameExpectedShape(t *testing.T) {
	tests := []struct {
		name     string
		tag      Tag
		text     string
		contains string
	}{
		{"float not numeric", TagBGRRelative, "abc", "a number"},
		{"unknown tag not numeric", Tag("someNewTag"), "abc", "a number"},
		{"pair with one number", TagABGRAbsolute, "3.2", "two numbers"},
		{"empty paths", TagSourceModel, "  ", "file paths"},
		{"mfd too short", TagIncrementalMFDAbsolute, "5.0 0.1", "minMag binWidth"},
		{"mfd negative rate", TagIncrementalMFDAbsolute, "5.0 0.1 -1", "minMag binWidth"},
		{"geometry missing key", TagSimpleFaultGeometryAbsolute, "trace=10 45, 11 45; upper=0; lower=10; dip=60", "trace="},
		{"geometry bad depths", TagSimpleFaultGeometryAbsolute, "trace=10 45, 11 45; upper=10; lower=5; dip=60; spacing=1", "trace="},
		{"geometry bad point", TagSimpleFaultGeometryAbsolute, "trace=10, 11 45; upper=0; lower=5; dip=60; spacing=1", "trace="},
		{"complex one edge", TagComplexFaultGeometryAbsolute, "edge=10 45 0, 11 45 0; spacing=1", "edge="},
		{"characteristic unknown", TagCharacteristicFaultGeometryAbsolute, "planes=1", "simple"},
		{"msr not identifier", TagSetMSRAbsolute, "WC 1994", "relationship"},
		{"dummy with text", TagDummy, "x", "empty text"},
		{"nan", TagMaxMagGRAbsolute, "NaN", "a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.tag, tt.text)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.tag, perr.Tag)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	inputs := map[Tag]string{
		TagBGRRelative:                         "-0.1",
		TagABGRAbsolute:                        "3.2 0.9",
		TagTruncatedGRFromSlipAbsolute:         "5 30",
		TagSourceModel:                         "a.xml b.xml",
		TagSetMSRAbsolute:                      "WC1994",
		TagIncrementalMFDAbsolute:              "5 0.1 0.01 0.005",
		TagSimpleFaultGeometryAbsolute:         "trace=10 45, 10.5 45.2; upper=0; lower=15; dip=60; spacing=1",
		TagComplexFaultGeometryAbsolute:        "edge=10 45 0, 11 45 0; edge=10 45.1 20, 11 45.1 20; spacing=2",
		TagCharacteristicFaultGeometryAbsolute: "trace=10 45, 11 45; upper=0; lower=10; dip=90; spacing=1",
		TagGmpeModel:                           "[GMPETable]\ngmpe_table = 'tables/a.hdf5'",
		TagDummy:                               "",
	}

	for tag, text := range inputs {
		t.Run(string(tag), func(t *testing.T) {
			v := MustParse(tag, text)
			again, err := Parse(tag, v.Canonical())
			require.NoError(t, err)
			assert.Equal(t, v.Canonical(), again.Canonical())
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse(TagBGRRelative, "x") })
}
