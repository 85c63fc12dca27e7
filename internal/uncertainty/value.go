package uncertainty

import (
	"strconv"
	"strings"
)

// Value is a sealed interface over the typed values branches hold.
// Only the types in this package implement it.
type Value interface {
	// Canonical returns the text form. Parsing it under the tag that
	// produced the value yields an equal value.
	Canonical() string
	isValue()
}

// Float is a single number: relative increments and absolute scalars.
type Float float64

func (Float) isValue() {}

// Canonical implements Value.
func (f Float) Canonical() string { return formatNum(float64(f)) }

// FloatPair holds two numbers, e.g. the a and b values of a
// Gutenberg-Richter distribution.
type FloatPair struct {
	A, B float64
}

func (FloatPair) isValue() {}

// Canonical implements Value.
func (p FloatPair) Canonical() string { return formatNum(p.A) + " " + formatNum(p.B) }

// ModelPaths lists the source model files a sourceModel or extendModel
// branch refers to.
type ModelPaths []string

func (ModelPaths) isValue() {}

// Canonical implements Value.
func (m ModelPaths) Canonical() string { return strings.Join(m, " ") }

// Name is a symbolic value such as a magnitude-scaling relationship.
type Name string

func (Name) isValue() {}

// Canonical implements Value.
func (n Name) Canonical() string { return string(n) }

// IncrementalMFD is an evenly discretized magnitude-frequency distribution.
type IncrementalMFD struct {
	MinMag   float64
	BinWidth float64
	Rates    []float64
}

func (IncrementalMFD) isValue() {}

// Canonical implements Value.
func (m IncrementalMFD) Canonical() string {
	parts := []string{formatNum(m.MinMag), formatNum(m.BinWidth)}
	for _, r := range m.Rates {
		parts = append(parts, formatNum(r))
	}
	return strings.Join(parts, " ")
}

// SlipRate parameterizes a truncated Gutenberg-Richter distribution
// derived from the fault slip rate.
type SlipRate struct {
	Rate     float64 // mm/yr
	Rigidity float64 // GPa
}

func (SlipRate) isValue() {}

// Canonical implements Value.
func (s SlipRate) Canonical() string { return formatNum(s.Rate) + " " + formatNum(s.Rigidity) }

// Point is a geographic location; Depth is in km and zero at the surface.
type Point struct {
	Lon, Lat, Depth float64
}

func (p Point) text(withDepth bool) string {
	s := formatNum(p.Lon) + " " + formatNum(p.Lat)
	if withDepth {
		s += " " + formatNum(p.Depth)
	}
	return s
}

// SimpleFaultGeometry describes a planar-dipping fault from its trace.
type SimpleFaultGeometry struct {
	Trace      []Point
	UpperDepth float64
	LowerDepth float64
	Dip        float64
	Spacing    float64
}

func (SimpleFaultGeometry) isValue() {}

// Canonical implements Value.
func (g SimpleFaultGeometry) Canonical() string {
	return "trace=" + joinPoints(g.Trace, false) +
		"; upper=" + formatNum(g.UpperDepth) +
		"; lower=" + formatNum(g.LowerDepth) +
		"; dip=" + formatNum(g.Dip) +
		"; spacing=" + formatNum(g.Spacing)
}

// ComplexFaultGeometry describes a fault surface through its edges, top
// edge first.
type ComplexFaultGeometry struct {
	Edges   [][]Point
	Spacing float64
}

func (ComplexFaultGeometry) isValue() {}

// Canonical implements Value.
func (g ComplexFaultGeometry) Canonical() string {
	parts := make([]string, 0, len(g.Edges)+1)
	for _, e := range g.Edges {
		parts = append(parts, "edge="+joinPoints(e, true))
	}
	parts = append(parts, "spacing="+formatNum(g.Spacing))
	return strings.Join(parts, "; ")
}

// CharacteristicGeometry is the surface of a characteristic fault source,
// given either as a simple or as a complex fault geometry.
type CharacteristicGeometry struct {
	Simple  *SimpleFaultGeometry
	Complex *ComplexFaultGeometry
}

func (CharacteristicGeometry) isValue() {}

// Canonical implements Value.
func (g CharacteristicGeometry) Canonical() string {
	if g.Simple != nil {
		return g.Simple.Canonical()
	}
	if g.Complex != nil {
		return g.Complex.Canonical()
	}
	return ""
}

// Dummy is the value of synthetic branches. It carries nothing.
type Dummy struct{}

func (Dummy) isValue() {}

// Canonical implements Value.
func (Dummy) Canonical() string { return "" }

func joinPoints(pts []Point, withDepth bool) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = p.text(withDepth)
	}
	return strings.Join(parts, ", ")
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
