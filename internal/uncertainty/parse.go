package uncertainty

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseError reports uncertainty text that does not have the shape its
// type requires.
type ParseError struct {
	Tag      Tag
	Text     string
	Expected string // human-readable description of the required shape
	Err      error  // underlying error (optional)
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: cannot parse %q: expected %s", e.Tag, e.Text, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type parseFunc func(text string) (Value, error)

// parsers is the parse dispatch table. Unknown tags fall back to a single
// float (see Parse).
var parsers = map[Tag]parseFunc{
	TagSourceModel:                         parseModelPaths,
	TagExtendModel:                         parseModelPaths,
	TagGmpeModel:                           parseGsimValue,
	TagDummy:                               parseDummy,
	TagBGRRelative:                         parseFloat,
	TagABGRAbsolute:                        parseFloatPair,
	TagMaxMagGRRelative:                    parseFloat,
	TagMaxMagGRAbsolute:                    parseFloat,
	TagIncrementalMFDAbsolute:              parseIncrementalMFD,
	TagTruncatedGRFromSlipAbsolute:         parseSlipRate,
	TagSimpleFaultDipRelative:              parseFloat,
	TagSimpleFaultDipAbsolute:              parseFloat,
	TagSimpleFaultGeometryAbsolute:         parseSimpleGeometry,
	TagComplexFaultGeometryAbsolute:        parseComplexGeometry,
	TagCharacteristicFaultGeometryAbsolute: parseCharacteristicGeometry,
	TagSetMSRAbsolute:                      parseName,
	TagSetLowerSeismDepthAbsolute:          parseFloat,
	TagSetUpperSeismDepthAbsolute:          parseFloat,
}

// expected describes the accepted shape per tag, used in ParseError.
var expected = map[Tag]string{
	TagSourceModel:                         "one or more whitespace-separated file paths",
	TagExtendModel:                         "one or more whitespace-separated file paths",
	TagGmpeModel:                           "a GSIM name or a TOML table",
	TagDummy:                               "empty text",
	TagABGRAbsolute:                        "two numbers: a b",
	TagIncrementalMFDAbsolute:              "numbers: minMag binWidth rate...",
	TagTruncatedGRFromSlipAbsolute:         "two numbers: slipRate rigidity",
	TagSimpleFaultGeometryAbsolute:         "trace=lon lat, ...; upper=N; lower=N; dip=N; spacing=N",
	TagComplexFaultGeometryAbsolute:        "edge=lon lat depth, ...; edge=...; spacing=N",
	TagCharacteristicFaultGeometryAbsolute: "a simple (trace=...) or complex (edge=...) fault geometry",
	TagSetMSRAbsolute:                      "a magnitude-scaling relationship name",
}

// Parse converts raw uncertainty text into the Value for tag.
// Unknown tags parse the text as one float.
func Parse(tag Tag, text string) (Value, error) {
	text = strings.TrimSpace(text)
	fn, ok := parsers[tag]
	if !ok {
		fn = parseFloat
	}
	v, err := fn(text)
	if err != nil {
		shape, ok := expected[tag]
		if !ok {
			shape = "a number"
		}
		return nil, &ParseError{Tag: tag, Text: text, Expected: shape, Err: err}
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or for literals known to be valid.
func MustParse(tag Tag, text string) Value {
	v, err := Parse(tag, text)
	if err != nil {
		panic(err)
	}
	return v
}

var errEmpty = errors.New("empty text")

func parseDummy(text string) (Value, error) {
	if text != "" {
		return nil, fmt.Errorf("unexpected text %q", text)
	}
	return Dummy{}, nil
}

func parseFloat(text string) (Value, error) {
	f, err := number(text)
	if err != nil {
		return nil, err
	}
	return Float(f), nil
}

func parseFloatPair(text string) (Value, error) {
	nums, err := numbers(text)
	if err != nil {
		return nil, err
	}
	if len(nums) != 2 {
		return nil, fmt.Errorf("got %d numbers", len(nums))
	}
	return FloatPair{A: nums[0], B: nums[1]}, nil
}

func parseSlipRate(text string) (Value, error) {
	nums, err := numbers(text)
	if err != nil {
		return nil, err
	}
	if len(nums) != 2 {
		return nil, fmt.Errorf("got %d numbers", len(nums))
	}
	if nums[0] < 0 || nums[1] <= 0 {
		return nil, errors.New("slip rate must be non-negative and rigidity positive")
	}
	return SlipRate{Rate: nums[0], Rigidity: nums[1]}, nil
}

func parseModelPaths(text string) (Value, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, errEmpty
	}
	return ModelPaths(fields), nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func parseName(text string) (Value, error) {
	if !identifier.MatchString(text) {
		return nil, fmt.Errorf("%q is not an identifier", text)
	}
	return Name(text), nil
}

func parseIncrementalMFD(text string) (Value, error) {
	nums, err := numbers(text)
	if err != nil {
		return nil, err
	}
	if len(nums) < 3 {
		return nil, fmt.Errorf("got %d numbers, need at least 3", len(nums))
	}
	if nums[1] <= 0 {
		return nil, errors.New("bin width must be positive")
	}
	for _, r := range nums[2:] {
		if r < 0 {
			return nil, errors.New("occurrence rates must be non-negative")
		}
	}
	return IncrementalMFD{MinMag: nums[0], BinWidth: nums[1], Rates: nums[2:]}, nil
}

func parseSimpleGeometry(text string) (Value, error) {
	g, err := simpleGeometry(text)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func parseComplexGeometry(text string) (Value, error) {
	g, err := complexGeometry(text)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func parseCharacteristicGeometry(text string) (Value, error) {
	switch {
	case strings.HasPrefix(text, "trace="):
		g, err := simpleGeometry(text)
		if err != nil {
			return nil, err
		}
		return CharacteristicGeometry{Simple: &g}, nil
	case strings.HasPrefix(text, "edge="):
		g, err := complexGeometry(text)
		if err != nil {
			return nil, err
		}
		return CharacteristicGeometry{Complex: &g}, nil
	default:
		return nil, errors.New("must start with trace= or edge=")
	}
}

// simpleGeometry parses "trace=lon lat, lon lat; upper=..; lower=..;
// dip=..; spacing=..". Every key is required.
func simpleGeometry(text string) (SimpleFaultGeometry, error) {
	var g SimpleFaultGeometry
	fields, err := keyValues(text)
	if err != nil {
		return g, err
	}
	seen := make(map[string]bool)
	for _, kv := range fields {
		if seen[kv.key] {
			return g, fmt.Errorf("duplicate key %q", kv.key)
		}
		seen[kv.key] = true
		switch kv.key {
		case "trace":
			g.Trace, err = points(kv.value, 2)
		case "upper":
			g.UpperDepth, err = number(kv.value)
		case "lower":
			g.LowerDepth, err = number(kv.value)
		case "dip":
			g.Dip, err = number(kv.value)
		case "spacing":
			g.Spacing, err = number(kv.value)
		default:
			err = fmt.Errorf("unknown key %q", kv.key)
		}
		if err != nil {
			return g, fmt.Errorf("%s: %w", kv.key, err)
		}
	}
	for _, k := range []string{"trace", "upper", "lower", "dip", "spacing"} {
		if !seen[k] {
			return g, fmt.Errorf("missing key %q", k)
		}
	}
	if len(g.Trace) < 2 {
		return g, errors.New("trace needs at least 2 points")
	}
	if g.LowerDepth <= g.UpperDepth {
		return g, errors.New("lower depth must exceed upper depth")
	}
	if g.Dip <= 0 || g.Dip > 90 {
		return g, errors.New("dip must be in (0, 90]")
	}
	if g.Spacing <= 0 {
		return g, errors.New("spacing must be positive")
	}
	return g, nil
}

// complexGeometry parses "edge=lon lat depth, ...; edge=...; spacing=..".
func complexGeometry(text string) (ComplexFaultGeometry, error) {
	var g ComplexFaultGeometry
	fields, err := keyValues(text)
	if err != nil {
		return g, err
	}
	hasSpacing := false
	for _, kv := range fields {
		switch kv.key {
		case "edge":
			edge, err := points(kv.value, 3)
			if err != nil {
				return g, fmt.Errorf("edge %d: %w", len(g.Edges), err)
			}
			if len(edge) < 2 {
				return g, fmt.Errorf("edge %d: needs at least 2 points", len(g.Edges))
			}
			g.Edges = append(g.Edges, edge)
		case "spacing":
			if hasSpacing {
				return g, errors.New(`duplicate key "spacing"`)
			}
			hasSpacing = true
			if g.Spacing, err = number(kv.value); err != nil {
				return g, fmt.Errorf("spacing: %w", err)
			}
		default:
			return g, fmt.Errorf("unknown key %q", kv.key)
		}
	}
	if len(g.Edges) < 2 {
		return g, errors.New("needs at least a top and a bottom edge")
	}
	if !hasSpacing || g.Spacing <= 0 {
		return g, errors.New("spacing must be given and positive")
	}
	return g, nil
}

type keyValue struct {
	key, value string
}

func keyValues(text string) ([]keyValue, error) {
	if text == "" {
		return nil, errEmpty
	}
	var out []keyValue
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%q is not key=value", part)
		}
		out = append(out, keyValue{key: strings.TrimSpace(k), value: strings.TrimSpace(v)})
	}
	return out, nil
}

// points parses comma-separated points of dim coordinates each.
func points(text string, dim int) ([]Point, error) {
	var out []Point
	for _, p := range strings.Split(text, ",") {
		nums, err := numbers(p)
		if err != nil {
			return nil, err
		}
		if len(nums) != dim {
			return nil, fmt.Errorf("point %q has %d coordinates, want %d", strings.TrimSpace(p), len(nums), dim)
		}
		pt := Point{Lon: nums[0], Lat: nums[1]}
		if dim == 3 {
			pt.Depth = nums[2]
		}
		if pt.Lon < -180 || pt.Lon > 180 || pt.Lat < -90 || pt.Lat > 90 {
			return nil, fmt.Errorf("point %q is out of range", strings.TrimSpace(p))
		}
		out = append(out, pt)
	}
	return out, nil
}

func numbers(text string) ([]float64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, errEmpty
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		n, err := number(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func number(text string) (float64, error) {
	if text == "" {
		return 0, errEmpty
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", text)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not finite", text)
	}
	return f, nil
}
