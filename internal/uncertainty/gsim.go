package uncertainty

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileParams are the GSIM parameters whose values name data files. Their
// contents travel with a serialized GSIM tree.
var FileParams = []string{"gmpe_table", "sigma_table", "coeffs_file"}

// Gsim is a ground-shaking intensity model reference: a model name plus
// its keyword parameters, as written in a TOML table.
//
//	BooreAtkinson2008
//
//	[GMPETable]
//	gmpe_table = "tables/Wcrust_low_rhypo.hdf5"
//
// Resolved file locations are kept apart from Params so the canonical form
// does not change when a file is rehydrated elsewhere.
type Gsim struct {
	Name   string
	Params map[string]any

	resolved map[string]string
}

func (Gsim) isValue() {}

// NewGsim returns a Gsim with a copy of params.
func NewGsim(name string, params map[string]any) Gsim {
	g := Gsim{Name: name}
	if len(params) > 0 {
		g.Params = maps.Clone(params)
	}
	return g
}

// Canonical implements Value: the bare name without parameters, a TOML
// table with sorted keys otherwise.
func (g Gsim) Canonical() string {
	if len(g.Params) == 0 {
		return g.Name
	}
	data, err := toml.Marshal(map[string]any{g.Name: g.Params})
	if err != nil {
		// Params only ever come from TOML decoding or NewGsim with
		// TOML-compatible values.
		return fmt.Sprintf("[%s] # unencodable: %v", g.Name, err)
	}
	return strings.TrimSpace(string(data))
}

// String returns the canonical form.
func (g Gsim) String() string { return g.Canonical() }

// Files returns the file-valued parameters present, keyed by parameter.
func (g Gsim) Files() map[string]string {
	out := make(map[string]string)
	for _, k := range FileParams {
		if s, ok := g.Params[k].(string); ok && s != "" {
			out[k] = s
		}
	}
	return out
}

// FileKeys returns the file-valued parameters present, sorted.
func (g Gsim) FileKeys() []string {
	return slices.Sorted(maps.Keys(g.Files()))
}

// WithResolved returns a copy whose parameter param resolves to path on
// the local file system. Params are left untouched.
func (g Gsim) WithResolved(param, path string) Gsim {
	out := g
	out.resolved = maps.Clone(g.resolved)
	if out.resolved == nil {
		out.resolved = make(map[string]string)
	}
	out.resolved[param] = path
	return out
}

// Path returns where the file behind param lives: the resolved location if
// one was set, the declared path joined to baseDir otherwise. It returns ""
// when param is not a file parameter of this GSIM.
func (g Gsim) Path(param, baseDir string) string {
	if p, ok := g.resolved[param]; ok {
		return p
	}
	declared, ok := g.Files()[param]
	if !ok {
		return ""
	}
	if filepath.IsAbs(declared) || baseDir == "" {
		return declared
	}
	return filepath.Join(baseDir, declared)
}

// ParseGsim parses a bare model name or a single-table TOML document.
func ParseGsim(text string) (Gsim, error) {
	v, err := Parse(TagGmpeModel, text)
	if err != nil {
		return Gsim{}, err
	}
	return v.(Gsim), nil
}

func parseGsimValue(text string) (Value, error) {
	if text == "" {
		return nil, errEmpty
	}
	if !strings.HasPrefix(text, "[") {
		if !identifier.MatchString(text) {
			return nil, fmt.Errorf("%q is not a model name", text)
		}
		return Gsim{Name: text}, nil
	}
	var doc map[string]any
	if err := toml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	if len(doc) != 1 {
		return nil, fmt.Errorf("want exactly one table, got %d", len(doc))
	}
	var name string
	var body any
	for name, body = range doc {
	}
	if !identifier.MatchString(name) {
		return nil, fmt.Errorf("%q is not a model name", name)
	}
	params, ok := body.(map[string]any)
	if !ok {
		return nil, errors.New("model entry must be a table")
	}
	return NewGsim(name, params), nil
}
