package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/sampling"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tree is an inline tree description. Exactly one of Tree and Specs
	// must be set.
	Tree *TreeDef `yaml:"tree,omitempty"`

	// Specs is a directory of CUE tree descriptions, relative to the
	// scenario file.
	Specs string `yaml:"specs,omitempty"`

	// TreeID selects a tree from Specs. It may be empty when the
	// directory declares a single tree.
	TreeID string `yaml:"tree_id,omitempty"`

	// Gsim builds the tree as a GSIM tree restricted to TRTs.
	Gsim bool     `yaml:"gsim,omitempty"`
	TRTs []string `yaml:"trts,omitempty"`

	// Collapsed lists branch set ids to collapse.
	Collapsed []string `yaml:"collapsed,omitempty"`

	// SourceModelRules enables the source model placement checks.
	SourceModelRules bool `yaml:"source_model_rules,omitempty"`

	Sampling Sampling `yaml:"sampling,omitempty"`

	// Assertions validate the built tree and its realizations.
	Assertions []Assertion `yaml:"assertions"`

	dir string
}

// Sampling selects how realizations are produced. NumSamples 0
// enumerates every path.
type Sampling struct {
	NumSamples int    `yaml:"num_samples"`
	Seed       uint64 `yaml:"seed"`
	Method     string `yaml:"method,omitempty"`
	Grouped    bool   `yaml:"grouped,omitempty"`
	MaxPaths   int    `yaml:"max_paths,omitempty"`
}

// TreeDef is the inline YAML form of a logic tree.
type TreeDef struct {
	ID         string         `yaml:"id"`
	BranchSets []BranchSetDef `yaml:"branch_sets"`
}

// BranchSetDef is the YAML form of a branch set.
type BranchSetDef struct {
	ID       string              `yaml:"id"`
	Type     string              `yaml:"type"`
	Filters  map[string][]string `yaml:"filters,omitempty"`
	Branches []BranchDef         `yaml:"branches"`

	line int
}

// UnmarshalYAML records the line of the branch set for error reporting.
func (d *BranchSetDef) UnmarshalYAML(n *yaml.Node) error {
	type plain BranchSetDef
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.line = n.Line
	return nil
}

// BranchDef is the YAML form of a branch.
type BranchDef struct {
	ID          string    `yaml:"id"`
	Weight      WeightDef `yaml:"weight"`
	Uncertainty string    `yaml:"uncertainty"`
}

// WeightDef accepts a number or a mapping of weight keys that includes
// "weight".
type WeightDef struct {
	ir.Weight
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *WeightDef) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var f float64
		if err := n.Decode(&f); err != nil {
			return fmt.Errorf("line %d: weight: %w", n.Line, err)
		}
		w.Weight = ir.Scalar(f)
		return nil
	}
	var m map[string]float64
	if err := n.Decode(&m); err != nil {
		return fmt.Errorf("line %d: weight: %w", n.Line, err)
	}
	def, ok := m[ir.DefaultWeightKey]
	if !ok {
		return fmt.Errorf("line %d: weight mapping requires key %q", n.Line, ir.DefaultWeightKey)
	}
	w.Weight = ir.NewWeight(def, m)
	return nil
}

// Spec converts the definition into the form the builders consume.
func (d *TreeDef) Spec() ir.LogicTreeSpec {
	spec := ir.LogicTreeSpec{ID: d.ID}
	for _, bs := range d.BranchSets {
		bss := ir.BranchSetSpec{
			ID:              bs.ID,
			UncertaintyType: bs.Type,
			Line:            bs.line,
		}
		if len(bs.Filters) > 0 {
			bss.Filters = ir.Filters(bs.Filters).Clone()
		}
		for _, b := range bs.Branches {
			bss.Branches = append(bss.Branches, ir.BranchSpec{
				ID:          b.ID,
				Weight:      b.Weight.Weight,
				Uncertainty: b.Uncertainty,
			})
		}
		spec.BranchSets = append(spec.BranchSets, bss)
	}
	return spec
}

// Assertion validates the tree or its realizations.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is used by num_paths and realization_count.
	Count *int `yaml:"count,omitempty"`

	// Path is a sequence of branch ids (path_contains, bset_value).
	Path []string `yaml:"path,omitempty"`

	// Paths is the expected relative order (path_order).
	Paths [][]string `yaml:"paths,omitempty"`

	// Weight is the expected weight (path_contains, weight_sum).
	Weight *float64 `yaml:"weight,omitempty"`

	// IMT selects a per-IMT weight instead of the default one.
	IMT string `yaml:"imt,omitempty"`

	// Samples is the expected sample count (path_contains).
	Samples *int `yaml:"samples,omitempty"`

	// BranchSet and Value are used by bset_value.
	BranchSet string `yaml:"branch_set,omitempty"`
	Value     string `yaml:"value,omitempty"`

	// Codes are the expected validation codes (error_codes).
	Codes []string `yaml:"codes,omitempty"`
}

// Assertion type constants.
const (
	AssertNumPaths         = "num_paths"
	AssertRealizationCount = "realization_count"
	AssertPathContains     = "path_contains"
	AssertPathOrder        = "path_order"
	AssertWeightSum        = "weight_sum"
	AssertBsetValue        = "bset_value"
	AssertErrorCodes       = "error_codes"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.dir = filepath.Dir(path)
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// specsDir resolves Specs relative to the scenario file.
func (s *Scenario) specsDir() string {
	if filepath.IsAbs(s.Specs) || s.dir == "" {
		return s.Specs
	}
	return filepath.Join(s.dir, s.Specs)
}

// expectsFailure reports whether the scenario asserts a build failure.
func (s *Scenario) expectsFailure() bool {
	for _, a := range s.Assertions {
		if a.Type == AssertErrorCodes {
			return true
		}
	}
	return false
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Tree == nil) == (s.Specs == "") {
		return fmt.Errorf("exactly one of tree and specs is required")
	}
	if s.Specs != "" {
		if _, err := os.Stat(s.specsDir()); err != nil {
			return fmt.Errorf("specs directory: %w", err)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Sampling.NumSamples < 0 {
		return fmt.Errorf("sampling.num_samples must be non-negative")
	}
	if s.Sampling.Method != "" {
		if _, err := sampling.ParseMethod(s.Sampling.Method); err != nil {
			return fmt.Errorf("sampling.method: %w", err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	if s.expectsFailure() && len(s.Assertions) > 1 {
		return fmt.Errorf("error_codes cannot be combined with other assertions")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNumPaths, AssertRealizationCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertPathContains:
		if len(a.Path) == 0 {
			return fmt.Errorf("assertions[%d]: path is required for path_contains", index)
		}
	case AssertPathOrder:
		if len(a.Paths) < 2 {
			return fmt.Errorf("assertions[%d]: at least two paths are required for path_order", index)
		}
	case AssertWeightSum:
	case AssertBsetValue:
		if len(a.Path) == 0 || a.BranchSet == "" {
			return fmt.Errorf("assertions[%d]: path and branch_set are required for bset_value", index)
		}
	case AssertErrorCodes:
		if len(a.Codes) == 0 {
			return fmt.Errorf("assertions[%d]: codes are required for error_codes", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
