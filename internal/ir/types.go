package ir

import (
	"slices"
	"strings"
)

// Filter keys recognized on a branch set.
const (
	FilterApplyToSources = "applyToSources"
	FilterApplyToTRT     = "applyToTectonicRegionType"
	FilterApplyToBranch  = "applyToBranches"
)

// KnownFilters lists the recognized filter keys in canonical order.
var KnownFilters = []string{FilterApplyToSources, FilterApplyToTRT, FilterApplyToBranch}

// DummyBranchID is the id of synthetic and collapsed branches.
// It is the only branch id allowed to repeat within a tree.
const DummyBranchID = "."

// LogicTreeSpec describes a whole logic tree as delivered by a front end.
//
// Exactly one of BranchSets and Levels is normally populated. Levels holds
// the legacy layout in which branch sets are grouped in branching levels;
// each level must contain a single branch set.
type LogicTreeSpec struct {
	ID         string            `json:"id"`
	BranchSets []BranchSetSpec   `json:"branch_sets,omitempty"`
	Levels     [][]BranchSetSpec `json:"levels,omitempty"`
	BaseDir    string            `json:"base_dir,omitempty"`
}

// Flatten returns the branch sets in declaration order, whichever layout
// the description uses. Levels with several branch sets are flattened as-is; the
// validator reports them.
func (s LogicTreeSpec) Flatten() []BranchSetSpec {
	if len(s.Levels) == 0 {
		return s.BranchSets
	}
	var out []BranchSetSpec
	out = append(out, s.BranchSets...)
	for _, level := range s.Levels {
		out = append(out, level...)
	}
	return out
}

// BranchSetSpec describes one decision point: sibling alternatives sharing
// an uncertainty type and a set of filters.
type BranchSetSpec struct {
	ID              string       `json:"id"`
	UncertaintyType string       `json:"uncertainty_type"`
	Filters         Filters      `json:"filters,omitempty"`
	Branches        []BranchSpec `json:"branches"`
	Line            int          `json:"line,omitempty"` // source line, 0 if unknown
}

// BranchSpec describes one weighted alternative before its uncertainty
// text is parsed.
type BranchSpec struct {
	ID          string `json:"id"`
	Weight      Weight `json:"weight"`
	Uncertainty string `json:"uncertainty"`
	Line        int    `json:"line,omitempty"`
}

// Filters maps a filter key to its values. Values are kept in declaration
// order; applyToTectonicRegionType holds a single element.
type Filters map[string][]string

// Has reports whether the filter key is present.
func (f Filters) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Keys returns the filter keys sorted.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Unknown returns the keys that are not recognized filters, sorted.
func (f Filters) Unknown() []string {
	var out []string
	for _, k := range f.Keys() {
		if !slices.Contains(KnownFilters, k) {
			out = append(out, k)
		}
	}
	return out
}

// Restricting returns the keys other than applyToBranches, sorted.
func (f Filters) Restricting() []string {
	var out []string
	for _, k := range f.Keys() {
		if k != FilterApplyToBranch {
			out = append(out, k)
		}
	}
	return out
}

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = slices.Clone(v)
	}
	return out
}

// String renders the filters as `key="v1 v2"` pairs in key order.
func (f Filters) String() string {
	parts := make([]string, 0, len(f))
	for _, k := range f.Keys() {
		parts = append(parts, k+`="`+strings.Join(f[k], " ")+`"`)
	}
	return strings.Join(parts, " ")
}
