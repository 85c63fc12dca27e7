package gsim

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/logictree"
	"github.com/roach88/logictree/internal/uncertainty"
)

// AllTRTs selects every tectonic region type of the tree.
const AllTRTs = "*"

// AvgPoeGMPE is the name of the pseudo-model a collapsed branch set
// resolves to.
const AvgPoeGMPE = "AvgPoeGMPE"

// Tree is a ground-motion logic tree restricted to its effective TRTs.
type Tree struct {
	lt        *logictree.Tree
	spec      ir.LogicTreeSpec // effective branch sets only
	trts      []string         // one per level
	collapsed []string
	logger    *zap.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithCollapsed collapses the named branch sets into AvgPoeGMPE branches.
func WithCollapsed(bsIDs ...string) Option {
	return func(t *Tree) {
		t.collapsed = append(t.collapsed, bsIDs...)
	}
}

// New validates spec as a GSIM tree and builds it for the given TRTs.
// A TRT in trts that the tree lacks is an error; AllTRTs, or an empty
// list, keeps every TRT.
func New(spec ir.LogicTreeSpec, trts []string, opts ...Option) (*Tree, error) {
	t := &Tree{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}

	bsets := spec.Flatten()
	if errs := validate(bsets, trts); len(errs) > 0 {
		return nil, logictree.ValidationErrors(errs)
	}

	all := len(trts) == 0 || slices.Contains(trts, AllTRTs)
	effective := spec
	effective.Levels = nil
	effective.BranchSets = nil
	for _, bs := range bsets {
		trt := bs.Filters[ir.FilterApplyToTRT][0]
		if !all && !slices.Contains(trts, trt) {
			t.logger.Debug("dropped non-effective region", zap.String("bset", bs.ID), zap.String("trt", trt))
			continue
		}
		effective.BranchSets = append(effective.BranchSets, bs)
		t.trts = append(t.trts, trt)
	}
	t.spec = effective

	lt, err := logictree.Build(effective,
		logictree.WithLogger(t.logger),
		logictree.WithCollapsed(t.collapsed...),
		logictree.WithCollapseValue(averageGsims),
		logictree.WithValueFunc(resolveFiles(spec.BaseDir)),
	)
	if err != nil {
		return nil, err
	}
	t.lt = lt
	t.logger.Info("gsim logic tree built",
		zap.String("tree", spec.ID),
		zap.Strings("trts", t.trts),
		zap.Int("paths", lt.NumPaths()))
	return t, nil
}

func validate(bsets []ir.BranchSetSpec, trts []string) []logictree.ValidationError {
	var errs []logictree.ValidationError
	seen := make(map[string]string) // trt -> branch set id
	for i, bs := range bsets {
		field := fmt.Sprintf("branch_sets[%d]", i)
		if bs.ID != "" {
			field = fmt.Sprintf("branch_sets[%s]", bs.ID)
		}

		// E213: gmpeModel sets with exactly one TRT and no other filter
		if bs.UncertaintyType != string(uncertainty.TagGmpeModel) {
			errs = append(errs, logictree.ValidationError{
				Field:   field + ".uncertainty_type",
				Message: fmt.Sprintf("GSIM branch sets must be %s, got %q", uncertainty.TagGmpeModel, bs.UncertaintyType),
				Code:    logictree.ErrNotGsimBranchSet,
				Line:    bs.Line,
			})
		}
		regions := bs.Filters[ir.FilterApplyToTRT]
		if len(regions) != 1 {
			errs = append(errs, logictree.ValidationError{
				Field:   field + ".filters",
				Message: "GSIM branch sets need exactly one applyToTectonicRegionType",
				Code:    logictree.ErrNotGsimBranchSet,
				Line:    bs.Line,
			})
			continue
		}
		if others := slices.DeleteFunc(bs.Filters.Keys(), func(k string) bool { return k == ir.FilterApplyToTRT }); len(others) > 0 {
			errs = append(errs, logictree.ValidationError{
				Field:   field + ".filters",
				Message: fmt.Sprintf("GSIM branch sets accept applyToTectonicRegionType only, got %v", others),
				Code:    logictree.ErrNotGsimBranchSet,
				Line:    bs.Line,
			})
		}

		// E214: one branch set per TRT
		if prev, dup := seen[regions[0]]; dup {
			errs = append(errs, logictree.ValidationError{
				Field:   field + ".filters",
				Message: fmt.Sprintf("region %q already has branch set %s", regions[0], prev),
				Code:    logictree.ErrDuplicateTRT,
				Line:    bs.Line,
			})
			continue
		}
		seen[regions[0]] = bs.ID
	}

	// E207: requested regions exist
	for _, trt := range trts {
		if trt == AllTRTs {
			continue
		}
		if _, ok := seen[trt]; !ok {
			errs = append(errs, logictree.ValidationError{
				Field:   "trts",
				Message: fmt.Sprintf("region %q has no branch set in the GSIM logic tree", trt),
				Code:    logictree.ErrUnknownReference,
			})
		}
	}
	return errs
}

// resolveFiles pins every file parameter to its location under baseDir.
func resolveFiles(baseDir string) logictree.ValueFunc {
	return func(_ uncertainty.Tag, v uncertainty.Value) (uncertainty.Value, error) {
		g, ok := v.(uncertainty.Gsim)
		if !ok {
			return v, nil
		}
		for _, param := range g.FileKeys() {
			g = g.WithResolved(param, g.Path(param, baseDir))
		}
		return g, nil
	}
}

// averageGsims builds the AvgPoeGMPE value of a collapsed branch set:
// one entry per branch id holding the GSIM, its parameters and weight.
func averageGsims(bs *logictree.BranchSet) (uncertainty.Value, error) {
	params := make(map[string]any, len(bs.Branches))
	for _, br := range bs.Branches {
		g, ok := br.Value.(uncertainty.Gsim)
		if !ok {
			return nil, fmt.Errorf("branch %s holds %T, not a GSIM", br.ID, br.Value)
		}
		inner := make(map[string]any, len(g.Params)+1)
		maps.Copy(inner, g.Params)
		inner[ir.DefaultWeightKey] = br.Weight.Default
		params[br.ID] = map[string]any{g.Name: inner}
	}
	return uncertainty.NewGsim(AvgPoeGMPE, params), nil
}

// Engine returns the underlying logic tree.
func (t *Tree) Engine() *logictree.Tree {
	return t.lt
}

// TRTs returns the effective tectonic region types, one per level.
func (t *Tree) TRTs() []string {
	return slices.Clone(t.trts)
}

// NumPaths returns the number of realizations full enumeration yields.
func (t *Tree) NumPaths() int {
	return t.lt.NumPaths()
}

// Realizations produces the realizations of the tree.
func (t *Tree) Realizations(opts logictree.RealizationOptions) ([]logictree.Realization, error) {
	return t.lt.Realizations(opts)
}

// Collapse returns a new tree in which the named branch sets, and those
// already collapsed, are collapsed.
func (t *Tree) Collapse(bsIDs ...string) (*Tree, error) {
	ids := append(slices.Clone(t.collapsed), bsIDs...)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	return New(t.spec, []string{AllTRTs}, WithLogger(t.logger), WithCollapsed(ids...))
}

// Gsims returns the effective GSIMs of each TRT. A collapsed branch set
// contributes its AvgPoeGMPE value only.
func (t *Tree) Gsims() map[string][]uncertainty.Gsim {
	out := make(map[string][]uncertainty.Gsim, len(t.trts))
	for level, bs := range t.lt.BranchSets() {
		for _, br := range bs.Effective() {
			if g, ok := br.Value.(uncertainty.Gsim); ok {
				out[t.trts[level]] = append(out[t.trts[level]], g)
			}
		}
	}
	return out
}

// RlzsByGsim maps the canonical form of each GSIM used for trt to the
// ordinals of the enumerated realizations that select it.
func (t *Tree) RlzsByGsim(trt string) (map[string][]int, error) {
	level := slices.Index(t.trts, trt)
	if level < 0 {
		return nil, fmt.Errorf("region %q is not effective in this tree", trt)
	}
	rlzs, err := t.lt.Realizations(logictree.RealizationOptions{})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]int)
	for _, r := range rlzs {
		key := r.Value[level].Canonical()
		out[key] = append(out[key], r.Ordinal)
	}
	return out, nil
}
