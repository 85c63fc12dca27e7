package logictree

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/uncertainty"
)

// noChild marks a branch without a child branch set.
const noChild = -1

// Branch is one weighted alternative. Its child branch set, if any, is
// held by index in the owning tree's arena.
type Branch struct {
	BsID   string
	ID     string
	Weight ir.Weight
	Value  uncertainty.Value

	child int
}

// IsDummy reports whether the branch is a synthetic or collapsed one.
func (b *Branch) IsDummy() bool {
	return b.ID == ir.DummyBranchID
}

// HasChild reports whether a branch set hangs below the branch.
func (b *Branch) HasChild() bool {
	return b.child != noChild
}

// BranchSet is a set of sibling alternatives sharing an uncertainty type
// and filters.
type BranchSet struct {
	ID              string
	Ordinal         int // level in the tree, 0 for the root
	UncertaintyType uncertainty.Tag
	Filters         ir.Filters
	Collapsed       bool
	Branches        []Branch
	Line            int

	rep Branch // representative of a collapsed set
}

// IsDummy reports whether the set was synthesized for uncovered branches.
func (bs *BranchSet) IsDummy() bool {
	return bs.UncertaintyType == uncertainty.TagDummy
}

// Effective returns the branches enumeration and sampling see: the
// representative alone for a collapsed set, every branch otherwise.
func (bs *BranchSet) Effective() []*Branch {
	if bs.Collapsed {
		return []*Branch{&bs.rep}
	}
	out := make([]*Branch, len(bs.Branches))
	for i := range bs.Branches {
		out[i] = &bs.Branches[i]
	}
	return out
}

// Branch returns the effective branch with the given id.
func (bs *BranchSet) Branch(id string) (*Branch, bool) {
	for _, br := range bs.Effective() {
		if br.ID == id {
			return br, true
		}
	}
	return nil, false
}

// CollapseFunc computes the value of the representative branch of a
// collapsed branch set.
type CollapseFunc func(bs *BranchSet) (uncertainty.Value, error)

// ValueFunc post-processes every parsed branch value.
type ValueFunc func(tag uncertainty.Tag, v uncertainty.Value) (uncertainty.Value, error)

// Tree is an assembled logic tree. It is immutable once built.
type Tree struct {
	ID      string
	BaseDir string

	bsets    []BranchSet // arena; declared sets first in order, dummies after
	declared int         // number of declared branch sets
	npaths   []int       // paths below each arena entry

	logger       *zap.Logger
	collapsed    []string
	knownSources map[string]string
	sourceRules  bool
	collapseFn   CollapseFunc
	valueFn      ValueFunc
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

// WithCollapsed collapses the named branch sets.
func WithCollapsed(bsIDs ...string) Option {
	return func(t *Tree) {
		t.collapsed = append(t.collapsed, bsIDs...)
	}
}

// WithKnownSources enables checking applyToSources and
// applyToTectonicRegionType against the given source id to TRT map.
func WithKnownSources(sources map[string]string) Option {
	return func(t *Tree) {
		t.knownSources = sources
	}
}

// WithSourceModelRules enforces the source-model layout: a sourceModel
// root, no sourceModel below it, extendModel only below the root, and a
// vocabulary limited to the known uncertainty types.
func WithSourceModelRules() Option {
	return func(t *Tree) {
		t.sourceRules = true
	}
}

// WithCollapseValue sets how the representative value of a collapsed set
// is computed. By default it is the value of the first branch.
func WithCollapseValue(fn CollapseFunc) Option {
	return func(t *Tree) {
		t.collapseFn = fn
	}
}

// WithValueFunc installs a hook applied to every parsed branch value.
func WithValueFunc(fn ValueFunc) Option {
	return func(t *Tree) {
		t.valueFn = fn
	}
}

func newTree(spec ir.LogicTreeSpec, opts []Option) *Tree {
	t := &Tree{
		ID:      spec.ID,
		BaseDir: spec.BaseDir,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Build validates spec and assembles the tree.
// Validation problems are reported together as ValidationErrors.
func Build(spec ir.LogicTreeSpec, opts ...Option) (*Tree, error) {
	t := newTree(spec, opts)
	if errs := t.validate(spec); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	specs := spec.Flatten()
	t.declared = len(specs)
	t.bsets = make([]BranchSet, 0, len(specs))
	for i, bss := range specs {
		bs, err := t.branchSet(i, bss)
		if err != nil {
			return nil, err
		}
		t.bsets = append(t.bsets, bs)
	}

	t.attach()
	if err := t.collapse(); err != nil {
		return nil, err
	}
	t.countPaths()

	t.logger.Info("logic tree built",
		zap.String("tree", t.ID),
		zap.Int("branch_sets", t.declared),
		zap.Int("dummy_sets", len(t.bsets)-t.declared),
		zap.Int("paths", t.NumPaths()))
	return t, nil
}

// MustBuild is like Build but panics on error.
// Use only in tests or for literals known to be valid.
func MustBuild(spec ir.LogicTreeSpec, opts ...Option) *Tree {
	t, err := Build(spec, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree) branchSet(ordinal int, spec ir.BranchSetSpec) (BranchSet, error) {
	tag := uncertainty.Tag(spec.UncertaintyType)
	bs := BranchSet{
		ID:              spec.ID,
		Ordinal:         ordinal,
		UncertaintyType: tag,
		Filters:         spec.Filters.Clone(),
		Line:            spec.Line,
		Branches:        make([]Branch, len(spec.Branches)),
	}
	for i, b := range spec.Branches {
		v, err := uncertainty.Parse(tag, b.Uncertainty)
		if err == nil && t.valueFn != nil {
			v, err = t.valueFn(tag, v)
		}
		if err != nil {
			return bs, fmt.Errorf("branch set %s, branch %s: %w", spec.ID, b.ID, err)
		}
		bs.Branches[i] = Branch{BsID: spec.ID, ID: b.ID, Weight: b.Weight, Value: v, child: noChild}
	}
	return bs, nil
}

// attach wires the declared branch sets level by level. The branches of
// one level are the branches of the previous declared set plus the dummy
// branch of that level, if any.
func (t *Tree) attach() {
	type ref struct{ bs, br int }
	var prev []ref
	for i := range t.bsets[0].Branches {
		prev = append(prev, ref{0, i})
	}

	for level := 1; level < t.declared; level++ {
		apply := t.bsets[level].Filters[ir.FilterApplyToBranch]
		dummy := noChild
		for _, r := range prev {
			br := &t.bsets[r.bs].Branches[r.br]
			if len(apply) == 0 || slices.Contains(apply, br.ID) {
				br.child = level
				continue
			}
			if dummy == noChild {
				dummy = t.addDummy(level)
			}
			br.child = dummy
		}

		next := make([]ref, 0, len(t.bsets[level].Branches)+1)
		for i := range t.bsets[level].Branches {
			next = append(next, ref{level, i})
		}
		if dummy != noChild {
			next = append(next, ref{dummy, 0})
		}
		t.logger.Debug("attached branch set",
			zap.String("bset", t.bsets[level].ID),
			zap.Int("level", level),
			zap.Int("parents", len(prev)),
			zap.Bool("dummy", dummy != noChild))
		prev = next
	}
}

func (t *Tree) addDummy(level int) int {
	id := fmt.Sprintf("dummy@%d", level)
	t.bsets = append(t.bsets, BranchSet{
		ID:              id,
		Ordinal:         level,
		UncertaintyType: uncertainty.TagDummy,
		Branches: []Branch{{
			BsID:   id,
			ID:     ir.DummyBranchID,
			Weight: ir.Scalar(1),
			Value:  uncertainty.Dummy{},
			child:  noChild,
		}},
	})
	return len(t.bsets) - 1
}

func (t *Tree) collapse() error {
	for _, id := range t.collapsed {
		idx := t.index(id)
		bs := &t.bsets[idx]
		first := bs.Branches[0]
		bs.Collapsed = true
		bs.rep = Branch{
			BsID:   bs.ID,
			ID:     ir.DummyBranchID,
			Weight: ir.Scalar(1),
			Value:  first.Value,
			child:  first.child,
		}
		if t.collapseFn != nil {
			v, err := t.collapseFn(bs)
			if err != nil {
				return fmt.Errorf("collapse %s: %w", id, err)
			}
			bs.rep.Value = v
		}
		t.logger.Debug("collapsed branch set",
			zap.String("bset", id),
			zap.Int("branches", len(bs.Branches)))
	}
	return nil
}

// countPaths fills npaths bottom-up. Children always have a higher level
// than their parents, so walking levels in reverse suffices.
func (t *Tree) countPaths() {
	t.npaths = make([]int, len(t.bsets))
	order := make([]int, len(t.bsets))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return t.bsets[b].Ordinal - t.bsets[a].Ordinal
	})
	for _, idx := range order {
		n := 0
		for _, br := range t.bsets[idx].Effective() {
			c := 1
			if br.child != noChild {
				c = t.npaths[br.child]
			}
			n = saturatingAdd(n, c)
		}
		t.npaths[idx] = n
	}
}

func saturatingAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func (t *Tree) index(id string) int {
	for i := range t.bsets {
		if t.bsets[i].ID == id {
			return i
		}
	}
	return noChild
}

// Root returns the root branch set.
func (t *Tree) Root() *BranchSet {
	return &t.bsets[0]
}

// Depth returns the number of levels, which is the length of every path.
func (t *Tree) Depth() int {
	return t.declared
}

// BranchSets returns the declared branch sets in declaration order.
func (t *Tree) BranchSets() []*BranchSet {
	out := make([]*BranchSet, t.declared)
	for i := range out {
		out[i] = &t.bsets[i]
	}
	return out
}

// BranchSet returns the branch set with the given id, dummies included.
func (t *Tree) BranchSet(id string) (*BranchSet, bool) {
	idx := t.index(id)
	if idx == noChild {
		return nil, false
	}
	return &t.bsets[idx], true
}

// Child returns the branch set below br, or nil for a leaf.
func (t *Tree) Child(br *Branch) *BranchSet {
	if br.child == noChild {
		return nil
	}
	return &t.bsets[br.child]
}

// NumPaths returns the number of root-to-leaf paths. A collapsed set
// counts as one branch. The count saturates at math.MaxInt.
func (t *Tree) NumPaths() int {
	return t.npaths[0]
}
