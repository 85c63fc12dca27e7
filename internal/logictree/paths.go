package logictree

import (
	"fmt"
	"iter"
	"slices"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/sampling"
	"github.com/roach88/logictree/internal/uncertainty"
)

// Path is one root-to-leaf walk: the branches chosen at each level and
// the product of their weights.
type Path struct {
	Weight   ir.Weight
	Branches []*Branch
}

// IDs returns the branch ids along the path; dummy legs read ".".
func (p Path) IDs() []string {
	out := make([]string, len(p.Branches))
	for i, br := range p.Branches {
		out[i] = br.ID
	}
	return out
}

// Values returns the branch values along the path.
func (p Path) Values() []uncertainty.Value {
	out := make([]uncertainty.Value, len(p.Branches))
	for i, br := range p.Branches {
		out[i] = br.Value
	}
	return out
}

// EnumeratePaths yields every path below bs depth-first, in branch order.
// A collapsed set contributes its representative only.
func (t *Tree) EnumeratePaths(bs *BranchSet) iter.Seq[Path] {
	return func(yield func(Path) bool) {
		t.walk(bs, ir.Scalar(1), nil, yield)
	}
}

func (t *Tree) walk(bs *BranchSet, w ir.Weight, prefix []*Branch, yield func(Path) bool) bool {
	for _, br := range bs.Effective() {
		weight := w.Mul(br.Weight)
		branches := append(slices.Clip(prefix), br)
		if child := t.Child(br); child != nil {
			if !t.walk(child, weight, branches, yield) {
				return false
			}
			continue
		}
		if !yield(Path{Weight: weight, Branches: branches}) {
			return false
		}
	}
	return true
}

// Paths returns every path of the tree.
func (t *Tree) Paths() []Path {
	return slices.Collect(t.EnumeratePaths(t.Root()))
}

// SamplePath walks the tree once, consuming one probability per level.
// The path weight is the product of the chosen branch weights.
func (t *Tree) SamplePath(probs []float64, method sampling.Method) (Path, error) {
	if len(probs) < t.Depth() {
		return Path{}, fmt.Errorf("sample path: need %d probabilities, got %d", t.Depth(), len(probs))
	}
	p := Path{Weight: ir.Scalar(1)}
	for bs, level := t.Root(), 0; bs != nil; level++ {
		branches := bs.Effective()
		idx := sampling.SampleIndices(defaultWeights(branches), probs[level:level+1], method)[0]
		br := branches[idx]
		p.Weight = p.Weight.Mul(br.Weight)
		p.Branches = append(p.Branches, br)
		bs = t.Child(br)
	}
	return p, nil
}

func defaultWeights(branches []*Branch) []float64 {
	out := make([]float64, len(branches))
	for i, br := range branches {
		out[i] = br.Weight.Default
	}
	return out
}

// BsetValue pairs a branch set with the value chosen in it.
type BsetValue struct {
	BranchSet *BranchSet
	Value     uncertainty.Value
}

// BsetValues walks the branch ids of ltPath from the root and returns the
// branch set and value at each declared step. Dummy legs consume their "."
// id and carry the walk into the next level without adding a pair. The
// walk stops at a branch with no child; ids past it are ignored.
func (t *Tree) BsetValues(ltPath []string) ([]BsetValue, error) {
	var out []BsetValue
	bs := t.Root()
	for i := 0; bs != nil; i++ {
		if i >= len(ltPath) {
			return nil, fmt.Errorf("%w: path %v ends at level %d before a leaf", ErrUnknownBranch, ltPath, i)
		}
		br, ok := bs.Branch(ltPath[i])
		if !ok {
			return nil, fmt.Errorf("%w: %q in branch set %s", ErrUnknownBranch, ltPath[i], bs.ID)
		}
		if !bs.IsDummy() {
			out = append(out, BsetValue{BranchSet: bs, Value: br.Value})
		}
		bs = t.Child(br)
	}
	return out, nil
}
