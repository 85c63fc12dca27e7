package logictree

import (
	"github.com/roach88/logictree/internal/ir"
)

func br(id string, w float64, unc string) ir.BranchSpec {
	return ir.BranchSpec{ID: id, Weight: ir.Scalar(w), Uncertainty: unc}
}

func bset(id, tag string, filters ir.Filters, branches ...ir.BranchSpec) ir.BranchSetSpec {
	return ir.BranchSetSpec{ID: id, UncertaintyType: tag, Filters: filters, Branches: branches}
}

func tree(bsets ...ir.BranchSetSpec) ir.LogicTreeSpec {
	return ir.LogicTreeSpec{ID: "lt", BranchSets: bsets}
}

// partialTree has three source models; the second level applies to sb1
// and sb3 only.
func partialTree(second ...ir.BranchSpec) ir.LogicTreeSpec {
	return tree(
		bset("bs1", "sourceModel", nil,
			br("sb1", 0.5, "a.xml"),
			br("sb2", 0.25, "b.xml"),
			br("sb3", 0.25, "c.xml")),
		bset("bs2", "bGRRelative", ir.Filters{ir.FilterApplyToBranch: {"sb1", "sb3"}}, second...),
	)
}

// xyTree is the two-level X/Y by A/B/C tree used by the sampling tests.
func xyTree() ir.LogicTreeSpec {
	return tree(
		bset("bsXY", "maxMagGRRelative", nil,
			br("X", 0.4, "0.1"),
			br("Y", 0.6, "0.2")),
		bset("bsABC", "bGRRelative", nil,
			br("A", 0.2, "-0.1"),
			br("B", 0.3, "0"),
			br("C", 0.5, "0.1")),
	)
}

func pathIDs(paths []Path) [][]string {
	out := make([][]string, len(paths))
	for i, p := range paths {
		out[i] = p.IDs()
	}
	return out
}
