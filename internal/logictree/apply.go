package logictree

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/uncertainty"
)

// Source is a seismic source as seen by branch set filters.
type Source interface {
	SourceID() string
	TectonicRegionType() string
}

// FilterSource reports whether the branch set applies to src.
// applyToBranches is structural and never excludes a source.
func (bs *BranchSet) FilterSource(src Source) (bool, error) {
	for _, key := range bs.Filters.Keys() {
		values := bs.Filters[key]
		switch key {
		case ir.FilterApplyToSources:
			if !slices.Contains(values, src.SourceID()) {
				return false, nil
			}
		case ir.FilterApplyToTRT:
			if !slices.Contains(values, src.TectonicRegionType()) {
				return false, nil
			}
		case ir.FilterApplyToBranch:
		default:
			return false, fmt.Errorf("%w %q in branch set %s", ErrUnknownFilter, key, bs.ID)
		}
	}
	return true, nil
}

// ApplyUncertainties applies every uncertainty along ltPath below the root
// to each source the branch set filters admit. The root value selects the
// source model itself and is not applied. It returns the number of
// applications made.
func (t *Tree) ApplyUncertainties(ltPath []string, sources []Source) (int, error) {
	pairs, err := t.BsetValues(ltPath)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, pair := range pairs[1:] {
		bs := pair.BranchSet
		for _, src := range sources {
			ok, err := bs.FilterSource(src)
			if err != nil {
				return applied, err
			}
			if !ok {
				continue
			}
			if err := uncertainty.Apply(bs.UncertaintyType, src, pair.Value); err != nil {
				return applied, fmt.Errorf("branch set %s, source %s: %w", bs.ID, src.SourceID(), err)
			}
			applied++
		}
	}
	t.logger.Debug("applied uncertainties",
		zap.String("tree", t.ID),
		zap.Strings("path", ltPath),
		zap.Int("applied", applied))
	return applied, nil
}
