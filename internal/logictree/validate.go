package logictree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/uncertainty"
)

// Validate checks a tree description without building it.
// Returns all errors found (does not fail-fast).
func Validate(spec ir.LogicTreeSpec, opts ...Option) []ValidationError {
	return newTree(spec, opts).validate(spec)
}

func (t *Tree) validate(spec ir.LogicTreeSpec) []ValidationError {
	var errs []ValidationError

	// E209: legacy levels hold a single branch set each
	for i, level := range spec.Levels {
		if len(level) != 1 {
			line := 0
			if len(level) > 0 {
				line = level[0].Line
			}
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("levels[%d]", i),
				Message: fmt.Sprintf("branching level must contain exactly one branch set, got %d", len(level)),
				Code:    ErrLevelNotSingle,
				Line:    line,
			})
		}
	}

	bsets := spec.Flatten()
	if len(bsets) == 0 {
		return append(errs, ValidationError{
			Field:   "branch_sets",
			Message: "logic tree has no branch sets",
			Code:    ErrEmpty,
		})
	}

	trts := make(map[string]bool)
	for _, trt := range t.knownSources {
		trts[trt] = true
	}

	seenSets := make(map[string]bool)
	seenBranches := make(map[string]string) // branch id -> branch set id
	for i, bs := range bsets {
		field := fmt.Sprintf("branch_sets[%d]", i)
		if bs.ID != "" {
			field = fmt.Sprintf("branch_sets[%s]", bs.ID)
		}

		// E200/E201: identity
		if strings.TrimSpace(bs.ID) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "branch set id is required", Code: ErrEmpty, Line: bs.Line})
		} else if seenSets[bs.ID] {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("duplicate branch set id %q", bs.ID), Code: ErrDuplicateBranchSet, Line: bs.Line})
		}
		seenSets[bs.ID] = true

		errs = append(errs, t.validateType(field, i, bs)...)
		errs = append(errs, t.validateFilters(field, i, bs, bsets, trts)...)

		// E200: at least one branch
		if len(bs.Branches) == 0 {
			errs = append(errs, ValidationError{Field: field, Message: "branch set has no branches", Code: ErrEmpty, Line: bs.Line})
			continue
		}

		weights := make([]ir.Weight, 0, len(bs.Branches))
		for j, br := range bs.Branches {
			bfield := fmt.Sprintf("%s.branches[%d]", field, j)
			line := br.Line
			if line == 0 {
				line = bs.Line
			}

			// E203: tree-wide unique ids, "." reserved
			switch {
			case strings.TrimSpace(br.ID) == "":
				errs = append(errs, ValidationError{Field: bfield, Message: "branch id is required", Code: ErrDuplicateBranch, Line: line})
			case br.ID == ir.DummyBranchID:
				errs = append(errs, ValidationError{Field: bfield, Message: fmt.Sprintf("branch id %q is reserved", br.ID), Code: ErrDuplicateBranch, Line: line})
			default:
				if owner, dup := seenBranches[br.ID]; dup {
					errs = append(errs, ValidationError{
						Field:   bfield,
						Message: fmt.Sprintf("duplicate branch id %q (already used in branch set %s)", br.ID, owner),
						Code:    ErrDuplicateBranch,
						Line:    line,
					})
				} else {
					seenBranches[br.ID] = bs.ID
				}
			}

			// E216: weight entries
			if err := br.Weight.Valid(); err != nil {
				errs = append(errs, ValidationError{Field: bfield + ".weight", Message: err.Error(), Code: ErrBadWeight, Line: line})
			}
			weights = append(weights, br.Weight)

			// E211: value parses
			if _, err := uncertainty.Parse(uncertainty.Tag(bs.UncertaintyType), br.Uncertainty); err != nil {
				errs = append(errs, ValidationError{Field: bfield + ".uncertainty", Message: err.Error(), Code: ErrBadValue, Line: line})
			}
		}

		// E202: weights sum to one per key
		if ok, key, sum := ir.UnitSum(weights); !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("branch weights for %q sum to %v, want 1", key, sum),
				Code:    ErrWeightSum,
				Line:    bs.Line,
			})
		}
	}

	errs = append(errs, t.validateCollapsed(bsets)...)
	return errs
}

func (t *Tree) validateType(field string, level int, bs ir.BranchSetSpec) []ValidationError {
	var errs []ValidationError
	tag := uncertainty.Tag(bs.UncertaintyType)

	// E210: uncertainty type
	switch {
	case tag == "":
		errs = append(errs, ValidationError{Field: field + ".uncertainty_type", Message: "uncertainty type is required", Code: ErrBadUncertaintyType, Line: bs.Line})
	case tag == uncertainty.TagDummy:
		errs = append(errs, ValidationError{Field: field + ".uncertainty_type", Message: "uncertainty type \"dummy\" is reserved", Code: ErrBadUncertaintyType, Line: bs.Line})
	case t.sourceRules && !uncertainty.Known(tag):
		errs = append(errs, ValidationError{
			Field:   field + ".uncertainty_type",
			Message: fmt.Sprintf("unknown uncertainty type %q: must be one of %v", tag, uncertainty.Tags()),
			Code:    ErrBadUncertaintyType,
			Line:    bs.Line,
		})
	}

	// E212: source-model placement
	if t.sourceRules {
		switch {
		case level == 0 && tag != uncertainty.TagSourceModel:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("root branch set must be %s, got %q", uncertainty.TagSourceModel, tag), Code: ErrSourceModelPlacement, Line: bs.Line})
		case level > 0 && tag == uncertainty.TagSourceModel:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("%s is only allowed at the root", tag), Code: ErrSourceModelPlacement, Line: bs.Line})
		}
	}
	if level == 0 && tag == uncertainty.TagExtendModel {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("%s is not allowed at the root", tag), Code: ErrSourceModelPlacement, Line: bs.Line})
	}
	return errs
}

func (t *Tree) validateFilters(field string, level int, bs ir.BranchSetSpec, bsets []ir.BranchSetSpec, trts map[string]bool) []ValidationError {
	var errs []ValidationError
	ffield := field + ".filters"

	// E204: recognized keys only
	for _, k := range bs.Filters.Unknown() {
		errs = append(errs, ValidationError{
			Field:   ffield,
			Message: fmt.Sprintf("unknown filter %q: must be one of %v", k, ir.KnownFilters),
			Code:    ErrUnknownFilterKey,
			Line:    bs.Line,
		})
	}

	// E205: one restricting filter at most
	var restricting []string
	for _, k := range bs.Filters.Restricting() {
		if slices.Contains(ir.KnownFilters, k) {
			restricting = append(restricting, k)
		}
	}
	if len(restricting) > 1 {
		errs = append(errs, ValidationError{
			Field:   ffield,
			Message: fmt.Sprintf("filters %v are mutually exclusive", restricting),
			Code:    ErrTooManyFilters,
			Line:    bs.Line,
		})
	}

	// E206: applyToBranches names branches of the previous level
	if bs.Filters.Has(ir.FilterApplyToBranch) {
		apply := bs.Filters[ir.FilterApplyToBranch]
		switch {
		case level == 0:
			errs = append(errs, ValidationError{Field: ffield, Message: "the root branch set cannot use applyToBranches", Code: ErrBadApplyToBranches, Line: bs.Line})
		case len(apply) == 0:
			errs = append(errs, ValidationError{Field: ffield, Message: "applyToBranches is empty", Code: ErrBadApplyToBranches, Line: bs.Line})
		default:
			prev := bsets[level-1]
			for _, id := range apply {
				if !slices.ContainsFunc(prev.Branches, func(b ir.BranchSpec) bool { return b.ID == id }) {
					errs = append(errs, ValidationError{
						Field:   ffield,
						Message: fmt.Sprintf("applyToBranches references %q, which is not a branch of %s", id, prev.ID),
						Code:    ErrBadApplyToBranches,
						Line:    bs.Line,
					})
				}
			}
		}
	}

	// E207: references resolve against the known sources
	if trtFilter, ok := bs.Filters[ir.FilterApplyToTRT]; ok && len(trtFilter) != 1 {
		errs = append(errs, ValidationError{Field: ffield, Message: "applyToTectonicRegionType must name exactly one region", Code: ErrUnknownReference, Line: bs.Line})
	}
	if t.knownSources != nil {
		for _, src := range bs.Filters[ir.FilterApplyToSources] {
			if _, ok := t.knownSources[src]; !ok {
				errs = append(errs, ValidationError{Field: ffield, Message: fmt.Sprintf("applyToSources references unknown source %q", src), Code: ErrUnknownReference, Line: bs.Line})
			}
		}
		for _, trt := range bs.Filters[ir.FilterApplyToTRT] {
			if !trts[trt] {
				errs = append(errs, ValidationError{Field: ffield, Message: fmt.Sprintf("applyToTectonicRegionType references unknown region %q", trt), Code: ErrUnknownReference, Line: bs.Line})
			}
		}
	}

	// E208: absolute uncertainties target exactly one source
	if uncertainty.IsAbsolute(uncertainty.Tag(bs.UncertaintyType)) && len(bs.Filters[ir.FilterApplyToSources]) != 1 {
		errs = append(errs, ValidationError{
			Field:   ffield,
			Message: fmt.Sprintf("%s must be restricted to exactly one source via applyToSources", bs.UncertaintyType),
			Code:    ErrAbsoluteNotRestricted,
			Line:    bs.Line,
		})
	}
	return errs
}

func (t *Tree) validateCollapsed(bsets []ir.BranchSetSpec) []ValidationError {
	var errs []ValidationError
	for _, id := range t.collapsed {
		level := slices.IndexFunc(bsets, func(bs ir.BranchSetSpec) bool { return bs.ID == id })
		if level < 0 {
			errs = append(errs, ValidationError{Field: "collapsed", Message: fmt.Sprintf("cannot collapse unknown branch set %q", id), Code: ErrUnknownCollapse})
			continue
		}
		// E217: every branch must share one child
		if level+1 >= len(bsets) {
			continue
		}
		apply := bsets[level+1].Filters[ir.FilterApplyToBranch]
		if len(apply) == 0 {
			continue
		}
		for _, br := range bsets[level].Branches {
			if !slices.Contains(apply, br.ID) {
				errs = append(errs, ValidationError{
					Field:   "collapsed",
					Message: fmt.Sprintf("cannot collapse %s: %s applies to some of its branches only", id, bsets[level+1].ID),
					Code:    ErrCollapseHeterogeneous,
					Line:    bsets[level].Line,
				})
				break
			}
		}
	}
	return errs
}
