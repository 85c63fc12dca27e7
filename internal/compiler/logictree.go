package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/logictree/internal/ir"
)

// CompileLogicTree parses a CUE value into a LogicTreeSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the tree struct itself, holding either a flat branchSets
// list or the legacy branchingLevels list of lists:
//
//	logicTree: "gmpe": {
//		branchSets: [{
//			id:              "bs1"
//			uncertaintyType: "gmpeModel"
//			filters: applyToTectonicRegionType: "Active Shallow Crust"
//			branches: [
//				{id: "b1", weight: 0.6, uncertainty: "BooreAtkinson2008"},
//				{id: "b2", weight: {weight: 0.4, PGA: 0.5}, uncertainty: "Campbell2003"},
//			]
//		}]
//	}
//
// The tree id is the struct label unless an id field is given.
func CompileLogicTree(v cue.Value) (*ir.LogicTreeSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.LogicTreeSpec{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		spec.ID = unquote(labels[len(labels)-1].String())
	}
	if idVal := v.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		id, err := idVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.ID = id
	}

	setsVal := v.LookupPath(cue.ParsePath("branchSets"))
	levelsVal := v.LookupPath(cue.ParsePath("branchingLevels"))
	switch {
	case setsVal.Exists() && levelsVal.Exists():
		return nil, &CompileError{
			Field:   "branchSets",
			Message: "branchSets and branchingLevels are mutually exclusive",
			Pos:     v.Pos(),
		}
	case setsVal.Exists():
		sets, err := parseBranchSets(setsVal)
		if err != nil {
			return nil, err
		}
		spec.BranchSets = sets
	case levelsVal.Exists():
		iter, err := levelsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			level, err := parseBranchSets(iter.Value())
			if err != nil {
				return nil, err
			}
			spec.Levels = append(spec.Levels, level)
		}
	default:
		return nil, &CompileError{
			Field:   "branchSets",
			Message: "branchSets or branchingLevels is required",
			Pos:     v.Pos(),
		}
	}
	return spec, nil
}

func parseBranchSets(v cue.Value) ([]ir.BranchSetSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var sets []ir.BranchSetSpec
	for iter.Next() {
		bs, err := parseBranchSet(iter.Value())
		if err != nil {
			return nil, err
		}
		sets = append(sets, bs)
	}
	return sets, nil
}

func parseBranchSet(v cue.Value) (ir.BranchSetSpec, error) {
	bs := ir.BranchSetSpec{Line: v.Pos().Line()}

	var err error
	if bs.ID, err = requiredString(v, "id"); err != nil {
		return bs, err
	}
	if bs.UncertaintyType, err = requiredString(v, "uncertaintyType"); err != nil {
		return bs, err
	}

	if fv := v.LookupPath(cue.ParsePath("filters")); fv.Exists() {
		if bs.Filters, err = parseFilters(fv); err != nil {
			return bs, err
		}
	}

	branchesVal := v.LookupPath(cue.ParsePath("branches"))
	if !branchesVal.Exists() {
		return bs, &CompileError{
			Field:   "branches",
			Message: fmt.Sprintf("branch set %s: branches is required", bs.ID),
			Pos:     v.Pos(),
		}
	}
	iter, err := branchesVal.List()
	if err != nil {
		return bs, formatCUEError(err)
	}
	for iter.Next() {
		br, err := parseBranch(iter.Value())
		if err != nil {
			return bs, err
		}
		bs.Branches = append(bs.Branches, br)
	}
	return bs, nil
}

// parseFilters accepts each filter as a space-separated string or a list
// of strings.
func parseFilters(v cue.Value) (ir.Filters, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	filters := make(ir.Filters)
	for iter.Next() {
		key := iter.Selector().Unquoted()
		val := iter.Value()
		if s, err := val.String(); err == nil {
			if key == ir.FilterApplyToTRT {
				filters[key] = []string{strings.TrimSpace(s)}
			} else {
				filters[key] = strings.Fields(s)
			}
			continue
		}
		list, err := val.List()
		if err != nil {
			return nil, &CompileError{
				Field:   "filters." + key,
				Message: "must be a string or a list of strings",
				Pos:     val.Pos(),
			}
		}
		values := []string{}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			values = append(values, s)
		}
		filters[key] = values
	}
	return filters, nil
}

func parseBranch(v cue.Value) (ir.BranchSpec, error) {
	br := ir.BranchSpec{Line: v.Pos().Line()}

	var err error
	if br.ID, err = requiredString(v, "id"); err != nil {
		return br, err
	}

	// uncertainty may be empty but must be present
	unc := v.LookupPath(cue.ParsePath("uncertainty"))
	if !unc.Exists() {
		return br, &CompileError{
			Field:   "uncertainty",
			Message: fmt.Sprintf("branch %s: uncertainty is required", br.ID),
			Pos:     v.Pos(),
		}
	}
	if br.Uncertainty, err = unc.String(); err != nil {
		return br, formatCUEError(err)
	}

	wv := v.LookupPath(cue.ParsePath("weight"))
	if !wv.Exists() {
		return br, &CompileError{
			Field:   "weight",
			Message: fmt.Sprintf("branch %s: weight is required", br.ID),
			Pos:     v.Pos(),
		}
	}
	if br.Weight, err = parseWeight(wv); err != nil {
		return br, err
	}
	return br, nil
}

// parseWeight accepts a number or a struct of numbers keyed by IMT that
// includes the default key.
func parseWeight(v cue.Value) (ir.Weight, error) {
	if f, err := v.Float64(); err == nil {
		return ir.Scalar(f), nil
	}
	iter, err := v.Fields()
	if err != nil {
		return ir.Weight{}, &CompileError{
			Field:   "weight",
			Message: "must be a number or a struct of numbers",
			Pos:     v.Pos(),
		}
	}
	byIMT := make(map[string]float64)
	for iter.Next() {
		f, err := iter.Value().Float64()
		if err != nil {
			return ir.Weight{}, formatCUEError(err)
		}
		byIMT[iter.Selector().Unquoted()] = f
	}
	def, ok := byIMT[ir.DefaultWeightKey]
	if !ok {
		return ir.Weight{}, &CompileError{
			Field:   "weight",
			Message: fmt.Sprintf("per-IMT weights must include %q", ir.DefaultWeightKey),
			Pos:     v.Pos(),
		}
	}
	return ir.NewWeight(def, byIMT), nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func unquote(label string) string {
	return strings.Trim(label, `"`)
}
