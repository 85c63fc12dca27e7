package logictree

import (
	"errors"
	"fmt"
	"strings"
)

// Validation error codes (E200-E219)
const (
	ErrEmpty                 = "E200" // empty tree, branch set without id or branches
	ErrDuplicateBranchSet    = "E201" // duplicate branch set id
	ErrWeightSum             = "E202" // sibling weights do not sum to 1
	ErrDuplicateBranch       = "E203" // branch id reused or reserved
	ErrUnknownFilterKey      = "E204" // unrecognized filter key
	ErrTooManyFilters        = "E205" // more than one filter besides applyToBranches
	ErrBadApplyToBranches    = "E206" // applyToBranches references an unknown branch
	ErrUnknownReference      = "E207" // unknown source or tectonic region type
	ErrAbsoluteNotRestricted = "E208" // absolute uncertainty not on exactly one source
	ErrLevelNotSingle        = "E209" // legacy branching level with several branch sets
	ErrBadUncertaintyType    = "E210" // empty, reserved or unknown uncertainty type
	ErrBadValue              = "E211" // uncertainty text does not parse
	ErrSourceModelPlacement  = "E212" // sourceModel/extendModel at the wrong level
	ErrNotGsimBranchSet      = "E213" // GSIM branch set not gmpeModel or lacking one TRT
	ErrDuplicateTRT          = "E214" // two GSIM branch sets for one TRT
	ErrUnknownCollapse       = "E215" // collapse requested for an unknown branch set
	ErrBadWeight             = "E216" // negative or non-finite weight
	ErrCollapseHeterogeneous = "E217" // collapsed branch set whose branches have different children
)

// Sentinel errors.
var (
	// ErrTooManyPaths is returned when full enumeration is requested for a
	// tree with more paths than the configured limit.
	ErrTooManyPaths = errors.New("too many logic tree paths")

	// ErrUnknownFilter is returned by FilterSource for unrecognized keys.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrUnknownBranch is returned when a path names a branch that does not
	// exist at its level.
	ErrUnknownBranch = errors.New("unknown branch")
)

// ValidationError represents one structural or semantic problem in a tree
// description.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is returned by Build when validation fails. It holds
// every problem found, in discovery order.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("invalid logic tree (%d errors): %s", len(errs), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (errs ValidationErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// Codes returns the error codes in order.
func (errs ValidationErrors) Codes() []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}
