package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/logictree"
)

// weightTolerance absorbs rounding in weights products and sums.
const weightTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type         string             // Assertion type for categorization
	Expected     string             // Human-readable expected outcome
	Actual       string             // Human-readable actual outcome
	Realizations []RealizationEvent // Realizations for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Realizations) > 0 {
		fmt.Fprintf(&buf, "\nRealizations:\n")
		for _, r := range e.Realizations {
			fmt.Fprintf(&buf, "  [%d] %s weight=%s samples=%d\n",
				r.Ordinal, pathKey(r.Path), r.Weight, r.Samples)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages. tree is nil when the build failed.
func EvaluateAssertions(result *Result, assertions []Assertion, tree *logictree.Tree) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a, tree); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion, tree *logictree.Tree) error {
	switch a.Type {
	case AssertNumPaths:
		return assertNumPaths(result, a)
	case AssertRealizationCount:
		return assertRealizationCount(result, a)
	case AssertPathContains:
		return assertPathContains(result, a)
	case AssertPathOrder:
		return assertPathOrder(result, a)
	case AssertWeightSum:
		return assertWeightSum(result, a)
	case AssertBsetValue:
		return assertBsetValue(tree, a)
	case AssertErrorCodes:
		return assertErrorCodes(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertNumPaths(result *Result, a Assertion) error {
	if result.NumPaths != *a.Count {
		return &AssertionError{
			Type:     AssertNumPaths,
			Expected: fmt.Sprintf("%d paths", *a.Count),
			Actual:   fmt.Sprintf("%d paths", result.NumPaths),
		}
	}
	return nil
}

func assertRealizationCount(result *Result, a Assertion) error {
	if len(result.Realizations) != *a.Count {
		return &AssertionError{
			Type:         AssertRealizationCount,
			Expected:     fmt.Sprintf("%d realizations", *a.Count),
			Actual:       fmt.Sprintf("%d realizations", len(result.Realizations)),
			Realizations: result.Realizations,
		}
	}
	return nil
}

// assertPathContains checks that a realization follows the path and,
// when given, carries the expected weight and sample count.
func assertPathContains(result *Result, a Assertion) error {
	for _, r := range result.Realizations {
		if !slices.Equal(r.Path, a.Path) {
			continue
		}
		if a.Weight != nil && !closeTo(r.Weight.Get(weightKey(a)), *a.Weight) {
			return &AssertionError{
				Type:         AssertPathContains,
				Expected:     fmt.Sprintf("path %s with %s weight %v", pathKey(a.Path), weightKey(a), *a.Weight),
				Actual:       fmt.Sprintf("weight %v", r.Weight.Get(weightKey(a))),
				Realizations: result.Realizations,
			}
		}
		if a.Samples != nil && r.Samples != *a.Samples {
			return &AssertionError{
				Type:         AssertPathContains,
				Expected:     fmt.Sprintf("path %s drawn %d times", pathKey(a.Path), *a.Samples),
				Actual:       fmt.Sprintf("drawn %d times", r.Samples),
				Realizations: result.Realizations,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:         AssertPathContains,
		Expected:     fmt.Sprintf("path %s", pathKey(a.Path)),
		Actual:       "not found in realizations",
		Realizations: result.Realizations,
	}
}

// assertPathOrder checks that the paths appear in the given relative
// order. Other realizations may appear in between.
func assertPathOrder(result *Result, a Assertion) error {
	last := -1
	for _, want := range a.Paths {
		pos := slices.IndexFunc(result.Realizations, func(r RealizationEvent) bool {
			return slices.Equal(r.Path, want)
		})
		if pos < 0 {
			return &AssertionError{
				Type:         AssertPathOrder,
				Expected:     fmt.Sprintf("all paths present: %v", a.Paths),
				Actual:       fmt.Sprintf("missing path: %s", pathKey(want)),
				Realizations: result.Realizations,
			}
		}
		if pos <= last {
			return &AssertionError{
				Type:         AssertPathOrder,
				Expected:     fmt.Sprintf("paths in order: %v", a.Paths),
				Actual:       fmt.Sprintf("%s (pos %d) is not after position %d", pathKey(want), pos, last),
				Realizations: result.Realizations,
			}
		}
		last = pos
	}
	return nil
}

func assertWeightSum(result *Result, a Assertion) error {
	want := 1.0
	if a.Weight != nil {
		want = *a.Weight
	}
	var sum float64
	for _, r := range result.Realizations {
		sum += r.Weight.Get(weightKey(a))
	}
	if !closeTo(sum, want) {
		return &AssertionError{
			Type:         AssertWeightSum,
			Expected:     fmt.Sprintf("%s weights summing to %v", weightKey(a), want),
			Actual:       fmt.Sprintf("sum %v", sum),
			Realizations: result.Realizations,
		}
	}
	return nil
}

func assertBsetValue(tree *logictree.Tree, a Assertion) error {
	if tree == nil {
		return fmt.Errorf("bset_value needs a built tree")
	}
	values, err := tree.BsetValues(a.Path)
	if err != nil {
		return &AssertionError{
			Type:     AssertBsetValue,
			Expected: fmt.Sprintf("values along %s", pathKey(a.Path)),
			Actual:   err.Error(),
		}
	}
	for _, bv := range values {
		if bv.BranchSet.ID != a.BranchSet {
			continue
		}
		if got := bv.Value.Canonical(); got != a.Value {
			return &AssertionError{
				Type:     AssertBsetValue,
				Expected: fmt.Sprintf("%s = %q along %s", a.BranchSet, a.Value, pathKey(a.Path)),
				Actual:   fmt.Sprintf("%q", got),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertBsetValue,
		Expected: fmt.Sprintf("branch set %s along %s", a.BranchSet, pathKey(a.Path)),
		Actual:   "not reached",
	}
}

func assertErrorCodes(result *Result, a Assertion) error {
	got := slices.Sorted(slices.Values(result.Codes))
	want := slices.Sorted(slices.Values(a.Codes))
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertErrorCodes,
			Expected: fmt.Sprintf("codes %v", want),
			Actual:   fmt.Sprintf("codes %v", got),
		}
	}
	return nil
}

func weightKey(a Assertion) string {
	if a.IMT == "" {
		return ir.DefaultWeightKey
	}
	return a.IMT
}

func pathKey(path []string) string {
	return strings.Join(path, logictree.PathSeparator)
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= weightTolerance
}
