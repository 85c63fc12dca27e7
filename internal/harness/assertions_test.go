package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/logictree"
)

func ptr[T any](v T) *T { return &v }

func sampleResult() *Result {
	r := NewResult()
	r.NumPaths = 3
	r.Realizations = []RealizationEvent{
		{Ordinal: 0, Path: []string{"A", "X"}, Weight: ir.NewWeight(0.25, map[string]float64{"PGA": 0.5}), Samples: 1},
		{Ordinal: 1, Path: []string{"A", "Y"}, Weight: ir.Scalar(0.25), Samples: 2},
		{Ordinal: 2, Path: []string{"B", "."}, Weight: ir.Scalar(0.5), Samples: 1},
	}
	return r
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"num paths", Assertion{Type: AssertNumPaths, Count: ptr(3)}, ""},
		{"num paths mismatch", Assertion{Type: AssertNumPaths, Count: ptr(4)}, "4 paths"},
		{"realization count", Assertion{Type: AssertRealizationCount, Count: ptr(3)}, ""},
		{"realization count mismatch", Assertion{Type: AssertRealizationCount, Count: ptr(2)}, "2 realizations"},
		{"path contains", Assertion{Type: AssertPathContains, Path: []string{"B", "."}}, ""},
		{"path contains weight", Assertion{Type: AssertPathContains, Path: []string{"A", "Y"}, Weight: ptr(0.25), Samples: ptr(2)}, ""},
		{"path contains imt weight", Assertion{Type: AssertPathContains, Path: []string{"A", "X"}, IMT: "PGA", Weight: ptr(0.5)}, ""},
		{"path contains wrong weight", Assertion{Type: AssertPathContains, Path: []string{"A", "X"}, Weight: ptr(0.5)}, "weight 0.25"},
		{"path contains wrong samples", Assertion{Type: AssertPathContains, Path: []string{"A", "Y"}, Samples: ptr(1)}, "drawn 2 times"},
		{"path missing", Assertion{Type: AssertPathContains, Path: []string{"B", "X"}}, "not found"},
		{"path order", Assertion{Type: AssertPathOrder, Paths: [][]string{{"A", "X"}, {"B", "."}}}, ""},
		{"path order reversed", Assertion{Type: AssertPathOrder, Paths: [][]string{{"B", "."}, {"A", "X"}}}, "is not after"},
		{"path order missing", Assertion{Type: AssertPathOrder, Paths: [][]string{{"A", "X"}, {"C"}}}, "missing path: C"},
		{"weight sum", Assertion{Type: AssertWeightSum}, ""},
		{"weight sum imt", Assertion{Type: AssertWeightSum, IMT: "PGA", Weight: ptr(1.25)}, ""},
		{"weight sum mismatch", Assertion{Type: AssertWeightSum, Weight: ptr(0.5)}, "sum 1"},
		{"bset value without tree", Assertion{Type: AssertBsetValue, Path: []string{"A"}, BranchSet: "bs1"}, "needs a built tree"},
		{"unknown", Assertion{Type: "trace_count"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion}, nil)
			if tt.wantErr == "" {
				assert.Empty(t, failures)
				return
			}
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], tt.wantErr)
		})
	}
}

func TestAssertErrorCodes(t *testing.T) {
	r := NewResult()
	r.Codes = []string{"E203", "E202"}

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertErrorCodes, Codes: []string{"E202", "E203"}}}, nil))

	failures := EvaluateAssertions(r, []Assertion{{Type: AssertErrorCodes, Codes: []string{"E202"}}}, nil)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "codes [E202 E203]")
}

func TestAssertBsetValue(t *testing.T) {
	tree := logictree.MustBuild(ir.LogicTreeSpec{
		ID: "lt",
		BranchSets: []ir.BranchSetSpec{
			{ID: "bs1", UncertaintyType: "sourceModel", Branches: []ir.BranchSpec{
				{ID: "A", Weight: ir.Scalar(1), Uncertainty: "a.xml"},
			}},
			{ID: "bs2", UncertaintyType: "bGRRelative", Branches: []ir.BranchSpec{
				{ID: "X", Weight: ir.Scalar(1), Uncertainty: "0.1"},
			}},
		},
	})

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"match", Assertion{Type: AssertBsetValue, Path: []string{"A", "X"}, BranchSet: "bs2", Value: "0.1"}, ""},
		{"wrong value", Assertion{Type: AssertBsetValue, Path: []string{"A", "X"}, BranchSet: "bs2", Value: "0.2"}, `Actual: "0.1"`},
		{"not reached", Assertion{Type: AssertBsetValue, Path: []string{"A", "X"}, BranchSet: "bs9", Value: "0.1"}, "not reached"},
		{"unknown branch", Assertion{Type: AssertBsetValue, Path: []string{"Z"}, BranchSet: "bs1"}, "values along Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(NewResult(), []Assertion{tt.assertion}, tree)
			if tt.wantErr == "" {
				assert.Empty(t, failures)
				return
			}
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], tt.wantErr)
		})
	}
}

func TestAssertionError_ListsRealizations(t *testing.T) {
	err := &AssertionError{
		Type:         AssertNumPaths,
		Expected:     "2 paths",
		Actual:       "3 paths",
		Realizations: sampleResult().Realizations,
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: num_paths")
	assert.Contains(t, msg, "[1] A~Y weight=0.25 samples=2")
}
