package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logictree/internal/ir"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalTree = `
tree:
  id: lt
  branch_sets:
    - id: bs1
      type: sourceModel
      branches:
        - {id: A, weight: 1, uncertainty: a.xml}
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
tree:
  id: lt
  branch_sets:
    - id: bs1
      type: gmpeModel
      filters:
        applyToTectonicRegionType: [Active Shallow Crust]
      branches:
        - {id: g1, weight: {weight: 0.5, PGA: 0.2}, uncertainty: BooreAtkinson2008}
        - {id: g2, weight: {weight: 0.5, PGA: 0.8}, uncertainty: ToroEtAl2002}
sampling:
  num_samples: 10
  seed: 3
  method: late_latin
assertions:
  - type: num_paths
    count: 2
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, 10, scenario.Sampling.NumSamples)
	assert.Equal(t, uint64(3), scenario.Sampling.Seed)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, 2, *scenario.Assertions[0].Count)

	spec := scenario.Tree.Spec()
	require.Len(t, spec.BranchSets, 1)
	bs := spec.BranchSets[0]
	assert.Equal(t, "gmpeModel", bs.UncertaintyType)
	assert.Equal(t, []string{"Active Shallow Crust"}, bs.Filters[ir.FilterApplyToTRT])
	assert.Equal(t, 7, bs.Line)
	assert.True(t, bs.Branches[0].Weight.Equal(ir.NewWeight(0.5, map[string]float64{"PGA": 0.2})))
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Misspelled key"
assertion:
  - type: num_paths
    count: 1
`+minimalTree)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_WeightWithoutDefault(t *testing.T) {
	path := writeScenario(t, `
name: bad_weight
description: "Weight mapping lacks the weight key"
tree:
  id: lt
  branch_sets:
    - id: bs1
      type: sourceModel
      branches:
        - {id: A, weight: {PGA: 1}, uncertainty: a.xml}
assertions:
  - type: num_paths
    count: 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `requires key "weight"`)
}

func TestLoadScenario_ResolvesSpecsRelativeToFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "cue_trees.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "specs", "trees"), scenario.specsDir())
}

func TestValidateScenario(t *testing.T) {
	one := 1
	negative := -1
	tree := &TreeDef{ID: "lt"}

	tests := []struct {
		name     string
		scenario Scenario
		wantErr  string
	}{
		{
			name:     "missing name",
			scenario: Scenario{Description: "d", Tree: tree, Assertions: []Assertion{{Type: AssertWeightSum}}},
			wantErr:  "name is required",
		},
		{
			name:     "missing description",
			scenario: Scenario{Name: "n", Tree: tree, Assertions: []Assertion{{Type: AssertWeightSum}}},
			wantErr:  "description is required",
		},
		{
			name:     "no tree",
			scenario: Scenario{Name: "n", Description: "d", Assertions: []Assertion{{Type: AssertWeightSum}}},
			wantErr:  "exactly one of tree and specs",
		},
		{
			name:     "tree and specs",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree, Specs: "x", Assertions: []Assertion{{Type: AssertWeightSum}}},
			wantErr:  "exactly one of tree and specs",
		},
		{
			name:     "missing specs dir",
			scenario: Scenario{Name: "n", Description: "d", Specs: "/nonexistent/specs", Assertions: []Assertion{{Type: AssertWeightSum}}},
			wantErr:  "specs directory",
		},
		{
			name:     "no assertions",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree},
			wantErr:  "assertions list is required",
		},
		{
			name: "bad method",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree,
				Sampling: Sampling{NumSamples: 1, Method: "middle"}, Assertions: []Assertion{{Type: AssertWeightSum}}},
			wantErr: "sampling.method",
		},
		{
			name:     "count missing",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree, Assertions: []Assertion{{Type: AssertNumPaths}}},
			wantErr:  "non-negative count is required",
		},
		{
			name:     "negative count",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree, Assertions: []Assertion{{Type: AssertRealizationCount, Count: &negative}}},
			wantErr:  "non-negative count is required",
		},
		{
			name:     "path order needs two paths",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree, Assertions: []Assertion{{Type: AssertPathOrder, Paths: [][]string{{"A"}}}}},
			wantErr:  "at least two paths",
		},
		{
			name:     "bset value needs branch set",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree, Assertions: []Assertion{{Type: AssertBsetValue, Path: []string{"A"}}}},
			wantErr:  "path and branch_set are required",
		},
		{
			name: "error codes alone",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree, Assertions: []Assertion{
				{Type: AssertErrorCodes, Codes: []string{"E200"}},
				{Type: AssertNumPaths, Count: &one},
			}},
			wantErr: "cannot be combined",
		},
		{
			name:     "unknown type",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree, Assertions: []Assertion{{Type: "final_state"}}},
			wantErr:  `unknown assertion type "final_state"`,
		},
		{
			name:     "valid",
			scenario: Scenario{Name: "n", Description: "d", Tree: tree, Assertions: []Assertion{{Type: AssertNumPaths, Count: &one}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScenario(&tt.scenario)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
