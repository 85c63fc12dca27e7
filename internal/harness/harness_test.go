package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			run := Run
			if _, statErr := os.Stat(filepath.Join("testdata", "golden", scenario.Name+".golden")); statErr == nil {
				run = func(s *Scenario, opts ...Option) (*Result, error) { return RunWithGolden(t, s, opts...) }
			}
			result, err := run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_StoresHashes(t *testing.T) {
	result, err := Run(loadTestScenario(t, "two_levels"))
	require.NoError(t, err)
	require.Len(t, result.Realizations, 4)

	assert.NotEmpty(t, result.Fingerprint)
	seen := make(map[string]bool)
	for _, r := range result.Realizations {
		assert.NotEmpty(t, r.Hash)
		assert.False(t, seen[r.Hash], "duplicate hash %s", r.Hash)
		seen[r.Hash] = true
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadTestScenario(t, "early_sampling")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Realizations, second.Realizations)
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	scenario := loadTestScenario(t, "two_levels")
	three := 3
	scenario.Assertions = []Assertion{
		{Type: AssertNumPaths, Count: &three},
		{Type: AssertPathContains, Path: []string{"C", "X"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Expected: 3 paths")
	assert.Contains(t, result.Errors[1], "Expected: path C~X")
}

func TestRun_UnexpectedBuildSuccess(t *testing.T) {
	scenario := loadTestScenario(t, "two_levels")
	scenario.Assertions = []Assertion{{Type: AssertErrorCodes, Codes: []string{"E203"}}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "succeeded")
}

func TestRun_BuildErrorWithoutExpectation(t *testing.T) {
	scenario := loadTestScenario(t, "duplicate_branch")
	one := 1
	scenario.Assertions = []Assertion{{Type: AssertNumPaths, Count: &one}}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E203")
}

func TestRun_TooManyPaths(t *testing.T) {
	scenario := loadTestScenario(t, "two_levels")
	scenario.Sampling.MaxPaths = 3

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many logic tree paths")
}

func TestRun_SelectsCUETree(t *testing.T) {
	scenario := loadTestScenario(t, "cue_trees")
	scenario.TreeID = "gmpe"
	one := 1
	scenario.Assertions = []Assertion{{Type: AssertNumPaths, Count: &one}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	scenario.TreeID = ""
	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares 2 trees")

	scenario.TreeID = "missing"
	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no tree "missing"`)
}

func TestRun_WithLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	_, err := Run(loadTestScenario(t, "gsim_imt_weights"), WithLogger(zap.New(core)))
	require.NoError(t, err)

	entries := logs.FilterMessage("gsim logic tree built").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"Active Shallow Crust"}, entries[0].ContextMap()["trts"])
}
