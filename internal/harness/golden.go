package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/logictree/internal/ir"
)

// Snapshot is the part of a result compared against golden files. The
// fingerprint and hashes are left out so a snapshot can be checked by
// hand.
type Snapshot struct {
	ScenarioName string
	NumPaths     int
	Realizations []RealizationEvent
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical
// JSON serialization.
func (s *Snapshot) toCanonicalMap() map[string]any {
	rlzs := make([]any, len(s.Realizations))
	for i, r := range s.Realizations {
		rlzs[i] = map[string]any{
			"ordinal": r.Ordinal,
			"path":    r.Path,
			"weight":  r.Weight,
			"samples": r.Samples,
			"values":  r.Values,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"num_paths":     s.NumPaths,
		"realizations":  rlzs,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against the golden
// file named scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		NumPaths:     result.NumPaths,
		Realizations: result.Realizations,
	}
	data, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
