package harness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/logictree/internal/compiler"
	"github.com/roach88/logictree/internal/gsim"
	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/logictree"
	"github.com/roach88/logictree/internal/sampling"
	"github.com/roach88/logictree/internal/store"
)

// Harness runs one scenario against a tree and an isolated store.
type Harness struct {
	store  *store.Store
	tree   *logictree.Tree
	logger *zap.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger passed to the tree builders.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Resolve the tree description (inline or CUE directory)
//  2. Build the tree; a build failure is a result when error_codes is asserted
//  3. Produce realizations and round-trip them through an in-memory store
//  4. Evaluate the assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	spec, err := scenarioSpec(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	gt, err := h.build(scenario, spec)
	if err != nil {
		var verrs logictree.ValidationErrors
		if scenario.expectsFailure() && errors.As(err, &verrs) {
			result.Codes = verrs.Codes()
			for _, msg := range EvaluateAssertions(result, scenario.Assertions, nil) {
				result.AddError(msg)
			}
			return result, nil
		}
		return nil, fmt.Errorf("build tree: %w", err)
	}
	if scenario.expectsFailure() {
		result.AddError(fmt.Sprintf("expected build to fail with %v, it succeeded", scenario.Assertions[0].Codes))
		return result, nil
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h.store = st

	ctx := context.Background()
	if err := h.realize(ctx, scenario, gt, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h.tree) {
		result.AddError(msg)
	}
	return result, nil
}

func scenarioSpec(s *Scenario) (ir.LogicTreeSpec, error) {
	if s.Tree != nil {
		return s.Tree.Spec(), nil
	}
	specs, err := compiler.LoadDir(s.specsDir())
	if err != nil {
		return ir.LogicTreeSpec{}, err
	}
	if s.TreeID == "" {
		if len(specs) != 1 {
			return ir.LogicTreeSpec{}, fmt.Errorf("%s declares %d trees, set tree_id", s.Specs, len(specs))
		}
		return specs[0], nil
	}
	for _, spec := range specs {
		if spec.ID == s.TreeID {
			return spec, nil
		}
	}
	return ir.LogicTreeSpec{}, fmt.Errorf("%s declares no tree %q", s.Specs, s.TreeID)
}

// build returns the GSIM tree when the scenario asks for one, nil
// otherwise. h.tree is set either way.
func (h *Harness) build(s *Scenario, spec ir.LogicTreeSpec) (*gsim.Tree, error) {
	if s.Gsim {
		trts := s.TRTs
		if len(trts) == 0 {
			trts = []string{gsim.AllTRTs}
		}
		gt, err := gsim.New(spec, trts, gsim.WithCollapsed(s.Collapsed...), gsim.WithLogger(h.logger))
		if err != nil {
			return nil, err
		}
		h.tree = gt.Engine()
		return gt, nil
	}

	opts := []logictree.Option{logictree.WithLogger(h.logger), logictree.WithCollapsed(s.Collapsed...)}
	if s.SourceModelRules {
		opts = append(opts, logictree.WithSourceModelRules())
	}
	t, err := logictree.Build(spec, opts...)
	if err != nil {
		return nil, err
	}
	h.tree = t
	return nil, nil
}

// realize produces the realizations, stores them and reads them back
// into result.
func (h *Harness) realize(ctx context.Context, s *Scenario, gt *gsim.Tree, result *Result) error {
	rlzs, err := h.tree.Realizations(logictree.RealizationOptions{
		NumSamples: s.Sampling.NumSamples,
		Seed:       s.Sampling.Seed,
		Method:     sampling.Method(s.Sampling.Method),
		MaxPaths:   s.Sampling.MaxPaths,
		Grouped:    s.Sampling.Grouped,
	})
	if err != nil {
		return fmt.Errorf("realizations: %w", err)
	}

	id, err := h.tree.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprint: %w", err)
	}
	result.NumPaths = h.tree.NumPaths()
	result.Fingerprint = id.String()

	if gt != nil {
		ser, err := gt.Serialize()
		if err != nil {
			return fmt.Errorf("serialize gsim tree: %w", err)
		}
		if err := h.store.WriteGsimTree(ctx, id, ser); err != nil {
			return err
		}
	}
	if err := h.store.WriteRealizations(ctx, id, rlzs); err != nil {
		return err
	}
	stored, err := h.store.ReadRealizations(ctx, id)
	if err != nil {
		return err
	}
	if len(stored) != len(rlzs) {
		return fmt.Errorf("stored %d realizations, read back %d", len(rlzs), len(stored))
	}

	for i, sr := range stored {
		values := make([]string, len(rlzs[i].Value))
		for j, v := range rlzs[i].Value {
			values[j] = v.Canonical()
		}
		result.Realizations = append(result.Realizations, RealizationEvent{
			Ordinal: sr.Ordinal,
			Path:    sr.LtPath,
			Weight:  sr.Weight,
			Samples: sr.Samples,
			Values:  values,
			Hash:    sr.Hash,
		})
	}
	return nil
}
