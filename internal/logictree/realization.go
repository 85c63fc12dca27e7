package logictree

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/sampling"
	"github.com/roach88/logictree/internal/uncertainty"
)

// PathSeparator joins branch ids into a path key.
const PathSeparator = "~"

// Realization is one fully resolved choice across the tree.
type Realization struct {
	Value   []uncertainty.Value
	Weight  ir.Weight
	Ordinal int
	LtPath  []string
	Samples int
}

// PathKey returns the branch ids joined by PathSeparator.
func (r Realization) PathKey() string {
	return strings.Join(r.LtPath, PathSeparator)
}

// Hash returns the content hash of the realization within t.
func (r Realization) Hash(t *Tree) (string, error) {
	id, err := t.Fingerprint()
	if err != nil {
		return "", err
	}
	return ir.RealizationHash(id, r.LtPath, r.Weight)
}

// RealizationOptions selects how realizations are produced.
type RealizationOptions struct {
	// NumSamples is the number of sampled paths; 0 enumerates every path.
	NumSamples int
	// Seed drives the sampling generator.
	Seed uint64
	// Method is the sampling method; empty means early_weights.
	Method sampling.Method
	// MaxPaths bounds full enumeration; 0 means unbounded.
	MaxPaths int
	// Grouped merges sampled realizations with identical paths.
	Grouped bool
}

// Realizations produces the realizations of the tree, numbered in
// emission order.
func (t *Tree) Realizations(opts RealizationOptions) ([]Realization, error) {
	if opts.NumSamples < 0 {
		return nil, fmt.Errorf("realizations: negative sample count %d", opts.NumSamples)
	}
	if opts.NumSamples == 0 {
		return t.enumerated(opts.MaxPaths)
	}
	return t.sampled(opts)
}

func (t *Tree) enumerated(maxPaths int) ([]Realization, error) {
	if n := t.NumPaths(); maxPaths > 0 && n > maxPaths {
		return nil, fmt.Errorf("%w: %d paths exceed the limit of %d, use sampling", ErrTooManyPaths, n, maxPaths)
	}
	var rlzs []Realization
	for p := range t.EnumeratePaths(t.Root()) {
		rlzs = append(rlzs, Realization{
			Value:   p.Values(),
			Weight:  p.Weight,
			Ordinal: len(rlzs),
			LtPath:  p.IDs(),
			Samples: 1,
		})
	}
	t.logger.Debug("enumerated realizations", zap.String("tree", t.ID), zap.Int("count", len(rlzs)))
	return rlzs, nil
}

func (t *Tree) sampled(opts RealizationOptions) ([]Realization, error) {
	method := opts.Method
	if method == "" {
		method = sampling.EarlyWeights
	}
	if _, err := sampling.ParseMethod(string(method)); err != nil {
		return nil, err
	}

	n := opts.NumSamples
	probs := sampling.Random(n, t.Depth(), opts.Seed, method)
	rlzs := make([]Realization, 0, n)
	total := ir.Scalar(0)
	for _, row := range probs {
		p, err := t.SamplePath(row, method)
		if err != nil {
			return nil, err
		}
		w := ir.Scalar(1 / float64(n))
		if !method.Early() {
			w = p.Weight
			total = total.Add(w)
		}
		rlzs = append(rlzs, Realization{
			Value:   p.Values(),
			Weight:  w,
			Ordinal: len(rlzs),
			LtPath:  p.IDs(),
			Samples: 1,
		})
	}

	if !method.Early() {
		for i := range rlzs {
			rlzs[i].Weight = rlzs[i].Weight.Div(total)
		}
	}
	if opts.Grouped {
		rlzs = group(rlzs)
	}
	t.logger.Debug("sampled realizations",
		zap.String("tree", t.ID),
		zap.Int("samples", n),
		zap.Uint64("seed", opts.Seed),
		zap.String("method", string(method)),
		zap.Int("count", len(rlzs)))
	return rlzs, nil
}

// group merges realizations sharing a path, keeping first-seen order.
// Samples counts the merged draws and the weights are summed.
func group(rlzs []Realization) []Realization {
	index := make(map[string]int)
	var out []Realization
	for _, r := range rlzs {
		key := r.PathKey()
		if i, ok := index[key]; ok {
			out[i].Samples += r.Samples
			out[i].Weight = out[i].Weight.Add(r.Weight)
			continue
		}
		index[key] = len(out)
		r.Ordinal = len(out)
		out = append(out, r)
	}
	return out
}
