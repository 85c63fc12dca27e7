package sampling

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

// Method selects how probabilities are generated and mapped to branches.
type Method string

// Sampling methods.
const (
	EarlyWeights Method = "early_weights"
	LateWeights  Method = "late_weights"
	EarlyLatin   Method = "early_latin"
	LateLatin    Method = "late_latin"
)

// ValidMethods lists the accepted methods.
var ValidMethods = []Method{EarlyWeights, LateWeights, EarlyLatin, LateLatin}

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	for _, m := range ValidMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid sampling method %q: must be one of %v", s, ValidMethods)
}

// Early reports whether the method samples proportionally to weight.
func (m Method) Early() bool { return strings.HasPrefix(string(m), "early") }

// Latin reports whether the method uses Latin hypercube sampling.
func (m Method) Latin() bool { return strings.HasSuffix(string(m), "latin") }

// streamSalt decorrelates the second PCG word from the seed.
const streamSalt = 0x9e3779b97f4a7c15

// NewRand returns the generator Random uses for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^streamSalt))
}

// Random returns an n×d matrix of numbers in [0, 1). Rows are samples,
// columns are tree levels.
func Random(n, d int, seed uint64, method Method) [][]float64 {
	rng := NewRand(seed)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, d)
		for j := range out[i] {
			out[i][j] = rng.Float64()
		}
	}
	if !method.Latin() || n == 0 {
		return out
	}
	for j := 0; j < d; j++ {
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			out[i][j] = (float64(perm[i]) + out[i][j]) / float64(n)
		}
	}
	return out
}

// SampleIndices returns, for each probability, the index of the selected
// alternative. Early methods search the cumulative weights for the first
// entry not below the probability; late methods split [0, 1) into len(weights)
// equal intervals.
func SampleIndices(weights []float64, probs []float64, method Method) []int {
	n := len(weights)
	if n == 0 {
		return nil
	}
	var bounds []float64
	if method.Early() {
		bounds = make([]float64, n)
		sum := 0.0
		for i, w := range weights {
			sum += w
			bounds[i] = sum
		}
	} else {
		bounds = make([]float64, n-1)
		for k := range bounds {
			bounds[k] = float64(k+1) / float64(n)
		}
	}
	idxs := make([]int, len(probs))
	for i, p := range probs {
		idx := sort.SearchFloat64s(bounds, p)
		// Declared weights may sum slightly below 1.
		if idx >= n {
			idx = n - 1
		}
		idxs[i] = idx
	}
	return idxs
}

// Sample selects objects according to probs. weight extracts the weight
// an early method follows.
func Sample[T any](objects []T, weight func(T) float64, probs []float64, method Method) []T {
	weights := make([]float64, len(objects))
	for i, o := range objects {
		weights[i] = weight(o)
	}
	idxs := SampleIndices(weights, probs, method)
	out := make([]T, len(idxs))
	for i, idx := range idxs {
		out[i] = objects[idx]
	}
	return out
}
