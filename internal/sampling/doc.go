// Package sampling turns seeded uniform numbers into branch selections.
//
// Random builds an n×d matrix of probabilities from one generator owned by
// the call, so a fixed (seed, n, d, method) always yields the same matrix.
// Methods ending in "latin" stratify every column: each of the n strata
// [k/n, (k+1)/n) holds exactly one value.
//
// SampleIndices maps probabilities to alternatives. Methods starting with
// "early" follow the declared weights through a CDF search; methods
// starting with "late" ignore the weights and pick uniformly, leaving the
// weighting to the caller. The same seed under different methods yields
// systematically different selections.
package sampling
