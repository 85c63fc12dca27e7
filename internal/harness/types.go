package harness

import "github.com/roach88/logictree/internal/ir"

// RealizationEvent is a realization as read back from the store, with the
// canonical text of its values.
type RealizationEvent struct {
	Ordinal int       `json:"ordinal"`
	Path    []string  `json:"path"`
	Weight  ir.Weight `json:"weight"`
	Samples int       `json:"samples"`
	Values  []string  `json:"values"`
	Hash    string    `json:"hash"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// NumPaths is the number of paths of the built tree.
	NumPaths int `json:"num_paths"`

	// Fingerprint identifies the built tree.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Realizations in ordinal order.
	Realizations []RealizationEvent `json:"realizations"`

	// Codes holds the validation codes when the build failed.
	Codes []string `json:"codes,omitempty"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:         true,
		Realizations: []RealizationEvent{},
		Errors:       []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
