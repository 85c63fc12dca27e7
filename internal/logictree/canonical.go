package logictree

import (
	"github.com/google/uuid"

	"github.com/roach88/logictree/internal/ir"
)

// Canonical returns the tree as a canonical JSON value. Dummy branch sets
// are derived from the declared ones and left out.
func (t *Tree) Canonical() map[string]any {
	sets := make([]any, t.declared)
	for i, bs := range t.BranchSets() {
		branches := make([]any, len(bs.Branches))
		for j, br := range bs.Branches {
			branches[j] = map[string]any{
				"id":     br.ID,
				"weight": br.Weight,
				"value":  br.Value.Canonical(),
			}
		}
		filters := make(map[string]any, len(bs.Filters))
		for k, v := range bs.Filters {
			filters[k] = v
		}
		sets[i] = map[string]any{
			"id":               bs.ID,
			"uncertainty_type": string(bs.UncertaintyType),
			"filters":          filters,
			"collapsed":        bs.Collapsed,
			"branches":         branches,
		}
	}
	return map[string]any{
		"id":             t.ID,
		"format_version": ir.FormatVersion,
		"branch_sets":    sets,
	}
}

// Fingerprint returns the content-derived id of the tree.
func (t *Tree) Fingerprint() (uuid.UUID, error) {
	return ir.TreeFingerprint(t.Canonical())
}
