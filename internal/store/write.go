package store

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/logictree/internal/gsim"
	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/logictree"
)

// WriteGsimTree stores a serialized GSIM tree under id, normally the
// tree fingerprint. Writing an id that already exists is a no-op.
func (s *Store) WriteGsimTree(ctx context.Context, id uuid.UUID, t *gsim.Serialized) error {
	weightKeys, err := marshalStrings(t.WeightKeys)
	if err != nil {
		return fmt.Errorf("write gsim tree: %w", err)
	}
	bsIDs, err := marshalStrings(t.BranchSetIDs)
	if err != nil {
		return fmt.Errorf("write gsim tree: %w", err)
	}
	collapsed, err := marshalStrings(t.Collapsed)
	if err != nil {
		return fmt.Errorf("write gsim tree: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write gsim tree: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO gsim_trees
		(id, name, weight_keys, branch_set_ids, collapsed, engine_version, format_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id.String(), t.ID, weightKeys, bsIDs, collapsed, ir.EngineVersion, ir.FormatVersion)
	if err != nil {
		return fmt.Errorf("write gsim tree: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	for seq, row := range t.Rows {
		if len(row.Weights) != len(t.WeightKeys) {
			return fmt.Errorf("write gsim tree: row %s has %d weights, want %d", row.Branch, len(row.Weights), len(t.WeightKeys))
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gsim_branches (tree_id, seq, trt, branch_set, branch, uncertainty)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id.String(), seq, row.TRT, row.BranchSet, row.Branch, row.Uncertainty); err != nil {
			return fmt.Errorf("write gsim tree: branch %s: %w", row.Branch, err)
		}
		for i, key := range t.WeightKeys {
			value := sql.NullFloat64{Float64: row.Weights[i], Valid: !math.IsNaN(row.Weights[i])}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO gsim_weights (tree_id, seq, weight_key, value)
				VALUES (?, ?, ?, ?)
			`, id.String(), seq, key, value); err != nil {
				return fmt.Errorf("write gsim tree: weight %s of %s: %w", key, row.Branch, err)
			}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(t.Files)) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gsim_files (tree_id, name, content) VALUES (?, ?, ?)
		`, id.String(), name, t.Files[name]); err != nil {
			return fmt.Errorf("write gsim tree: file %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write gsim tree: commit: %w", err)
	}
	return nil
}

// WriteRealizations stores the realizations of the tree identified by
// treeID together with their content hashes. Existing (tree, ordinal)
// rows are left untouched.
func (s *Store) WriteRealizations(ctx context.Context, treeID uuid.UUID, rlzs []logictree.Realization) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write realizations: begin: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rlzs {
		weight, err := ir.MarshalCanonical(r.Weight)
		if err != nil {
			return fmt.Errorf("write realizations: ordinal %d: %w", r.Ordinal, err)
		}
		hash, err := ir.RealizationHash(treeID, r.LtPath, r.Weight)
		if err != nil {
			return fmt.Errorf("write realizations: ordinal %d: %w", r.Ordinal, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO realizations (tree_id, ordinal, lt_path, weight, samples, hash)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(tree_id, ordinal) DO NOTHING
		`, treeID.String(), r.Ordinal, r.PathKey(), string(weight), r.Samples, hash); err != nil {
			return fmt.Errorf("write realizations: ordinal %d: %w", r.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write realizations: commit: %w", err)
	}
	return nil
}

func marshalStrings(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	data, err := ir.MarshalCanonical(ss)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
