package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/logictree/internal/gsim"
	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/logictree"
)

// ErrNotFound is returned when a requested tree is not stored.
var ErrNotFound = errors.New("not found")

// StoredRealization is a realization as persisted. Values are not stored;
// they are recovered from the tree with BsetValues or by enumeration.
type StoredRealization struct {
	Ordinal int
	LtPath  []string
	Weight  ir.Weight
	Samples int
	Hash    string
}

// ReadGsimTree returns the serialized GSIM tree stored under id.
// Rows come back in write order; non-overridden weights read as NaN.
func (s *Store) ReadGsimTree(ctx context.Context, id uuid.UUID) (*gsim.Serialized, error) {
	var weightKeys, bsIDs, collapsed string
	t := &gsim.Serialized{Files: make(map[string][]byte)}
	err := s.db.QueryRowContext(ctx, `
		SELECT name, weight_keys, branch_set_ids, collapsed
		FROM gsim_trees WHERE id = ?
	`, id.String()).Scan(&t.ID, &weightKeys, &bsIDs, &collapsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read gsim tree %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read gsim tree %s: %w", id, err)
	}
	for _, f := range []struct {
		src string
		dst *[]string
	}{{weightKeys, &t.WeightKeys}, {bsIDs, &t.BranchSetIDs}, {collapsed, &t.Collapsed}} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("read gsim tree %s: %w", id, err)
		}
	}
	if len(t.Collapsed) == 0 {
		t.Collapsed = nil
	}

	if t.Rows, err = s.readGsimRows(ctx, id, t.WeightKeys); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, content FROM gsim_files WHERE tree_id = ? ORDER BY name COLLATE BINARY ASC
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query gsim files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var content []byte
		if err := rows.Scan(&name, &content); err != nil {
			return nil, fmt.Errorf("scan gsim file: %w", err)
		}
		t.Files[name] = content
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gsim files: %w", err)
	}
	return t, nil
}

func (s *Store) readGsimRows(ctx context.Context, id uuid.UUID, weightKeys []string) ([]gsim.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, trt, branch_set, branch, uncertainty
		FROM gsim_branches WHERE tree_id = ?
		ORDER BY seq ASC
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query gsim branches: %w", err)
	}
	defer rows.Close()

	var out []gsim.Row
	bySeq := make(map[int]int)
	for rows.Next() {
		var seq int
		var r gsim.Row
		if err := rows.Scan(&seq, &r.TRT, &r.BranchSet, &r.Branch, &r.Uncertainty); err != nil {
			return nil, fmt.Errorf("scan gsim branch: %w", err)
		}
		r.Weights = make([]float64, len(weightKeys))
		for i := range r.Weights {
			r.Weights[i] = math.NaN()
		}
		bySeq[seq] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gsim branches: %w", err)
	}

	col := make(map[string]int, len(weightKeys))
	for i, k := range weightKeys {
		col[k] = i
	}
	wrows, err := s.db.QueryContext(ctx, `
		SELECT seq, weight_key, value FROM gsim_weights WHERE tree_id = ?
		ORDER BY seq ASC, weight_key COLLATE BINARY ASC
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query gsim weights: %w", err)
	}
	defer wrows.Close()
	for wrows.Next() {
		var seq int
		var key string
		var value sql.NullFloat64
		if err := wrows.Scan(&seq, &key, &value); err != nil {
			return nil, fmt.Errorf("scan gsim weight: %w", err)
		}
		i, ok := bySeq[seq]
		c, known := col[key]
		if !ok || !known {
			return nil, fmt.Errorf("gsim weight %s for unknown row %d", key, seq)
		}
		if value.Valid {
			out[i].Weights[c] = value.Float64
		}
	}
	if err := wrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gsim weights: %w", err)
	}
	return out, nil
}

// ListGsimTrees returns the ids of the stored GSIM trees, sorted.
func (s *Store) ListGsimTrees(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM gsim_trees ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query gsim trees: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan gsim tree: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("gsim tree id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gsim trees: %w", err)
	}
	return ids, nil
}

// ReadRealizations returns the realizations stored for treeID in ordinal
// order. Returns an empty slice (not nil) when there are none.
func (s *Store) ReadRealizations(ctx context.Context, treeID uuid.UUID) ([]StoredRealization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, lt_path, weight, samples, hash
		FROM realizations WHERE tree_id = ?
		ORDER BY ordinal ASC
	`, treeID.String())
	if err != nil {
		return nil, fmt.Errorf("query realizations: %w", err)
	}
	defer rows.Close()

	out := []StoredRealization{}
	for rows.Next() {
		var r StoredRealization
		var path, weight string
		if err := rows.Scan(&r.Ordinal, &path, &weight, &r.Samples, &r.Hash); err != nil {
			return nil, fmt.Errorf("scan realization: %w", err)
		}
		r.LtPath = strings.Split(path, logictree.PathSeparator)
		if err := json.Unmarshal([]byte(weight), &r.Weight); err != nil {
			return nil, fmt.Errorf("realization %d weight: %w", r.Ordinal, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate realizations: %w", err)
	}
	return out, nil
}
