package gsim

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/logictree/internal/ir"
	"github.com/roach88/logictree/internal/uncertainty"
)

// Row is one effective branch in columnar form.
type Row struct {
	TRT         string    `json:"trt"`
	BranchSet   string    `json:"branch_set"`
	Branch      string    `json:"branch"`
	Uncertainty string    `json:"uncertainty"`
	Weights     []float64 `json:"weights"` // one per weight key, NaN when not overridden
}

// Serialized is the storage form of a GSIM tree.
type Serialized struct {
	ID           string            `json:"id"`
	WeightKeys   []string          `json:"weight_keys"`
	BranchSetIDs []string          `json:"branch_set_ids"`
	Collapsed    []string          `json:"collapsed,omitempty"`
	Rows         []Row             `json:"rows"`
	Files        map[string][]byte `json:"files,omitempty"` // declared path -> contents
}

// Serialize flattens the tree. Rows hold the declared branches of every
// effective branch set, collapsed ones included, so that a collapse can
// be replayed on load.
func (t *Tree) Serialize() (*Serialized, error) {
	s := &Serialized{
		ID:        t.lt.ID,
		Collapsed: slices.Clone(t.collapsed),
		Files:     make(map[string][]byte),
	}

	keys := map[string]bool{}
	for _, bs := range t.lt.BranchSets() {
		for _, br := range bs.Branches {
			for _, k := range br.Weight.Keys()[1:] {
				keys[k] = true
			}
		}
	}
	s.WeightKeys = append([]string{ir.DefaultWeightKey}, slices.Sorted(maps.Keys(keys))...)

	for level, bs := range t.lt.BranchSets() {
		s.BranchSetIDs = append(s.BranchSetIDs, bs.ID)
		for _, br := range bs.Branches {
			row := Row{
				TRT:         t.trts[level],
				BranchSet:   bs.ID,
				Branch:      br.ID,
				Uncertainty: br.Value.Canonical(),
				Weights:     make([]float64, len(s.WeightKeys)),
			}
			for i, k := range s.WeightKeys {
				row.Weights[i] = math.NaN()
				if br.Weight.Overrides(k) {
					row.Weights[i] = br.Weight.Get(k)
				}
			}
			s.Rows = append(s.Rows, row)

			g, ok := br.Value.(uncertainty.Gsim)
			if !ok {
				continue
			}
			for param, declared := range g.Files() {
				if _, done := s.Files[declared]; done {
					continue
				}
				data, err := os.ReadFile(g.Path(param, t.lt.BaseDir))
				if err != nil {
					return nil, fmt.Errorf("serialize %s: embed %s: %w", br.ID, param, err)
				}
				s.Files[declared] = data
			}
		}
	}
	t.logger.Debug("serialized gsim logic tree",
		zap.String("tree", s.ID),
		zap.Int("rows", len(s.Rows)),
		zap.Int("files", len(s.Files)))
	return s, nil
}

// Deserialize rebuilds a tree from s. Embedded files are written below a
// fresh directory created inside tmpDir ("" means the system default),
// which becomes the tree's base directory.
func Deserialize(s *Serialized, tmpDir string, opts ...Option) (_ *Tree, err error) {
	wkey := slices.Index(s.WeightKeys, ir.DefaultWeightKey)
	if wkey < 0 {
		return nil, fmt.Errorf("deserialize: weight keys %v lack %q", s.WeightKeys, ir.DefaultWeightKey)
	}

	dir, err := os.MkdirTemp(tmpDir, "gsim-")
	if err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()
	for _, name := range slices.Sorted(maps.Keys(s.Files)) {
		if !filepath.IsLocal(name) {
			return nil, fmt.Errorf("deserialize: embedded file %q escapes the base directory", name)
		}
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("deserialize: %w", err)
		}
		if err := os.WriteFile(path, s.Files[name], 0o600); err != nil {
			return nil, fmt.Errorf("deserialize: %w", err)
		}
	}

	spec := ir.LogicTreeSpec{ID: s.ID, BaseDir: dir}
	for _, id := range s.BranchSetIDs {
		bs := ir.BranchSetSpec{ID: id, UncertaintyType: string(uncertainty.TagGmpeModel)}
		for _, row := range s.Rows {
			if row.BranchSet != id {
				continue
			}
			if len(row.Weights) != len(s.WeightKeys) {
				return nil, fmt.Errorf("deserialize: row %s has %d weights, want %d", row.Branch, len(row.Weights), len(s.WeightKeys))
			}
			bs.Filters = ir.Filters{ir.FilterApplyToTRT: {row.TRT}}
			bs.Branches = append(bs.Branches, ir.BranchSpec{
				ID:          row.Branch,
				Weight:      rowWeight(row.Weights, s.WeightKeys, wkey),
				Uncertainty: row.Uncertainty,
			})
		}
		if len(bs.Branches) == 0 {
			return nil, errors.New("deserialize: branch set " + id + " has no rows")
		}
		spec.BranchSets = append(spec.BranchSets, bs)
	}

	opts = append([]Option{WithCollapsed(s.Collapsed...)}, opts...)
	return New(spec, []string{AllTRTs}, opts...)
}

func rowWeight(weights []float64, keys []string, wkey int) ir.Weight {
	overrides := make(map[string]float64)
	for i, k := range keys {
		if i == wkey || math.IsNaN(weights[i]) {
			continue
		}
		overrides[k] = weights[i]
	}
	return ir.NewWeight(weights[wkey], overrides)
}
