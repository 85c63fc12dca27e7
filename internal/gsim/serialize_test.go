package gsim

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeColumns(t *testing.T) {
	base := t.TempDir()
	data := writeTable(t, base)
	tr, err := New(gsimSpec(base), nil)
	require.NoError(t, err)

	s, err := tr.Serialize()
	require.NoError(t, err)

	assert.Equal(t, "gmpe_lt", s.ID)
	assert.Equal(t, []string{"weight", "PGA"}, s.WeightKeys)
	assert.Equal(t, []string{"bsASC", "bsSCR"}, s.BranchSetIDs)
	require.Len(t, s.Rows, 4)

	assert.Equal(t, asc, s.Rows[0].TRT)
	assert.Equal(t, "b1", s.Rows[0].Branch)
	assert.Equal(t, "BooreAtkinson2008", s.Rows[0].Uncertainty)
	assert.Equal(t, []float64{0.6, 0.5}, s.Rows[0].Weights)

	assert.Equal(t, scr, s.Rows[2].TRT)
	assert.Equal(t, 0.75, s.Rows[2].Weights[0])
	assert.True(t, math.IsNaN(s.Rows[2].Weights[1]), "PGA is not overridden for b3")

	assert.Equal(t, map[string][]byte{"tables/asc.hdf5": data}, s.Files)
}

func TestSerializeRoundTrip(t *testing.T) {
	base := t.TempDir()
	data := writeTable(t, base)
	tr, err := New(gsimSpec(base), nil)
	require.NoError(t, err)

	s, err := tr.Serialize()
	require.NoError(t, err)

	tmp := t.TempDir()
	back, err := Deserialize(s, tmp)
	require.NoError(t, err)

	orig := tr.Engine().BranchSets()
	got := back.Engine().BranchSets()
	require.Len(t, got, len(orig))
	for i := range orig {
		require.Len(t, got[i].Branches, len(orig[i].Branches))
		for j, want := range orig[i].Branches {
			have := got[i].Branches[j]
			assert.Equal(t, want.ID, have.ID)
			assert.Equal(t, want.Value.Canonical(), have.Value.Canonical())
			assert.True(t, want.Weight.Equal(have.Weight), "%s: %v != %v", want.ID, want.Weight, have.Weight)
		}
	}
	assert.Equal(t, tr.TRTs(), back.TRTs())

	wantID, err := tr.Engine().Fingerprint()
	require.NoError(t, err)
	gotID, err := back.Engine().Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, wantID, gotID)

	table := back.Gsims()[asc][1]
	path := table.Path("gmpe_table", "")
	assert.True(t, strings.HasPrefix(path, tmp), "rehydrated under %s, got %s", tmp, path)
	rehydrated, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, rehydrated)
}

func TestSerializeRoundTripCollapsed(t *testing.T) {
	base := t.TempDir()
	writeTable(t, base)
	tr, err := New(gsimSpec(base), nil, WithCollapsed("bsASC"))
	require.NoError(t, err)

	s, err := tr.Serialize()
	require.NoError(t, err)
	assert.Equal(t, []string{"bsASC"}, s.Collapsed)
	assert.Len(t, s.Rows, 4, "declared branches are kept")

	back, err := Deserialize(s, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 2, back.NumPaths())
	assert.Equal(t, tr.Gsims()[asc][0].Canonical(), back.Gsims()[asc][0].Canonical())
}

func TestSerializeMissingFile(t *testing.T) {
	tr, err := New(gsimSpec(t.TempDir()), nil)
	require.NoError(t, err)

	_, err = tr.Serialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gmpe_table")
}

func TestDeserializeRejectsEscapingFiles(t *testing.T) {
	tr, err := New(gsimSpec(""), []string{scr})
	require.NoError(t, err)
	s, err := tr.Serialize()
	require.NoError(t, err)

	s.Files["../outside.hdf5"] = []byte("x")
	_, err = Deserialize(s, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}

func TestDeserializeRejectsBadRows(t *testing.T) {
	tr, err := New(gsimSpec(""), []string{scr})
	require.NoError(t, err)
	s, err := tr.Serialize()
	require.NoError(t, err)

	s.Rows[0].Weights = s.Rows[0].Weights[:0]
	_, err = Deserialize(s, t.TempDir())
	require.Error(t, err)

	s.WeightKeys = []string{"PGA"}
	_, err = Deserialize(s, t.TempDir())
	require.Error(t, err)
}

func TestDeserializeCleansUpOnError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Serialized)
	}{
		{"escaping file", func(s *Serialized) { s.Files["../outside.hdf5"] = []byte("x") }},
		{"short row", func(s *Serialized) { s.Rows[0].Weights = s.Rows[0].Weights[:0] }},
		{"empty branch set", func(s *Serialized) { s.BranchSetIDs = append(s.BranchSetIDs, "bsNone") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(gsimSpec(""), []string{scr})
			require.NoError(t, err)
			s, err := tr.Serialize()
			require.NoError(t, err)
			tt.mutate(s)

			tmp := t.TempDir()
			_, err = Deserialize(s, tmp)
			require.Error(t, err)

			entries, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Empty(t, entries, "no directory left behind")
		})
	}
}

func TestDeserializeUsesSystemTemp(t *testing.T) {
	tr, err := New(gsimSpec(""), []string{scr})
	require.NoError(t, err)
	s, err := tr.Serialize()
	require.NoError(t, err)

	back, err := Deserialize(s, "")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(back.Engine().BaseDir) })
	assert.True(t, strings.HasPrefix(back.Engine().BaseDir, filepath.Clean(os.TempDir())))
}
