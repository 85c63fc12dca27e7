package uncertainty

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGsimTable(t *testing.T) {
	g, err := ParseGsim("[GMPETable]\ngmpe_table = \"tables/Wcrust_low_rhypo.hdf5\"\n")
	require.NoError(t, err)

	assert.Equal(t, "GMPETable", g.Name)
	assert.Equal(t, map[string]string{"gmpe_table": "tables/Wcrust_low_rhypo.hdf5"}, g.Files())
	assert.Equal(t, []string{"gmpe_table"}, g.FileKeys())
}

func TestParseGsimRejects(t *testing.T) {
	for _, text := range []string{
		"",
		"Boore Atkinson",
		"[A]\nx = 1\n[B]\ny = 2",
		"[A",
	} {
		_, err := ParseGsim(text)
		assert.Error(t, err, "text %q", text)
	}
}

func TestGsimCanonicalIsOrderIndependent(t *testing.T) {
	a, err := ParseGsim("[AbrahamsonEtAl2014]\nregion = 'TWN'\nkappa = 0.04")
	require.NoError(t, err)
	b, err := ParseGsim("[AbrahamsonEtAl2014]\nkappa = 0.04\nregion = 'TWN'")
	require.NoError(t, err)

	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.Equal(t, "BooreAtkinson2008", NewGsim("BooreAtkinson2008", nil).Canonical())
}

func TestGsimPathResolution(t *testing.T) {
	g := NewGsim("GMPETable", map[string]any{"gmpe_table": "tables/a.hdf5", "kappa": 0.1})

	assert.Equal(t, filepath.Join("/data", "tables/a.hdf5"), g.Path("gmpe_table", "/data"))
	assert.Equal(t, "tables/a.hdf5", g.Path("gmpe_table", ""))
	assert.Equal(t, "", g.Path("kappa", "/data"), "kappa is not a file parameter")

	resolved := g.WithResolved("gmpe_table", "/tmp/x/a.hdf5")
	assert.Equal(t, "/tmp/x/a.hdf5", resolved.Path("gmpe_table", "/data"))
	assert.Equal(t, g.Canonical(), resolved.Canonical(), "resolution must not change the canonical form")
	assert.Equal(t, filepath.Join("/data", "tables/a.hdf5"), g.Path("gmpe_table", "/data"), "original untouched")
}
