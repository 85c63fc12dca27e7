package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightGetFallsBackToDefault(t *testing.T) {
	w := NewWeight(0.5, map[string]float64{"PGA": 0.25})

	assert.Equal(t, 0.25, w.Get("PGA"))
	assert.Equal(t, 0.5, w.Get("SA(1.0)"))
	assert.Equal(t, 0.5, w.Get(DefaultWeightKey))
	assert.True(t, w.Overrides("PGA"))
	assert.False(t, w.Overrides("SA(1.0)"))
	assert.Equal(t, []string{DefaultWeightKey, "PGA"}, w.Keys())
}

func TestNewWeightDefaultKeyOverridesDefault(t *testing.T) {
	w := NewWeight(0, map[string]float64{DefaultWeightKey: 0.75, "PGV": 0.5})
	assert.Equal(t, 0.75, w.Default)
	assert.Equal(t, map[string]float64{"PGV": 0.5}, w.ByIMT)
}

func TestWeightMulUnionOfKeys(t *testing.T) {
	a := NewWeight(0.5, map[string]float64{"PGA": 0.25})
	b := NewWeight(0.5, map[string]float64{"PGV": 0.75})

	got := a.Mul(b)

	assert.Equal(t, 0.25, got.Default)
	assert.Equal(t, 0.125, got.Get("PGA"))
	assert.Equal(t, 0.375, got.Get("PGV"))
	assert.True(t, Scalar(0.5).Mul(Scalar(0.5)).IsScalar())
}

func TestWeightMulDoesNotMutate(t *testing.T) {
	a := NewWeight(0.5, map[string]float64{"PGA": 0.25})
	_ = a.Mul(Scalar(0.5))
	_ = a.Scale(4)
	assert.Equal(t, 0.25, a.Get("PGA"))
}

func TestWeightAddScaleDiv(t *testing.T) {
	a := NewWeight(0.25, map[string]float64{"PGA": 0.5})
	assert.Equal(t, 0.5, a.Add(a).Default)
	assert.Equal(t, 1.0, a.Scale(2).Get("PGA"))
	assert.Equal(t, 1.0, a.Div(a).Get("PGA"))
}

func TestWeightValid(t *testing.T) {
	assert.NoError(t, Scalar(0).Valid())
	assert.Error(t, Scalar(-0.1).Valid())
	assert.Error(t, Scalar(math.NaN()).Valid())
	assert.Error(t, NewWeight(0.5, map[string]float64{"PGA": math.Inf(1)}).Valid())
}

func TestUnitSum(t *testing.T) {
	ok, _, _ := UnitSum([]Weight{Scalar(0.3), Scalar(0.3), Scalar(0.4)})
	assert.True(t, ok, "0.3+0.3+0.4 rounds within tolerance")

	ok, key, sum := UnitSum([]Weight{Scalar(0.3), Scalar(0.3)})
	assert.False(t, ok)
	assert.Equal(t, DefaultWeightKey, key)
	assert.InDelta(t, 0.6, sum, 1e-12)

	ok, key, _ = UnitSum([]Weight{
		NewWeight(0.5, map[string]float64{"PGA": 0.9}),
		NewWeight(0.5, nil),
	})
	assert.False(t, ok)
	assert.Equal(t, "PGA", key)
}

func TestWeightJSONRoundTrip(t *testing.T) {
	for _, w := range []Weight{
		Scalar(0.4),
		NewWeight(0.5, map[string]float64{"PGA": 0.25, "SA(0.1)": 0.125}),
	} {
		data, err := json.Marshal(w)
		require.NoError(t, err)

		var got Weight
		require.NoError(t, json.Unmarshal(data, &got))
		assert.True(t, w.Equal(got), "round trip of %s gave %s", w, got)
	}
}

func TestWeightUnmarshalRequiresDefault(t *testing.T) {
	var w Weight
	err := json.Unmarshal([]byte(`{"PGA":0.5}`), &w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultWeightKey)
}

func TestWeightString(t *testing.T) {
	assert.Equal(t, "0.5", Scalar(0.5).String())
	assert.Equal(t, "0.5{PGA:0.25,PGV:1}", NewWeight(0.5, map[string]float64{"PGV": 1, "PGA": 0.25}).String())
}
