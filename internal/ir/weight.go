package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// DefaultWeightKey is the key of the IMT-independent weight.
const DefaultWeightKey = "weight"

// WeightTolerance is the absolute tolerance applied when checking that
// sibling weights sum to one. It absorbs rounding in declared decimals.
const WeightTolerance = 1e-6

// Weight is a branch weight, optionally overridden per intensity measure
// type (IMT). A Weight without overrides behaves as a scalar.
//
// Weight is a value type: every operation returns a new Weight and never
// mutates the receiver's override map.
type Weight struct {
	Default float64
	ByIMT   map[string]float64
}

// Scalar returns an IMT-independent weight.
func Scalar(w float64) Weight {
	return Weight{Default: w}
}

// NewWeight returns a weight with per-IMT overrides. The map is copied.
// An entry under DefaultWeightKey replaces def.
func NewWeight(def float64, byIMT map[string]float64) Weight {
	w := Weight{Default: def}
	for k, v := range byIMT {
		if k == DefaultWeightKey {
			w.Default = v
			continue
		}
		if w.ByIMT == nil {
			w.ByIMT = make(map[string]float64, len(byIMT))
		}
		w.ByIMT[k] = v
	}
	return w
}

// IsScalar reports whether the weight has no per-IMT overrides.
func (w Weight) IsScalar() bool {
	return len(w.ByIMT) == 0
}

// Get returns the weight for an IMT, falling back to the default.
// Get(DefaultWeightKey) returns the default.
func (w Weight) Get(imt string) float64 {
	if v, ok := w.ByIMT[imt]; ok {
		return v
	}
	return w.Default
}

// Overrides reports whether the weight explicitly sets key.
func (w Weight) Overrides(key string) bool {
	if key == DefaultWeightKey {
		return true
	}
	_, ok := w.ByIMT[key]
	return ok
}

// Keys returns DefaultWeightKey followed by the override keys sorted.
func (w Weight) Keys() []string {
	keys := make([]string, 0, len(w.ByIMT)+1)
	keys = append(keys, DefaultWeightKey)
	return append(keys, sortedIMTs(w.ByIMT)...)
}

// Mul multiplies two weights key by key over the union of their keys.
func (w Weight) Mul(o Weight) Weight {
	return w.combine(o, func(a, b float64) float64 { return a * b })
}

// Add sums two weights key by key over the union of their keys.
func (w Weight) Add(o Weight) Weight {
	return w.combine(o, func(a, b float64) float64 { return a + b })
}

// Scale multiplies every entry by f.
func (w Weight) Scale(f float64) Weight {
	out := Weight{Default: w.Default * f}
	if len(w.ByIMT) > 0 {
		out.ByIMT = make(map[string]float64, len(w.ByIMT))
		for k, v := range w.ByIMT {
			out.ByIMT[k] = v * f
		}
	}
	return out
}

// Div divides every entry by the matching entry of o.
func (w Weight) Div(o Weight) Weight {
	return w.combine(o, func(a, b float64) float64 { return a / b })
}

func (w Weight) combine(o Weight, op func(a, b float64) float64) Weight {
	out := Weight{Default: op(w.Default, o.Default)}
	if len(w.ByIMT) == 0 && len(o.ByIMT) == 0 {
		return out
	}
	out.ByIMT = make(map[string]float64, len(w.ByIMT)+len(o.ByIMT))
	for k := range w.ByIMT {
		out.ByIMT[k] = op(w.Get(k), o.Get(k))
	}
	for k := range o.ByIMT {
		out.ByIMT[k] = op(w.Get(k), o.Get(k))
	}
	return out
}

// Valid reports an error for negative, NaN or infinite entries.
func (w Weight) Valid() error {
	for _, k := range w.Keys() {
		v := w.Get(k)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s is not finite: %v", k, v)
		}
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", k, v)
		}
	}
	return nil
}

// Equal reports whether both weights have the same keys and entries.
func (w Weight) Equal(o Weight) bool {
	if w.Default != o.Default || len(w.ByIMT) != len(o.ByIMT) {
		return false
	}
	for k, v := range w.ByIMT {
		ov, ok := o.ByIMT[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the weight compactly, e.g. "0.5" or "0.5{PGA:0.2}".
func (w Weight) String() string {
	if w.IsScalar() {
		return formatFloat(w.Default)
	}
	s := formatFloat(w.Default) + "{"
	for i, k := range sortedIMTs(w.ByIMT) {
		if i > 0 {
			s += ","
		}
		s += k + ":" + formatFloat(w.ByIMT[k])
	}
	return s + "}"
}

// Canonical returns the weight as a canonical JSON value: a number for a
// scalar weight, an object keyed by weight key otherwise.
func (w Weight) Canonical() any {
	if w.IsScalar() {
		return w.Default
	}
	m := make(map[string]any, len(w.ByIMT)+1)
	m[DefaultWeightKey] = w.Default
	for k, v := range w.ByIMT {
		m[k] = v
	}
	return m
}

// MarshalJSON implements json.Marshaler using the Canonical shape.
func (w Weight) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Canonical())
}

// UnmarshalJSON accepts a number or an object of weight keys.
func (w *Weight) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*w = Scalar(f)
		return nil
	}
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("weight: expected a number or an object of numbers: %w", err)
	}
	def, ok := m[DefaultWeightKey]
	if !ok {
		return fmt.Errorf("weight: object form requires key %q", DefaultWeightKey)
	}
	*w = NewWeight(def, m)
	return nil
}

// SumByKey sums the weights over the union of their keys. The result maps
// every key (DefaultWeightKey included) to its total.
func SumByKey(weights []Weight) map[string]float64 {
	keys := map[string]bool{DefaultWeightKey: true}
	for _, w := range weights {
		for k := range w.ByIMT {
			keys[k] = true
		}
	}
	sums := make(map[string]float64, len(keys))
	for k := range keys {
		for _, w := range weights {
			sums[k] += w.Get(k)
		}
	}
	return sums
}

// UnitSum reports whether sibling weights sum to one for every key, within
// WeightTolerance. The first failing key and its sum are returned.
func UnitSum(weights []Weight) (ok bool, key string, sum float64) {
	sums := SumByKey(weights)
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if math.Abs(sums[k]-1) > WeightTolerance {
			return false, k, sums[k]
		}
	}
	return true, "", 0
}

func sortedIMTs(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
