package uncertainty

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnsupportedTarget is returned when a target lacks the capability an
// uncertainty type needs.
var ErrUnsupportedTarget = errors.New("target does not support uncertainty")

// ErrUnknownTag is returned by Apply for tags outside the vocabulary.
var ErrUnknownTag = errors.New("unknown uncertainty type")

// MFDEditor is implemented by sources whose magnitude-frequency
// distribution can be edited.
type MFDEditor interface {
	IncrementB(delta float64) error
	SetAB(a, b float64) error
	IncrementMaxMag(delta float64) error
	SetMaxMag(mag float64) error
	SetIncrementalMFD(mfd IncrementalMFD) error
	SetTruncatedGRFromSlip(s SlipRate) error
}

// GeometryEditor is implemented by fault sources.
type GeometryEditor interface {
	AdjustDip(delta float64) error
	SetDip(dip float64) error
	SetSimpleFaultGeometry(g SimpleFaultGeometry) error
	SetComplexFaultGeometry(g ComplexFaultGeometry) error
	SetCharacteristicGeometry(g CharacteristicGeometry) error
}

// DepthEditor is implemented by sources with a seismogenic layer.
type DepthEditor interface {
	SetUpperSeismogenicDepth(km float64) error
	SetLowerSeismogenicDepth(km float64) error
}

// ScalingEditor is implemented by sources with a magnitude-scaling
// relationship.
type ScalingEditor interface {
	SetMagnitudeScaling(name string) error
}

// ModelSelector is implemented by source-model builders.
type ModelSelector interface {
	SelectSourceModel(paths []string) error
	ExtendSourceModel(paths []string) error
}

// GsimSelector is implemented by ground-motion contexts.
type GsimSelector interface {
	SelectGsim(g Gsim) error
}

type applyFunc func(target any, v Value) error

// appliers is the apply dispatch table. It must cover exactly the tags of
// parsers; CheckTables enforces it.
var appliers = map[Tag]applyFunc{
	TagSourceModel: func(t any, v Value) error {
		return withTarget(t, TagSourceModel, func(m ModelSelector) error {
			return withValue(v, TagSourceModel, func(p ModelPaths) error { return m.SelectSourceModel(p) })
		})
	},
	TagExtendModel: func(t any, v Value) error {
		return withTarget(t, TagExtendModel, func(m ModelSelector) error {
			return withValue(v, TagExtendModel, func(p ModelPaths) error { return m.ExtendSourceModel(p) })
		})
	},
	TagGmpeModel: func(t any, v Value) error {
		return withTarget(t, TagGmpeModel, func(s GsimSelector) error {
			return withValue(v, TagGmpeModel, s.SelectGsim)
		})
	},
	TagDummy: func(any, Value) error { return nil },
	TagBGRRelative: func(t any, v Value) error {
		return withTarget(t, TagBGRRelative, func(m MFDEditor) error {
			return withValue(v, TagBGRRelative, func(f Float) error { return m.IncrementB(float64(f)) })
		})
	},
	TagABGRAbsolute: func(t any, v Value) error {
		return withTarget(t, TagABGRAbsolute, func(m MFDEditor) error {
			return withValue(v, TagABGRAbsolute, func(p FloatPair) error { return m.SetAB(p.A, p.B) })
		})
	},
	TagMaxMagGRRelative: func(t any, v Value) error {
		return withTarget(t, TagMaxMagGRRelative, func(m MFDEditor) error {
			return withValue(v, TagMaxMagGRRelative, func(f Float) error { return m.IncrementMaxMag(float64(f)) })
		})
	},
	TagMaxMagGRAbsolute: func(t any, v Value) error {
		return withTarget(t, TagMaxMagGRAbsolute, func(m MFDEditor) error {
			return withValue(v, TagMaxMagGRAbsolute, func(f Float) error { return m.SetMaxMag(float64(f)) })
		})
	},
	TagIncrementalMFDAbsolute: func(t any, v Value) error {
		return withTarget(t, TagIncrementalMFDAbsolute, func(m MFDEditor) error {
			return withValue(v, TagIncrementalMFDAbsolute, m.SetIncrementalMFD)
		})
	},
	TagTruncatedGRFromSlipAbsolute: func(t any, v Value) error {
		return withTarget(t, TagTruncatedGRFromSlipAbsolute, func(m MFDEditor) error {
			return withValue(v, TagTruncatedGRFromSlipAbsolute, m.SetTruncatedGRFromSlip)
		})
	},
	TagSimpleFaultDipRelative: func(t any, v Value) error {
		return withTarget(t, TagSimpleFaultDipRelative, func(g GeometryEditor) error {
			return withValue(v, TagSimpleFaultDipRelative, func(f Float) error { return g.AdjustDip(float64(f)) })
		})
	},
	TagSimpleFaultDipAbsolute: func(t any, v Value) error {
		return withTarget(t, TagSimpleFaultDipAbsolute, func(g GeometryEditor) error {
			return withValue(v, TagSimpleFaultDipAbsolute, func(f Float) error { return g.SetDip(float64(f)) })
		})
	},
	TagSimpleFaultGeometryAbsolute: func(t any, v Value) error {
		return withTarget(t, TagSimpleFaultGeometryAbsolute, func(g GeometryEditor) error {
			return withValue(v, TagSimpleFaultGeometryAbsolute, g.SetSimpleFaultGeometry)
		})
	},
	TagComplexFaultGeometryAbsolute: func(t any, v Value) error {
		return withTarget(t, TagComplexFaultGeometryAbsolute, func(g GeometryEditor) error {
			return withValue(v, TagComplexFaultGeometryAbsolute, g.SetComplexFaultGeometry)
		})
	},
	TagCharacteristicFaultGeometryAbsolute: func(t any, v Value) error {
		return withTarget(t, TagCharacteristicFaultGeometryAbsolute, func(g GeometryEditor) error {
			return withValue(v, TagCharacteristicFaultGeometryAbsolute, g.SetCharacteristicGeometry)
		})
	},
	TagSetMSRAbsolute: func(t any, v Value) error {
		return withTarget(t, TagSetMSRAbsolute, func(s ScalingEditor) error {
			return withValue(v, TagSetMSRAbsolute, func(n Name) error { return s.SetMagnitudeScaling(string(n)) })
		})
	},
	TagSetLowerSeismDepthAbsolute: func(t any, v Value) error {
		return withTarget(t, TagSetLowerSeismDepthAbsolute, func(d DepthEditor) error {
			return withValue(v, TagSetLowerSeismDepthAbsolute, func(f Float) error { return d.SetLowerSeismogenicDepth(float64(f)) })
		})
	},
	TagSetUpperSeismDepthAbsolute: func(t any, v Value) error {
		return withTarget(t, TagSetUpperSeismDepthAbsolute, func(d DepthEditor) error {
			return withValue(v, TagSetUpperSeismDepthAbsolute, func(f Float) error { return d.SetUpperSeismogenicDepth(float64(f)) })
		})
	},
}

func init() {
	if err := CheckTables(); err != nil {
		panic(err)
	}
}

// Apply mutates target in place according to tag and value.
// TagDummy is a no-op for any target.
func Apply(tag Tag, target any, v Value) error {
	fn, ok := appliers[tag]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	if err := fn(target, v); err != nil {
		return fmt.Errorf("apply %s: %w", tag, err)
	}
	return nil
}

// CheckTables verifies that every parse tag has an apply tag and the
// reverse.
func CheckTables() error {
	var missing []string
	for tag := range parsers {
		if _, ok := appliers[tag]; !ok {
			missing = append(missing, fmt.Sprintf("%s has no applier", tag))
		}
	}
	for tag := range appliers {
		if _, ok := parsers[tag]; !ok {
			missing = append(missing, fmt.Sprintf("%s has no parser", tag))
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("uncertainty tables out of sync: %s", strings.Join(missing, "; "))
	}
	return nil
}

func withTarget[T any](target any, tag Tag, fn func(T) error) error {
	t, ok := target.(T)
	if !ok {
		return fmt.Errorf("%w %s: %T", ErrUnsupportedTarget, tag, target)
	}
	return fn(t)
}

func withValue[V Value](v Value, tag Tag, fn func(V) error) error {
	typed, ok := v.(V)
	if !ok {
		return fmt.Errorf("%s expects %T, got %T", tag, *new(V), v)
	}
	return fn(typed)
}
