// Package uncertainty defines the closed vocabulary of uncertainty types a
// branch set may carry, the typed values their branches hold, and the two
// static dispatch tables keyed by type:
//
//   - Parse turns the raw uncertainty text of a branch into a Value
//   - Apply mutates a target model object with a Value
//
// Values form a sealed tagged union: one Go type per value family
// (Float, FloatPair, ModelPaths, Name, IncrementalMFD, SlipRate,
// SimpleFaultGeometry, ComplexFaultGeometry, CharacteristicGeometry,
// Gsim, Dummy).
//
// Targets are arbitrary model objects. Each applier asserts the capability
// interface it needs (MFDEditor, GeometryEditor, DepthEditor,
// ScalingEditor, ModelSelector, GsimSelector) and fails with
// ErrUnsupportedTarget when the target lacks it.
//
// Every parse tag has an apply tag and vice versa. CheckTables verifies the
// pairing; it runs at package initialization and panics on a mismatch.
package uncertainty
