package ir

// Version constants for the serialized forms and the engine.
const (
	// FormatVersion is the version of the serialized GSIM tree and
	// realization formats.
	FormatVersion = "1"

	// EngineVersion is the logic-tree engine version.
	EngineVersion = "0.1.0"
)
