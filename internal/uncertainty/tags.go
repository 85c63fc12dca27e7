package uncertainty

import "slices"

// Tag identifies an uncertainty type.
type Tag string

// Uncertainty types.
const (
	TagSourceModel                         Tag = "sourceModel"
	TagExtendModel                         Tag = "extendModel"
	TagGmpeModel                           Tag = "gmpeModel"
	TagDummy                               Tag = "dummy"
	TagBGRRelative                         Tag = "bGRRelative"
	TagABGRAbsolute                        Tag = "abGRAbsolute"
	TagMaxMagGRRelative                    Tag = "maxMagGRRelative"
	TagMaxMagGRAbsolute                    Tag = "maxMagGRAbsolute"
	TagIncrementalMFDAbsolute              Tag = "incrementalMFDAbsolute"
	TagTruncatedGRFromSlipAbsolute         Tag = "truncatedGRFromSlipAbsolute"
	TagSimpleFaultDipRelative              Tag = "simpleFaultDipRelative"
	TagSimpleFaultDipAbsolute              Tag = "simpleFaultDipAbsolute"
	TagSimpleFaultGeometryAbsolute         Tag = "simpleFaultGeometryAbsolute"
	TagComplexFaultGeometryAbsolute        Tag = "complexFaultGeometryAbsolute"
	TagCharacteristicFaultGeometryAbsolute Tag = "characteristicFaultGeometryAbsolute"
	TagSetMSRAbsolute                      Tag = "setMSRAbsolute"
	TagSetLowerSeismDepthAbsolute          Tag = "setLowerSeismDepthAbsolute"
	TagSetUpperSeismDepthAbsolute          Tag = "setUpperSeismDepthAbsolute"
)

// absolute lists the types that replace a source property outright.
// A branch set carrying one must be restricted to exactly one source.
var absolute = []Tag{
	TagABGRAbsolute,
	TagMaxMagGRAbsolute,
	TagIncrementalMFDAbsolute,
	TagTruncatedGRFromSlipAbsolute,
	TagSimpleFaultDipAbsolute,
	TagSimpleFaultGeometryAbsolute,
	TagComplexFaultGeometryAbsolute,
	TagCharacteristicFaultGeometryAbsolute,
	TagSetMSRAbsolute,
	TagSetLowerSeismDepthAbsolute,
	TagSetUpperSeismDepthAbsolute,
}

// IsAbsolute reports whether the type sets a source property outright.
func IsAbsolute(tag Tag) bool {
	return slices.Contains(absolute, tag)
}

// Known reports whether the tag is part of the vocabulary.
func Known(tag Tag) bool {
	_, ok := parsers[tag]
	return ok
}

// Tags returns the vocabulary sorted.
func Tags() []Tag {
	tags := make([]Tag, 0, len(parsers))
	for t := range parsers {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}
