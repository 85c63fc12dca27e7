// Package ir provides the plain data types shared by every logic-tree
// package: branch and branch-set descriptions as they arrive from a front
// end, IMT-dependent weights, canonical JSON and content fingerprints.
//
// This package contains no tree logic. All other internal packages import
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - Descriptions are immutable values; the tree engine copies what it keeps
//   - Every weight carries the default key "weight"
//   - Canonical JSON is the only serialization used for fingerprints
//   - All JSON tags use snake_case
package ir
