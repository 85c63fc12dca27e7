// Package harness runs logic-tree conformance scenarios.
//
// A scenario describes a tree, either inline or as a directory of CUE
// descriptions, and the realizations it must produce:
//
//	name: two_levels
//	description: "Source model branches share one MFD branch set"
//	tree:
//	  id: lt
//	  branch_sets:
//	    - id: bs1
//	      type: sourceModel
//	      branches:
//	        - {id: A, weight: 0.5, uncertainty: a.xml}
//	        - {id: B, weight: 0.5, uncertainty: b.xml}
//	    - id: bs2
//	      type: maxMagGRRelative
//	      branches:
//	        - {id: X, weight: 0.75, uncertainty: "0.2"}
//	        - {id: Y, weight: 0.25, uncertainty: "-0.2"}
//	sampling:
//	  num_samples: 0
//	assertions:
//	  - type: num_paths
//	    count: 4
//	  - type: path_contains
//	    path: [A, X]
//	    weight: 0.375
//
// # Assertion Types
//
//   - num_paths: the tree has exactly Count paths
//   - realization_count: exactly Count realizations were produced
//   - path_contains: a realization follows Path, optionally with Weight and Samples
//   - path_order: the listed paths appear in that relative order
//   - weight_sum: realization weights sum to Weight (1 when omitted)
//   - bset_value: following Path, BranchSet holds Value
//   - error_codes: building the tree fails with exactly Codes
//
// # Determinism
//
// Every scenario runs against a fresh in-memory store. Realizations are
// written and read back before the assertions run, so a scenario also
// checks persistence. Sampling is seeded from the scenario, and the
// golden snapshot holds only hand-checkable fields.
package harness
