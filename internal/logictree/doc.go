// Package logictree implements the weighted decision tree shared by the
// source-model and ground-motion logic trees.
//
// A tree is authored as an ordered list of branch sets (ir.BranchSetSpec).
// Build validates the list, parses every branch value and attaches the
// branch sets level by level: each branch of one level receives the next
// branch set as its child unless that set restricts itself with
// applyToBranches, in which case the uncovered branches receive a
// synthetic dummy branch set holding a single "." branch of weight 1.
// Every root-to-leaf path therefore has the same length.
//
// Branch sets live in an arena owned by the Tree. A branch refers to its
// child by arena index, so one branch set can be the child of many
// branches. After Build returns the tree is never mutated and may be read
// from any number of goroutines.
//
// Realizations are produced either by full enumeration or by seeded
// sampling (see package sampling). Both keep the weights consistent:
// enumeration multiplies branch weights along the path, sampling uses
// 1/n for early methods and the normalized analytic product for late ones.
package logictree
