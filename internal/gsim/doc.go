// Package gsim builds the ground-motion logic tree on top of package
// logictree.
//
// A GSIM tree holds one gmpeModel branch set per tectonic region type
// (TRT). Branch weights may differ per intensity measure type. Only the
// TRTs present in the source model are effective; the others are dropped
// at construction. Collapsing a branch set replaces its alternatives with
// a single AvgPoeGMPE pseudo-model that averages them by weight.
//
// Serialize flattens a tree into rows, one per effective branch, with one
// float column per weight key and the bytes of every data file a GSIM
// refers to. Deserialize writes those files to a fresh temporary
// directory and rebuilds an equal tree.
package gsim
