package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainLogicTree   = "logictree/tree/v1"
	DomainRealization = "logictree/realization/v1"
)

// treeNamespace is the UUID namespace for tree fingerprints.
var treeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(DomainLogicTree))

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TreeFingerprint returns a stable UUID (version 5) identifying a tree by
// its canonical form. Two trees with equal canonical forms share an id.
func TreeFingerprint(canonical any) (uuid.UUID, error) {
	data, err := MarshalCanonical(canonical)
	if err != nil {
		return uuid.Nil, fmt.Errorf("TreeFingerprint: failed to marshal: %w", err)
	}
	return uuid.NewSHA1(treeNamespace, data), nil
}

// RealizationHash computes a content hash for one realization, binding the
// tree fingerprint, the path and the weight.
func RealizationHash(treeID uuid.UUID, ltPath []string, weight Weight) (string, error) {
	obj := map[string]any{
		"tree_id": treeID.String(),
		"lt_path": ltPath,
		"weight":  weight,
	}
	data, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RealizationHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRealization, data), nil
}
