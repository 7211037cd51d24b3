// internal/blueprint/hash.go
package blueprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ComputeHash returns the SHA-256 hex digest of the canonical JSON form of
// a blueprint document. Canonicalization re-marshals through a generic
// value so object keys are sorted and whitespace is normalized — two
// documents with the same content always hash identically.
func ComputeHash(raw []byte) (string, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("cannot canonicalize blueprint for hashing: %w", err)
	}
	canonical, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("cannot marshal canonical blueprint: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
