package surrealdb

import (
	"crypto/sha256"
	"encoding/hex"
)

// recordKeyFor derives a stable record key from an arbitrary string (a blog
// URL), so UPSERT by a natural key stays idempotent without requiring the
// caller to track a generated id.
func recordKeyFor(natural string) string {
	sum := sha256.Sum256([]byte(natural))
	return hex.EncodeToString(sum[:16])
}
