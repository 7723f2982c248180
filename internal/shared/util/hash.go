package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// OwnerDigest returns a stable, path-safe digest of an owner identifier.
// Object keys and KV namespaces both derive from it so raw user ids never
// appear in storage paths.
func OwnerDigest(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(sum[:])
}

// OwnerNamespace returns the key prefix that isolates one owner's records in
// a shared key-value store.
func OwnerNamespace(owner string) string {
	return "user:" + OwnerDigest(owner)[:32] + ":"
}
