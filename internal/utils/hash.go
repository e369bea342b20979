package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
)

// HashStringToUint64 is a stable FNV-1a hash, used to seed per-vote
// random choices.
func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// HashIP returns a salted hex digest so raw client addresses are never stored.
func HashIP(ip string, salt string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(salt + "|" + ip))
	return hex.EncodeToString(sum[:16])
}
