// Package chat provides the deterministic room derivation used to key
// real-time broadcast groups for two-party conversations.
package chat

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveRoomID maps an unordered pair of user ids to a stable room key.
// It is symmetric: DeriveRoomID(a, b) == DeriveRoomID(b, a).
//
// The ids are sorted, joined with "_" and hashed so the key leaks nothing
// about the participants. This is a namespacing convenience, not a
// security boundary.
func DeriveRoomID(idA, idB string) string {
	lo, hi := idA, idB
	if hi < lo {
		lo, hi = hi, lo
	}
	sum := sha256.Sum256([]byte(lo + "_" + hi))
	return hex.EncodeToString(sum[:])
}

// PairKey returns the canonical lookup key for a conversation between two
// users. Unlike DeriveRoomID it stays reversible so it can double as a
// uniqueness constraint in storage.
func PairKey(idA, idB string) string {
	lo, hi := idA, idB
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + ":" + hi
}
