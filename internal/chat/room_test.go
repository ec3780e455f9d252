package chat

import (
	"encoding/hex"
	"testing"
)

func TestDeriveRoomIDSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"user-a", "user-b"},
		{"1", "2"},
		{"64f1c0ffee", "64f1decade"},
		{"same", "same"},
		{"", "x"},
	}

	for _, p := range pairs {
		ab := DeriveRoomID(p[0], p[1])
		ba := DeriveRoomID(p[1], p[0])
		if ab != ba {
			t.Errorf("DeriveRoomID(%q, %q) = %s, reversed = %s", p[0], p[1], ab, ba)
		}
	}
}

func TestDeriveRoomIDShape(t *testing.T) {
	id := DeriveRoomID("alice", "bob")
	if len(id) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(id))
	}
	if _, err := hex.DecodeString(id); err != nil {
		t.Fatalf("room id is not hex: %v", err)
	}
}

func TestDeriveRoomIDDistinctPairs(t *testing.T) {
	users := []string{"a", "b", "c", "d", "e"}

	seen := make(map[string][2]string)
	for i, u := range users {
		for _, v := range users[i+1:] {
			id := DeriveRoomID(u, v)
			if prev, ok := seen[id]; ok {
				t.Fatalf("collision: (%s,%s) and (%s,%s) both derive %s", prev[0], prev[1], u, v, id)
			}
			seen[id] = [2]string{u, v}
		}
	}
}

func TestPairKeyCanonical(t *testing.T) {
	if PairKey("b", "a") != PairKey("a", "b") {
		t.Fatal("pair key must not depend on argument order")
	}
	if PairKey("a", "b") != "a:b" {
		t.Fatalf("unexpected pair key %q", PairKey("a", "b"))
	}
}
