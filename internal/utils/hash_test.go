// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

const testHashKey = "test-secret-key"

func TestHashString_MatchesHMAC(t *testing.T) {
	h := hmac.New(sha256.New, []byte(testHashKey))
	h.Write([]byte("password"))
	want := hex.EncodeToString(h.Sum(nil))

	if got := HashString("password", testHashKey); got != want {
		t.Fatalf("unexpected hash\nwant: %s\ngot:  %s", want, got)
	}
}

func TestHashString_KeyMatters(t *testing.T) {
	a := HashString("password", "key-a")
	b := HashString("password", "key-b")
	if a == b {
		t.Fatal("different keys must give different hashes")
	}
}

func TestEqualHashes(t *testing.T) {
	a := HashString("x", testHashKey)
	if !EqualHashes(a, HashString("x", testHashKey)) {
		t.Error("equal hashes reported different")
	}
	if EqualHashes(a, HashString("y", testHashKey)) {
		t.Error("different hashes reported equal")
	}
}
