// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashString computes an HMAC-SHA256 signature over data using hashKey and
// returns it hex-encoded.
//
// The client derives the account auth hash from the password with it; the
// server hashes the received auth hash once more before storing it.
func HashString(data string, hashKey string) string {
	return hex.EncodeToString(hashString([]byte(data), hashKey))
}

// EqualHashes compares two hex digests in constant time.
func EqualHashes(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

func hashString(data []byte, hashKey string) []byte {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(data)
	return hasher.Sum(nil)
}
