// Package hashing computes the content addresses used throughout the pool.
// An identity hash covers the canonical text of a function (docstring
// excluded), a mapping hash covers the canonical JSON form of a localization
// record. Both are SHA-256 rendered as 64 lowercase hex characters.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// Algorithm names the hash function recorded in stored objects.
const Algorithm = "sha256"

// HexLength is the length of an encoded hash.
const HexLength = 64

// Sum hashes raw bytes and returns the lowercase hex encoding.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Identity computes the identity hash of a function from its canonical
// text without the docstring.
func Identity(canonicalText string) string {
	return Sum([]byte(canonicalText))
}

// IsHash reports whether s is a well-formed hash: exactly 64 lowercase
// hex characters.
func IsHash(s string) bool {
	if len(s) != HexLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Short returns an abbreviated hash for log lines and human output.
func Short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
