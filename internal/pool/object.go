// Package pool implements the content-addressed function store: the
// on-disk object and mapping records, the schema-v1 tree layout, and the
// engine operations the CLI and the resolver build on.
package pool

import (
	"time"

	"fnpool/internal/hashing"
)

// SchemaVersionCurrent tags the object layout this package writes.
const SchemaVersionCurrent = 1

// EncodingUTF8 is the only source encoding the pool stores.
const EncodingUTF8 = "utf-8"

// Metadata carries the mutable, non-addressed part of an object. It is
// outside the identity hash, so appending a check or recording a parent
// never changes where the object lives.
type Metadata struct {
	Created     string   `json:"created"`
	AuthorName  string   `json:"author_name"`
	AuthorEmail string   `json:"author_email,omitempty"`
	Parent      string   `json:"parent,omitempty"`
	Checks      []string `json:"checks,omitempty"`
}

// Object is the identity-addressed record of one canonical function.
// The normalized code is the canonical template including its docstring
// slot; the hash covers the same text with the docstring removed.
type Object struct {
	SchemaVersion  int      `json:"schema_version"`
	Hash           string   `json:"hash"`
	HashAlgorithm  string   `json:"hash_algorithm"`
	NormalizedCode string   `json:"normalized_code"`
	Encoding       string   `json:"encoding"`
	Metadata       Metadata `json:"metadata"`
}

// NewObject assembles a current-schema object for freshly canonicalized
// code.
func NewObject(hash, normalizedCode string, meta Metadata) *Object {
	if meta.Created == "" {
		meta.Created = time.Now().UTC().Format(time.RFC3339)
	}
	return &Object{
		SchemaVersion:  SchemaVersionCurrent,
		Hash:           hash,
		HashAlgorithm:  hashing.Algorithm,
		NormalizedCode: normalizedCode,
		Encoding:       EncodingUTF8,
		Metadata:       meta,
	}
}
