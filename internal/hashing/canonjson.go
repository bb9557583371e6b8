package hashing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CanonicalJSON encodes v in the canonical form used for mapping hashes:
// compact separators, map keys in sorted order, UTF-8 preserved rather
// than HTML-escaped. The same logical content always yields the same
// bytes, so the encoding is safe to hash.
func CanonicalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}
	// Encode appends a newline that is not part of the canonical form.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// SumJSON is CanonicalJSON followed by Sum.
func SumJSON(v interface{}) (string, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return Sum(data), nil
}
