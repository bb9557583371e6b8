package pool

import (
	"fnpool/internal/hashing"
)

// Mapping is one localization of an object: the docstring, the original
// identifiers behind each canonical slot, the alias used for each
// dependency, and a free-text comment distinguishing variants. A mapping
// is addressed by the hash of its own content, so identical
// localizations collapse to one stored file no matter who adds them.
type Mapping struct {
	Docstring    string            `json:"docstring"`
	NameMapping  map[string]string `json:"name_mapping"`
	AliasMapping map[string]string `json:"alias_mapping"`
	Comment      string            `json:"comment"`
}

// Normalize replaces nil maps with empty ones so the canonical JSON form
// (and therefore the mapping hash) never depends on how the mapping was
// constructed.
func (m *Mapping) Normalize() {
	if m.NameMapping == nil {
		m.NameMapping = map[string]string{}
	}
	if m.AliasMapping == nil {
		m.AliasMapping = map[string]string{}
	}
}

// ContentHash computes the mapping's address: the hash of its canonical
// JSON content.
func (m *Mapping) ContentHash() (string, error) {
	m.Normalize()
	return hashing.SumJSON(map[string]interface{}{
		"docstring":     m.Docstring,
		"name_mapping":  m.NameMapping,
		"alias_mapping": m.AliasMapping,
		"comment":       m.Comment,
	})
}

// MappingRef identifies one stored mapping variant in a listing.
type MappingRef struct {
	Hash    string `json:"hash"`
	Comment string `json:"comment"`
}
