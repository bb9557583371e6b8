// Package legacy reads the v0 single-file schema and migrates it to the
// current layout. All v0 format knowledge stays in this package; the
// rest of the system only ever sees current-generation records.
package legacy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/pool"
)

// Record is one v0 function file: the normalized code plus every
// localization inline, keyed by language. v0 had no per-mapping
// addressing and no comment field.
type Record struct {
	NormalizedCode string                       `json:"normalized_code"`
	Docstrings     map[string]string            `json:"docstrings"`
	NameMappings   map[string]map[string]string `json:"name_mappings"`
	AliasMappings  map[string]map[string]string `json:"alias_mappings"`
	Username       string                       `json:"username,omitempty"`
	Created        string                       `json:"created,omitempty"`
}

// Languages returns the union of languages across the three localization
// dictionaries, sorted. A language present in any dictionary counts.
func (r *Record) Languages() []string {
	seen := make(map[string]bool)
	for lang := range r.Docstrings {
		seen[lang] = true
	}
	for lang := range r.NameMappings {
		seen[lang] = true
	}
	for lang := range r.AliasMappings {
		seen[lang] = true
	}
	languages := make([]string, 0, len(seen))
	for lang := range seen {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}

// Load reads the v0 record for hash from the pool root.
func Load(root, hash string) (*Record, error) {
	path := pool.LegacyRecordPath(root, hash)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.NotFound, "no legacy record for %s", hashing.Short(hash))
		}
		return nil, errors.New(errors.SchemaError, "reading legacy record", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.New(errors.SchemaError, "legacy record does not parse", err)
	}
	if rec.NormalizedCode == "" {
		return nil, errors.Newf(errors.SchemaError, "legacy record for %s has no normalized_code", hashing.Short(hash))
	}
	return &rec, nil
}

// Scan walks the pool root for v0 record files and returns their
// hashes, sorted. The current-generation tree lives under a named
// subdirectory and never collides with the two-hex-character v0 split.
func Scan(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var hashes []string
	for _, entry := range entries {
		if !entry.IsDir() || !isHexPair(entry.Name()) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			hash := entry.Name() + strings.TrimSuffix(file.Name(), ".json")
			if hashing.IsHash(hash) {
				hashes = append(hashes, hash)
			}
		}
	}
	sort.Strings(hashes)
	return hashes, nil
}

func isHexPair(s string) bool {
	if len(s) != 2 {
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
