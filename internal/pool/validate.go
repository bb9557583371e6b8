package pool

import (
	"encoding/json"
	"os"

	"fnpool/internal/canon"
	"fnpool/internal/errors"
	"fnpool/internal/hashing"
)

// Validate checks the structural completeness of one stored function:
// the object file exists and parses, declares the expected schema tag
// and required fields, its template is readable, and at least one
// language holds at least one well-addressed mapping. Every violation
// found is reported, not just the first.
func (s *Store) Validate(hash string) error {
	if err := checkHash(hash); err != nil {
		return err
	}
	problems := errors.NewList(errors.ValidationError)

	version, err := s.DetectVersion(hash)
	if err != nil {
		return err
	}
	switch version {
	case VersionLegacy:
		problems.Addf("stored in the legacy schema; run migrate")
		return problems.Err()
	case VersionNotFound:
		problems.Addf("object.json missing")
		return problems.Err()
	}

	data, err := os.ReadFile(s.objectPath(hash))
	if err != nil {
		problems.Addf("object.json unreadable: %v", err)
		return problems.Err()
	}
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		problems.Addf("object.json does not parse: %v", err)
		return problems.Err()
	}

	if obj.SchemaVersion != SchemaVersionCurrent {
		problems.Addf("unrecognized schema_version %d, want %d", obj.SchemaVersion, SchemaVersionCurrent)
	}
	if obj.Hash != hash {
		problems.Addf("hash field %q does not match storage path %s", obj.Hash, hash)
	}
	if obj.HashAlgorithm != hashing.Algorithm {
		problems.Addf("hash_algorithm %q, want %q", obj.HashAlgorithm, hashing.Algorithm)
	}
	if obj.Encoding != EncodingUTF8 {
		problems.Addf("encoding %q, want %q", obj.Encoding, EncodingUTF8)
	}
	if obj.NormalizedCode == "" {
		problems.Addf("normalized_code is empty")
	} else if _, err := canon.Dependencies(obj.NormalizedCode); err != nil {
		problems.Addf("normalized_code is not a valid canonical template: %v", err)
	}
	if obj.Metadata.Created == "" {
		problems.Addf("metadata.created is missing")
	}
	if obj.Metadata.AuthorName == "" {
		problems.Addf("metadata.author_name is missing")
	}
	if obj.Metadata.Parent != "" && !hashing.IsHash(obj.Metadata.Parent) {
		problems.Addf("metadata.parent %q is not a hash", obj.Metadata.Parent)
	}
	for _, check := range obj.Metadata.Checks {
		if !hashing.IsHash(check) {
			problems.Addf("metadata.checks entry %q is not a hash", check)
		}
	}

	s.validateMappings(hash, problems)
	return problems.Err()
}

// validateMappings requires at least one mapping across the language
// subdirectories and verifies each stored variant lives at the hash of
// its own content. A function with zero localizations is incomplete even
// when the object itself is well formed.
func (s *Store) validateMappings(hash string, problems *errors.List) {
	entries, err := os.ReadDir(s.objectDir(hash))
	if err != nil {
		problems.Addf("object directory unreadable: %v", err)
		return
	}

	total := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		language := entry.Name()
		if err := ValidateLanguage(language); err != nil {
			problems.Addf("language directory %q: invalid language code", language)
			continue
		}
		refs, err := s.ListMappings(hash, language)
		if err != nil {
			problems.Addf("%s mappings unreadable: %v", language, err)
			continue
		}
		for _, ref := range refs {
			m, err := s.loadMappingFile(s.mappingPath(hash, language, ref.Hash), ref.Hash)
			if err != nil {
				problems.Addf("%s mapping %s unreadable: %v", language, hashing.Short(ref.Hash), err)
				continue
			}
			content, err := m.ContentHash()
			if err != nil {
				problems.Addf("%s mapping %s content not hashable: %v", language, hashing.Short(ref.Hash), err)
				continue
			}
			if content != ref.Hash {
				problems.Addf("%s mapping %s stored at the wrong address (content hashes to %s)",
					language, hashing.Short(ref.Hash), hashing.Short(content))
			}
		}
		total += len(refs)
	}
	if total == 0 {
		problems.Addf("no mappings stored in any language")
	}
}
