package pool

import (
	"path/filepath"
	"regexp"

	"fnpool/internal/errors"
)

// hashDirName is the directory segment naming the hash algorithm; every
// hash-addressed level of the tree sits under one.
const hashDirName = "sha256"

const (
	objectFileName  = "object.json"
	mappingFileName = "mapping.json"
)

// splitHash returns the two-level directory split of a hash: the first
// two hex characters, then the remaining sixty-two.
func splitHash(hash string) (string, string) {
	return hash[:2], hash[2:]
}

// objectDir is <root>/sha256/<h0:2>/<h2:>.
func (s *Store) objectDir(hash string) string {
	head, tail := splitHash(hash)
	return filepath.Join(s.root, hashDirName, head, tail)
}

func (s *Store) objectPath(hash string) string {
	return filepath.Join(s.objectDir(hash), objectFileName)
}

// languageDir is the per-language subtree of one object.
func (s *Store) languageDir(hash, language string) string {
	return filepath.Join(s.objectDir(hash), language)
}

// mappingDir is <langDir>/sha256/<m0:2>/<m2:>.
func (s *Store) mappingDir(hash, language, mappingHash string) string {
	head, tail := splitHash(mappingHash)
	return filepath.Join(s.languageDir(hash, language), hashDirName, head, tail)
}

func (s *Store) mappingPath(hash, language, mappingHash string) string {
	return filepath.Join(s.mappingDir(hash, language, mappingHash), mappingFileName)
}

// LegacyRecordPath is the v0 location of a function: one monolithic
// JSON file per hash, split only at the first two hex characters. The
// record's format belongs to the legacy package; only the probe location
// is shared here so schema detection does not need to import it.
func LegacyRecordPath(root, hash string) string {
	head, tail := splitHash(hash)
	return filepath.Join(root, head, tail+".json")
}

// langPattern constrains language codes: lowercase letter first, then
// lowercase letters, digits, or dashes.
var langPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

const (
	langMinLen = 3
	langMaxLen = 256
)

// ValidateLanguage enforces the language-code contract: 3 to 256
// characters matching [a-z][a-z0-9-]*.
func ValidateLanguage(code string) error {
	if len(code) < langMinLen || len(code) > langMaxLen {
		return errors.Newf(errors.ValidationError,
			"language code %q must be %d to %d characters", code, langMinLen, langMaxLen)
	}
	if !langPattern.MatchString(code) {
		return errors.Newf(errors.ValidationError,
			"language code %q must match %s", code, langPattern.String())
	}
	return nil
}
