package pool

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/logging"
)

// SchemaVersion is the on-disk generation a hash is stored under.
type SchemaVersion int

const (
	VersionNotFound SchemaVersion = iota
	VersionCurrent
	VersionLegacy
)

func (v SchemaVersion) String() string {
	switch v {
	case VersionCurrent:
		return "current"
	case VersionLegacy:
		return "legacy"
	default:
		return "not found"
	}
}

// Store persists objects and mappings at deterministic, hash-derived
// paths under one pool root. All writes are idempotent by construction:
// identical content lands on identical paths, so concurrent writers of
// the same content need no coordination.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore opens a store rooted at the given directory. The directory
// does not need to exist yet; writes create it.
func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{root: root, logger: logger}
}

// Root returns the pool root directory.
func (s *Store) Root() string {
	return s.root
}

func checkHash(hash string) error {
	if !hashing.IsHash(hash) {
		return errors.Newf(errors.ValidationError, "malformed hash %q: want 64 lowercase hex characters", hash)
	}
	return nil
}

// DetectVersion probes the schema generation hash is stored under,
// current layout first. Both layouts holding the same hash should not
// occur because migration removes the legacy file by default; if it does
// happen, the current generation wins.
func (s *Store) DetectVersion(hash string) (SchemaVersion, error) {
	if err := checkHash(hash); err != nil {
		return VersionNotFound, err
	}
	if fileExists(s.objectPath(hash)) {
		return VersionCurrent, nil
	}
	if fileExists(LegacyRecordPath(s.root, hash)) {
		return VersionLegacy, nil
	}
	return VersionNotFound, nil
}

// ObjectExists reports whether a current-schema object is stored.
func (s *Store) ObjectExists(hash string) bool {
	return fileExists(s.objectPath(hash))
}

// SaveObject writes an object at its hash-derived path. Re-writing an
// existing hash is a no-op: content addressing guarantees the bytes
// would be the same, provided the caller derived the hash through the
// canonicalizer. This layer does not re-verify that derivation.
func (s *Store) SaveObject(obj *Object) (created bool, err error) {
	if err := checkHash(obj.Hash); err != nil {
		return false, err
	}
	path := s.objectPath(obj.Hash)
	if fileExists(path) {
		s.logger.Debug("object already stored", "hash", hashing.Short(obj.Hash))
		return false, nil
	}
	if err := writeJSON(path, obj); err != nil {
		return false, fmt.Errorf("saving object %s: %w", hashing.Short(obj.Hash), err)
	}
	s.logger.Debug("object written", "hash", hashing.Short(obj.Hash))
	return true, nil
}

// LoadObject reads a current-schema object.
func (s *Store) LoadObject(hash string) (*Object, error) {
	if err := checkHash(hash); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.objectPath(hash))
	if os.IsNotExist(err) {
		if fileExists(LegacyRecordPath(s.root, hash)) {
			return nil, errors.Newf(errors.NotFound,
				"function %s is stored in the legacy schema; run migrate first", hashing.Short(hash))
		}
		return nil, errors.Newf(errors.NotFound, "function %s not found", hashing.Short(hash))
	}
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", hashing.Short(hash), err)
	}
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.Newf(errors.SchemaError, "object %s does not parse: %v", hashing.Short(hash), err)
	}
	return &obj, nil
}

// SaveMapping stores one localization of an existing object and returns
// the mapping hash. Identical content collapses onto the same path, so
// saving the same localization twice stores it once.
func (s *Store) SaveMapping(hash, language string, m *Mapping) (string, error) {
	if err := checkHash(hash); err != nil {
		return "", err
	}
	if err := ValidateLanguage(language); err != nil {
		return "", err
	}
	if !s.ObjectExists(hash) {
		return "", errors.Newf(errors.NotFound, "function %s not found", hashing.Short(hash))
	}

	mappingHash, err := m.ContentHash()
	if err != nil {
		return "", fmt.Errorf("hashing mapping content: %w", err)
	}
	path := s.mappingPath(hash, language, mappingHash)
	if fileExists(path) {
		s.logger.Debug("mapping already stored",
			"hash", hashing.Short(hash), "language", language, "mapping", hashing.Short(mappingHash))
		return mappingHash, nil
	}
	if err := writeJSON(path, m); err != nil {
		return "", fmt.Errorf("saving %s mapping for %s: %w", language, hashing.Short(hash), err)
	}
	s.logger.Debug("mapping written",
		"hash", hashing.Short(hash), "language", language, "mapping", hashing.Short(mappingHash))
	return mappingHash, nil
}

// ListMappings enumerates the stored variants for one function and
// language, sorted by mapping hash. An unknown language yields an empty
// list, not an error.
func (s *Store) ListMappings(hash, language string) ([]MappingRef, error) {
	if err := checkHash(hash); err != nil {
		return nil, err
	}
	if err := ValidateLanguage(language); err != nil {
		return nil, err
	}

	base := filepath.Join(s.languageDir(hash, language), hashDirName)
	heads, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s mappings for %s: %w", language, hashing.Short(hash), err)
	}

	var refs []MappingRef
	for _, head := range heads {
		if !head.IsDir() {
			continue
		}
		tails, err := os.ReadDir(filepath.Join(base, head.Name()))
		if err != nil {
			return nil, fmt.Errorf("listing %s mappings for %s: %w", language, hashing.Short(hash), err)
		}
		for _, tail := range tails {
			if !tail.IsDir() {
				continue
			}
			mappingHash := head.Name() + tail.Name()
			if !hashing.IsHash(mappingHash) {
				continue
			}
			m, err := s.loadMappingFile(s.mappingPath(hash, language, mappingHash), mappingHash)
			if err != nil {
				return nil, err
			}
			refs = append(refs, MappingRef{Hash: mappingHash, Comment: m.Comment})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Hash < refs[j].Hash })
	return refs, nil
}

// LoadMapping retrieves one localization. With an explicit mapping hash
// it loads exactly that variant. Without one it loads the single stored
// variant, or reports the candidate list when several exist; picking one
// silently is never done here.
func (s *Store) LoadMapping(hash, language, mappingHash string) (*Mapping, string, error) {
	if err := checkHash(hash); err != nil {
		return nil, "", err
	}
	if err := ValidateLanguage(language); err != nil {
		return nil, "", err
	}

	if mappingHash != "" {
		if err := checkHash(mappingHash); err != nil {
			return nil, "", err
		}
		m, err := s.loadMappingFile(s.mappingPath(hash, language, mappingHash), mappingHash)
		if os.IsNotExist(err) {
			return nil, "", errors.Newf(errors.NotFound,
				"no %s mapping %s for function %s", language, hashing.Short(mappingHash), hashing.Short(hash))
		}
		if err != nil {
			return nil, "", err
		}
		return m, mappingHash, nil
	}

	refs, err := s.ListMappings(hash, language)
	if err != nil {
		return nil, "", err
	}
	switch len(refs) {
	case 0:
		return nil, "", errors.Newf(errors.NotFound,
			"function %s has no %s mapping", hashing.Short(hash), language)
	case 1:
		m, err := s.loadMappingFile(s.mappingPath(hash, language, refs[0].Hash), refs[0].Hash)
		if err != nil {
			return nil, "", err
		}
		return m, refs[0].Hash, nil
	default:
		return nil, "", errors.Newf(errors.AmbiguousMapping,
			"function %s has %d %s mappings; pass a mapping hash to pick one",
			hashing.Short(hash), len(refs), language).WithDetails(refs)
	}
}

func (s *Store) loadMappingFile(path, mappingHash string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reading mapping %s: %w", hashing.Short(mappingHash), err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Newf(errors.SchemaError, "mapping %s does not parse: %v", hashing.Short(mappingHash), err)
	}
	m.Normalize()
	return &m, nil
}

// Languages returns the languages that have at least one mapping for
// hash, sorted.
func (s *Store) Languages(hash string) ([]string, error) {
	if err := checkHash(hash); err != nil {
		return nil, err
	}
	if !s.ObjectExists(hash) {
		return nil, errors.Newf(errors.NotFound, "function %s not found", hashing.Short(hash))
	}

	entries, err := os.ReadDir(s.objectDir(hash))
	if err != nil {
		return nil, fmt.Errorf("listing languages for %s: %w", hashing.Short(hash), err)
	}
	var langs []string
	for _, entry := range entries {
		if !entry.IsDir() || ValidateLanguage(entry.Name()) != nil {
			continue
		}
		refs, err := s.ListMappings(hash, entry.Name())
		if err != nil {
			return nil, err
		}
		if len(refs) > 0 {
			langs = append(langs, entry.Name())
		}
	}
	sort.Strings(langs)
	return langs, nil
}

// ListObjects walks the current-schema tree and returns every stored
// hash, sorted.
func (s *Store) ListObjects() ([]string, error) {
	base := filepath.Join(s.root, hashDirName)
	heads, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	var hashes []string
	for _, head := range heads {
		if !head.IsDir() {
			continue
		}
		tails, err := os.ReadDir(filepath.Join(base, head.Name()))
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, tail := range tails {
			if !tail.IsDir() {
				continue
			}
			hash := head.Name() + tail.Name()
			if hashing.IsHash(hash) && fileExists(s.objectPath(hash)) {
				hashes = append(hashes, hash)
			}
		}
	}
	sort.Strings(hashes)
	return hashes, nil
}

// AddCheck appends check to the target object's checks list: check
// declares target as its test subject. Metadata sits outside the content
// address, so the object file is rewritten in place.
func (s *Store) AddCheck(target, check string) error {
	if err := checkHash(check); err != nil {
		return err
	}
	obj, err := s.LoadObject(target)
	if err != nil {
		return err
	}
	for _, existing := range obj.Metadata.Checks {
		if existing == check {
			return nil
		}
	}
	obj.Metadata.Checks = append(obj.Metadata.Checks, check)
	if err := writeJSON(s.objectPath(target), obj); err != nil {
		return fmt.Errorf("recording check on %s: %w", hashing.Short(target), err)
	}
	s.logger.Debug("check recorded", "target", hashing.Short(target), "check", hashing.Short(check))
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
