package pool

import (
	"log/slog"
	"time"

	"fnpool/internal/canon"
	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/logging"
)

// CatalogEntry is what one successful add contributes to the search
// index.
type CatalogEntry struct {
	Hash        string
	Language    string
	MappingHash string
	Comment     string
	Name        string
	AuthorName  string
	Created     string
}

// Recorder receives catalog entries. The index is rebuildable from the
// tree, so recording failures are logged and never block a write.
type Recorder interface {
	RecordAdd(entry CatalogEntry) error
}

// Pool is the engine tying the canonicalizer, the hasher, and the store
// together into the operations the CLI exposes.
type Pool struct {
	store   *Store
	catalog Recorder
	logger  *slog.Logger
}

// New creates an engine over store. catalog may be nil when no index is
// configured.
func New(store *Store, catalog Recorder, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pool{store: store, catalog: catalog, logger: logger}
}

// Store exposes the underlying storage for resolver-level loads.
func (p *Pool) Store() *Store {
	return p.store
}

// AddOptions carries the per-add inputs beyond the source text.
type AddOptions struct {
	Filename    string
	Language    string
	Comment     string
	Parent      string
	Checks      []string
	AuthorName  string
	AuthorEmail string
}

// AddResult reports what one add produced.
type AddResult struct {
	Hash         string   `json:"hash"`
	MappingHash  string   `json:"mappingHash"`
	Created      bool     `json:"created"`
	FunctionName string   `json:"functionName"`
	Language     string   `json:"language"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Add canonicalizes source, stores the object under its identity hash,
// and stores the localization as a mapping. Re-adding the same logic is
// a no-op on the object; re-adding the same localization is a no-op on
// the mapping. Dependencies are not checked for existence here: a
// dependency may be added later, and mutual references are legal.
func (p *Pool) Add(source string, opts AddOptions) (*AddResult, error) {
	if err := ValidateLanguage(opts.Language); err != nil {
		return nil, err
	}
	if opts.Parent != "" && !hashing.IsHash(opts.Parent) {
		return nil, errors.Newf(errors.ValidationError, "parent %q is not a hash", opts.Parent)
	}
	for _, target := range opts.Checks {
		if !hashing.IsHash(target) {
			return nil, errors.Newf(errors.ValidationError, "check target %q is not a hash", target)
		}
	}

	res, err := canon.Canonicalize(opts.Filename, source)
	if err != nil {
		return nil, err
	}
	hash := hashing.Identity(res.WithoutDocstring)

	author := opts.AuthorName
	if author == "" {
		author = "unknown"
	}
	obj := NewObject(hash, res.WithDocstring, Metadata{
		Created:     time.Now().UTC().Format(time.RFC3339),
		AuthorName:  author,
		AuthorEmail: opts.AuthorEmail,
		Parent:      opts.Parent,
	})
	created, err := p.store.SaveObject(obj)
	if err != nil {
		return nil, err
	}

	mapping := &Mapping{
		Docstring:    res.Docstring,
		NameMapping:  res.NameMapping,
		AliasMapping: res.AliasMapping,
		Comment:      opts.Comment,
	}
	mappingHash, err := p.store.SaveMapping(hash, opts.Language, mapping)
	if err != nil {
		return nil, err
	}

	for _, target := range opts.Checks {
		if err := p.store.AddCheck(target, hash); err != nil {
			return nil, err
		}
	}

	if p.catalog != nil {
		entry := CatalogEntry{
			Hash:        hash,
			Language:    opts.Language,
			MappingHash: mappingHash,
			Comment:     opts.Comment,
			Name:        res.NameMapping[canon.CallSlot],
			AuthorName:  author,
			Created:     obj.Metadata.Created,
		}
		if err := p.catalog.RecordAdd(entry); err != nil {
			p.logger.Warn("catalog update failed", "hash", hashing.Short(hash), "error", err)
		}
	}

	p.logger.Info("function added",
		"hash", hashing.Short(hash), "language", opts.Language, "created", created)

	return &AddResult{
		Hash:         hash,
		MappingHash:  mappingHash,
		Created:      created,
		FunctionName: res.NameMapping[canon.CallSlot],
		Language:     opts.Language,
		Dependencies: res.Dependencies,
	}, nil
}

// AddMapping stores a caller-built localization for an existing
// function. Translations arrive this way: the canonicalizer never saw
// the new surface names, so the mapping is checked against the stored
// template before anything is written.
func (p *Pool) AddMapping(hash, language string, m *Mapping) (string, error) {
	if err := ValidateLanguage(language); err != nil {
		return "", err
	}
	obj, err := p.store.LoadObject(hash)
	if err != nil {
		return "", err
	}
	if _, err := canon.Denormalize(obj.NormalizedCode, canon.Localization{
		Docstring:    m.Docstring,
		NameMapping:  m.NameMapping,
		AliasMapping: m.AliasMapping,
	}); err != nil {
		return "", errors.New(errors.ValidationError,
			"mapping does not fit function "+hashing.Short(hash), err)
	}
	mappingHash, err := p.store.SaveMapping(hash, language, m)
	if err != nil {
		return "", err
	}

	if p.catalog != nil {
		entry := CatalogEntry{
			Hash:        hash,
			Language:    language,
			MappingHash: mappingHash,
			Comment:     m.Comment,
			Name:        m.NameMapping[canon.CallSlot],
			AuthorName:  obj.Metadata.AuthorName,
			Created:     obj.Metadata.Created,
		}
		if err := p.catalog.RecordAdd(entry); err != nil {
			p.logger.Warn("catalog update failed", "hash", hashing.Short(hash), "error", err)
		}
	}

	p.logger.Info("mapping added",
		"hash", hashing.Short(hash), "language", language, "mapping", hashing.Short(mappingHash))

	return mappingHash, nil
}

// Show reconstructs the surface form of a stored function in the given
// language. When several mapping variants exist and mappingHash is
// empty, the error carries the candidate list.
func (p *Pool) Show(hash, language, mappingHash string) (string, error) {
	obj, err := p.store.LoadObject(hash)
	if err != nil {
		return "", err
	}
	m, _, err := p.store.LoadMapping(hash, language, mappingHash)
	if err != nil {
		return "", err
	}
	return canon.Denormalize(obj.NormalizedCode, canon.Localization{
		Docstring:    m.Docstring,
		NameMapping:  m.NameMapping,
		AliasMapping: m.AliasMapping,
	})
}

// Canonical returns the stored canonical template as-is.
func (p *Pool) Canonical(hash string) (string, error) {
	obj, err := p.store.LoadObject(hash)
	if err != nil {
		return "", err
	}
	return obj.NormalizedCode, nil
}

// LanguageInfo is one language's mapping count for a function.
type LanguageInfo struct {
	Language string `json:"language"`
	Mappings int    `json:"mappings"`
}

// FunctionInfo is the metadata view of one stored function.
type FunctionInfo struct {
	Hash          string         `json:"hash"`
	SchemaVersion int            `json:"schemaVersion"`
	Created       string         `json:"created"`
	AuthorName    string         `json:"authorName"`
	AuthorEmail   string         `json:"authorEmail,omitempty"`
	Parent        string         `json:"parent,omitempty"`
	Checks        []string       `json:"checks,omitempty"`
	Languages     []LanguageInfo `json:"languages"`
	Dependencies  []string       `json:"dependencies,omitempty"`
}

// Info gathers an object's metadata, its languages with variant counts,
// and its direct dependencies.
func (p *Pool) Info(hash string) (*FunctionInfo, error) {
	obj, err := p.store.LoadObject(hash)
	if err != nil {
		return nil, err
	}
	langs, err := p.store.Languages(hash)
	if err != nil {
		return nil, err
	}
	info := &FunctionInfo{
		Hash:          obj.Hash,
		SchemaVersion: obj.SchemaVersion,
		Created:       obj.Metadata.Created,
		AuthorName:    obj.Metadata.AuthorName,
		AuthorEmail:   obj.Metadata.AuthorEmail,
		Parent:        obj.Metadata.Parent,
		Checks:        obj.Metadata.Checks,
	}
	for _, lang := range langs {
		refs, err := p.store.ListMappings(hash, lang)
		if err != nil {
			return nil, err
		}
		info.Languages = append(info.Languages, LanguageInfo{Language: lang, Mappings: len(refs)})
	}
	deps, err := canon.Dependencies(obj.NormalizedCode)
	if err != nil {
		return nil, err
	}
	info.Dependencies = deps
	return info, nil
}

// Validate delegates to the store's structural validation.
func (p *Pool) Validate(hash string) error {
	return p.store.Validate(hash)
}

// ValidationResult is one function's outcome in a batch validation.
type ValidationResult struct {
	Hash     string   `json:"hash"`
	OK       bool     `json:"ok"`
	Problems []string `json:"problems,omitempty"`
}

// ValidateAll validates every stored function, isolating per-function
// failures so one broken record never hides the rest.
func (p *Pool) ValidateAll() ([]ValidationResult, error) {
	hashes, err := p.store.ListObjects()
	if err != nil {
		return nil, err
	}
	results := make([]ValidationResult, 0, len(hashes))
	for _, hash := range hashes {
		res := ValidationResult{Hash: hash, OK: true}
		if err := p.store.Validate(hash); err != nil {
			res.OK = false
			if list, ok := err.(*errors.List); ok {
				res.Problems = list.Messages()
			} else {
				res.Problems = []string{err.Error()}
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Languages lists the languages a function can be shown in.
func (p *Pool) Languages(hash string) ([]string, error) {
	return p.store.Languages(hash)
}
