package legacy

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/logging"
	"fnpool/internal/pool"
)

// Options control a migration run.
type Options struct {
	// KeepLegacy leaves the v0 file in place after a successful
	// migration instead of deleting it.
	KeepLegacy bool
	// DryRun reports what would be migrated without writing anything.
	DryRun bool
}

// Result is the outcome for one hash in a migration run.
type Result struct {
	Hash     string `json:"hash"`
	Migrated bool   `json:"migrated"`
	Error    string `json:"error,omitempty"`
}

// BatchResult tallies a full run over the v0 tree.
type BatchResult struct {
	RunID    string   `json:"runId"`
	Total    int      `json:"total"`
	Migrated int      `json:"migrated"`
	Failed   int      `json:"failed"`
	DryRun   bool     `json:"dryRun,omitempty"`
	Results  []Result `json:"results"`
}

// Migrator moves functions from the v0 single-file schema to the
// current layout. The migrated object gets fresh metadata under the
// migrating user's identity; the localizations are carried over
// exactly.
type Migrator struct {
	store       *pool.Store
	authorName  string
	authorEmail string
	logger      *slog.Logger
}

// NewMigrator creates a migrator over store. authorName and authorEmail
// identify the migrating user on the rewritten objects.
func NewMigrator(store *pool.Store, authorName, authorEmail string, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Migrator{
		store:       store,
		authorName:  authorName,
		authorEmail: authorEmail,
		logger:      logger,
	}
}

// Migrate converts one hash from v0 to the current schema: patch the
// normalized code's dependency references, write a fresh object, write
// one mapping per legacy language with an empty comment, validate, and
// delete the v0 file unless KeepLegacy is set. The identity hash is the
// v0 address and is never recomputed. A validation failure fails the
// migration and keeps the legacy file so the run can be retried.
func (m *Migrator) Migrate(hash string, opts Options) error {
	if !hashing.IsHash(hash) {
		return errors.Newf(errors.ValidationError, "malformed hash %q", hash)
	}

	rec, err := Load(m.store.Root(), hash)
	if err != nil {
		return err
	}
	if opts.DryRun {
		return nil
	}

	author := m.authorName
	if author == "" {
		author = rec.Username
	}
	if author == "" {
		author = "unknown"
	}
	obj := pool.NewObject(hash, PatchPrefixes(rec.NormalizedCode), pool.Metadata{
		Created:     time.Now().UTC().Format(time.RFC3339),
		AuthorName:  author,
		AuthorEmail: m.authorEmail,
	})
	if _, err := m.store.SaveObject(obj); err != nil {
		return err
	}

	languages := rec.Languages()
	for _, language := range languages {
		mapping := &pool.Mapping{
			Docstring:    rec.Docstrings[language],
			NameMapping:  rec.NameMappings[language],
			AliasMapping: rec.AliasMappings[language],
		}
		if _, err := m.store.SaveMapping(hash, language, mapping); err != nil {
			return err
		}
	}

	if err := m.store.Validate(hash); err != nil {
		return errors.New(errors.ValidationError, "migration produced an invalid function", err)
	}

	if !opts.KeepLegacy {
		if err := removeLegacyFile(m.store.Root(), hash); err != nil {
			return err
		}
	}

	m.logger.Info("migrated function",
		"hash", hashing.Short(hash), "languages", len(languages), "keep_legacy", opts.KeepLegacy)
	return nil
}

// MigrateAll runs Migrate over every v0 record found under the pool
// root. Per-hash failures are recorded and the run continues; the tally
// reports every outcome under a unique run id.
func (m *Migrator) MigrateAll(opts Options) (*BatchResult, error) {
	hashes, err := Scan(m.store.Root())
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{
		RunID:   uuid.NewString(),
		Total:   len(hashes),
		DryRun:  opts.DryRun,
		Results: make([]Result, 0, len(hashes)),
	}
	m.logger.Info("migration run started",
		"run_id", batch.RunID, "records", len(hashes), "dry_run", opts.DryRun)

	for _, hash := range hashes {
		res := Result{Hash: hash}
		if err := m.Migrate(hash, opts); err != nil {
			res.Error = err.Error()
			batch.Failed++
			m.logger.Warn("migration failed", "run_id", batch.RunID, "hash", hashing.Short(hash), "error", err)
		} else if !opts.DryRun {
			res.Migrated = true
			batch.Migrated++
		}
		batch.Results = append(batch.Results, res)
	}

	m.logger.Info("migration run finished",
		"run_id", batch.RunID, "migrated", batch.Migrated, "failed", batch.Failed)
	return batch, nil
}

// removeLegacyFile deletes the v0 record and its parent prefix
// directory when that directory is left empty.
func removeLegacyFile(root, hash string) error {
	path := pool.LegacyRecordPath(root, hash)
	if err := os.Remove(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		return os.Remove(dir)
	}
	return nil
}
