package legacy

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fnpool/internal/errors"
	"fnpool/internal/pool"
)

var (
	legacyHashA = strings.Repeat("12", 32)
	legacyHashB = strings.Repeat("34", 32)
	legacyHashC = strings.Repeat("56", 32)
	depHash     = strings.Repeat("ab", 32)
)

func newTestStore(t *testing.T) *pool.Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "fnpool-legacy-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pool.NewStore(tmpDir, logger)
}

func newTestMigrator(t *testing.T, store *pool.Store) *Migrator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMigrator(store, "migrator", "migrator@example.com", logger)
}

func writeLegacyRecord(t *testing.T, root, hash string, rec *Record) {
	t.Helper()
	path := pool.LegacyRecordPath(root, hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func sumRecord() *Record {
	return &Record{
		NormalizedCode: "// Add two numbers.\nfunc F(v1, v2 int) int {\n\tv3 := v1 + v2\n\treturn v3\n}\n",
		Docstrings: map[string]string{
			"eng": "Add two numbers.",
			"fra": "Additionne deux nombres.",
		},
		NameMappings: map[string]map[string]string{
			"eng": {"F": "calculateSum", "v1": "first", "v2": "second", "v3": "result"},
			"fra": {"F": "calculeSomme", "v1": "premier", "v2": "deuxieme", "v3": "resultat"},
		},
		AliasMappings: map[string]map[string]string{
			"eng": {},
			"fra": {},
		},
		Username: "pioneer",
		Created:  "2020-05-01T00:00:00Z",
	}
}

func TestPatchPrefixes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"import path",
			`import "pool/` + depHash + `"`,
			`import "pool/fn_` + depHash + `"`,
		},
		{
			"call receiver",
			depHash + ".F(v1)",
			"fn_" + depHash + ".F(v1)",
		},
		{
			"already prefixed",
			`import "pool/fn_` + depHash + `"` + "\n" + "fn_" + depHash + ".F(v1)",
			`import "pool/fn_` + depHash + `"` + "\n" + "fn_" + depHash + ".F(v1)",
		},
		{
			"short hex untouched",
			"abc123.F(v1)",
			"abc123.F(v1)",
		},
		{
			"no references",
			"func F(v1 int) int {\n\treturn v1\n}\n",
			"func F(v1 int) int {\n\treturn v1\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PatchPrefixes(tt.in); got != tt.want {
				t.Errorf("PatchPrefixes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	store := newTestStore(t)
	writeLegacyRecord(t, store.Root(), legacyHashB, sumRecord())
	writeLegacyRecord(t, store.Root(), legacyHashA, sumRecord())

	// Current-generation content and stray files are not v0 records.
	if err := os.MkdirAll(filepath.Join(store.Root(), "sha256"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "12", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	hashes, err := Scan(store.Root())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(hashes) != 2 || hashes[0] != legacyHashA || hashes[1] != legacyHashB {
		t.Errorf("Scan = %v, want sorted [%s %s]", hashes, legacyHashA, legacyHashB)
	}
}

func TestScanEmptyRoot(t *testing.T) {
	hashes, err := Scan(filepath.Join(os.TempDir(), "fnpool-does-not-exist"))
	if err != nil {
		t.Fatalf("Scan on missing root: %v", err)
	}
	if len(hashes) != 0 {
		t.Errorf("Scan = %v, want empty", hashes)
	}
}

func TestMigratePreservesIdentity(t *testing.T) {
	store := newTestStore(t)
	rec := sumRecord()
	writeLegacyRecord(t, store.Root(), legacyHashA, rec)

	m := newTestMigrator(t, store)
	if err := m.Migrate(legacyHashA, Options{}); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	version, err := store.DetectVersion(legacyHashA)
	if err != nil {
		t.Fatalf("DetectVersion: %v", err)
	}
	if version != pool.VersionCurrent {
		t.Fatalf("version = %v, want current", version)
	}

	obj, err := store.LoadObject(legacyHashA)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if obj.Hash != legacyHashA {
		t.Errorf("hash changed during migration: %s", obj.Hash)
	}
	if obj.NormalizedCode != rec.NormalizedCode {
		t.Errorf("normalized code changed:\n%s", obj.NormalizedCode)
	}
	if obj.Metadata.AuthorName != "migrator" {
		t.Errorf("AuthorName = %q, want the migrating user", obj.Metadata.AuthorName)
	}

	for lang, wantName := range map[string]string{"eng": "calculateSum", "fra": "calculeSomme"} {
		m, _, err := store.LoadMapping(legacyHashA, lang, "")
		if err != nil {
			t.Fatalf("LoadMapping(%s): %v", lang, err)
		}
		if m.NameMapping["F"] != wantName {
			t.Errorf("%s NameMapping[F] = %q, want %q", lang, m.NameMapping["F"], wantName)
		}
		if m.Docstring != rec.Docstrings[lang] {
			t.Errorf("%s docstring = %q, want %q", lang, m.Docstring, rec.Docstrings[lang])
		}
		if m.Comment != "" {
			t.Errorf("%s comment = %q, want empty", lang, m.Comment)
		}
	}

	if err := store.Validate(legacyHashA); err != nil {
		t.Errorf("migrated function fails validation: %v", err)
	}

	legacyPath := pool.LegacyRecordPath(store.Root(), legacyHashA)
	if _, err := os.Stat(legacyPath); !os.IsNotExist(err) {
		t.Error("legacy file not deleted")
	}
	if _, err := os.Stat(filepath.Dir(legacyPath)); !os.IsNotExist(err) {
		t.Error("empty legacy prefix directory not removed")
	}
}

func TestMigratePatchesDependencyReferences(t *testing.T) {
	store := newTestStore(t)
	rec := &Record{
		NormalizedCode: "import (\n\t\"pool/" + depHash + "\"\n)\n\n// Double.\nfunc F(v1 int) int {\n\treturn " + depHash + ".F(v1, v1)\n}\n",
		Docstrings:     map[string]string{"eng": "Double."},
		NameMappings:   map[string]map[string]string{"eng": {"F": "double", "v1": "x"}},
		AliasMappings:  map[string]map[string]string{"eng": {depHash: "helper"}},
	}
	writeLegacyRecord(t, store.Root(), legacyHashA, rec)

	m := newTestMigrator(t, store)
	if err := m.Migrate(legacyHashA, Options{}); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	obj, err := store.LoadObject(legacyHashA)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if !strings.Contains(obj.NormalizedCode, `"pool/fn_`+depHash+`"`) {
		t.Errorf("import not prefixed:\n%s", obj.NormalizedCode)
	}
	if !strings.Contains(obj.NormalizedCode, "fn_"+depHash+".F(v1, v1)") {
		t.Errorf("receiver not prefixed:\n%s", obj.NormalizedCode)
	}

	mapping, _, err := store.LoadMapping(legacyHashA, "eng", "")
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if mapping.AliasMapping[depHash] != "helper" {
		t.Errorf("alias mapping = %v, want helper under the bare hash", mapping.AliasMapping)
	}

	if err := store.Validate(legacyHashA); err != nil {
		t.Errorf("patched template fails validation: %v", err)
	}
}

func TestMigrateKeepLegacy(t *testing.T) {
	store := newTestStore(t)
	writeLegacyRecord(t, store.Root(), legacyHashA, sumRecord())

	m := newTestMigrator(t, store)
	if err := m.Migrate(legacyHashA, Options{KeepLegacy: true}); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if _, err := os.Stat(pool.LegacyRecordPath(store.Root(), legacyHashA)); err != nil {
		t.Errorf("legacy file removed despite keep-legacy: %v", err)
	}
	// The current generation wins detection once both exist.
	version, err := store.DetectVersion(legacyHashA)
	if err != nil {
		t.Fatalf("DetectVersion: %v", err)
	}
	if version != pool.VersionCurrent {
		t.Errorf("version = %v, want current", version)
	}
}

func TestMigrateDryRun(t *testing.T) {
	store := newTestStore(t)
	writeLegacyRecord(t, store.Root(), legacyHashA, sumRecord())

	m := newTestMigrator(t, store)
	if err := m.Migrate(legacyHashA, Options{DryRun: true}); err != nil {
		t.Fatalf("Migrate dry run: %v", err)
	}

	if ok, _ := storeHasObject(store, legacyHashA); ok {
		t.Error("dry run wrote an object")
	}
	if _, err := os.Stat(pool.LegacyRecordPath(store.Root(), legacyHashA)); err != nil {
		t.Errorf("dry run touched the legacy file: %v", err)
	}
}

func storeHasObject(store *pool.Store, hash string) (bool, error) {
	version, err := store.DetectVersion(hash)
	return version == pool.VersionCurrent, err
}

func TestMigrateMissingRecord(t *testing.T) {
	store := newTestStore(t)
	m := newTestMigrator(t, store)

	err := m.Migrate(legacyHashA, Options{})
	if !errors.Is(err, errors.NotFound) {
		t.Errorf("error code = %v, want NOT_FOUND", errors.CodeOf(err))
	}
}

func TestMigrateFailsValidationWithoutLanguages(t *testing.T) {
	store := newTestStore(t)
	rec := sumRecord()
	rec.Docstrings = nil
	rec.NameMappings = nil
	rec.AliasMappings = nil
	writeLegacyRecord(t, store.Root(), legacyHashA, rec)

	m := newTestMigrator(t, store)
	err := m.Migrate(legacyHashA, Options{})
	if !errors.Is(err, errors.ValidationError) {
		t.Fatalf("error code = %v, want VALIDATION_ERROR", errors.CodeOf(err))
	}

	// A failed migration keeps the legacy file so the run can be retried.
	if _, err := os.Stat(pool.LegacyRecordPath(store.Root(), legacyHashA)); err != nil {
		t.Errorf("legacy file removed after failed migration: %v", err)
	}
}

func TestMigrateAllPartialFailure(t *testing.T) {
	store := newTestStore(t)
	writeLegacyRecord(t, store.Root(), legacyHashA, sumRecord())
	writeLegacyRecord(t, store.Root(), legacyHashB, sumRecord())
	broken := sumRecord()
	broken.Docstrings = nil
	broken.NameMappings = nil
	broken.AliasMappings = nil
	writeLegacyRecord(t, store.Root(), legacyHashC, broken)

	m := newTestMigrator(t, store)
	batch, err := m.MigrateAll(Options{})
	if err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}

	if batch.RunID == "" {
		t.Error("batch has no run id")
	}
	if batch.Total != 3 || batch.Migrated != 2 || batch.Failed != 1 {
		t.Errorf("tally = %d/%d/%d (total/migrated/failed), want 3/2/1",
			batch.Total, batch.Migrated, batch.Failed)
	}
	if len(batch.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(batch.Results))
	}
	for _, res := range batch.Results {
		if res.Hash == legacyHashC {
			if res.Migrated || res.Error == "" {
				t.Errorf("broken record result = %+v, want a reported failure", res)
			}
		} else if !res.Migrated {
			t.Errorf("record %s not migrated: %s", res.Hash, res.Error)
		}
	}

	// The failed record's file survives; the migrated ones are gone.
	if _, err := os.Stat(pool.LegacyRecordPath(store.Root(), legacyHashC)); err != nil {
		t.Errorf("failed record's legacy file missing: %v", err)
	}
	if _, err := os.Stat(pool.LegacyRecordPath(store.Root(), legacyHashA)); !os.IsNotExist(err) {
		t.Error("migrated record's legacy file still present")
	}
}

func TestMigrateAllDryRun(t *testing.T) {
	store := newTestStore(t)
	writeLegacyRecord(t, store.Root(), legacyHashA, sumRecord())
	writeLegacyRecord(t, store.Root(), legacyHashB, sumRecord())

	m := newTestMigrator(t, store)
	batch, err := m.MigrateAll(Options{DryRun: true})
	if err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}
	if !batch.DryRun || batch.Total != 2 || batch.Migrated != 0 || batch.Failed != 0 {
		t.Errorf("dry run tally = %+v, want 2 affected and nothing written", batch)
	}
	if ok, _ := storeHasObject(store, legacyHashA); ok {
		t.Error("dry run wrote objects")
	}
}

func TestLoadRejectsCorruptRecord(t *testing.T) {
	store := newTestStore(t)
	path := pool.LegacyRecordPath(store.Root(), legacyHashA)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(store.Root(), legacyHashA)
	if !errors.Is(err, errors.SchemaError) {
		t.Errorf("error code = %v, want SCHEMA_ERROR", errors.CodeOf(err))
	}
}
