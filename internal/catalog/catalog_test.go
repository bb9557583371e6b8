package catalog

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"fnpool/internal/pool"
)

func setupTestCatalog(t *testing.T) (*Catalog, *pool.Pool) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "fnpool-catalog-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := Open(tmpDir, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		_ = os.RemoveAll(tmpDir)
	})

	cat := New(db, logger)
	store := pool.NewStore(tmpDir, logger)
	return cat, pool.New(store, cat, logger)
}

func addCatalogued(t *testing.T, p *pool.Pool, source string, opts pool.AddOptions) *pool.AddResult {
	t.Helper()
	res, err := p.Add(source, opts)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return res
}

func TestRecordAddAndList(t *testing.T) {
	cat, p := setupTestCatalog(t)

	sum := addCatalogued(t, p, "// Add two numbers.\nfunc calculateSum(a, b int) int {\n\treturn a + b\n}\n",
		pool.AddOptions{Language: "eng", AuthorName: "alice", Comment: "baseline"})
	addCatalogued(t, p, "// Additionne deux nombres.\nfunc calculeSomme(a, b int) int {\n\treturn a + b\n}\n",
		pool.AddOptions{Language: "fra", AuthorName: "bob"})

	entries, err := cat.List(Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Hash != sum.Hash {
			t.Errorf("entry hash = %s, want %s", e.Hash, sum.Hash)
		}
	}
}

func TestListFilters(t *testing.T) {
	cat, p := setupTestCatalog(t)
	addCatalogued(t, p, "// Add two numbers.\nfunc calculateSum(a, b int) int {\n\treturn a + b\n}\n",
		pool.AddOptions{Language: "eng", AuthorName: "alice"})
	addCatalogued(t, p, "// Triple a number.\nfunc triple(n int) int {\n\treturn n * 3\n}\n",
		pool.AddOptions{Language: "eng", AuthorName: "bob"})
	addCatalogued(t, p, "// Additionne deux nombres.\nfunc calculeSomme(a, b int) int {\n\treturn a + b\n}\n",
		pool.AddOptions{Language: "fra", AuthorName: "alice"})

	byLang, err := cat.List(Filter{Language: "fra"})
	if err != nil {
		t.Fatalf("List by language: %v", err)
	}
	if len(byLang) != 1 || byLang[0].Name != "calculeSomme" {
		t.Errorf("fra entries = %+v, want just calculeSomme", byLang)
	}

	byAuthor, err := cat.List(Filter{Author: "bob"})
	if err != nil {
		t.Fatalf("List by author: %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].Name != "triple" {
		t.Errorf("bob entries = %+v, want just triple", byAuthor)
	}

	byName, err := cat.List(Filter{Name: "Sum"})
	if err != nil {
		t.Fatalf("List by name: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "calculateSum" {
		t.Errorf("name entries = %+v, want just calculateSum", byName)
	}
}

func TestRecordAddIdempotent(t *testing.T) {
	cat, p := setupTestCatalog(t)
	source := "// Add two numbers.\nfunc calculateSum(a, b int) int {\n\treturn a + b\n}\n"
	addCatalogued(t, p, source, pool.AddOptions{Language: "eng"})
	addCatalogued(t, p, source, pool.AddOptions{Language: "eng"})

	entries, err := cat.List(Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries after re-add, want 1", len(entries))
	}
}

func TestSearch(t *testing.T) {
	cat, p := setupTestCatalog(t)
	addCatalogued(t, p, "// Add two numbers.\nfunc calculateSum(a, b int) int {\n\treturn a + b\n}\n",
		pool.AddOptions{Language: "eng", Comment: "arithmetic helper"})
	addCatalogued(t, p, "// Shout.\nfunc shout(s string) string {\n\treturn s\n}\n",
		pool.AddOptions{Language: "eng"})

	byName, err := cat.Search("calculate")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "calculateSum" {
		t.Errorf("Search by name = %+v", byName)
	}

	byComment, err := cat.Search("arithmetic")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(byComment) != 1 || byComment[0].Comment != "arithmetic helper" {
		t.Errorf("Search by comment = %+v", byComment)
	}

	none, err := cat.Search("nomatch")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Search miss = %+v, want empty", none)
	}
}

func TestRebuild(t *testing.T) {
	cat, p := setupTestCatalog(t)
	addCatalogued(t, p, "// Add two numbers.\nfunc calculateSum(a, b int) int {\n\treturn a + b\n}\n",
		pool.AddOptions{Language: "eng", AuthorName: "alice", Comment: "baseline"})

	// A function written while no catalog was attached is invisible
	// until a rebuild.
	detached := pool.New(p.Store(), nil, nil)
	orphan, err := detached.Add("// Triple a number.\nfunc triple(n int) int {\n\treturn n * 3\n}\n",
		pool.AddOptions{Language: "eng", AuthorName: "bob"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	entries, err := cat.List(Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries before rebuild, want 1", len(entries))
	}

	count, err := cat.Rebuild(p.Store())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if count != 2 {
		t.Errorf("Rebuild indexed %d mappings, want 2", count)
	}

	entries, err = cat.List(Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries after rebuild, want 2", len(entries))
	}
	found := false
	for _, e := range entries {
		if e.Hash == orphan.Hash && e.Name == "triple" && e.AuthorName == "bob" {
			found = true
		}
	}
	if !found {
		t.Errorf("orphan not indexed: %+v", entries)
	}
}

func TestOpenExistingDatabase(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "fnpool-catalog-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := Open(tmpDir, logger)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = Open(tmpDir, logger)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, currentSchemaVersion)
	}
}
