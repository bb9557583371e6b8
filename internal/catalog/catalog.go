package catalog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"fnpool/internal/canon"
	"fnpool/internal/logging"
	"fnpool/internal/pool"
)

// Catalog indexes stored functions for listing and search.
type Catalog struct {
	db     *DB
	logger *slog.Logger
}

// New creates a catalog over db.
func New(db *DB, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Catalog{db: db, logger: logger}
}

// Entry is one catalog row: a localization variant joined with its
// function's metadata.
type Entry struct {
	Hash        string `json:"hash"`
	Language    string `json:"language"`
	MappingHash string `json:"mappingHash"`
	Name        string `json:"name"`
	Comment     string `json:"comment,omitempty"`
	AuthorName  string `json:"authorName"`
	Created     string `json:"created"`
}

// RecordAdd implements pool.Recorder. Re-recording an existing function
// or mapping is a no-op upsert, mirroring the idempotency of the tree.
func (c *Catalog) RecordAdd(entry pool.CatalogEntry) error {
	return c.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO functions (hash, author_name, created)
			VALUES (?, ?, ?)
			ON CONFLICT(hash) DO NOTHING
		`, entry.Hash, entry.AuthorName, entry.Created); err != nil {
			return fmt.Errorf("failed to record function: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO mappings (function_hash, language, mapping_hash, name, comment)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(function_hash, language, mapping_hash) DO UPDATE SET
				name = excluded.name,
				comment = excluded.comment
		`, entry.Hash, entry.Language, entry.MappingHash, entry.Name, entry.Comment); err != nil {
			return fmt.Errorf("failed to record mapping: %w", err)
		}
		return nil
	})
}

// Filter narrows a listing. Empty fields match everything; Name is a
// substring match on the localized function name.
type Filter struct {
	Language string
	Author   string
	Name     string
}

// List returns catalog entries matching filter, newest functions first.
func (c *Catalog) List(filter Filter) ([]Entry, error) {
	query := `
		SELECT m.function_hash, m.language, m.mapping_hash, m.name, m.comment,
		       f.author_name, f.created
		FROM mappings m
		JOIN functions f ON f.hash = m.function_hash
	`
	var conds []string
	var args []interface{}
	if filter.Language != "" {
		conds = append(conds, "m.language = ?")
		args = append(args, filter.Language)
	}
	if filter.Author != "" {
		conds = append(conds, "f.author_name = ?")
		args = append(args, filter.Author)
	}
	if filter.Name != "" {
		conds = append(conds, "m.name LIKE ?")
		args = append(args, "%"+filter.Name+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY f.created DESC, m.function_hash, m.language, m.mapping_hash"

	return c.queryEntries(query, args...)
}

// Search returns entries whose name or comment contains term.
func (c *Catalog) Search(term string) ([]Entry, error) {
	query := `
		SELECT m.function_hash, m.language, m.mapping_hash, m.name, m.comment,
		       f.author_name, f.created
		FROM mappings m
		JOIN functions f ON f.hash = m.function_hash
		WHERE m.name LIKE ? OR m.comment LIKE ?
		ORDER BY f.created DESC, m.function_hash, m.language, m.mapping_hash
	`
	pattern := "%" + term + "%"
	return c.queryEntries(query, pattern, pattern)
}

func (c *Catalog) queryEntries(query string, args ...interface{}) ([]Entry, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.Language, &e.MappingHash, &e.Name,
			&e.Comment, &e.AuthorName, &e.Created); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}
	return entries, nil
}

// Rebuild drops the index and reconstructs it from the store tree,
// returning the number of mapping rows indexed. Functions added while
// no catalog was attached, or a lost database file, are both recovered
// this way.
func (c *Catalog) Rebuild(store *pool.Store) (int, error) {
	count := 0
	err := c.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM mappings"); err != nil {
			return fmt.Errorf("failed to clear mappings: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM functions"); err != nil {
			return fmt.Errorf("failed to clear functions: %w", err)
		}

		hashes, err := store.ListObjects()
		if err != nil {
			return err
		}
		for _, hash := range hashes {
			obj, err := store.LoadObject(hash)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(`
				INSERT INTO functions (hash, author_name, created)
				VALUES (?, ?, ?)
			`, hash, obj.Metadata.AuthorName, obj.Metadata.Created); err != nil {
				return fmt.Errorf("failed to index function: %w", err)
			}

			languages, err := store.Languages(hash)
			if err != nil {
				return err
			}
			for _, language := range languages {
				refs, err := store.ListMappings(hash, language)
				if err != nil {
					return err
				}
				for _, ref := range refs {
					mapping, _, err := store.LoadMapping(hash, language, ref.Hash)
					if err != nil {
						return err
					}
					if _, err := tx.Exec(`
						INSERT INTO mappings (function_hash, language, mapping_hash, name, comment)
						VALUES (?, ?, ?, ?, ?)
					`, hash, language, ref.Hash,
						mapping.NameMapping[canon.CallSlot], mapping.Comment); err != nil {
						return fmt.Errorf("failed to index mapping: %w", err)
					}
					count++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.logger.Info("catalog rebuilt", "mappings", count)
	return count, nil
}
