package catalog

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database.
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createFunctionsTable(tx); err != nil {
			return err
		}
		if err := createMappingsTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Debug("catalog schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations.
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		return nil
	}

	db.logger.Info("migrating catalog schema",
		"from_version", version, "to_version", currentSchemaVersion)

	// Migrations run sequentially as the schema evolves; none exist
	// yet beyond the initial version.
	return nil
}

// getSchemaVersion gets the current schema version.
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// setSchemaVersion sets the schema version.
func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createFunctionsTable creates the functions table: one row per
// identity hash, carrying the object metadata listings need.
func createFunctionsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS functions (
			hash TEXT PRIMARY KEY,
			author_name TEXT NOT NULL,
			created TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create functions table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_functions_author ON functions(author_name)",
		"CREATE INDEX IF NOT EXISTS idx_functions_created ON functions(created)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createMappingsTable creates the mappings table: one row per stored
// localization variant.
func createMappingsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS mappings (
			function_hash TEXT NOT NULL,
			language TEXT NOT NULL,
			mapping_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',

			PRIMARY KEY (function_hash, language, mapping_hash),
			FOREIGN KEY (function_hash) REFERENCES functions(hash) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create mappings table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_mappings_name ON mappings(name)",
		"CREATE INDEX IF NOT EXISTS idx_mappings_language ON mappings(language)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
