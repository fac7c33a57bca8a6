package db

import (
	"fmt"
)

// SchemaVersion is the current database schema version
const SchemaVersion = 1

const schema = `
-- Lookup candidates, one row per record of a foreign-key field
CREATE TABLE IF NOT EXISTS candidates (
    child TEXT NOT NULL,
    id TEXT NOT NULL,
    label TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (child, id)
);

-- Candidate properties matched by filter rules
CREATE TABLE IF NOT EXISTS candidate_properties (
    child TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (child, id, name),
    FOREIGN KEY (child, id) REFERENCES candidates(child, id) ON DELETE CASCADE
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_candidates_child ON candidates(child, position);
CREATE INDEX IF NOT EXISTS idx_candidate_properties_filter ON candidate_properties(child, name, value);
`

// migrations upgrade a database from the version before their index + 1.
var migrations = []string{
	1: schema,
}

// GetSchemaVersion returns the version recorded in the database, 0 for a
// new one.
func (db *DB) GetSchemaVersion() (int, error) {
	var version int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// RunMigrations applies the migrations newer than the recorded version.
func (db *DB) RunMigrations() error {
	current, err := db.GetSchemaVersion()
	if err != nil {
		return err
	}
	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}
	for v := current + 1; v <= SchemaVersion; v++ {
		if _, err := db.conn.Exec(migrations[v]); err != nil {
			return fmt.Errorf("migrate to version %d: %w", v, err)
		}
		if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version=%d", v)); err != nil {
			return fmt.Errorf("record schema version %d: %w", v, err)
		}
	}
	return nil
}
