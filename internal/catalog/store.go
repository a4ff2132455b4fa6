// Package catalog implements the persistent Catalog Store: the
// sec_labels, sec_levels, sec_tables, and sec_columns tables inside the
// host database, per spec.md §4.4 and §6.
//
// Grounded on pkg/migrator/migrator.go's Execer interface and
// transaction-or-fallback pattern; the catalog never manages its own
// transactions beyond that, per spec.md §4.4 ("mutations are
// transactional under the host's ambient transaction discipline").
package catalog

import (
	"context"
	"database/sql"
)

// Execer is the minimal interface catalog operations need. Satisfied by
// *sql.DB, *sql.Tx, and *sql.Conn, same as pkg/migrator's Execer.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps a host connection with catalog operations.
type Store struct {
	db Execer
}

// NewStore wraps db (typically *sql.DB) as a catalog Store.
func NewStore(db Execer) *Store {
	return &Store{db: db}
}

const ddl = `
CREATE TABLE IF NOT EXISTS sec_labels (
	id     INTEGER PRIMARY KEY,
	source TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS sec_levels (
	attr TEXT NOT NULL,
	name TEXT NOT NULL,
	rank INTEGER NOT NULL,
	PRIMARY KEY (attr, name),
	UNIQUE (attr, rank)
);

CREATE TABLE IF NOT EXISTS sec_tables (
	logical         TEXT PRIMARY KEY,
	physical        TEXT NOT NULL,
	row_col         TEXT NOT NULL,
	table_label_id  INTEGER,
	insert_label_id INTEGER,
	FOREIGN KEY (table_label_id) REFERENCES sec_labels(id),
	FOREIGN KEY (insert_label_id) REFERENCES sec_labels(id)
);

CREATE TABLE IF NOT EXISTS sec_columns (
	logical_table   TEXT NOT NULL,
	column_name     TEXT NOT NULL,
	read_label_id   INTEGER,
	update_label_id INTEGER,
	PRIMARY KEY (logical_table, column_name),
	FOREIGN KEY (logical_table) REFERENCES sec_tables(logical),
	FOREIGN KEY (read_label_id) REFERENCES sec_labels(id),
	FOREIGN KEY (update_label_id) REFERENCES sec_labels(id)
);

CREATE TRIGGER IF NOT EXISTS sec_columns_bump_generation
AFTER UPDATE ON sec_columns
BEGIN
	SELECT sec_bump_generation();
END;
`

// trueLabelSeed ensures the reserved 'true' label exists with the stable
// ID 1 (lel.TrueLabelID), per spec.md §3: "exists implicitly or is
// defined on first use; no label is ever deleted".
const trueLabelSeed = `INSERT OR IGNORE INTO sec_labels (id, source) VALUES (1, 'true')`

// EnsureSchema creates the catalog tables if they do not already exist,
// and seeds the reserved 'true' label. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, trueLabelSeed); err != nil {
		return err
	}
	return nil
}
