package catalog

import (
	"context"
	"database/sql"
)

// LevelRow is one row of sec_levels.
type LevelRow struct {
	Attr  string
	Value string
	Rank  int
}

// DefineLevel inserts a new (attr, value, rank) level, erroring if the
// (attr, value) pair already exists with a different rank or the
// (attr, rank) pair is taken by another value (levels are append-only,
// per spec.md §3). Repeating an identical definition is a no-op.
func (s *Store) DefineLevel(ctx context.Context, attr, value string, rank int) error {
	var existingRank int
	err := s.db.QueryRowContext(ctx,
		`SELECT rank FROM sec_levels WHERE attr = ? AND name = ?`, attr, value,
	).Scan(&existingRank)
	if err == nil {
		if existingRank == rank {
			return nil // idempotent
		}
		return &CatalogError{Msg: "level (" + attr + ", " + value + ") already defined with a different rank"}
	}
	if err != sql.ErrNoRows {
		return &CatalogError{Msg: "looking up level", Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sec_levels (attr, name, rank) VALUES (?, ?, ?)`, attr, value, rank,
	)
	if err != nil {
		return &CatalogError{Msg: "inserting level (collision on attr+rank?)", Err: err}
	}
	return nil
}

// AllLevels returns every defined level, used to hydrate the in-memory
// Level Catalog at Engine.Open.
func (s *Store) AllLevels(ctx context.Context) ([]LevelRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT attr, name, rank FROM sec_levels ORDER BY attr, rank`)
	if err != nil {
		return nil, &CatalogError{Msg: "listing levels", Err: err}
	}
	defer rows.Close()

	var out []LevelRow
	for rows.Next() {
		var r LevelRow
		if err := rows.Scan(&r.Attr, &r.Value, &r.Rank); err != nil {
			return nil, &CatalogError{Msg: "scanning level row", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
