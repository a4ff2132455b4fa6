package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ColumnInfo mirrors one row of PRAGMA table_info(<table>).
type ColumnInfo struct {
	Name    string
	Type    string
	NotNull bool
	PKOrder int // 0 if not part of the primary key, else 1-based position
}

// Introspect reads the physical table's columns (in declared order) from
// the host engine. WITHOUT ROWID is checked separately by
// IsWithoutRowid. Returns *CatalogError if the table doesn't exist.
func (s *Store) Introspect(ctx context.Context, physical string) ([]ColumnInfo, error) {
	quoted, err := quoteIdent(physical)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoted))
	if err != nil {
		return nil, &SchemaError{Msg: "reading table_info for " + physical, Err: err}
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     sql.NullString
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, &SchemaError{Msg: "scanning table_info row", Err: err}
		}
		cols = append(cols, ColumnInfo{
			Name:    name,
			Type:    ctype.String,
			NotNull: notNull != 0,
			PKOrder: pk,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &SchemaError{Msg: "reading table_info for " + physical, Err: err}
	}
	if len(cols) == 0 {
		return nil, &CatalogError{Msg: "physical table " + physical + " does not exist"}
	}
	return cols, nil
}

// PrimaryKeyColumns returns the primary key column names, in key order,
// as reported by table_info's pk field. Empty if the table has no
// declared primary key.
func PrimaryKeyColumns(cols []ColumnInfo) []string {
	type ordered struct {
		name  string
		order int
	}
	var pks []ordered
	for _, c := range cols {
		if c.PKOrder > 0 {
			pks = append(pks, ordered{c.Name, c.PKOrder})
		}
	}
	out := make([]string, len(pks))
	for _, p := range pks {
		out[p.order-1] = p.name
	}
	return out
}

// IsWithoutRowid reports whether physical was declared WITHOUT ROWID, by
// inspecting its stored CREATE TABLE text in sqlite_master. SQLite
// exposes no PRAGMA for this directly.
func (s *Store) IsWithoutRowid(ctx context.Context, physical string) (bool, error) {
	var createSQL sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, physical,
	).Scan(&createSQL)
	if err == sql.ErrNoRows {
		return false, &CatalogError{Msg: "physical table " + physical + " not found in sqlite_master"}
	}
	if err != nil {
		return false, &SchemaError{Msg: "reading sqlite_master for " + physical, Err: err}
	}
	return strings.Contains(strings.ToUpper(createSQL.String), "WITHOUT ROWID"), nil
}

// quoteIdent double-quotes a SQL identifier for safe interpolation into
// PRAGMA statements, which do not accept bind parameters for table names.
// Rejects identifiers containing a quote character rather than
// attempting to escape them, matching spec.md §9's "reject identifiers
// containing quote characters" guidance.
func quoteIdent(name string) (string, error) {
	if strings.ContainsAny(name, `"'`) {
		return "", &SchemaError{Msg: "identifier " + name + " contains a quote character"}
	}
	return `"` + name + `"`, nil
}
