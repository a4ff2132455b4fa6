package catalog

import (
	"context"
	"database/sql"
)

// TableRow is one row of sec_tables.
type TableRow struct {
	Logical       string
	Physical      string
	RowCol        string
	TableLabelID  sql.NullInt64
	InsertLabelID sql.NullInt64
}

// ColumnPolicyRow is one row of sec_columns.
type ColumnPolicyRow struct {
	LogicalTable  string
	ColumnName    string
	ReadLabelID   sql.NullInt64
	UpdateLabelID sql.NullInt64
}

// RegisterTable validates the physical table and records a new
// protected-table registration, per spec.md §4.4:
//   - the physical table must exist, have a primary key, not be
//     WITHOUT ROWID, and contain rowCol;
//   - one sec_columns row per physical column is inserted with null
//     labels;
//   - re-registering an existing logical name is a CatalogError.
//
// tableLabelID and insertLabelID are nil when not supplied.
func (s *Store) RegisterTable(ctx context.Context, logical, physical, rowCol string, tableLabelID, insertLabelID *int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sec_tables WHERE logical = ?)`, logical,
	).Scan(&exists); err != nil {
		return &CatalogError{Msg: "checking existing registration", Err: err}
	}
	if exists {
		return &CatalogError{Msg: "logical table " + logical + " is already registered"}
	}

	withoutRowid, err := s.IsWithoutRowid(ctx, physical)
	if err != nil {
		return err
	}
	if withoutRowid {
		return &SchemaError{Msg: "physical table " + physical + " is WITHOUT ROWID"}
	}

	cols, err := s.Introspect(ctx, physical)
	if err != nil {
		return err
	}

	if len(PrimaryKeyColumns(cols)) == 0 {
		return &CatalogError{Msg: "physical table " + physical + " has no primary key"}
	}

	foundRowCol := false
	for _, c := range cols {
		if c.Name == rowCol {
			foundRowCol = true
			break
		}
	}
	if !foundRowCol {
		return &CatalogError{Msg: "physical table " + physical + " has no column named " + rowCol}
	}

	for _, labelID := range []*int64{tableLabelID, insertLabelID} {
		if labelID == nil {
			continue
		}
		ok, err := s.LabelExists(ctx, *labelID)
		if err != nil {
			return err
		}
		if !ok {
			return &CatalogError{Msg: "referenced label id does not exist"}
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sec_tables (logical, physical, row_col, table_label_id, insert_label_id) VALUES (?, ?, ?, ?, ?)`,
		logical, physical, rowCol, nullableInt(tableLabelID), nullableInt(insertLabelID),
	); err != nil {
		return &CatalogError{Msg: "inserting table registration", Err: err}
	}

	for _, c := range cols {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO sec_columns (logical_table, column_name, read_label_id, update_label_id) VALUES (?, ?, NULL, NULL)`,
			logical, c.Name,
		); err != nil {
			return &CatalogError{Msg: "inserting column policy for " + c.Name, Err: err}
		}
	}

	return nil
}

// Deregister removes a table registration and its column policy. Not a
// spec.md-named operation (see SPEC_FULL.md §4.5). It touches only the
// catalog rows: Refresh visits registered tables only, so a view and
// triggers already materialized for logical are left in place.
func (s *Store) Deregister(ctx context.Context, logical string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sec_columns WHERE logical_table = ?`, logical); err != nil {
		return &CatalogError{Msg: "deleting column policy for " + logical, Err: err}
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sec_tables WHERE logical = ?`, logical)
	if err != nil {
		return &CatalogError{Msg: "deleting table registration for " + logical, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &CatalogError{Msg: "checking deregistration result", Err: err}
	}
	if n == 0 {
		return &CatalogError{Msg: "logical table " + logical + " is not registered"}
	}
	return nil
}

// AllTables returns every registered table, used by the View
// Materializer's Refresh pass.
func (s *Store) AllTables(ctx context.Context) ([]TableRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT logical, physical, row_col, table_label_id, insert_label_id FROM sec_tables ORDER BY logical`)
	if err != nil {
		return nil, &CatalogError{Msg: "listing tables", Err: err}
	}
	defer rows.Close()

	var out []TableRow
	for rows.Next() {
		var r TableRow
		if err := rows.Scan(&r.Logical, &r.Physical, &r.RowCol, &r.TableLabelID, &r.InsertLabelID); err != nil {
			return nil, &CatalogError{Msg: "scanning table row", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ColumnPolicies returns the column policy rows for logical, in no
// guaranteed order (sec_columns has no explicit ordinal, so callers that
// need physical order should use Introspect and treat ColumnPolicies as
// a lookup by name).
func (s *Store) ColumnPolicies(ctx context.Context, logical string) ([]ColumnPolicyRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT logical_table, column_name, read_label_id, update_label_id FROM sec_columns WHERE logical_table = ?`,
		logical,
	)
	if err != nil {
		return nil, &CatalogError{Msg: "listing column policy for " + logical, Err: err}
	}
	defer rows.Close()

	var out []ColumnPolicyRow
	for rows.Next() {
		var r ColumnPolicyRow
		if err := rows.Scan(&r.LogicalTable, &r.ColumnName, &r.ReadLabelID, &r.UpdateLabelID); err != nil {
			return nil, &CatalogError{Msg: "scanning column policy row", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// tableByLogical fetches the single sec_tables row for logical, or nil
// if no such table is registered.
func (s *Store) tableByLogical(ctx context.Context, logical string) (*TableRow, error) {
	var r TableRow
	err := s.db.QueryRowContext(ctx,
		`SELECT logical, physical, row_col, table_label_id, insert_label_id FROM sec_tables WHERE logical = ?`,
		logical,
	).Scan(&r.Logical, &r.Physical, &r.RowCol, &r.TableLabelID, &r.InsertLabelID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &CatalogError{Msg: "looking up table registration for " + logical, Err: err}
	}
	return &r, nil
}

func nullableInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
