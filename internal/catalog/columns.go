package catalog

import "context"

// SetColumnPolicy sets read and/or update labels on a column. nil
// leaves the existing value; to explicitly clear a policy back to null,
// callers should issue the UPDATE directly against sec_columns (spec.md
// §4.4/§6 calls this out as the supported mechanism; this helper exists
// for the Go-level API and CLI, and is equivalent to a direct UPDATE —
// both paths fire the sec_columns_bump_generation trigger).
//
// A read_label_id is rejected for the row label column and for any
// primary key column. Both are structurally required in every
// materialized view regardless of their own visibility (the view
// materializer's instead-of triggers reference OLD/NEW.<pk> and
// OLD/NEW.<row label column> unconditionally), so a read_label_id set on
// either could never be honored; rejecting it here means the ambiguity
// can't reach the materializer at all.
func (s *Store) SetColumnPolicy(ctx context.Context, logical, column string, readLabelID, updateLabelID *int64) error {
	if readLabelID != nil {
		if err := s.rejectReadLabelOnStructuralColumn(ctx, logical, column); err != nil {
			return err
		}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sec_columns
		 SET read_label_id   = COALESCE(?, read_label_id),
		     update_label_id = COALESCE(?, update_label_id)
		 WHERE logical_table = ? AND column_name = ?`,
		nullableInt(readLabelID), nullableInt(updateLabelID), logical, column,
	)
	if err != nil {
		return &CatalogError{Msg: "updating column policy for " + logical + "." + column, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &CatalogError{Msg: "checking column policy update result", Err: err}
	}
	if n == 0 {
		return &CatalogError{Msg: "no such column " + column + " on registered table " + logical}
	}
	return nil
}

// rejectReadLabelOnStructuralColumn returns a CatalogError if column is
// the row label column or a primary key column of logical's physical
// backing — columns the materializer always projects regardless of a
// read_label_id, so setting one would be silently unenforceable.
func (s *Store) rejectReadLabelOnStructuralColumn(ctx context.Context, logical, column string) error {
	t, err := s.tableByLogical(ctx, logical)
	if err != nil {
		return err
	}
	if t == nil {
		return &CatalogError{Msg: "logical table " + logical + " is not registered"}
	}
	if column == t.RowCol {
		return &CatalogError{Msg: "column " + column + " is the row label column on " + logical + "; it is always projected and cannot carry a read_label_id"}
	}

	cols, err := s.Introspect(ctx, t.Physical)
	if err != nil {
		return err
	}
	for _, pk := range PrimaryKeyColumns(cols) {
		if pk == column {
			return &CatalogError{Msg: "column " + column + " is part of the primary key of " + t.Physical + "; primary key columns are always projected and cannot carry a read_label_id"}
		}
	}
	return nil
}
