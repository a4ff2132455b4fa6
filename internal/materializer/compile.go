package materializer

import (
	"context"

	"github.com/veilsec/veil/internal/catalog"
)

// LabelResolver evaluates a previously-defined label against the
// current security context. The root veil package supplies the
// implementation (it owns the label AST cache, the context, and the
// level catalog); this package only needs the yes/no answer.
type LabelResolver interface {
	Visible(ctx context.Context, labelID int64) (bool, error)
}

// Refresh implements the spec.md §4.5 algorithm: for every registered
// logical table, drop any previously managed view and its instead-of
// triggers, then recreate them if the table-level label (if any) is
// currently satisfied.
func Refresh(ctx context.Context, db catalog.Execer, store *catalog.Store, resolver LabelResolver) error {
	tables, err := store.AllTables(ctx)
	if err != nil {
		return err
	}

	for _, t := range tables {
		if err := refreshTable(ctx, db, store, resolver, t); err != nil {
			return err
		}
	}
	return nil
}

func refreshTable(ctx context.Context, db catalog.Execer, store *catalog.Store, resolver LabelResolver, t catalog.TableRow) error {
	if err := validateIdent(t.Logical); err != nil {
		return err
	}
	if err := validateIdent(t.Physical); err != nil {
		return err
	}
	if err := validateIdent(t.RowCol); err != nil {
		return err
	}

	view, ins, upd, del := managedNames(t.Logical)
	for _, stmt := range []string{dropTriggerSQL(ins), dropTriggerSQL(upd), dropTriggerSQL(del), dropViewSQL(view)} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return &SchemaError{Msg: "dropping stale objects for " + t.Logical + ": " + err.Error()}
		}
	}

	if t.TableLabelID.Valid {
		ok, err := resolver.Visible(ctx, t.TableLabelID.Int64)
		if err != nil {
			return err
		}
		if !ok {
			return nil // table-level label not satisfied: object intentionally absent
		}
	}

	cols, err := store.Introspect(ctx, t.Physical)
	if err != nil {
		return err
	}
	pkCols := catalog.PrimaryKeyColumns(cols)

	policies, err := store.ColumnPolicies(ctx, t.Logical)
	if err != nil {
		return err
	}
	readLabel := make(map[string]*int64, len(policies))
	updateLabel := make(map[string]*int64, len(policies))
	for _, p := range policies {
		if p.ReadLabelID.Valid {
			id := p.ReadLabelID.Int64
			readLabel[p.ColumnName] = &id
		}
		if p.UpdateLabelID.Valid {
			id := p.UpdateLabelID.Int64
			updateLabel[p.ColumnName] = &id
		}
	}

	isPK := make(map[string]bool, len(pkCols))
	for _, pk := range pkCols {
		isPK[pk] = true
	}

	var viewCols, appCols []string
	var mutable []columnPlan
	for _, c := range cols {
		if err := validateIdent(c.Name); err != nil {
			return err
		}
		switch {
		case c.Name == t.RowCol:
			continue // placed last, always projected
		case isPK[c.Name]:
			// Always projected: instead-of triggers key every UPDATE/DELETE
			// off OLD.<pk>, so the column can never be hidden by a read
			// label. catalog.SetColumnPolicy refuses to set a read_label_id
			// here, so readLabel[c.Name] is always nil in practice.
			viewCols = append(viewCols, c.Name)
			appCols = append(appCols, c.Name)
		default:
			if id := readLabel[c.Name]; id != nil {
				ok, err := resolver.Visible(ctx, *id)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			viewCols = append(viewCols, c.Name)
			appCols = append(appCols, c.Name)
			mutable = append(mutable, columnPlan{Name: c.Name, UpdateLabelID: updateLabel[c.Name]})
		}
	}
	viewCols = append(viewCols, t.RowCol)

	insertLabelID, err := resolveInsertLabel(t)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, renderView(t.Logical, t.Physical, t.RowCol, viewCols)); err != nil {
		return &SchemaError{Msg: "creating view " + t.Logical + ": " + err.Error()}
	}
	if _, err := db.ExecContext(ctx, renderInsertTrigger(t.Logical, t.Physical, t.RowCol, appCols, insertLabelID)); err != nil {
		return &SchemaError{Msg: "creating insert trigger for " + t.Logical + ": " + err.Error()}
	}
	if _, err := db.ExecContext(ctx, renderUpdateTrigger(t.Logical, t.Physical, pkCols, t.RowCol, mutable)); err != nil {
		return &SchemaError{Msg: "creating update trigger for " + t.Logical + ": " + err.Error()}
	}
	if _, err := db.ExecContext(ctx, renderDeleteTrigger(t.Logical, t.Physical, pkCols, t.RowCol)); err != nil {
		return &SchemaError{Msg: "creating delete trigger for " + t.Logical + ": " + err.Error()}
	}
	return nil
}

// resolveInsertLabel implements spec.md §4.5's insert-label resolution
// order: insert_label_id if set, else table_label_id if set, else the
// reserved `true` label.
func resolveInsertLabel(t catalog.TableRow) (int64, error) {
	if t.InsertLabelID.Valid {
		return t.InsertLabelID.Int64, nil
	}
	if t.TableLabelID.Valid {
		return t.TableLabelID.Int64, nil
	}
	return 1, nil // lel.TrueLabelID
}
