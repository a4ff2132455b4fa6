package veil

import "context"

// RegisterTable protects physical under the logical name logical, per
// spec.md §4.4. rowCol names the physical column holding each row's
// label ID. tableLabel gates whether the logical view exists at all;
// insertLabel is nil, a LabelID, or a raw label source string (which
// is auto-defined), matching sec_register_table's accepted shapes.
// Bumps the generation counter.
func (e *Engine) RegisterTable(ctx context.Context, logical, physical, rowCol string, tableLabel *LabelID, insertLabel any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var tableLabelID *int64
	if tableLabel != nil {
		v := int64(*tableLabel)
		tableLabelID = &v
	}
	return e.registerTableLocked(ctx, logical, physical, rowCol, tableLabelID, insertLabel)
}

func (e *Engine) registerTableLocked(ctx context.Context, logical, physical, rowCol string, tableLabelID *int64, insertLabel any) error {
	var insertLabelID *int64
	switch v := insertLabel.(type) {
	case nil:
	case LabelID:
		id := int64(v)
		insertLabelID = &id
	case int64:
		insertLabelID = &v
	case string:
		id, err := e.defineLabelLocked(ctx, v)
		if err != nil {
			return err
		}
		raw := int64(id)
		insertLabelID = &raw
	}

	if err := e.cat.RegisterTable(ctx, logical, physical, rowCol, tableLabelID, insertLabelID); err != nil {
		return wrapEngineErr(err)
	}
	e.ctx.bump()
	return nil
}

// Deregister removes logical's registration and column policy. Refresh
// only visits registered tables, so a view and triggers already
// materialized for logical are not dropped by it. Not a spec.md-named
// operation; see SPEC_FULL.md §4.5.
func (e *Engine) Deregister(ctx context.Context, logical string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.cat.Deregister(ctx, logical); err != nil {
		return wrapEngineErr(err)
	}
	e.ctx.bump()
	return nil
}

// SetColumnPolicy sets the read and/or update label for logical.column.
// A nil pointer leaves the corresponding policy unchanged. This is the
// Go-level equivalent of a direct UPDATE against sec_columns; both
// paths fire the catalog-change trigger that bumps generation.
//
// e.mu is not held across the catalog UPDATE: that trigger calls back
// into BumpGeneration, which takes e.mu itself.
func (e *Engine) SetColumnPolicy(ctx context.Context, logical, column string, readLabel, updateLabel *LabelID) error {
	var readID, updateID *int64
	if readLabel != nil {
		v := int64(*readLabel)
		readID = &v
	}
	if updateLabel != nil {
		v := int64(*updateLabel)
		updateID = &v
	}
	if err := e.cat.SetColumnPolicy(ctx, logical, column, readID, updateID); err != nil {
		return wrapEngineErr(err)
	}
	return nil
}
