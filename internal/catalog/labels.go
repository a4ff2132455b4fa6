package catalog

import (
	"context"
	"database/sql"

	"github.com/veilsec/veil/internal/lel"
)

// LabelRow is one row of sec_labels.
type LabelRow struct {
	ID     int64
	Source string
}

// DefineLabel parses source, canonicalizes it, and looks up an existing
// label by canonical form before inserting a new one. Returns the
// label's stable ID and parsed AST. Parsing happens before any database
// access so a malformed label never reaches the catalog (spec.md §4.7:
// "the label is not stored").
func (s *Store) DefineLabel(ctx context.Context, source string) (int64, lel.Node, error) {
	node, err := lel.Parse(source)
	if err != nil {
		return 0, nil, err
	}
	canon := lel.Canonical(node)

	var id int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM sec_labels WHERE source = ?`, canon).Scan(&id)
	switch {
	case err == nil:
		return id, node, nil
	case err != sql.ErrNoRows:
		return 0, nil, &CatalogError{Msg: "looking up label", Err: err}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO sec_labels (source) VALUES (?)`, canon)
	if err != nil {
		return 0, nil, &CatalogError{Msg: "inserting label", Err: err}
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, nil, &CatalogError{Msg: "reading inserted label id", Err: err}
	}
	return id, node, nil
}

// LabelSource returns the stored canonical source for a label ID, used
// when re-parsing at Engine.Open time and for diagnostics.
func (s *Store) LabelSource(ctx context.Context, id int64) (string, error) {
	var src string
	err := s.db.QueryRowContext(ctx, `SELECT source FROM sec_labels WHERE id = ?`, id).Scan(&src)
	if err == sql.ErrNoRows {
		return "", &CatalogError{Msg: "label id not found", Err: err}
	}
	if err != nil {
		return "", &CatalogError{Msg: "looking up label source", Err: err}
	}
	return src, nil
}

// AllLabels returns every defined label, used to hydrate the in-memory
// AST cache at Engine.Open.
func (s *Store) AllLabels(ctx context.Context) ([]LabelRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source FROM sec_labels ORDER BY id`)
	if err != nil {
		return nil, &CatalogError{Msg: "listing labels", Err: err}
	}
	defer rows.Close()

	var out []LabelRow
	for rows.Next() {
		var r LabelRow
		if err := rows.Scan(&r.ID, &r.Source); err != nil {
			return nil, &CatalogError{Msg: "scanning label row", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LabelExists reports whether id refers to a defined label, used to
// validate *_label_id references at registration time.
func (s *Store) LabelExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM sec_labels WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, &CatalogError{Msg: "checking label existence", Err: err}
	}
	return exists, nil
}
