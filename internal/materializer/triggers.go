package materializer

import "fmt"

// columnPlan describes one physical column's role in a generated
// UPDATE trigger.
type columnPlan struct {
	Name          string
	UpdateLabelID *int64 // nil: updatable whenever the row is visible
}

// freshnessGuard invokes sec_assert_fresh(), which returns an error to
// the host engine (aborting the statement) when the view was
// materialized against an older generation than the current context.
const freshnessGuard = `SELECT sec_assert_fresh();`

// renderInsertTrigger builds the INSTEAD OF INSERT trigger, per
// spec.md §4.5 step 6 and its insert-label resolution order.
// insertLabelID is the already-resolved label: insert_label_id if set,
// else table_label_id if set, else the reserved `true` label.
func renderInsertTrigger(logical, physical, rowCol string, appCols []string, insertLabelID int64) string {
	name := logical + "__ins"
	b := newSQLBuilder()
	b.Line(dropTriggerSQL(name) + ";")
	b.Line("CREATE TRIGGER %s", quoteIdent(name))
	b.Line("INSTEAD OF INSERT ON %s", quoteIdent(logical))
	b.Line("BEGIN")
	b.Block(func(b *sqlBuilder) {
		b.Line(freshnessGuard)
		b.Line("SELECT CASE WHEN NEW.%s IS NOT NULL AND NEW.%s <> %d",
			quoteIdent(rowCol), quoteIdent(rowCol), insertLabelID)
		b.Line("    THEN RAISE(ABORT, 'forged row label') END;")

		insertCols := append(append([]string{}, appCols...), rowCol)
		values := make([]string, 0, len(insertCols))
		for _, c := range appCols {
			values = append(values, "NEW."+quoteIdent(c))
		}
		values = append(values, fmt.Sprintf("%d", insertLabelID))

		b.Line("INSERT INTO %s (%s)", quoteIdent(physical), joinQuoted(insertCols))
		b.Line("VALUES (%s);", join(values, ", "))
	})
	b.Line("END;")
	return b.String()
}

// renderUpdateTrigger builds the INSTEAD OF UPDATE trigger, per
// spec.md §4.5 step 6: the primary key and the row-label column are
// never updatable; every other SET target must satisfy its
// update_label_id (if any) in addition to row visibility.
func renderUpdateTrigger(logical, physical string, pkCols []string, rowCol string, mutable []columnPlan) string {
	name := logical + "__upd"
	b := newSQLBuilder()
	b.Line(dropTriggerSQL(name) + ";")
	b.Line("CREATE TRIGGER %s", quoteIdent(name))
	b.Line("INSTEAD OF UPDATE ON %s", quoteIdent(logical))
	b.Line("BEGIN")
	b.Block(func(b *sqlBuilder) {
		b.Line(freshnessGuard)

		for _, pk := range pkCols {
			b.Line("SELECT CASE WHEN NEW.%s IS NOT OLD.%s", quoteIdent(pk), quoteIdent(pk))
			b.Line("    THEN RAISE(ABORT, 'primary key column %s is immutable') END;", pk)
		}
		b.Line("SELECT CASE WHEN NEW.%s IS NOT OLD.%s", quoteIdent(rowCol), quoteIdent(rowCol))
		b.Line("    THEN RAISE(ABORT, 'row label column is immutable') END;")

		for _, c := range mutable {
			if c.UpdateLabelID == nil {
				continue
			}
			b.Line("SELECT CASE WHEN NEW.%s IS NOT OLD.%s AND sec_label_visible(%d) <> 1",
				quoteIdent(c.Name), quoteIdent(c.Name), *c.UpdateLabelID)
			b.Line("    THEN RAISE(ABORT, 'update of %s not permitted') END;", c.Name)
		}

		setList := newJoiner(", ")
		for _, c := range mutable {
			setList.Add(fmt.Sprintf("%s = NEW.%s", quoteIdent(c.Name), quoteIdent(c.Name)))
		}

		b.Line("UPDATE %s", quoteIdent(physical))
		b.Line("SET %s", setList.String())
		b.Line("WHERE %s", pkWhereOld(pkCols))
		b.Line("  AND sec_label_visible(%s) = 1;", quoteIdent(rowCol))
	})
	b.Line("END;")
	return b.String()
}

// renderDeleteTrigger builds the INSTEAD OF DELETE trigger, per
// spec.md §4.5 step 6.
func renderDeleteTrigger(logical, physical string, pkCols []string, rowCol string) string {
	name := logical + "__del"
	b := newSQLBuilder()
	b.Line(dropTriggerSQL(name) + ";")
	b.Line("CREATE TRIGGER %s", quoteIdent(name))
	b.Line("INSTEAD OF DELETE ON %s", quoteIdent(logical))
	b.Line("BEGIN")
	b.Block(func(b *sqlBuilder) {
		b.Line(freshnessGuard)
		b.Line("DELETE FROM %s", quoteIdent(physical))
		b.Line("WHERE %s", pkWhereOld(pkCols))
		b.Line("  AND sec_label_visible(%s) = 1;", quoteIdent(rowCol))
	})
	b.Line("END;")
	return b.String()
}

func pkWhereOld(pkCols []string) string {
	j := newJoiner(" AND ")
	for _, pk := range pkCols {
		j.Add(fmt.Sprintf("%s = OLD.%s", quoteIdent(pk), quoteIdent(pk)))
	}
	return j.String()
}

func join(parts []string, sep string) string {
	j := newJoiner(sep)
	j.Add(parts...)
	return j.String()
}
