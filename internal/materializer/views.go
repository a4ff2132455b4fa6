package materializer

import "fmt"

// renderView builds `CREATE VIEW <logical> AS SELECT ... FROM <physical>
// WHERE sec_label_visible(<rowCol>) = 1`, per spec.md §4.5 step 5.
//
// cols is the full set of columns exposed through the view: the
// caller-visible application columns plus the row-label column itself.
// The row-label column is excluded from ordinary read-policy
// evaluation (it carries no read_label_id and is never hidden by one),
// but original_source's write_triggers.rs relies on NEW/OLD exposing it
// so the instead-of triggers can detect a forged or mutated label; this
// materializer follows that working shape rather than spec.md's looser
// prose ("hidden from the projection"), and the choice is recorded in
// DESIGN.md.
func renderView(logical, physical, rowCol string, cols []string) string {
	b := newSQLBuilder()
	b.Line("CREATE VIEW %s AS", quoteIdent(logical))
	b.Block(func(b *sqlBuilder) {
		b.Line("SELECT %s", joinQuoted(cols))
		b.Line("FROM %s", quoteIdent(physical))
		b.Line("WHERE sec_label_visible(%s) = 1", quoteIdent(rowCol))
	})
	return b.String()
}

func joinQuoted(cols []string) string {
	j := newJoiner(", ")
	for _, c := range cols {
		j.Add(quoteIdent(c))
	}
	return j.String()
}

func dropViewSQL(logical string) string {
	return fmt.Sprintf("DROP VIEW IF EXISTS %s", quoteIdent(logical))
}

func dropTriggerSQL(name string) string {
	return fmt.Sprintf("DROP TRIGGER IF EXISTS %s", quoteIdent(name))
}
