package veil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/veilsec/veil"
)

func openEngine(t *testing.T) (*veil.Engine, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	e, err := veil.Open(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, db
}

func TestScenario1_RowLabelVisibility(t *testing.T) {
	e, db := openEngine(t)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TABLE __sec_docs (id INTEGER PRIMARY KEY, row_label_id INTEGER NOT NULL, title TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO __sec_docs (id, row_label_id, title) VALUES (1, 1, 'Public'), (2, 2, 'Admin Only')`)
	require.NoError(t, err)

	_, err = e.DefineLabel(ctx, "true")
	require.NoError(t, err)
	adminLabel, err := e.DefineLabel(ctx, "role=admin")
	require.NoError(t, err)

	require.Equal(t, veil.LabelID(2), adminLabel, "row 2's row_label_id is hardcoded to the admin label's id")
	require.NoError(t, e.RegisterTable(ctx, "docs", "__sec_docs", "row_label_id", nil, nil))

	require.NoError(t, e.Refresh(ctx))
	require.Equal(t, []string{"Public"}, queryTitles(t, db))

	e.SetAttr("role", "admin")
	require.NoError(t, e.Refresh(ctx))
	require.Equal(t, []string{"Public", "Admin Only"}, queryTitles(t, db))

	e.ClearContext()
	require.NoError(t, e.Refresh(ctx))
	require.Equal(t, []string{"Public"}, queryTitles(t, db))
}

func queryTitles(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT title FROM docs ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		out = append(out, s)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestScenario2_LevelDominance(t *testing.T) {
	e, db := openEngine(t)
	ctx := context.Background()

	require.NoError(t, e.DefineLevel(ctx, "clearance", "public", 0))
	require.NoError(t, e.DefineLevel(ctx, "clearance", "confidential", 1))
	require.NoError(t, e.DefineLevel(ctx, "clearance", "secret", 2))
	require.NoError(t, e.DefineLevel(ctx, "clearance", "top_secret", 3))

	secretPlus, err := e.DefineLabel(ctx, "clearance>=secret")
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE __sec_files (id INTEGER PRIMARY KEY, row_label_id INTEGER NOT NULL, name TEXT)`)
	require.NoError(t, err)

	// Each row is labeled with the minimum clearance required to see
	// it: "clearance>=<level>" is visible only to viewers whose own
	// clearance dominates <level>.
	levelLabels := map[string]veil.LabelID{}
	for _, name := range []string{"public", "confidential", "secret", "top_secret"} {
		id, err := e.DefineLabel(ctx, "clearance>="+name)
		require.NoError(t, err)
		levelLabels[name] = id
	}
	require.Equal(t, secretPlus, levelLabels["secret"])
	_, err = db.Exec(`INSERT INTO __sec_files (id, row_label_id, name) VALUES
		(1, ?, 'public.txt'), (2, ?, 'confidential.txt'), (3, ?, 'secret.txt'), (4, ?, 'top_secret.txt')`,
		int64(levelLabels["public"]), int64(levelLabels["confidential"]), int64(levelLabels["secret"]), int64(levelLabels["top_secret"]))
	require.NoError(t, err)

	require.NoError(t, e.RegisterTable(ctx, "files", "__sec_files", "row_label_id", nil, nil))

	e.SetAttr("clearance", "confidential")
	require.NoError(t, e.Refresh(ctx))
	names := queryNames(t, db)
	require.NotContains(t, names, "secret.txt")
	require.NotContains(t, names, "top_secret.txt")

	e.ClearContext()
	e.SetAttr("clearance", "top_secret")
	require.NoError(t, e.Refresh(ctx))
	names = queryNames(t, db)
	require.ElementsMatch(t, []string{"public.txt", "confidential.txt", "secret.txt", "top_secret.txt"}, names)
}

func queryNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM files`)
	require.NoError(t, err)
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		out = append(out, s)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestScenario3_ColumnReadPolicy(t *testing.T) {
	e, db := openEngine(t)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TABLE __sec_customers (id INTEGER PRIMARY KEY, row_label_id INTEGER NOT NULL, name TEXT, ssn TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO __sec_customers (id, row_label_id, name, ssn) VALUES (1, 1, 'Ada', '000-00-0000')`)
	require.NoError(t, err)

	adminLabel, err := e.DefineLabel(ctx, "role=admin")
	require.NoError(t, err)

	require.NoError(t, e.RegisterTable(ctx, "customers", "__sec_customers", "row_label_id", nil, nil))
	require.NoError(t, e.SetColumnPolicy(ctx, "customers", "ssn", &adminLabel, nil))

	e.SetAttr("role", "user")
	require.NoError(t, e.Refresh(ctx))
	require.NotContains(t, columnNames(t, db, "customers"), "ssn")

	e.ClearContext()
	e.SetAttr("role", "admin")
	require.NoError(t, e.Refresh(ctx))
	require.Contains(t, columnNames(t, db, "customers"), "ssn")
}

func columnNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query(`PRAGMA table_info(` + table + `)`)
	require.NoError(t, err)
	defer rows.Close()
	var out []string
	for rows.Next() {
		var cid int
		var name string
		var ctype sql.NullString
		var notNull int
		var dflt sql.NullString
		var pk int
		require.NoError(t, rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk))
		out = append(out, name)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestScenario4_ColumnUpdatePolicy(t *testing.T) {
	e, db := openEngine(t)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TABLE __sec_employees (id INTEGER PRIMARY KEY, row_label_id INTEGER NOT NULL, salary INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO __sec_employees (id, row_label_id, salary) VALUES (1, 1, 50000)`)
	require.NoError(t, err)

	managerLabel, err := e.DefineLabel(ctx, "role=manager")
	require.NoError(t, err)

	require.NoError(t, e.RegisterTable(ctx, "employees", "__sec_employees", "row_label_id", nil, nil))
	require.NoError(t, e.SetColumnPolicy(ctx, "employees", "salary", nil, &managerLabel))

	e.SetAttr("role", "developer")
	require.NoError(t, e.Refresh(ctx))
	_, err = db.Exec(`UPDATE employees SET salary = 999 WHERE id = 1`)
	require.Error(t, err)

	e.ClearContext()
	e.SetAttr("role", "manager")
	require.NoError(t, e.Refresh(ctx))
	_, err = db.Exec(`UPDATE employees SET salary = 999 WHERE id = 1`)
	require.NoError(t, err)

	var salary int
	require.NoError(t, db.QueryRow(`SELECT salary FROM __sec_employees WHERE id = 1`).Scan(&salary))
	require.Equal(t, 999, salary)
}

func TestScenario5_InsertPolicy(t *testing.T) {
	e, db := openEngine(t)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TABLE __sec_employees (id INTEGER PRIMARY KEY, row_label_id INTEGER NOT NULL, name TEXT)`)
	require.NoError(t, err)

	managerLabel, err := e.DefineLabel(ctx, "role=manager")
	require.NoError(t, err)

	require.NoError(t, e.RegisterTable(ctx, "employees", "__sec_employees", "row_label_id", nil, managerLabel))
	require.NoError(t, e.Refresh(ctx))

	_, err = db.Exec(`INSERT INTO employees (name) VALUES ('Alice')`)
	require.NoError(t, err)

	var rowLabel int64
	require.NoError(t, db.QueryRow(`SELECT row_label_id FROM __sec_employees WHERE name = 'Alice'`).Scan(&rowLabel))
	require.Equal(t, int64(managerLabel), rowLabel)

	e.SetAttr("role", "staff")
	require.NoError(t, e.Refresh(ctx))
	_, err = db.Exec(`INSERT INTO employees (name) VALUES ('Dave')`)
	require.NoError(t, err)
	require.NoError(t, db.QueryRow(`SELECT row_label_id FROM __sec_employees WHERE name = 'Dave'`).Scan(&rowLabel))
	require.Equal(t, int64(managerLabel), rowLabel)

	_, err = db.Exec(`INSERT INTO employees (name, row_label_id) VALUES ('Forged', 4)`)
	require.Error(t, err)
}

func TestScenario6_PushPop(t *testing.T) {
	e, db := openEngine(t)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TABLE __sec_docs (id INTEGER PRIMARY KEY, row_label_id INTEGER NOT NULL, title TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO __sec_docs (id, row_label_id, title) VALUES (1, 1, 'Public'), (2, 2, 'Admin Only')`)
	require.NoError(t, err)

	_, err = e.DefineLabel(ctx, "role=admin")
	require.NoError(t, err)
	require.NoError(t, e.RegisterTable(ctx, "docs", "__sec_docs", "row_label_id", nil, nil))

	e.SetAttr("role", "user")
	e.PushContext()
	e.SetAttr("role", "admin")
	require.NoError(t, e.Refresh(ctx))
	require.Equal(t, []string{"Public", "Admin Only"}, queryTitles(t, db))

	require.NoError(t, e.PopContext())
	require.NoError(t, e.Refresh(ctx))
	require.Equal(t, []string{"Public"}, queryTitles(t, db))
}
