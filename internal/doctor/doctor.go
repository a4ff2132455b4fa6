// Package doctor provides health checks for a veil-managed database.
//
// The doctor command validates that the catalog is internally
// consistent: every stored label still parses, every level catalog has
// no rank collisions, and every registered table's physical backing
// still exists with its row label column and a primary key.
//
// Example usage:
//
//	d := doctor.New(db)
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/veilsec/veil/internal/catalog"
	"github.com/veilsec/veil/internal/lel"
	"github.com/veilsec/veil/internal/levels"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	Category string
	Message  string
	Status   Status
	Details  string
	FixHint  string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to w.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var order []string
	for _, c := range r.Checks {
		if _, ok := categories[c.Category]; !ok {
			order = append(order, c.Category)
		}
		categories[c.Category] = append(categories[c.Category], c)
	}

	for _, cat := range order {
		fmt.Fprintf(w, "\n%s\n", cat)
		for _, c := range categories[cat] {
			fmt.Fprintf(w, "  %s %s\n", c.Status.Symbol(), c.Message)
			if verbose && c.Details != "" {
				for _, line := range strings.Split(c.Details, "\n") {
					fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if c.Status != StatusPass && c.FixHint != "" {
				fmt.Fprintf(w, "      Fix: %s\n", c.FixHint)
			}
		}
	}

	fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n", r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor performs health checks on a veil-managed database's catalog.
type Doctor struct {
	db  *sql.DB
	cat *catalog.Store
}

// New creates a Doctor bound to db.
func New(db *sql.DB) *Doctor {
	return &Doctor{db: db, cat: catalog.NewStore(db)}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := d.checkSchema(ctx, report); err != nil {
		return report, nil
	}
	d.checkLabels(ctx, report)
	d.checkLevels(ctx, report)
	d.checkTables(ctx, report)

	return report, nil
}

func (d *Doctor) checkSchema(ctx context.Context, report *Report) error {
	var names []string
	for _, want := range []string{"sec_labels", "sec_levels", "sec_tables", "sec_columns"} {
		var n string
		err := d.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, want).Scan(&n)
		if err == sql.ErrNoRows {
			report.AddCheck(CheckResult{
				Category: "catalog schema",
				Message:  fmt.Sprintf("%s is missing", want),
				Status:   StatusFail,
				FixHint:  "open the database with veil.Open once to create the catalog schema",
			})
			return fmt.Errorf("missing %s", want)
		}
		if err != nil {
			return err
		}
		names = append(names, n)
	}
	report.AddCheck(CheckResult{
		Category: "catalog schema",
		Message:  "sec_labels, sec_levels, sec_tables, sec_columns present",
		Status:   StatusPass,
		Details:  strings.Join(names, ", "),
	})
	return nil
}

func (d *Doctor) checkLabels(ctx context.Context, report *Report) {
	rows, err := d.cat.AllLabels(ctx)
	if err != nil {
		report.AddCheck(CheckResult{Category: "labels", Message: "reading sec_labels failed", Status: StatusFail, Details: err.Error()})
		return
	}

	var bad []string
	for _, r := range rows {
		if _, err := lel.Parse(r.Source); err != nil {
			bad = append(bad, fmt.Sprintf("label %d (%q): %v", r.ID, r.Source, err))
		}
	}

	if len(bad) > 0 {
		report.AddCheck(CheckResult{
			Category: "labels",
			Message:  fmt.Sprintf("%d of %d stored labels no longer parse", len(bad), len(rows)),
			Status:   StatusFail,
			Details:  strings.Join(bad, "\n"),
			FixHint:  "a label's source text was corrupted or edited outside the catalog API",
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: "labels",
		Message:  fmt.Sprintf("%d stored labels all parse", len(rows)),
		Status:   StatusPass,
	})
}

func (d *Doctor) checkLevels(ctx context.Context, report *Report) {
	rows, err := d.cat.AllLevels(ctx)
	if err != nil {
		report.AddCheck(CheckResult{Category: "levels", Message: "reading sec_levels failed", Status: StatusFail, Details: err.Error()})
		return
	}

	cat := levels.NewCatalog()
	attrs := map[string]struct{}{}
	var conflicts []string
	for _, r := range rows {
		attrs[r.Attr] = struct{}{}
		if err := cat.Define(r.Attr, r.Value, r.Rank); err != nil {
			conflicts = append(conflicts, fmt.Sprintf("%s=%s (rank %d): %v", r.Attr, r.Value, r.Rank, err))
		}
	}

	if len(conflicts) > 0 {
		report.AddCheck(CheckResult{
			Category: "levels",
			Message:  fmt.Sprintf("%d rank collisions found in sec_levels", len(conflicts)),
			Status:   StatusFail,
			Details:  strings.Join(conflicts, "\n"),
		})
		return
	}
	report.AddCheck(CheckResult{
		Category: "levels",
		Message:  fmt.Sprintf("%d levels across %d attributes, no rank collisions", len(rows), len(attrs)),
		Status:   StatusPass,
	})
}

func (d *Doctor) checkTables(ctx context.Context, report *Report) {
	tables, err := d.cat.AllTables(ctx)
	if err != nil {
		report.AddCheck(CheckResult{Category: "registered tables", Message: "reading sec_tables failed", Status: StatusFail, Details: err.Error()})
		return
	}

	if len(tables) == 0 {
		report.AddCheck(CheckResult{Category: "registered tables", Message: "no tables registered", Status: StatusWarn, FixHint: "call RegisterTable for each table veil should protect"})
		return
	}

	for _, t := range tables {
		cols, err := d.cat.Introspect(ctx, t.Physical)
		if err != nil {
			report.AddCheck(CheckResult{
				Category: "registered tables",
				Message:  fmt.Sprintf("%s: physical table %s is not reachable", t.Logical, t.Physical),
				Status:   StatusFail,
				Details:  err.Error(),
				FixHint:  "the physical table was renamed or dropped after registration; Deregister or recreate it",
			})
			continue
		}

		hasRowCol := false
		for _, c := range cols {
			if c.Name == t.RowCol {
				hasRowCol = true
				break
			}
		}
		if !hasRowCol {
			report.AddCheck(CheckResult{
				Category: "registered tables",
				Message:  fmt.Sprintf("%s: row label column %q missing from %s", t.Logical, t.RowCol, t.Physical),
				Status:   StatusFail,
				FixHint:  "the row label column was dropped after registration",
			})
			continue
		}

		if len(catalog.PrimaryKeyColumns(cols)) == 0 {
			report.AddCheck(CheckResult{
				Category: "registered tables",
				Message:  fmt.Sprintf("%s: %s has no primary key", t.Logical, t.Physical),
				Status:   StatusFail,
			})
			continue
		}

		report.AddCheck(CheckResult{
			Category: "registered tables",
			Message:  fmt.Sprintf("%s -> %s: %d columns, row label column %q present", t.Logical, t.Physical, len(cols), t.RowCol),
			Status:   StatusPass,
		})
	}
}
