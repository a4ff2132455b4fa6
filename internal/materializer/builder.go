// Package materializer implements the View Materializer: it reads the
// catalog and the current security context and emits per-table
// CREATE VIEW / CREATE TRIGGER statements that encode the currently
// permitted row predicate, column projection, and write policy.
//
// Grounded on internal/sqlgen/builder.go's SQLBuilder for the DDL
// string assembly, and on original_source/src/views/refresh_views.rs
// and write_triggers.rs for the exact trigger-body shape (the guard
// statements, the insert-label resolution order, and the decision to
// project the row-label column in the generated view so NEW/OLD can
// address it, while exempting it from read-label checks).
package materializer

import (
	"fmt"
	"strings"
)

// sqlBuilder builds DDL text with automatic indentation management,
// adapted from the teacher's SQLBuilder down to the handful of methods
// the view/trigger renderers actually use.
type sqlBuilder struct {
	lines     []string
	indent    int
	indentStr string
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{indentStr: "    "}
}

func (b *sqlBuilder) Line(format string, args ...any) *sqlBuilder {
	line := fmt.Sprintf(format, args...)
	if b.indent > 0 && line != "" {
		line = strings.Repeat(b.indentStr, b.indent) + line
	}
	b.lines = append(b.lines, line)
	return b
}

func (b *sqlBuilder) Indent() *sqlBuilder {
	b.indent++
	return b
}

func (b *sqlBuilder) Dedent() *sqlBuilder {
	if b.indent > 0 {
		b.indent--
	}
	return b
}

func (b *sqlBuilder) Block(fn func(*sqlBuilder)) *sqlBuilder {
	b.Indent()
	fn(b)
	b.Dedent()
	return b
}

func (b *sqlBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

// joiner accumulates clauses and joins them with a separator,
// filtering out empty strings, adapted from the teacher's Joiner.
type joiner struct {
	sep   string
	parts []string
}

func newJoiner(sep string) *joiner {
	return &joiner{sep: sep}
}

func (j *joiner) Add(parts ...string) *joiner {
	for _, p := range parts {
		if p != "" {
			j.parts = append(j.parts, p)
		}
	}
	return j
}

func (j *joiner) Empty() bool {
	return len(j.parts) == 0
}

func (j *joiner) String() string {
	return strings.Join(j.parts, j.sep)
}
