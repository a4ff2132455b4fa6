package materializer

import (
	"regexp"
)

// SchemaError reports an identifier that the materializer refuses to
// interpolate into generated DDL.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "materializer: " + e.Msg }

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateIdent rejects anything that isn't a plain ASCII identifier.
// Per spec.md §9 ("Trigger emission"), the set of identifiers the
// generator can emit is bounded by the catalog, so a small allowlist
// validator suffices; there is no need for a general SQL-quoting
// escape scheme.
func validateIdent(name string) error {
	if !identPattern.MatchString(name) {
		return &SchemaError{Msg: "refusing to emit DDL referencing unsafe identifier " + name}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// managedNames returns the object names refresh owns for logical: the
// view itself and its three instead-of triggers. Names outside this
// pattern are never touched by refresh.
func managedNames(logical string) (view, ins, upd, del string) {
	return logical, logical + "__ins", logical + "__upd", logical + "__del"
}
