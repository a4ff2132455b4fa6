package veil

import "errors"

// ErrorKind classifies a veil error into one of the six kinds the policy
// engine can raise. Use errors.As with *veil.Error, or the Is*Err
// helpers, to branch on kind.
type ErrorKind int

const (
	// KindParse indicates malformed label source.
	KindParse ErrorKind = iota
	// KindCatalog indicates a violated catalog invariant: a uniqueness
	// collision, a missing physical table or primary key, an unknown
	// column, re-registration of a logical name, or a reference to an
	// undefined label ID.
	KindCatalog
	// KindEvaluation indicates a level comparison against an undefined
	// level name.
	KindEvaluation
	// KindAuthorization indicates a write rejected by policy: a forged
	// row label on INSERT, an UPDATE targeting the primary key or row
	// label column, or an UPDATE of a column whose update label is not
	// satisfied.
	KindAuthorization
	// KindStaleness indicates AssertFresh was called while the context
	// has mutated since the last Refresh.
	KindStaleness
	// KindSchema indicates the physical table cannot be protected as
	// registered, e.g. a WITHOUT ROWID table.
	KindSchema
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindCatalog:
		return "CatalogError"
	case KindEvaluation:
		return "EvaluationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindStaleness:
		return "StalenessError"
	case KindSchema:
		return "SchemaError"
	default:
		return "UnknownError"
	}
}

// Error is veil's error type: a kind plus enough context (label source,
// column name, table name) to diagnose the failure, and an optional
// wrapped cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// IsParseErr returns true if err is or wraps a ParseError.
func IsParseErr(err error) bool { return hasKind(err, KindParse) }

// IsCatalogErr returns true if err is or wraps a CatalogError.
func IsCatalogErr(err error) bool { return hasKind(err, KindCatalog) }

// IsEvaluationErr returns true if err is or wraps an EvaluationError.
func IsEvaluationErr(err error) bool { return hasKind(err, KindEvaluation) }

// IsAuthorizationErr returns true if err is or wraps an AuthorizationError.
func IsAuthorizationErr(err error) bool { return hasKind(err, KindAuthorization) }

// IsStalenessErr returns true if err is or wraps a StalenessError.
func IsStalenessErr(err error) bool { return hasKind(err, KindStaleness) }

// IsSchemaErr returns true if err is or wraps a SchemaError.
func IsSchemaErr(err error) bool { return hasKind(err, KindSchema) }

func hasKind(err error, kind ErrorKind) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}

// ErrEmptyStack is returned by PopContext when the context stack is
// already at its base and there is nothing left to pop.
var ErrEmptyStack = errors.New("veil: context stack is empty")
