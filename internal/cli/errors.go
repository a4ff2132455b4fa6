// Package cli provides shared configuration and utilities for the veilctl
// command-line tool.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/veilsec/veil"
)

// Exit codes. ExitConfig and ExitDBConnect cover failures that precede
// any veil.Engine call (loading veilctl's own configuration, opening
// the database handle) and so have no veil.ErrorKind to classify them
// by. Everything that reaches an Engine operation surfaces a
// *veil.Error; EngineError derives its exit code from that error's Kind
// via kindExitCode rather than through a second, independently numbered
// enum duplicating veil.ErrorKind.
const (
	ExitSuccess   = 0
	ExitGeneral   = 1
	ExitConfig    = 2
	ExitDBConnect = 4

	exitKindBase = 10
)

// kindExitCode maps a veil.ErrorKind onto its exit code, offset from
// exitKindBase in veil.ErrorKind's own declared order so that adding a
// kind there never collides with ExitConfig or ExitDBConnect here.
func kindExitCode(k veil.ErrorKind) int {
	return exitKindBase + int(k)
}

// ExitError wraps an error with the process exit code veilctl should
// return for it.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitWithError prints the error and exits with the appropriate code.
func ExitWithError(err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", exitErr.Error())
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(ExitGeneral)
}

// ConfigError creates an ExitError with ExitConfig code, for failures
// loading veilctl's own configuration.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code, for
// failures opening the database handle, before any Engine exists to
// classify the failure.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code, for
// failures with no more specific classification.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}

// EngineError builds an ExitError from an error returned by a
// veil.Engine operation (Refresh, RegisterTable, DefineLabel, and
// friends). If err is or wraps a *veil.Error, the exit code is derived
// from its Kind through kindExitCode, so a label parse failure, a
// stale-view failure, and a catalog failure each exit with their own
// distinct, Kind-derived code. Errors that carry no Kind — a command's
// own I/O failure, for instance — fall back to ExitGeneral.
func EngineError(msg string, err error) *ExitError {
	var ve *veil.Error
	if errors.As(err, &ve) {
		return &ExitError{Code: kindExitCode(ve.Kind), Message: msg, Err: err}
	}
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}
