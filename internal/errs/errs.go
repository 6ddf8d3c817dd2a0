// Package errs defines the sentinel error kinds shared across the render-and-reconcile
// pipeline. Callers should wrap these with fmt.Errorf("...: %w", err) and match them with
// errors.Is.
package errs

import "errors"

var (
	// ErrNotFound covers a missing config directory, missing _index.yml, or a missing
	// referenced library.
	ErrNotFound = errors.New("not found")

	// ErrConfigError covers an invalid project structure: a non-library referenced via
	// inherit, an unknown ValueLoader name, and similar structural problems.
	ErrConfigError = errors.New("config error")

	// ErrMissingParam is raised when a declared param is left unresolved after the
	// template pass.
	ErrMissingParam = errors.New("missing param")

	// ErrMissingVar is raised when a forEach entry has no APP_NAME.
	ErrMissingVar = errors.New("missing var")

	// ErrSkipObject is a recoverable per-object signal: the object is dropped from the
	// bundle but its state entry is still marked visited.
	ErrSkipObject = errors.New("skip object")

	// ErrValueError covers decryption integrity failures, unresolvable non-string
	// substitutions, and ambiguous _merge values.
	ErrValueError = errors.New("value error")

	// ErrClusterError wraps an underlying cluster API failure.
	ErrClusterError = errors.New("cluster error")
)
