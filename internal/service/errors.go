package service

import "errors"

// Domain errors returned by every service.  They are wrapped with context
// via fmt.Errorf("...: %w", ...); handlers match them with errors.Is.
var (
	// ErrNotFound means a referenced watch party or bucket does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is not allowed to act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict covers duplicate joins, duplicate bucket entries and
	// exceeded limits.
	ErrConflict = errors.New("conflict")
	// ErrValidation means the caller supplied malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream means the movie provider or store could not serve the
	// request.
	ErrUpstream = errors.New("upstream failure")
)
