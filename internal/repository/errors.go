// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// knowing which store backs the repository.
package repository

import "errors"

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot be applied because of the
// current state of the record, such as adding a participant who already
// joined or a movie that is already queued.
var ErrConflict = errors.New("conflict")

// ErrLimitReached is returned when a collection already holds the
// maximum number of items allowed.
var ErrLimitReached = errors.New("limit reached")
