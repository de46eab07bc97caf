// Package repository defines error types that are reused across
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.  Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing row,
// such as recording the same confirmation twice.  Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
