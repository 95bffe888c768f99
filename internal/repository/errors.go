// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that an operation cannot proceed
// because of the current state of dependent records (deleting a
// status label that bills still reference, archiving a contract
// twice), while ErrValidation covers payloads that are rejected
// before any write happens.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own or are not a participant of.
// Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because
// of conflicting state, such as creating a contract on an occupied
// apartment. Handlers should translate this into an HTTP 409
// response. The error is usually wrapped with a message naming
// the blocking records; use errors.Is to detect it.
var ErrConflict = errors.New("conflict")

// ErrValidation is returned when a payload fails a domain rule
// before any write, such as an apartment carrying both a building
// reference and its own address. Handlers should translate this
// into an HTTP 400 response.
var ErrValidation = errors.New("invalid input")
