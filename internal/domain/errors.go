// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates the input failed domain validation.
var ErrValidation = errors.New("validation failed")

// ErrMalformedGeneration indicates the generator output could not be read as a
// story map at all (no title, no description or no epics sequence).
var ErrMalformedGeneration = errors.New("malformed generation result")

// ErrGeneratorUnavailable indicates the external generator could not be reached,
// rejected the request, timed out, or its circuit breaker is open.
var ErrGeneratorUnavailable = errors.New("generator unavailable")

// ErrStoreUnavailable indicates the document store failed to persist or load.
var ErrStoreUnavailable = errors.New("store unavailable")
