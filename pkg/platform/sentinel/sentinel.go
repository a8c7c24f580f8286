package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrVersionConflict: optimistic version check failed; reload and retry
// - ErrAlreadyExists: resource already present (idempotent creation hit)
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)
