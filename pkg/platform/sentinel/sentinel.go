package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in a store
// - ErrUnavailable: backing store or external collaborator cannot be reached
// - ErrInvalidState: entity is in the wrong state for the requested transition
// - ErrConflict: concurrent writer won the state transition
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)
