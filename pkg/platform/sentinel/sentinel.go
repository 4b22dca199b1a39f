package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and ledger-facing
// clients return these (optionally wrapped) so services can translate them
// into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store or on the ledger
// - ErrSuperseded: a newer submission replaced this one; results must be discarded
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: collaborator or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrSuperseded   = errors.New("superseded")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
