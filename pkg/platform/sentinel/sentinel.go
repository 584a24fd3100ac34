package sentinel

import "errors"

// Sentinel errors for infrastructure facts. The persistent store and the
// state gateway return these (optionally wrapped) so services can translate
// them into domain errors.
//
// These represent factual states about stored records, not validation
// failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a uniqueness rule would be violated (apartment number, pending invitation)
// - ErrInvalidState: record is in a terminal or wrong state for the operation
// - ErrUnavailable: backing store temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
