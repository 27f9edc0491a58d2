package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and upstream clients
// return these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity or cache entry does not exist (or has expired)
//   - ErrConflict: unique constraint would be violated
//   - ErrExpired: token has passed its expiry
//   - ErrRevoked: token is present in the revocation set
//   - ErrMalformed: token or payload cannot be parsed
//   - ErrInvalidState: operation called with arguments that can never succeed
//   - ErrUnavailable: dependency could not be reached
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrRevoked      = errors.New("revoked")
	ErrMalformed    = errors.New("malformed")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
