package storage

import "errors"

// ErrNotFound is returned when a referenced account, package, or
// empowerment package does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotEligible is returned when a trigger's precondition fails, e.g. the
// renewal window has not been reached or an upgrade targets a cheaper
// package.
var ErrNotEligible = errors.New("not eligible")

// ErrInsufficientBalance is returned when an upgrade or conversion cost
// exceeds the paying wallet's balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrNotMature is returned when a maturity check runs before the maturity
// date.
var ErrNotMature = errors.New("empowerment package not yet mature")

// ErrInvalidState is returned when a lifecycle transition is attempted from
// the wrong state.
var ErrInvalidState = errors.New("invalid lifecycle state")

// ErrDataIntegrity is returned when the referral chain repeats an id or an
// edge is orphaned.
var ErrDataIntegrity = errors.New("referral data integrity violation")

// ErrUnauthorized is returned when a non-admin calls an admin-only
// transition.
var ErrUnauthorized = errors.New("unauthorized")

// ErrDuplicateTrigger is returned when a distribution's idempotency guard
// already exists, i.e. the same trigger already ran for this account,
// package, and bucket.
var ErrDuplicateTrigger = errors.New("trigger already processed")

// ErrVersionConflict is returned when an optimistic-locking check fails
// because a concurrent trigger touched one of the same accounts.
var ErrVersionConflict = errors.New("version conflict")
