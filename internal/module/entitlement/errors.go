package entitlement

import "errors"

var (
	// ErrUsageNotFound indicates no usage record exists for an identity yet.
	ErrUsageNotFound = errors.New("usage record not found")
)
