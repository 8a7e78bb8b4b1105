package payment

import "errors"

var (
	// ErrPlanNotFound indicates an unknown plan ID.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrSessionNotFound indicates an unknown checkout session.
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrPlanNotPurchasable indicates the plan has no price configured.
	ErrPlanNotPurchasable = errors.New("plan has no price configured")
)
