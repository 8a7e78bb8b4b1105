package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrBadRequest       = errors.New("bad request")
	ErrInternal         = errors.New("internal error")
	ErrQuotaExceeded    = errors.New("free limit exceeded")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUpstream         = errors.New("upstream generation failure")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPaymentIncomplete = errors.New("payment not completed")
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors.

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// BadRequest creates a bad request error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}

// Internal creates an internal error.
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// FreeLimitExceeded creates the quota denial error surfaced to the client.
func FreeLimitExceeded() *AppError {
	return &AppError{
		Code:       "FREE_LIMIT_EXCEEDED",
		Message:    "monthly free generation limit reached",
		StatusCode: http.StatusTooManyRequests,
		Err:        ErrQuotaExceeded,
	}
}

// UpstreamFailure creates an upstream generation failure error.
func UpstreamFailure(message string, err error) *AppError {
	if message == "" {
		message = "generation service unavailable"
	}
	return &AppError{
		Code:       "UPSTREAM_GENERATION_FAILURE",
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

// PaymentNotCompleted creates an error for an unpaid checkout session.
func PaymentNotCompleted() *AppError {
	return &AppError{
		Code:       "PAYMENT_NOT_COMPLETED",
		Message:    "payment not completed",
		StatusCode: http.StatusBadRequest,
		Err:        ErrPaymentIncomplete,
	}
}

// PaymentVerificationFailure creates an error for a failed verification call.
func PaymentVerificationFailure(err error) *AppError {
	return &AppError{
		Code:       "PAYMENT_VERIFICATION_FAILURE",
		Message:    "could not verify subscription",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrPaymentIncomplete):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
