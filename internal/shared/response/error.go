package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standard error response body.
type ErrorResponse struct {
	Error     string `json:"error"`
	Remaining *int   `json:"remaining,omitempty"`
}

// Error sends an error response with the given status code and code string.
func Error(c *gin.Context, status int, code string) {
	c.JSON(status, ErrorResponse{Error: code})
}

// BadRequest sends a 400 Bad Request response.
func BadRequest(c *gin.Context, code string) {
	Error(c, http.StatusBadRequest, code)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, code string) {
	if code == "" {
		code = "NOT_FOUND"
	}
	Error(c, http.StatusNotFound, code)
}

// InternalError sends a 500 Internal Server Error response.
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR")
}

// QuotaExceeded sends the 429 denial body the frontend keys on.
func QuotaExceeded(c *gin.Context) {
	zero := 0
	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:     "FREE_LIMIT_EXCEEDED",
		Remaining: &zero,
	})
}

// ErrorMapping maps domain errors to HTTP status codes.
type ErrorMapping struct {
	Err    error
	Status int
	Code   string
}

// HandleError handles an error using the provided mappings.
// Returns true if the error was handled, false otherwise.
func HandleError(c *gin.Context, err error, mappings []ErrorMapping) bool {
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			code := m.Code
			if code == "" {
				code = m.Err.Error()
			}
			Error(c, m.Status, code)
			return true
		}
	}
	return false
}

// HandleErrorWithDefault handles an error with a 500 fallback.
func HandleErrorWithDefault(c *gin.Context, err error, mappings []ErrorMapping) {
	if !HandleError(c, err, mappings) {
		InternalError(c)
	}
}
