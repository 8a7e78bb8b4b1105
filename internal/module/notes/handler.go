package notes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/podnotes/server/internal/shared/errors"
	"github.com/podnotes/server/internal/shared/middleware"
	"github.com/podnotes/server/internal/shared/response"
)

// Handler handles HTTP requests for show notes generation.
type Handler struct {
	service          *Service
	openaiConfigured bool
}

// NewHandler creates a new notes handler.
func NewHandler(service *Service, openaiConfigured bool) *Handler {
	return &Handler{
		service:          service,
		openaiConfigured: openaiConfigured,
	}
}

// RegisterRoutes registers the notes routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/generate", h.Generate)
	r.GET("/quota", h.Quota)
	r.GET("/test", h.Test)
}

// Generate runs a generation for the caller's identity.
func (h *Handler) Generate(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST_BODY")
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Quota reports the caller's usage for the current month.
func (h *Handler) Quota(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	c.JSON(http.StatusOK, h.service.Quota(c.Request.Context(), identity))
}

// Test is a connectivity probe used by the frontend.
func (h *Handler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, TestResponse{
		Success:          true,
		Message:          "Server is working!",
		Timestamp:        time.Now().UTC(),
		OpenAIConfigured: h.openaiConfigured,
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrQuotaExceeded) {
		response.QuotaExceeded(c)
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		response.Error(c, appErr.StatusCode, appErr.Code)
		return
	}

	response.InternalError(c)
}
