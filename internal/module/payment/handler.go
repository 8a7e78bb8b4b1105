package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/podnotes/server/internal/shared/errors"
	"github.com/podnotes/server/internal/shared/middleware"
	"github.com/podnotes/server/internal/shared/response"
)

// Handler handles HTTP requests for subscriptions.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the checkout routes at the root and the plans
// listing under the API group.
func (h *Handler) RegisterRoutes(root gin.IRoutes, api *gin.RouterGroup) {
	root.POST("/create-checkout-session", h.CreateCheckoutSession)
	root.POST("/verify-subscription", h.VerifySubscription)
	api.GET("/plans", h.ListPlans)
}

// CreateCheckoutSession starts a subscription checkout for the caller.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST_BODY")
		return
	}

	resp, err := h.service.CreateCheckoutSession(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifySubscription confirms a completed checkout and activates the
// subscription for the caller.
func (h *Handler) VerifySubscription(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	var req VerifySubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "INVALID_REQUEST_BODY")
		return
	}

	resp, err := h.service.VerifySubscription(c.Request.Context(), identity, req.SessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListPlans returns the purchasable plans.
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	c.JSON(http.StatusOK, PlansResponse{Plans: plans})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		response.Error(c, appErr.StatusCode, appErr.Code)
		return
	}
	if errors.Is(err, ErrPlanNotFound) {
		response.NotFound(c, "PLAN_NOT_FOUND")
		return
	}
	response.InternalError(c)
}
