package payment

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/podnotes/server/internal/module/payment/provider"
)

// WebhookHandler handles Stripe webhook events.
type WebhookHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service *Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook handles incoming Stripe webhook events.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.service.VerifyWebhookSignature(payload, signature); err != nil {
		h.logger.Warn("invalid webhook signature", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("failed to parse webhook event", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}

	ctx := c.Request.Context()

	exists, err := h.service.WebhookEventExists(ctx, event.ID)
	if err != nil {
		h.logger.Error("failed to check event existence", zap.Error(err))
		// Continue processing - better to process twice than miss
	}
	if exists {
		h.logger.Info("webhook event already processed", zap.String("event_id", event.ID))
		c.JSON(http.StatusOK, gin.H{"status": "already_processed"})
		return
	}

	if err := h.service.RecordWebhookEvent(ctx, event.ID, string(event.Type), string(payload)); err != nil {
		h.logger.Error("failed to store webhook event", zap.Error(err))
	}

	var processErr error
	switch event.Type {
	case "checkout.session.completed":
		processErr = h.handleCheckoutCompleted(c, &event)
	case "customer.subscription.updated", "customer.subscription.deleted":
		processErr = h.handleSubscriptionChange(c, &event)
	default:
		h.logger.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
	}

	if processErr != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(processErr),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) handleCheckoutCompleted(c *gin.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	if subscriptionID == "" {
		h.logger.Warn("checkout completed without subscription",
			zap.String("session_id", session.ID),
		)
		return nil
	}

	return h.service.ActivateFromCheckout(
		c.Request.Context(),
		session.ID,
		session.Metadata["identity"],
		session.Metadata["plan_id"],
		subscriptionID,
	)
}

func (h *WebhookHandler) handleSubscriptionChange(c *gin.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}

	return h.service.ApplySubscriptionChange(
		c.Request.Context(),
		provider.SubscriptionFromStripe(&sub),
		sub.Metadata["identity"],
		sub.Metadata["plan_id"],
	)
}
