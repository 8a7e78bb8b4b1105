package entitlement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/podnotes/server/internal/shared/events"
)

// EventHandler applies subscription lifecycle events to the entitlement store.
type EventHandler struct {
	store  *Store
	logger *zap.Logger
}

// NewEventHandler creates a new entitlement event handler.
func NewEventHandler(store *Store, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		store:  store,
		logger: logger,
	}
}

// Handles returns the list of event types this handler can process.
func (h *EventHandler) Handles() []string {
	return []string{
		events.SubscriptionActivatedType,
		events.SubscriptionDeactivatedType,
	}
}

// Handle processes the given event.
func (h *EventHandler) Handle(event events.Event) error {
	switch e := event.(type) {
	case *events.SubscriptionActivatedEvent:
		return h.handleActivated(e)
	case *events.SubscriptionDeactivatedEvent:
		return h.handleDeactivated(e)
	default:
		h.logger.Warn("unhandled event type",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}
}

func (h *EventHandler) handleActivated(event *events.SubscriptionActivatedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	periodEnd := event.CurrentPeriodEnd
	h.store.SetSubscription(ctx, event.Identity, Subscription{
		Status:               SubscriptionStatusActive,
		PlanID:               event.PlanID,
		StripeSubscriptionID: event.SubscriptionID,
		StripeSessionID:      event.SessionID,
		CurrentPeriodEnd:     &periodEnd,
	})

	h.logger.Info("subscription activated",
		zap.String("identity", event.Identity),
		zap.String("plan_id", event.PlanID),
		zap.Time("current_period_end", periodEnd),
	)
	return nil
}

func (h *EventHandler) handleDeactivated(event *events.SubscriptionDeactivatedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status := SubscriptionStatusCancelled
	if event.Status == "incomplete_expired" || event.Status == "unpaid" {
		status = SubscriptionStatusExpired
	}

	record := h.store.GetUsage(ctx, event.Identity)
	sub := record.Subscription
	sub.Status = status
	h.store.SetSubscription(ctx, event.Identity, sub)

	h.logger.Info("subscription deactivated",
		zap.String("identity", event.Identity),
		zap.String("subscription_id", event.SubscriptionID),
		zap.String("provider_status", event.Status),
	)
	return nil
}
