// Package payment sells subscriptions through Stripe Checkout and feeds
// the resulting entitlement changes to the rest of the server.
package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/podnotes/server/internal/module/payment/provider"
	apperrors "github.com/podnotes/server/internal/shared/errors"
	"github.com/podnotes/server/internal/shared/events"
	"github.com/podnotes/server/internal/shared/metrics"
)

// Service implements the payment operations.
type Service struct {
	repo       Repository
	provider   provider.Provider
	bus        *events.Bus
	logger     *zap.Logger
	metrics    *metrics.Metrics
	successURL string
	cancelURL  string
}

// ServiceConfig holds payment service configuration.
type ServiceConfig struct {
	SuccessURL string
	CancelURL  string
}

// NewService creates a new payment service. m may be nil.
func NewService(
	repo Repository,
	prov provider.Provider,
	bus *events.Bus,
	cfg *ServiceConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:       repo,
		provider:   prov,
		bus:        bus,
		logger:     logger,
		metrics:    m,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

// SeedPlans upserts the default plans with the configured Stripe prices.
func (s *Service) SeedPlans(ctx context.Context, priceIDs map[string]string) error {
	return s.repo.SeedPlans(ctx, DefaultPlans(priceIDs))
}

// ListPlans returns all purchasable plans.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx)
}

// CreateCheckoutSession creates a hosted checkout session for the identity
// and records it so later webhook events can be attributed.
func (s *Service) CreateCheckoutSession(ctx context.Context, identity string, req *CreateCheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	plan, err := s.resolvePlan(ctx, req)
	if err != nil {
		return nil, err
	}
	if plan.StripePriceID == "" {
		return nil, apperrors.BadRequest(ErrPlanNotPurchasable.Error())
	}

	session, err := s.provider.CreateCheckoutSession(ctx, &provider.CheckoutParams{
		PriceID:    plan.StripePriceID,
		Identity:   identity,
		PlanID:     plan.ID,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		s.logger.Error("checkout session creation failed",
			zap.String("identity", identity),
			zap.String("plan_id", plan.ID),
			zap.Error(err),
		)
		return nil, apperrors.PaymentVerificationFailure(err)
	}

	record := &CheckoutSession{
		SessionID: session.ID,
		Identity:  identity,
		PlanID:    plan.ID,
		Status:    SessionStatusCreated,
	}
	if err := s.repo.SaveSession(ctx, record); err != nil {
		// The checkout still works; webhook attribution falls back to
		// the session metadata.
		s.logger.Error("checkout session record save failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}

	s.recordSessionEvent("created")
	s.logger.Info("checkout session created",
		zap.String("identity", identity),
		zap.String("plan_id", plan.ID),
		zap.String("session_id", session.ID),
	)

	return &CheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// VerifySubscription confirms a completed checkout session with the
// provider and activates the subscription for the identity.
func (s *Service) VerifySubscription(ctx context.Context, identity, sessionID string) (*VerifySubscriptionResponse, error) {
	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.PaymentVerificationFailure(err)
	}

	if !session.Paid() || session.SubscriptionID == "" {
		s.logger.Info("checkout session not paid",
			zap.String("session_id", sessionID),
			zap.String("payment_status", session.PaymentStatus),
		)
		return nil, apperrors.PaymentNotCompleted()
	}

	sub, err := s.provider.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		return nil, apperrors.PaymentVerificationFailure(err)
	}

	// The identity recorded when the session was created wins over the
	// caller's, in case the cookie was lost between checkout and return.
	if record, err := s.repo.GetSession(ctx, sessionID); err == nil && record.Identity != "" {
		identity = record.Identity
	}

	planID := s.planIDForSession(ctx, session, sessionID)
	s.activate(ctx, identity, planID, sessionID, sub)
	s.recordSessionEvent("verified")

	return &VerifySubscriptionResponse{
		Success: true,
		Subscription: &SubscriptionInfo{
			ID:               sub.ID,
			Status:           sub.Status,
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
			Plan:             s.planName(ctx, planID, sub),
		},
	}, nil
}

// VerifyWebhookSignature verifies a provider webhook signature.
func (s *Service) VerifyWebhookSignature(payload []byte, signature string) error {
	return s.provider.VerifyWebhookSignature(payload, signature)
}

// WebhookEventExists reports whether a webhook event was already processed.
func (s *Service) WebhookEventExists(ctx context.Context, eventID string) (bool, error) {
	return s.repo.WebhookEventExists(ctx, eventID)
}

// RecordWebhookEvent stores a webhook event for idempotency.
func (s *Service) RecordWebhookEvent(ctx context.Context, eventID, eventType, payload string) error {
	return s.repo.CreateWebhookEvent(ctx, &WebhookEvent{
		EventID: eventID,
		Type:    eventType,
		Payload: payload,
	})
}

// ActivateFromCheckout activates a subscription from a completed checkout
// webhook. identity and planID come from the session metadata; when absent
// they are recovered from our session record.
func (s *Service) ActivateFromCheckout(ctx context.Context, sessionID, identity, planID, subscriptionID string) error {
	if identity == "" || planID == "" {
		if record, err := s.repo.GetSession(ctx, sessionID); err == nil {
			if identity == "" {
				identity = record.Identity
			}
			if planID == "" {
				planID = record.PlanID
			}
		}
	}
	if identity == "" {
		s.logger.Warn("checkout completed without attributable identity",
			zap.String("session_id", sessionID),
		)
		return nil
	}

	sub, err := s.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}

	s.activate(ctx, identity, planID, sessionID, sub)
	s.recordSessionEvent("completed")
	return nil
}

// ApplySubscriptionChange handles a subscription lifecycle webhook. The
// identity comes from the subscription metadata, falling back to the
// checkout session record that created it.
func (s *Service) ApplySubscriptionChange(ctx context.Context, sub *provider.Subscription, identity, planID string) error {
	if identity == "" {
		record, err := s.repo.GetSessionBySubscription(ctx, sub.ID)
		if err != nil {
			s.logger.Warn("subscription change without attributable identity",
				zap.String("subscription_id", sub.ID),
				zap.String("status", sub.Status),
			)
			return nil
		}
		identity = record.Identity
		if planID == "" {
			planID = record.PlanID
		}
	}

	if sub.Active() {
		s.bus.Publish(events.NewSubscriptionActivatedEvent(
			identity, sub.ID, "", planID, time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		))
		return nil
	}

	s.bus.Publish(events.NewSubscriptionDeactivatedEvent(identity, sub.ID, sub.Status))
	return nil
}

func (s *Service) activate(ctx context.Context, identity, planID, sessionID string, sub *provider.Subscription) {
	if record, err := s.repo.GetSession(ctx, sessionID); err == nil {
		record.Status = SessionStatusVerified
		record.StripeSubscriptionID = sub.ID
		if err := s.repo.SaveSession(ctx, record); err != nil {
			s.logger.Error("checkout session record update failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	s.bus.Publish(events.NewSubscriptionActivatedEvent(
		identity, sub.ID, sessionID, planID, time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	))
}

func (s *Service) resolvePlan(ctx context.Context, req *CreateCheckoutSessionRequest) (*Plan, error) {
	if req.PlanID != "" {
		plan, err := s.repo.GetPlan(ctx, req.PlanID)
		if err == ErrPlanNotFound {
			return nil, apperrors.NotFound("plan")
		}
		return plan, err
	}

	if req.PriceID != "" {
		plans, err := s.repo.ListPlans(ctx)
		if err != nil {
			return nil, err
		}
		for i := range plans {
			if plans[i].StripePriceID == req.PriceID {
				return &plans[i], nil
			}
		}
		return nil, apperrors.NotFound("plan")
	}

	return nil, apperrors.BadRequest("planId or priceId is required")
}

func (s *Service) planIDForSession(ctx context.Context, session *provider.CheckoutSession, sessionID string) string {
	if id := session.Metadata["plan_id"]; id != "" {
		return id
	}
	if record, err := s.repo.GetSession(ctx, sessionID); err == nil {
		return record.PlanID
	}
	return ""
}

func (s *Service) planName(ctx context.Context, planID string, sub *provider.Subscription) string {
	if planID != "" {
		if plan, err := s.repo.GetPlan(ctx, planID); err == nil {
			return plan.Name
		}
	}
	if sub.PriceNickname != "" {
		return sub.PriceNickname
	}
	return "Premium"
}

func (s *Service) recordSessionEvent(event string) {
	if s.metrics != nil {
		s.metrics.CheckoutSessionsTotal.WithLabelValues(event).Inc()
	}
}
