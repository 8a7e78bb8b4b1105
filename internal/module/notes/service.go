// Package notes turns podcast transcripts into formatted show notes or
// social media content, gated by the monthly free quota.
package notes

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/podnotes/server/internal/module/quota"
	apperrors "github.com/podnotes/server/internal/shared/errors"
	"github.com/podnotes/server/internal/shared/metrics"
)

// MinTranscriptLength is the minimum transcript length after trimming.
const MinTranscriptLength = 10

// Service orchestrates quota checks and generation.
type Service struct {
	generator Generator
	gate      *quota.Gate
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewService creates a new notes service. m may be nil.
func NewService(generator Generator, gate *quota.Gate, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		generator: generator,
		gate:      gate,
		logger:    logger,
		metrics:   m,
	}
}

// Generate validates the request, checks the identity's quota, runs the
// generation and consumes one unit of quota on success only.
func (s *Service) Generate(ctx context.Context, identity string, req *GenerateRequest) (*GenerateResponse, error) {
	transcript := strings.TrimSpace(req.Transcript)
	if len(transcript) < MinTranscriptLength {
		return nil, apperrors.ValidationError(ErrTranscriptTooShort.Error())
	}

	contentType := ContentType(req.ContentType)
	if contentType == "" {
		contentType = ContentTypeShowNotes
	}

	prompt, err := BuildPrompt(contentType, req.Tone, transcript)
	if err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	decision := s.gate.Authorize(ctx, identity)
	if !decision.Allowed {
		s.recordOutcome("denied")
		return nil, apperrors.FreeLimitExceeded()
	}

	start := time.Now()
	completion, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.recordOutcome("error")
		s.logger.Error("generation failed",
			zap.String("identity", identity),
			zap.String("content_type", string(contentType)),
			zap.Error(err),
		)
		return nil, err
	}

	decision = s.gate.RecordSuccess(ctx, identity)
	s.recordOutcome("success")
	if s.metrics != nil {
		s.metrics.GenerationTokens.Add(float64(completion.Usage.TotalTokens))
	}

	s.logger.Info("generation completed",
		zap.String("identity", identity),
		zap.String("content_type", string(contentType)),
		zap.Int("total_tokens", completion.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)

	return &GenerateResponse{
		Success:   true,
		Content:   strings.TrimSpace(completion.Content),
		Usage:     completion.Usage,
		Remaining: decision.Remaining,
		Unlimited: decision.Unlimited,
	}, nil
}

// Quota reports the identity's current usage without consuming anything.
func (s *Service) Quota(ctx context.Context, identity string) *QuotaResponse {
	decision := s.gate.Authorize(ctx, identity)
	record := s.gate.Usage(ctx, identity)

	return &QuotaResponse{
		Allowed:     decision.Allowed,
		Used:        record.Count,
		Limit:       s.gate.FreeLimit(),
		Remaining:   decision.Remaining,
		Unlimited:   decision.Unlimited,
		FirstUsedAt: record.FirstUsedAt,
		PeriodMonth: record.PeriodMonth,
		PeriodYear:  record.PeriodYear,
	}
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.GenerationsTotal.WithLabelValues(outcome).Inc()
	}
}
