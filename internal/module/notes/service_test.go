package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/podnotes/server/internal/module/entitlement"
	"github.com/podnotes/server/internal/module/quota"
	apperrors "github.com/podnotes/server/internal/shared/errors"
)

type fakeGenerator struct {
	completion *Completion
	err        error
	calls      int
	lastPrompt Prompt
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt Prompt) (*Completion, error) {
	g.calls++
	g.lastPrompt = prompt
	if g.err != nil {
		return nil, g.err
	}
	return g.completion, nil
}

type stubRepo struct {
	records map[string]*entitlement.UsageRecord
}

func newStubRepo() *stubRepo {
	return &stubRepo{records: make(map[string]*entitlement.UsageRecord)}
}

func (r *stubRepo) Get(ctx context.Context, identity string) (*entitlement.UsageRecord, error) {
	record, ok := r.records[identity]
	if !ok {
		return nil, entitlement.ErrUsageNotFound
	}
	return record.Clone(), nil
}

func (r *stubRepo) Save(ctx context.Context, record *entitlement.UsageRecord) error {
	r.records[record.Identity] = record.Clone()
	return nil
}

func newTestService(gen Generator) (*Service, *quota.Gate) {
	store := entitlement.NewStore(newStubRepo(), nil, zap.NewNop(), nil)
	gate := quota.NewGate(store, 5, zap.NewNop(), nil)
	return NewService(gen, gate, zap.NewNop(), nil), gate
}

func validRequest() *GenerateRequest {
	return &GenerateRequest{
		Transcript:  "Welcome back to the show, today we talk about databases.",
		Tone:        "casual",
		ContentType: "show-notes",
	}
}

func TestServiceGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("success consumes quota", func(t *testing.T) {
		gen := &fakeGenerator{completion: &Completion{
			Content: "  # Show Notes\nGreat episode.  ",
			Usage:   Usage{TotalTokens: 321},
		}}
		svc, gate := newTestService(gen)

		resp, err := svc.Generate(ctx, "tok:abc", validRequest())

		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "# Show Notes\nGreat episode.", resp.Content)
		assert.Equal(t, 321, resp.Usage.TotalTokens)
		assert.Equal(t, 4, resp.Remaining)
		assert.Equal(t, 4, gate.Authorize(ctx, "tok:abc").Remaining)
	})

	t.Run("short transcript rejected before generation", func(t *testing.T) {
		gen := &fakeGenerator{}
		svc, _ := newTestService(gen)

		_, err := svc.Generate(ctx, "tok:abc", &GenerateRequest{Transcript: "   hi   "})

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("unknown content type rejected", func(t *testing.T) {
		svc, _ := newTestService(&fakeGenerator{})
		req := validRequest()
		req.ContentType = "newsletter"

		_, err := svc.Generate(ctx, "tok:abc", req)

		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	})

	t.Run("content type defaults to show notes", func(t *testing.T) {
		gen := &fakeGenerator{completion: &Completion{Content: "notes"}}
		svc, _ := newTestService(gen)
		req := validRequest()
		req.ContentType = ""

		_, err := svc.Generate(ctx, "tok:abc", req)

		require.NoError(t, err)
		assert.Contains(t, gen.lastPrompt.System, "podcast show notes writer")
	})

	t.Run("denied after limit, generator never called", func(t *testing.T) {
		gen := &fakeGenerator{completion: &Completion{Content: "notes"}}
		svc, _ := newTestService(gen)

		for i := 0; i < 5; i++ {
			_, err := svc.Generate(ctx, "tok:abc", validRequest())
			require.NoError(t, err)
		}

		_, err := svc.Generate(ctx, "tok:abc", validRequest())

		assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
		assert.Equal(t, 5, gen.calls)
	})

	t.Run("generation failure does not consume quota", func(t *testing.T) {
		gen := &fakeGenerator{err: apperrors.UpstreamFailure("", errors.New("boom"))}
		svc, gate := newTestService(gen)

		_, err := svc.Generate(ctx, "tok:abc", validRequest())

		require.Error(t, err)
		assert.Equal(t, 5, gate.Authorize(ctx, "tok:abc").Remaining)
	})
}

func TestServiceQuota(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{completion: &Completion{Content: "notes"}}
	svc, _ := newTestService(gen)

	_, err := svc.Generate(ctx, "tok:abc", validRequest())
	require.NoError(t, err)

	q := svc.Quota(ctx, "tok:abc")

	assert.Equal(t, 1, q.Used)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 4, q.Remaining)
	assert.False(t, q.Unlimited)
	assert.NotNil(t, q.FirstUsedAt)
}
