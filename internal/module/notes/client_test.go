package notes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/podnotes/server/internal/shared/config"
	apperrors "github.com/podnotes/server/internal/shared/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenAIClient(&config.OpenAIConfig{
		APIKey:      "sk-test",
		BaseURL:     server.URL,
		Model:       "gpt-3.5-turbo",
		MaxTokens:   2000,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	}, zap.NewNop())
}

func TestOpenAIClientGenerate(t *testing.T) {
	ctx := context.Background()
	prompt := Prompt{System: "system", User: "user"}

	t.Run("success", func(t *testing.T) {
		var gotBody map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			json.NewEncoder(w).Encode(map[string]any{
				"model": "gpt-3.5-turbo",
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": "# Notes"}},
				},
				"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
			})
		})

		completion, err := client.Generate(ctx, prompt)

		require.NoError(t, err)
		assert.Equal(t, "# Notes", completion.Content)
		assert.Equal(t, 30, completion.Usage.TotalTokens)
		assert.Equal(t, "gpt-3.5-turbo", gotBody["model"])
		assert.Equal(t, 0.7, gotBody["temperature"])
		assert.Len(t, gotBody["messages"], 2)
	})

	t.Run("unauthorized maps to configuration error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "invalid key", "code": "invalid_api_key"},
			})
		})

		_, err := client.Generate(ctx, prompt)

		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("rate limited", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "rate limit", "code": "rate_limit_exceeded"},
			})
		})

		_, err := client.Generate(ctx, prompt)

		assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	})

	t.Run("empty choices", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		})

		_, err := client.Generate(ctx, prompt)

		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		for i := 0; i < 5; i++ {
			_, err := client.Generate(ctx, prompt)
			require.Error(t, err)
		}

		_, err := client.Generate(ctx, prompt)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})
}
