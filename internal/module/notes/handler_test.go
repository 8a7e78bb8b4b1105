package notes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podnotes/server/internal/shared/middleware"
)

func newTestRouter(t *testing.T, gen Generator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, _ := newTestService(gen)
	handler := NewHandler(svc, true)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.IdentityKey, "tok:test")
		c.Next()
	})
	handler.RegisterRoutes(r.Group("/api"))
	return r
}

func postGenerate(t *testing.T, r *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerGenerate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		gen := &fakeGenerator{completion: &Completion{
			Content: "# Show Notes",
			Usage:   Usage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
		}}
		r := newTestRouter(t, gen)

		w := postGenerate(t, r, validRequest())

		require.Equal(t, http.StatusOK, w.Code)
		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "# Show Notes", resp.Content)
		assert.Equal(t, 300, resp.Usage.TotalTokens)
		assert.Equal(t, 4, resp.Remaining)
	})

	t.Run("short transcript", func(t *testing.T) {
		r := newTestRouter(t, &fakeGenerator{})

		w := postGenerate(t, r, GenerateRequest{Transcript: "short"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := newTestRouter(t, &fakeGenerator{})

		req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("free limit exhausted", func(t *testing.T) {
		gen := &fakeGenerator{completion: &Completion{Content: "notes"}}
		r := newTestRouter(t, gen)

		for i := 0; i < 5; i++ {
			require.Equal(t, http.StatusOK, postGenerate(t, r, validRequest()).Code)
		}

		w := postGenerate(t, r, validRequest())

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "FREE_LIMIT_EXCEEDED", body["error"])
		assert.Equal(t, float64(0), body["remaining"])
	})
}

func TestHandlerQuota(t *testing.T) {
	gen := &fakeGenerator{completion: &Completion{Content: "notes"}}
	r := newTestRouter(t, gen)

	postGenerate(t, r, validRequest())
	postGenerate(t, r, validRequest())

	req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var q QuotaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, 2, q.Used)
	assert.Equal(t, 3, q.Remaining)
	assert.Equal(t, 5, q.Limit)
}

func TestHandlerTest(t *testing.T) {
	r := newTestRouter(t, &fakeGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.OpenAIConfigured)
}
