package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/podnotes/server/internal/shared/config"
	apperrors "github.com/podnotes/server/internal/shared/errors"
)

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the result of one generation call.
type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

// Generator produces content from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (*Completion, error)
}

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient calls the chat completions API. A circuit breaker shields
// the server from a flapping upstream; while open, calls fail fast.
type OpenAIClient struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*Completion]
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// NewOpenAIClient creates a chat completions client from configuration.
func NewOpenAIClient(cfg *config.OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*Completion](gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("generation breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OpenAIClient{
		client:      &http.Client{Timeout: timeout},
		breaker:     breaker,
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate performs a non-streaming chat completion.
func (c *OpenAIClient) Generate(ctx context.Context, prompt Prompt) (*Completion, error) {
	completion, err := c.breaker.Execute(func() (*Completion, error) {
		return c.doChat(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.UpstreamFailure("generation service unavailable", apperrors.ErrUpstream)
		}
		return nil, err
	}
	return completion, nil
}

func (c *OpenAIClient) doChat(ctx context.Context, prompt Prompt) (*Completion, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		body["max_tokens"] = c.maxTokens
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.UpstreamFailure("generation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.apiError(resp)
	}

	var chatResp struct {
		Model   string `json:"model"`
		Choices []struct {
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		} `json:"choices"`
		Usage Usage `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, apperrors.UpstreamFailure("decode response", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return nil, apperrors.UpstreamFailure("", ErrEmptyCompletion)
	}

	return &Completion{
		Content: chatResp.Choices[0].Message.Content,
		Model:   chatResp.Model,
		Usage:   chatResp.Usage,
	}, nil
}

// apiError maps an API error response to an application error.
func (c *OpenAIClient) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &apiErr)

	c.logger.Error("generation API error",
		zap.Int("status", resp.StatusCode),
		zap.String("code", apiErr.Error.Code),
		zap.String("message", apiErr.Error.Message),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.UpstreamFailure("generation API configuration error", apperrors.ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests, apiErr.Error.Code == "insufficient_quota":
		return apperrors.UpstreamFailure("generation API rate limited, try again later", apperrors.ErrRateLimited)
	default:
		return apperrors.UpstreamFailure(fmt.Sprintf("generation API error (status %d)", resp.StatusCode), apperrors.ErrUpstream)
	}
}
