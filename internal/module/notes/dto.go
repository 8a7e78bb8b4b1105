package notes

import "time"

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Transcript  string `json:"transcript"`
	Tone        string `json:"tone"`
	ContentType string `json:"contentType"`
}

// GenerateResponse is the success body of POST /api/generate.
type GenerateResponse struct {
	Success   bool   `json:"success"`
	Content   string `json:"content"`
	Usage     Usage  `json:"usage"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// QuotaResponse is the body of GET /api/quota.
type QuotaResponse struct {
	Allowed     bool       `json:"allowed"`
	Used        int        `json:"used"`
	Limit       int        `json:"limit"`
	Remaining   int        `json:"remaining"`
	Unlimited   bool       `json:"unlimited"`
	FirstUsedAt *time.Time `json:"first_used_at,omitempty"`
	PeriodMonth int        `json:"period_month"`
	PeriodYear  int        `json:"period_year"`
}

// TestResponse is the body of GET /api/test.
type TestResponse struct {
	Success          bool      `json:"success"`
	Message          string    `json:"message"`
	Timestamp        time.Time `json:"timestamp"`
	OpenAIConfigured bool      `json:"openai_configured"`
}
