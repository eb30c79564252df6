package assistant

//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../../../mocks/mock_assistant.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("application assistant is not configured")

const (
	DefaultURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel = "openai/gpt-3.5-turbo"

	defaultTimeout = 30 * time.Second
)

// Generator drafts the application fields for a job from a resume.
type Generator interface {
	GenerateApplication(ctx context.Context, resume, jobTitle string) (string, error)
}

// Config selects the chat completions endpoint.
type Config struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completions API.
type Client struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		url:        lo.CoalesceOrEmpty(cfg.URL, DefaultURL),
		apiKey:     cfg.APIKey,
		model:      lo.CoalesceOrEmpty(cfg.Model, DefaultModel),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

const promptFormat = `Here is my resume: %s
I want to apply for the position "%s".
Answer strictly in this form:
1. Experience level (exactly one of: Student, Entry level, Experienced (non-manager), Manager, Unemployed and looking for work)
2. Open contract types (any of: Permanent, Fixed-term, Full-time, Part-time, Freelance, Temporary, Seasonal, Internship)
3. Suggested job title
4. Field (one of: IT, Marketing, Sales)
5. Minimum expected salary
6. Current search status (for example: looking for a permanent contract)`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) GenerateApplication(ctx context.Context, resume, jobTitle string) (suggestion string, err error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	start := time.Now()
	defer func() {
		metrics.ExternalCallDuration.WithLabelValues("assistant", lo.Ternary(err == nil, "ok", "error")).
			Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: fmt.Sprintf(promptFormat, resume, jobTitle)}},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant unavailable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("assistant returned no completion")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
