// Package nexthire provides a client for the NextHire HTTP and realtime API.
package nexthire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// ErrNotLoggedIn is returned by authenticated calls made without a token.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nexthire error %d: %s", e.Status, e.Message)
}

// Client is a NextHire API client.
type Client struct {
	BaseURL    string
	ConfigDir  string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a client and loads a saved token, if any.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	configDir := os.Getenv("NEXTHIRE_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".nexthire")
	}

	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	_ = c.LoadToken()
	return c
}

// LoadToken reads the saved token from disk.
func (c *Client) LoadToken() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "token"))
	if err != nil {
		return err
	}
	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken writes the current token to disk.
func (c *Client) SaveToken() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.ConfigDir, "token"), []byte(c.Token), 0600)
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if c.Token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		if errResp.Message == "" {
			errResp.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errResp.Message}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Login signs in and saves the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	req := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", req, &resp, false); err != nil {
		return nil, err
	}
	c.Token = resp.Token
	if err := c.SaveToken(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListJobs returns job offers matching query.
func (c *Client) ListJobs(ctx context.Context, query string) ([]models.JobSummary, error) {
	path := "/jobs"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var jobs []models.JobSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &jobs, false); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ApplyRequest is the body of an application.
type ApplyRequest struct {
	JobID    string `json:"job_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// Apply submits an application to a job.
func (c *Client) Apply(ctx context.Context, req ApplyRequest) (*models.Application, error) {
	var app models.Application
	if err := c.do(ctx, http.MethodPost, "/apply-job", req, &app, true); err != nil {
		return nil, err
	}
	return &app, nil
}

// SendMessage sends a chat message to another user.
func (c *Client) SendMessage(ctx context.Context, to, text string) (*models.Message, error) {
	var msg models.Message
	req := map[string]string{"to": to, "text": text}
	if err := c.do(ctx, http.MethodPost, "/api/messages/send", req, &msg, true); err != nil {
		return nil, err
	}
	return &msg, nil
}

// History returns the conversation between two users, oldest first.
func (c *Client) History(ctx context.Context, userA, userB string) ([]models.Message, error) {
	var msgs []models.Message
	path := fmt.Sprintf("/api/messages/history/%s/%s", userA, userB)
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs, true); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Notifications returns the signed-in user's notifications.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health. A degraded server still returns its report.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp, false)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
		return &HealthResponse{Status: "degraded"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Event is a realtime envelope received from the server.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Listen opens the realtime channel and calls onEvent for every event until
// ctx is cancelled or the connection drops. Heartbeat pings are answered.
func (c *Client) Listen(ctx context.Context, onEvent func(Event)) error {
	if c.Token == "" {
		return ErrNotLoggedIn
	}
	wsURL := "ws" + strings.TrimPrefix(c.BaseURL, "http") + "/ws"
	header := http.Header{"Authorization": {"Bearer " + c.Token}}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if ev.Event == "ping" {
			if err := conn.WriteJSON(Event{Event: "pong"}); err != nil {
				return err
			}
			continue
		}
		onEvent(ev)
	}
}
