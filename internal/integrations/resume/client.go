package resume

//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../../../mocks/mock_resume.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// ErrNotConfigured is returned when no parser URL is set.
var ErrNotConfigured = errors.New("resume parser is not configured")

const defaultTimeout = 30 * time.Second

// Parsed is the structured data extracted from a resume.
type Parsed struct {
	Skills     []string            `json:"skills"`
	Languages  []string            `json:"languages"`
	Phone      string              `json:"phone"`
	Experience []models.Experience `json:"experience"`
}

// Parser extracts structured data from a resume file.
type Parser interface {
	Parse(ctx context.Context, filename string, content []byte) (*Parsed, error)
}

// Client calls the external resume parsing service.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) Parse(ctx context.Context, filename string, content []byte) (parsed *Parsed, err error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	start := time.Now()
	defer func() {
		metrics.ExternalCallDuration.WithLabelValues("resume_parser", lo.Ternary(err == nil, "ok", "error")).
			Observe(time.Since(start).Seconds())
	}()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resume parser unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("resume parser returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	parsed = &Parsed{}
	if err := json.NewDecoder(resp.Body).Decode(parsed); err != nil {
		return nil, fmt.Errorf("decode resume parser response: %w", err)
	}
	parsed.Skills = lo.Uniq(lo.Compact(parsed.Skills))
	parsed.Languages = lo.Uniq(lo.Compact(parsed.Languages))
	return parsed, nil
}

// MergeInto copies parsed fields into profile. Existing skills and languages
// are kept and deduplicated; phone and experience are only filled when empty.
func (p *Parsed) MergeInto(profile *models.Profile) {
	profile.Skills = lo.Uniq(append(profile.Skills, p.Skills...))
	profile.Languages = lo.Uniq(append(profile.Languages, p.Languages...))
	if profile.Phone == "" {
		profile.Phone = p.Phone
	}
	if len(profile.Experience) == 0 {
		profile.Experience = p.Experience
	}
}
