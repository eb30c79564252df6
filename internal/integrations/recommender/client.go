package recommender

//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../../../mocks/mock_recommender.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
)

// ErrNotConfigured is returned when no recommender URL is set.
var ErrNotConfigured = errors.New("recommendation service is not configured")

const (
	defaultTimeout = 10 * time.Second
	// DefaultTopK is the number of jobs requested per candidate.
	DefaultTopK = 5
)

// Recommendation is a job suggested for a candidate.
type Recommendation struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	Salary       float64    `json:"salary"`
	Skills       []string   `json:"skills"`
	Languages    []string   `json:"languages"`
	EnterpriseID string     `json:"enterprise_id,omitempty"`
	MatchScore   float64    `json:"match_score"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// wireRecommendation accepts the field names the service emits.
type wireRecommendation struct {
	ID           string     `json:"id"`
	LegacyID     string     `json:"_id"`
	JobID        string     `json:"job_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	Salary       float64    `json:"salary"`
	Skills       []string   `json:"skills"`
	Languages    []string   `json:"languages"`
	EnterpriseID string     `json:"entrepriseId"`
	MatchScore   float64    `json:"match_score"`
	CreatedAt    *time.Time `json:"createdAt"`
}

// Recommender returns ranked jobs for a candidate.
type Recommender interface {
	Recommend(ctx context.Context, candidateID string, topK int) ([]Recommendation, error)
}

// Client calls the external recommendation service.
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

func (c *Client) Recommend(ctx context.Context, candidateID string, topK int) (recs []Recommendation, err error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	start := time.Now()
	defer func() {
		metrics.ExternalCallDuration.WithLabelValues("recommender", lo.Ternary(err == nil, "ok", "error")).
			Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(map[string]any{"candidate_id": candidateID, "top_k": topK})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommendation service unavailable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommendation service returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	items, err := decodeRecommendations(raw)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(w wireRecommendation, _ int) Recommendation {
		return Recommendation{
			ID:           lo.CoalesceOrEmpty(w.ID, w.JobID, w.LegacyID),
			Title:        w.Title,
			Description:  w.Description,
			Location:     w.Location,
			Salary:       w.Salary,
			Skills:       lo.Ternary(w.Skills == nil, []string{}, w.Skills),
			Languages:    lo.Ternary(w.Languages == nil, []string{}, w.Languages),
			EnterpriseID: w.EnterpriseID,
			MatchScore:   w.MatchScore,
			CreatedAt:    w.CreatedAt,
		}
	}), nil
}

// decodeRecommendations accepts {"recommendations": [...]} or a bare array.
func decodeRecommendations(raw []byte) ([]wireRecommendation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []wireRecommendation
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Recommendations []wireRecommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	if wrapped.Recommendations == nil {
		return nil, errors.New("invalid recommendations format received")
	}
	return wrapped.Recommendations, nil
}
