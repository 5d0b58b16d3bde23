package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/models"
	"github.com/romanpilnik/fitlog/internal/training"
)

// HTTPClient implements DataSource by calling the fitlog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server. The bearer token identifies the user,
// so the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) GetActiveProgram(ctx context.Context, _ uuid.UUID) (*models.Program, error) {
	var p models.Program
	if err := c.get(ctx, "/api/v1/programs/active", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetNextWorkout(ctx context.Context, _ uuid.UUID) (*training.NextWorkout, error) {
	var nw training.NextWorkout
	if err := c.get(ctx, "/api/v1/programs/active/next", nil, &nw); err != nil {
		return nil, err
	}
	return &nw, nil
}

func (c *HTTPClient) GetExerciseStats(ctx context.Context, _, exerciseID uuid.UUID) (*training.ExerciseStats, error) {
	var st training.ExerciseStats
	if err := c.get(ctx, "/api/v1/ledger/"+exerciseID.String(), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) ListExerciseStats(ctx context.Context, _ uuid.UUID) ([]training.ExerciseStats, error) {
	var stats []training.ExerciseStats
	if err := c.get(ctx, "/api/v1/ledger", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, _ uuid.UUID, limit int) ([]models.Session, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var sessions []models.Session
	if err := c.get(ctx, "/api/v1/sessions", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	if err := c.get(ctx, "/api/v1/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}
