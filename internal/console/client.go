// Package console implements the HTTP client for the management backend
// ("console API"): the authoritative command record store plus the agent
// directory. It uses a direct HTTP client rather than a generated SDK to
// keep the dependency tree light.
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"benlowery/agentctl/internal/config"
	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/retry"
	"benlowery/agentctl/internal/services/auth"
)

const (
	requestTimeout = 30 * time.Second
	apiPrefix      = "/api/v1"
)

// Compile-time check that Client satisfies the full console surface.
var _ domain.Console = (*Client)(nil)

// Client talks to the console API with a Bearer token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a Client for the console at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Connect builds a client from the saved configuration and the keyring
// token. This is what the CLI commands call; tests substitute a fake
// [domain.Console] instead.
func Connect(store auth.Store) (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("console: api-url not configured (run 'agentctl config set api-url <url>')")
	}

	token, err := store.GetToken(auth.DefaultProfile)
	if err != nil {
		return nil, fmt.Errorf("console auth: token not found (run 'agentctl auth login'): %w", err)
	}

	return New(cfg.APIURL, token), nil
}

// --- API wire types ---

// apiError is the console API error body.
type apiError struct {
	Error string `json:"error"`
}

// wireCommand is the command record as the API serializes it. Status
// spellings vary by producer and are normalized in toDomain; execution
// duration travels as milliseconds.
type wireCommand struct {
	ID          string     `json:"id"`
	AgentID     string     `json:"agent_id"`
	IssuedBy    string     `json:"issued_by"`
	Type        string     `json:"type"`
	Params      string     `json:"params"`
	Status      string     `json:"status"`
	Result      string     `json:"result"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  int64      `json:"duration_ms,omitempty"`
}

// toDomain converts a wire command to the domain model, collapsing legacy
// status spellings into the canonical set.
func (w *wireCommand) toDomain() *domain.Command {
	return &domain.Command{
		ID:          w.ID,
		AgentID:     w.AgentID,
		IssuedBy:    w.IssuedBy,
		Type:        w.Type,
		Params:      w.Params,
		Status:      domain.NormalizeStatus(w.Status),
		Result:      w.Result,
		CreatedAt:   w.CreatedAt,
		SentAt:      w.SentAt,
		CompletedAt: w.CompletedAt,
		Duration:    time.Duration(w.DurationMs) * time.Millisecond,
	}
}

// --- HTTP helpers ---

// statusError maps an HTTP error status and response body to a domain
// sentinel where one applies.
func statusError(httpStatus int, body apiError) error {
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(httpStatus)
	}

	switch httpStatus {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, msg)
	}

	return fmt.Errorf("console: %s (HTTP %d)", msg, httpStatus)
}

// doJSON performs a request and decodes the response into out. Non-2xx
// responses are mapped to domain sentinels via statusError.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("console: failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, bodyReader)
	if err != nil {
		return fmt.Errorf("console: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("console: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody apiError
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return statusError(resp.StatusCode, errBody)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("console: failed to decode response: %w", err)
	}
	return nil
}

// --- CommandStore ---

// CreateCommand dispatches a new command. Failures propagate synchronously
// and are never retried: command creation is not idempotent.
func (c *Client) CreateCommand(ctx context.Context, req domain.CreateCommand) (*domain.Command, error) {
	var out wireCommand
	if err := c.doJSON(ctx, http.MethodPost, "/commands", req, &out); err != nil {
		return nil, fmt.Errorf("failed to create command: %w", err)
	}
	return out.toDomain(), nil
}

// GetCommand fetches the current record for a command ID.
func (c *Client) GetCommand(ctx context.Context, id string) (*domain.Command, error) {
	if id == "" {
		return nil, fmt.Errorf("console: empty command id")
	}
	var out wireCommand
	if err := c.doJSON(ctx, http.MethodGet, "/commands/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch command %s: %w", id, err)
	}
	return out.toDomain(), nil
}

// --- AgentDirectory ---

// ListAgents returns all registered agents. The directory read is
// idempotent, so transient network failures are retried with backoff.
func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	var agents []domain.Agent
	err := retry.Do(ctx, retry.DefaultConfig(), retry.IsRetryable, func() error {
		agents = nil
		return c.doJSON(ctx, http.MethodGet, "/agents", nil, &agents)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

// GetAgent fetches a single agent by ID.
func (c *Client) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	if id == "" {
		return nil, fmt.Errorf("console: empty agent id")
	}
	var agent domain.Agent
	if err := c.doJSON(ctx, http.MethodGet, "/agents/"+url.PathEscape(id), nil, &agent); err != nil {
		return nil, fmt.Errorf("failed to fetch agent %s: %w", id, err)
	}
	return &agent, nil
}
