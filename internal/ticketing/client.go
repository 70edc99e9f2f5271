// Package ticketing talks to the incident ticketing backend.
//
// The backend exposes a table API: a filtered GET returns matching records,
// and a PATCH against a per-record endpoint updates state and optionally
// attaches a comment. Both operations use the same basic-auth credentials.
package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/config"
)

// Client queries and updates incident records.
type Client struct {
	cfg    config.TicketingConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a ticketing client.
func NewClient(cfg config.TicketingConfig, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("ticketing URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.RequestTimeout.Duration(),
		},
		logger: logger,
	}, nil
}

// FetchLatestIncident returns the most recent incident filed by the
// configured reporter, or nil when the backend has no matching records.
//
// A nil incident is a normal outcome, not an error: the reporter simply has
// no incidents yet.
func (c *Client) FetchLatestIncident(ctx context.Context) (*Incident, error) {
	c.logger.Info("checking ticketing backend for incidents",
		zap.String("reporter", c.cfg.Reporter))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}

	q := url.Values{}
	q.Set("sysparm_query", fmt.Sprintf("caller_id.name=%s^ORDERBYDESCsys_created_on", c.cfg.Reporter))
	q.Set("sysparm_limit", "1")
	req.URL.RawQuery = q.Encode()

	c.prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "query", Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("ticketing query response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendError{Op: "query", StatusCode: resp.StatusCode}
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	if len(body.Result) == 0 {
		return nil, nil
	}
	return &body.Result[0], nil
}

// UpdateState patches the given record to a new state, optionally attaching
// a comment.
func (c *Client) UpdateState(ctx context.Context, id, state, comment string) error {
	c.logger.Info("updating incident state",
		zap.String("incident_id", id),
		zap.String("state", state))

	payload, err := json.Marshal(updateRequest{State: state, Comments: comment})
	if err != nil {
		return fmt.Errorf("failed to encode update request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/%s", c.cfg.URL, id), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build update request: %w", err)
	}
	c.prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "update", Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("ticketing update response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &BackendError{Op: "update", StatusCode: resp.StatusCode}
	}
	return nil
}

// prepare sets the headers and credentials common to all backend calls.
func (c *Client) prepare(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password.Value())
}
