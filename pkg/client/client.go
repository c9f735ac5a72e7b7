// Package client is the Go client for the cookie jar daemon's JSON-RPC
// boundary. CLI and UI surfaces use it instead of speaking HTTP
// directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
	"github.com/cookiejar-app/cookiejar/internal/gateway"
	"github.com/cookiejar-app/cookiejar/internal/stats"
	"github.com/cookiejar-app/cookiejar/internal/transport"
)

// Client is the daemon API client.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	nextID     atomic.Int64
}

// New creates a new API client. clientID identifies this surface so the
// daemon's change feed skips echoing its own mutations back.
func New(baseURL, clientID string) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListCookies fetches the normalized cookie collection.
func (c *Client) ListCookies(ctx context.Context) ([]cookie.Cookie, error) {
	var cookies []cookie.Cookie
	if err := c.call(ctx, "cookies.list", nil, &cookies); err != nil {
		return nil, fmt.Errorf("client.ListCookies: %w", err)
	}
	return cookies, nil
}

// CreateCookie records a new cookie from loosely typed input.
func (c *Client) CreateCookie(ctx context.Context, input map[string]any) (*cookie.Cookie, error) {
	var created cookie.Cookie
	if err := c.call(ctx, "cookies.create", input, &created); err != nil {
		return nil, fmt.Errorf("client.CreateCookie: %w", err)
	}
	return &created, nil
}

// UpdateCookie merges fields into an existing cookie. It reports false
// when no cookie matched the input's id.
func (c *Client) UpdateCookie(ctx context.Context, input map[string]any) (bool, error) {
	var updated bool
	if err := c.call(ctx, "cookies.update", input, &updated); err != nil {
		return false, fmt.Errorf("client.UpdateCookie: %w", err)
	}
	return updated, nil
}

// DeleteCookie removes a cookie, returning the removed record or nil.
func (c *Client) DeleteCookie(ctx context.Context, id string) (*cookie.Cookie, error) {
	var removed *cookie.Cookie
	if err := c.call(ctx, "cookies.delete", map[string]any{"id": id}, &removed); err != nil {
		return nil, fmt.Errorf("client.DeleteCookie: %w", err)
	}
	return removed, nil
}

// ListProjects fetches all projects.
func (c *Client) ListProjects(ctx context.Context) ([]project.Project, error) {
	var projects []project.Project
	if err := c.call(ctx, "projects.list", nil, &projects); err != nil {
		return nil, fmt.Errorf("client.ListProjects: %w", err)
	}
	return projects, nil
}

// CreateProject creates a project with the given name and tags.
func (c *Client) CreateProject(ctx context.Context, name string, tags []string) (transport.OpResult, error) {
	var res transport.OpResult
	req := project.CreateRequest{Name: name, Tags: tags}
	if err := c.call(ctx, "projects.create", req, &res); err != nil {
		return transport.OpResult{}, fmt.Errorf("client.CreateProject: %w", err)
	}
	return res, nil
}

// UpdateProject renames or retags a project.
func (c *Client) UpdateProject(ctx context.Context, req project.UpdateRequest) (transport.OpResult, error) {
	var res transport.OpResult
	if err := c.call(ctx, "projects.update", req, &res); err != nil {
		return transport.OpResult{}, fmt.Errorf("client.UpdateProject: %w", err)
	}
	return res, nil
}

// SetProjectStatus activates or archives a project.
func (c *Client) SetProjectStatus(ctx context.Context, id, status string) (bool, error) {
	var ok bool
	params := map[string]any{"id": id, "status": status}
	if err := c.call(ctx, "projects.setStatus", params, &ok); err != nil {
		return false, fmt.Errorf("client.SetProjectStatus: %w", err)
	}
	return ok, nil
}

// DeleteProject removes a project and its cookies. It reports whether
// the project existed.
func (c *Client) DeleteProject(ctx context.Context, id string) (bool, error) {
	var existed bool
	if err := c.call(ctx, "projects.delete", map[string]any{"id": id}, &existed); err != nil {
		return false, fmt.Errorf("client.DeleteProject: %w", err)
	}
	return existed, nil
}

// Import replaces collections from an exported snapshot payload.
func (c *Client) Import(ctx context.Context, payload json.RawMessage) (transport.OpResult, error) {
	var res transport.OpResult
	if err := c.call(ctx, "data.import", payload, &res); err != nil {
		return transport.OpResult{}, fmt.Errorf("client.Import: %w", err)
	}
	return res, nil
}

// Export snapshots the full jar.
func (c *Client) Export(ctx context.Context) (gateway.Snapshot, error) {
	var snapshot gateway.Snapshot
	if err := c.call(ctx, "data.export", nil, &snapshot); err != nil {
		return gateway.Snapshot{}, fmt.Errorf("client.Export: %w", err)
	}
	return snapshot, nil
}

// Overview fetches totals, per-project aggregates and the heatmap.
func (c *Client) Overview(ctx context.Context) (transport.Overview, error) {
	var overview transport.Overview
	if err := c.call(ctx, "stats.overview", nil, &overview); err != nil {
		return transport.Overview{}, fmt.Errorf("client.Overview: %w", err)
	}
	return overview, nil
}

// DailySummary fetches today's activity summary.
func (c *Client) DailySummary(ctx context.Context) (stats.DailySummary, error) {
	var summary stats.DailySummary
	if err := c.call(ctx, "stats.daily", nil, &summary); err != nil {
		return stats.DailySummary{}, fmt.Errorf("client.DailySummary: %w", err)
	}
	return summary, nil
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	var rawParams json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encoding params: %w", err)
		}
		rawParams = encoded
	}

	body, err := json.Marshal(transport.Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  rawParams,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var envelope struct {
		Result json.RawMessage  `json:"result"`
		Error  *transport.Error `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if envelope.Error != nil {
		return &RPCError{
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Data:    envelope.Error.Data,
		}
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}
