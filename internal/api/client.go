package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const clientTimeout = 10 * time.Second

// Client calls a running daemon's admin API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given address. A bare host:port gets an
// http scheme, matching how the bind address appears in the config file.
func NewClient(address string) *Client {
	address = strings.TrimSpace(address)
	if address != "" && !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return &Client{
		baseURL: strings.TrimRight(address, "/"),
		http:    &http.Client{Timeout: clientTimeout},
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	err := c.get(ctx, "/api/status", &resp)
	return resp, err
}

// Jobs fetches the queue snapshot.
func (c *Client) Jobs(ctx context.Context) (JobsResponse, error) {
	var resp JobsResponse
	err := c.get(ctx, "/api/jobs", &resp)
	return resp, err
}

// Usage fetches delivery totals for the past days.
func (c *Client) Usage(ctx context.Context, days int) (UsageResponse, error) {
	path := "/api/usage"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	var resp UsageResponse
	err := c.get(ctx, path, &resp)
	return resp, err
}

// Scratch fetches the scratch area listing.
func (c *Client) Scratch(ctx context.Context) (ScratchResponse, error) {
	var resp ScratchResponse
	err := c.get(ctx, "/api/scratch", &resp)
	return resp, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("daemon API address not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call daemon API: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, 4<<20)
	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if json.NewDecoder(body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon API %s: %s", path, apiErr.Error)
		}
		return fmt.Errorf("daemon API %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode daemon API response: %w", err)
	}
	return nil
}
