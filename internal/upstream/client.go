// Package upstream is the client for the email-marketing platform's REST
// API: campaign listings, campaign messages, templates and performance
// reports. Responses are decoded loosely because the platform has shipped
// several incompatible schema revisions; shape reconciliation lives in the
// parse helpers next to each call.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campsight/internal/config"
	"campsight/internal/metrics"
)

// Client talks to the upstream platform API
type Client struct {
	baseURL    string
	apiKey     string
	revision   string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new upstream API client
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		revision: cfg.Revision,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// HasAPIKey reports whether an upstream API key is configured
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// FetchError is a non-2xx upstream response. Body holds the decoded JSON
// error document when the body parses, the raw text otherwise.
type FetchError struct {
	Status int
	Body   any
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

func newFetchError(status int, body []byte) *FetchError {
	var parsed any
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		return &FetchError{Status: status, Body: parsed}
	}
	return &FetchError{Status: status, Body: string(body)}
}

// do issues one request and decodes the JSON response. The resource label
// is only used for metrics and logging.
func (c *Client) do(ctx context.Context, resource, method, path string, query url.Values, body any) (any, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)
	req.Header.Set("revision", c.revision)
	req.Header.Set("Accept", "application/vnd.api+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.api+json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(resource, 0, time.Since(start))
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(resource, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("upstream request rejected",
			"resource", resource,
			"status", resp.StatusCode,
			"url", u,
		)
		return nil, newFetchError(resp.StatusCode, data)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	return doc, nil
}
