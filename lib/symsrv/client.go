// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package symsrv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/symkeep/symkeep/lib/clock"
	"github.com/symkeep/symkeep/lib/netutil"
	"github.com/symkeep/symkeep/lib/version"
)

// apiPrefix roots every endpoint path under the versioned API.
const apiPrefix = "/api/0"

// Config holds configuration for creating a symbol server Client.
type Config struct {
	// BaseURL is the root URL of the symbol server, without the API
	// prefix (e.g. "https://symbols.example.com"). Required.
	BaseURL string

	// AuthToken is the bearer token for API requests. Required.
	AuthToken string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Clock provides time operations for retry backoff. Defaults to
	// clock.Real(). Inject clock.Fake in tests for deterministic
	// behavior.
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client is a typed symbol server API client with bearer
// authentication, one-shot rate limit backoff, and structured error
// handling.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient creates a symbol server client from the given
// configuration. Returns an error if the configuration is invalid.
func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("symsrv: BaseURL is required")
	}
	// Plain HTTP is allowed: on-premise servers commonly run behind
	// a trusted-network reverse proxy.
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("symsrv: BaseURL must be an http or https URL (got %q)", config.BaseURL)
	}
	if config.AuthToken == "" {
		return nil, fmt.Errorf("symsrv: AuthToken is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		authToken:  config.AuthToken,
		httpClient: httpClient,
		clock:      clk,
		logger:     logger,
	}, nil
}

// do executes an authenticated JSON API request. The path should be
// relative to the base URL and include the API prefix (use
// projectPath). Pass nil for no request body.
//
// Returns the response body as raw bytes. On non-2xx responses,
// returns an *APIError.
func (client *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	return client.doWithRetry(ctx, method, path, requestBody, false)
}

// doWithRetry is the internal implementation of do with a retry flag
// to prevent infinite recursion on persistent rate limiting.
func (client *Client) doWithRetry(ctx context.Context, method, path string, requestBody any, isRetry bool) ([]byte, error) {
	var bodyReader io.Reader
	contentType := ""
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("symsrv: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	response, err := client.doRaw(ctx, method, client.baseURL+path, bodyReader, contentType)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("symsrv: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		// Rate limited — attempt one retry after the indicated
		// backoff. Only retry once to avoid hammering a saturated
		// server.
		if !isRetry && response.StatusCode == http.StatusTooManyRequests {
			if wait := retryAfter(response.Header); wait > 0 {
				client.logger.Info("rate limited, backing off",
					"duration", wait,
					"method", method,
					"path", path,
				)

				select {
				case <-client.clock.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}

				return client.doWithRetry(ctx, method, path, requestBody, true)
			}
		}

		return nil, parseAPIErrorFromBody(response.StatusCode, body)
	}

	return body, nil
}

// doRaw executes an HTTP request with authentication but without
// response parsing or retry. The caller is responsible for closing the
// response body.
//
// This is used by both doWithRetry (with a replayable JSON body) and
// the bundle upload (which streams a multipart body).
func (client *Client) doRaw(ctx context.Context, method, requestURL string, body io.Reader, contentType string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("symsrv: creating request: %w", err)
	}

	request.Header.Set("Authorization", "Bearer "+client.authToken)
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", "symkeep/"+version.Short())
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("symsrv: %s %s: %w", method, requestURL, err)
	}
	return response, nil
}

// get is a convenience method for GET requests that return a JSON
// object. Decodes the response into result.
func (client *Client) get(ctx context.Context, path string, result any) error {
	body, err := client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

// post is a convenience method for POST requests. Decodes the response
// into result when result is non-nil.
func (client *Client) post(ctx context.Context, path string, requestBody any, result any) error {
	body, err := client.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}

// projectPath builds an API path under a project, escaping the org and
// project slugs.
func projectPath(format, org, project string) string {
	return apiPrefix + fmt.Sprintf(format, url.PathEscape(org), url.PathEscape(project))
}

// retryAfter computes the backoff duration from a rate-limited
// response's Retry-After header (seconds). Returns zero if the header
// is absent or unusable.
func retryAfter(header http.Header) time.Duration {
	retryStr := header.Get("Retry-After")
	if retryStr == "" {
		return 0
	}
	seconds, err := strconv.Atoi(retryStr)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
