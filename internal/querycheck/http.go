package querycheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPClient wraps http.Client and tags every request with an id.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// StatusError is a non-200 response from the service.
type StatusError struct {
	Status int
	Body   ErrorResponse
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s: %s", e.Status, e.Body.Code, e.Body.Message)
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(config *Config) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: config.BaseURL,
	}
}

// Get performs a GET request against path with the given query string.
func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values, requestID string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	return c.client.Do(req)
}

// GetJSON performs a GET request and decodes a 200 body into v. Any other
// status is returned as a *StatusError.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, query url.Values, requestID string, v any) error {
	resp, err := c.Get(ctx, path, query, requestID)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Status: resp.StatusCode}
		_ = json.Unmarshal(body, &se.Body)
		return se
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
