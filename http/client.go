// Package http is the retrying JSON client used by the speech gateway
// provider, the Jira board and the Slack and webhook notifiers.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Defaults applied by NewClient.
const (
	DefaultTimeout    = 20 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryWait  = 250 * time.Millisecond
)

// Client sends JSON requests to a single service, retrying transient failures
// with exponential backoff.
type Client struct {
	client      *http.Client
	baseURL     string
	serviceName string
	maxRetries  int
	retryWait   time.Duration

	// authorize runs before each attempt so short-lived credentials are
	// minted per request.
	authorize func(req *http.Request) error
}

// ClientConfig holds configuration for Client.
type ClientConfig struct {
	Client      *http.Client
	BaseURL     string
	ServiceName string
	MaxRetries  int
	RetryWait   time.Duration
	Authorize   func(req *http.Request) error
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		client:      cfg.Client,
		baseURL:     cfg.BaseURL,
		serviceName: cfg.ServiceName,
		maxRetries:  cfg.MaxRetries,
		retryWait:   cfg.RetryWait,
		authorize:   cfg.Authorize,
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.retryWait <= 0 {
		c.retryWait = DefaultRetryWait
	}
	if c.serviceName == "" {
		c.serviceName = "service"
	}

	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends a request with a JSON body and returns the raw response. Retries
// cover network errors, 429 and 5xx. The caller closes the body.
func (c *Client) Do(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = data
	}
	if accept == "" {
		accept = "application/json"
	}

	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", accept)

		if c.authorize != nil {
			if err := c.authorize(req); err != nil {
				return nil, &AuthError{Service: c.serviceName, Reason: err.Error()}
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s request failed: %w", c.serviceName, err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.maxRetries-1 {
				if err := c.sleep(ctx, c.retryWait*time.Duration(1<<attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if retryableStatus(resp.StatusCode) && attempt < c.maxRetries-1 {
			wait := c.retryAfter(resp, attempt)
			resp.Body.Close()
			lastErr = &APIError{Service: c.serviceName, StatusCode: resp.StatusCode, Endpoint: path}
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// PostJSON posts body and decodes a JSON response into result.
func (c *Client) PostJSON(ctx context.Context, path string, body, result any) error {
	resp, err := c.Do(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp, path)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", c.serviceName, err)
	}
	return nil
}

// PostRaw posts body and returns the raw response bytes with their content
// type. Used for binary payloads such as synthesized audio.
func (c *Client) PostRaw(ctx context.Context, path string, body any, accept string) ([]byte, string, error) {
	resp, err := c.Do(ctx, http.MethodPost, path, body, accept)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", c.parseError(resp, path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s response: %w", c.serviceName, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// GetJSON performs a GET request and decodes the JSON response into result.
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", c.serviceName, err)
	}
	return nil
}

// GetRaw performs a GET request and returns the raw response body.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp, path)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) parseError(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{
		Service:    c.serviceName,
		StatusCode: resp.StatusCode,
		Endpoint:   path,
		RequestID:  resp.Header.Get("X-Request-Id"),
	}

	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Message != "" {
			apiErr.Message = errResp.Message
		} else if errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

func (c *Client) retryAfter(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return c.retryWait * time.Duration(1<<attempt)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
