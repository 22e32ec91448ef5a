package polar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
)

const maxErrorBody = 64 << 10

// Client is a Polar API client. It is safe for concurrent use.
type Client struct {
	baseURL        string
	token          string
	organizationID string
	httpClient     *http.Client
	breaker        *Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithBreaker guards every request with b.
func WithBreaker(b *Breaker) Option {
	return func(cl *Client) { cl.breaker = b }
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, ErrMissingToken
	}

	var baseURL string
	switch strings.ToLower(cfg.Server) {
	case ServerProduction, "":
		baseURL = productionURL
	case ServerSandbox:
		baseURL = sandboxURL
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidServer, cfg.Server)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	if cfg.HTTPTimeout > 0 {
		httpClient.Timeout = cfg.HTTPTimeout
	}

	c := &Client{
		baseURL:        baseURL,
		token:          token,
		organizationID: cfg.OrganizationID,
		httpClient:     httpClient,
	}
	if cfg.BreakerThreshold > 0 {
		c.breaker = NewBreaker(cfg.BreakerThreshold, 1, cfg.BreakerCooldown)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends a request and decodes a JSON response into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("polar: failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("polar: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.breaker != nil && !c.breaker.allow() {
		return ErrCircuitOpen
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		// caller cancellation is not an upstream failure
		if ctx.Err() == nil {
			c.record(false)
		}
		return errors.Join(ErrRequestFailed, err)
	}
	defer res.Body.Close()

	c.record(res.StatusCode < http.StatusInternalServerError && res.StatusCode != http.StatusTooManyRequests)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeAPIError(res)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Join(ErrDecodeFailed, err)
	}
	return nil
}

func (c *Client) record(ok bool) {
	switch {
	case c.breaker == nil:
	case ok:
		c.breaker.success()
	default:
		c.breaker.failure()
	}
}

func decodeAPIError(res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: res.StatusCode}

	var payload struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Type = payload.Error
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil {
			apiErr.Detail = detail
		} else {
			apiErr.Detail = string(payload.Detail)
		}
	}
	if apiErr.Detail == "" && apiErr.Type == "" {
		apiErr.Detail = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}
