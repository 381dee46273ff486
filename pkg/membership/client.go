// Package membership is the client for the membership site's
// roster-validated webhook.
package membership

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Payload is the webhook body posted when an identity is vetted.
type Payload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PTIN      string `json:"ptin,omitempty"`
}

// Client posts validation events to the membership site. Calls are
// rate-limited; the site throttles bursts.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRate caps outbound requests per second.
func WithRate(perSec float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSec), 1) }
}

// New builds a Client for the given webhook URL.
func New(url string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Notify posts one validation payload. A non-2xx response is an error;
// callers treat failures as non-fatal and queue retries.
func (c *Client) Notify(ctx context.Context, p Payload) error {
	if c.url == "" {
		return eris.New("membership: webhook url not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "membership: rate limit wait")
	}

	body, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "membership: marshal payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "membership: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "membership: post %s", p.Email)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("membership: webhook returned %d for %s", resp.StatusCode, p.Email)
	}
	zap.L().Debug("membership notified", zap.String("email", p.Email))
	return nil
}
