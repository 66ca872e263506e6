// Package gong is the HTTP access layer for the Gong v2 API: cursor
// pagination, id batching, a fixed rate-limit delay and typed errors.
package gong

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"gong-export-go/internal/logger"
)

const (
	DefaultBaseURL        = "https://api.gong.io"
	DefaultRateLimitDelay = 350 * time.Millisecond
	DefaultMaxRetries     = 3

	defaultTimeout       = 30 * time.Second
	defaultRetryInterval = 500 * time.Millisecond
)

type Client struct {
	credential    string
	http          *http.Client
	delay         time.Duration
	maxRetries    uint64
	retryInterval time.Duration
	log           *logger.Logger

	mu      sync.RWMutex
	baseURL string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimitDelay sets the pause taken before every request after the
// first one of an operation.
func WithRateLimitDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithMaxRetries bounds retries of transport errors, 429 and 5xx.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a client. credential is forwarded verbatim as the
// Authorization header; see BasicCredential.
func New(credential, baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		credential:    credential,
		http:          &http.Client{Timeout: defaultTimeout},
		delay:         DefaultRateLimitDelay,
		maxRetries:    DefaultMaxRetries,
		retryInterval: defaultRetryInterval,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	c.log = c.log.Component("gong")
	return c
}

// BasicCredential encodes an access key pair as an HTTP Basic credential.
func BasicCredential(accessKey, secretKey string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(accessKey+":"+secretKey))
}

// BaseURL returns the URL requests currently target. It changes when
// upstream names a customer-specific host.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) setBaseURL(u string) {
	u = strings.TrimRight(u, "/")
	c.mu.Lock()
	defer c.mu.Unlock()
	if u != c.baseURL {
		c.log.WithFields(logrus.Fields{"from": c.baseURL, "to": u}).Info("switching to customer base url")
		c.baseURL = u
	}
}

type baseURLHint struct {
	BaseURL string `json:"api_base_url_for_customer"`
}

// do sends one request and decodes a 2xx body into target, retrying
// transient failures with exponential backoff.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, target any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		payload = b
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxElapsedTime = 2 * time.Minute
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	attempt := 0
	op := func() error {
		attempt++
		req, err := c.newRequest(ctx, method, endpoint, query, payload)
		if err != nil {
			return backoff.Permanent(transportError(endpoint, err))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(transportError(endpoint, ctx.Err()))
			}
			return transportError(endpoint, err)
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return transportError(endpoint, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := statusError(resp.StatusCode, endpoint, raw)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return backoff.Permanent(serr)
		}

		if err := json.Unmarshal(raw, target); err != nil {
			return backoff.Permanent(transportError(endpoint, fmt.Errorf("decode response: %w", err)))
		}
		var hint baseURLHint
		if json.Unmarshal(raw, &hint) == nil && strings.HasPrefix(hint.BaseURL, "http") {
			c.setBaseURL(hint.BaseURL)
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.WithError(err).WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt,
			"wait_ms":  wait.Milliseconds(),
		}).Warn("retrying gong request")
	}

	err := backoff.RetryNotify(op, policy, notify)
	if err == nil {
		return nil
	}
	if _, ok := kindOf(err); ok {
		return err
	}
	return transportError(endpoint, err)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, payload []byte) (*http.Request, error) {
	u := c.BaseURL() + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.credential)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
