package pdvapi

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
	"time"

	"github.com/angelmondragon/pdv-terminal/pkg/auth"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "pdv-terminal"

	errorBodyReadLimit    int64 = 1024
	responseBodyReadLimit int64 = 8 << 20
)

var errBaseURLRequired = errors.New("pdv api base url is required")

// Observer receives one call per upstream request. status is 0 when no response arrived.
type Observer interface {
	ObserveUpstream(endpoint string, status int, duration time.Duration)
}

// Client talks to the PDV HTTP API on behalf of the operator whose token is on the context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	observer   Observer
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	now        func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// WithObserver records request latency.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithClock overrides the clock used to detect expired tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a PDV API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse pdv api base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type tokenCtxKey struct{}

// WithToken attaches the operator's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, strings.TrimSpace(token))
}

// TokenFromContext returns the bearer token attached with WithToken.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(tokenCtxKey{}).(string)
	return token
}

// call describes one upstream request.
type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any

	// anonymous calls send no token and map 401 to bad credentials.
	anonymous bool
}

func (c *Client) do(ctx context.Context, in call) (*http.Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pdv api client not configured")
	}

	token := ""
	if !in.anonymous {
		token = TokenFromContext(ctx)
		if token == "" {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing operator token")
		}
		if claims, err := auth.Inspect(token); err == nil && claims.Expired(c.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeSessionExpired, "session expired, log in again")
		}
	}

	var body io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+in.endpoint+" request")
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, in.method, target, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+in.endpoint+" request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := c.now()
	resp, err := c.send(req)
	if breakerRejected(err) {
		return nil, breakerOpen(in, err)
	}
	if resp == nil {
		c.observe(in.endpoint, 0, started)
		return nil, unreachable(in, err)
	}
	c.observe(in.endpoint, resp.StatusCode, started)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, classify(in, resp.StatusCode, msg)
	}
	return resp, nil
}

// doJSON runs the call and decodes a JSON body into out. It reports whether the body was JSON null.
func (c *Client) doJSON(ctx context.Context, in call, out any) (bool, error) {
	resp, err := c.do(ctx, in)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+in.endpoint+" response")
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+in.endpoint+" response")
	}
	return false, nil
}

func (c *Client) observe(endpoint string, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(endpoint, status, c.now().Sub(started))
}
