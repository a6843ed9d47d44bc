package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/GoBizAdmin/GoBizAdmin/internal/config"
	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
)

const (
	// HeaderRequestID carries the per request id.
	HeaderRequestID = "X-Request-ID"

	maxBodySize = 4 << 20
)

// TokenStore reads the stored credential token.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the remote platform.
type Client struct {
	baseURL   string
	userAgent string
	base      *http.Client
	authed    *http.Client
	metrics   *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http client. Its Transport is used as the base of the
// bearer transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.base = hc
	}
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for cfg. Authenticated calls read their token from tokens on every request.
func New(cfg config.API, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		base:      &http.Client{Timeout: cfg.Timeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.authed = c.bearerClient(&storeTokenSource{store: tokens})

	return c
}

func (c *Client) bearerClient(src oauth2.TokenSource) *http.Client {
	return &http.Client{
		Timeout: c.base.Timeout,
		Transport: &oauth2.Transport{
			Source: src,
			Base:   c.base.Transport,
		},
	}
}

// storeTokenSource hands the stored credential to the oauth2 transport. A missing token fails
// the request before it is sent.
type storeTokenSource struct {
	store TokenStore
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	if s.store == nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := s.store.Token(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}

	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// do sends a JSON request and decodes a JSON response into out when out is not nil.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}

		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := hc.Do(req)
	if err != nil {
		c.metrics.observe(method, "error", time.Since(start))

		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.ErrUnauthorized
		}

		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.metrics.observe(method, strconv.Itoa(resp.StatusCode), time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response %s %s: %w", method, path, err)
	}

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Str("request_id", requestID).Dur("elapsed", time.Since(start)).Msg("remote api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, requestID, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err = json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response %s %s: %w", method, path, err)
	}

	return nil
}
