// Package webhook sends outbound HTTP calls for webhook steps, with retries
// on transport errors and 5xx responses.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/journeys/pkg/protocol"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 30 * time.Second

var (
	ErrInvalidMethod = errors.New("invalid HTTP method")
	ErrServerError   = errors.New("server error during HTTP request")
	ErrClientError   = errors.New("client error during HTTP request")
)

// RetryConfig controls how often a failed call is repeated. Attempts includes
// the first try.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

type Client struct {
	http   *http.Client
	retry  RetryConfig
	logger *slog.Logger
}

var _ protocol.WebhookClient = (*Client)(nil)

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.Timeout = timeout }
}

func WithRetry(retry RetryConfig) Option {
	return func(c *Client) { c.retry = retry }
}

// WithHTTPClient replaces the underlying client. Its transport is used as is.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		retry:  RetryConfig{Attempts: 1},
		logger: logger.With(slog.String("module", "webhook_client")),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.retry.Attempts < 1 {
		c.retry.Attempts = 1
	}

	return c
}

// Post sends body to url with method. Responses outside 2xx are errors; 5xx
// responses and transport errors are retried.
func (c *Client) Post(ctx context.Context, url, method string, headers map[string]string, body []byte) (protocol.WebhookResponse, error) {
	if method == "" {
		method = http.MethodPost
	}

	method = strings.ToUpper(method)

	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return protocol.WebhookResponse{}, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}

	logger := c.logger.With(slog.String("url", url), slog.String("method", method))

	var lastErr error

	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying webhook call", slog.Int("attempt", attempt), slog.Int("attempts", c.retry.Attempts))

			err := sleep(ctx, c.retry.Delay)
			if err != nil {
				return protocol.WebhookResponse{}, err
			}
		}

		status, err := c.do(ctx, url, method, headers, body)
		if err == nil {
			return protocol.WebhookResponse{StatusCode: status}, nil
		}

		lastErr = err

		if errors.Is(err, ErrClientError) || ctx.Err() != nil {
			return protocol.WebhookResponse{StatusCode: status}, err
		}
	}

	logger.WarnContext(ctx, "Webhook call failed", slog.Any("error", lastErr))

	return protocol.WebhookResponse{}, fmt.Errorf("all %d attempts failed, last error: %w", c.retry.Attempts, lastErr)
}

func (c *Client) do(ctx context.Context, url, method string, headers map[string]string, body []byte) (int, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)

		err := resp.Body.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", slog.Any("error", err))
		}
	}()

	switch {
	case resp.StatusCode >= 500:
		return resp.StatusCode, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	case resp.StatusCode >= 300:
		return resp.StatusCode, fmt.Errorf("%w: status %d", ErrClientError, resp.StatusCode)
	default:
		return resp.StatusCode, nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
