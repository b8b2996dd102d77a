// Package httpclient builds the shared *http.Client handed out by the
// container.
package httpclient

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/skekre98/hostkit/options"
)

const RequestIDHeader = "X-Request-ID"

// New returns a client configured from opts. Requests with a relative URL
// are resolved against the base URL; idempotent requests are retried on
// transport errors and 5xx responses with exponential backoff.
func New(opts options.Options, logger *slog.Logger) *http.Client {
	return &http.Client{
		Timeout:   opts.HTTPTimeout(),
		Transport: NewTransport(http.DefaultTransport, opts, logger),
	}
}

// Transport decorates a base RoundTripper with default headers, base URL
// resolution and retries.
type Transport struct {
	base    http.RoundTripper
	baseURL *url.URL
	headers map[string]string
	agent   string
	retry   options.RetryPolicy
	logHTTP bool
	logger  *slog.Logger
}

func NewTransport(base http.RoundTripper, opts options.Options, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		base:    base,
		headers: opts.Headers(),
		agent:   opts.UserAgent(),
		retry:   opts.Retry(),
		logHTTP: opts.LogHTTP(),
		logger:  logger,
	}
	// Options validated the URL already.
	if u, err := url.Parse(opts.BaseURL()); err == nil && u.Host != "" {
		t.baseURL = u
	}
	return t
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("server error: %d", e.code) }

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req, err := t.prepare(req)
	if err != nil {
		return nil, err
	}

	if t.retry.Max == 0 || !retryable(req) {
		return t.send(req, 1)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = t.retry.InitialInterval
	eb.MaxInterval = t.retry.MaxInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, t.retry.Max), req.Context())

	attempt := 0
	op := func() (*http.Response, error) {
		attempt++
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			req.Body = body
		}
		resp, err := t.send(req, attempt)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError && uint64(attempt) <= t.retry.Max {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &statusError{code: resp.StatusCode}
		}
		return resp, nil
	}
	notify := func(err error, wait time.Duration) {
		t.logger.Warn("retrying http request",
			"method", req.Method,
			"url", req.URL.String(),
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	}
	return backoff.RetryNotifyWithData(op, policy, notify)
}

func (t *Transport) send(req *http.Request, attempt int) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if t.logHTTP {
		attrs := []any{
			"method", req.Method,
			"url", req.URL.String(),
			"attempt", attempt,
			"duration_ms", time.Since(start).Milliseconds(),
			"req_id", req.Header.Get(RequestIDHeader),
		}
		if err != nil {
			t.logger.Info("http_client", append(attrs, "error", err)...)
		} else {
			t.logger.Info("http_client", append(attrs, "status", resp.StatusCode)...)
		}
	}
	return resp, err
}

// prepare clones req so the caller's request is never modified.
func (t *Transport) prepare(req *http.Request) (*http.Request, error) {
	if req.URL == nil {
		return nil, errors.New("httpclient: nil request URL")
	}
	out := req.Clone(req.Context())
	if out.Header == nil {
		out.Header = http.Header{}
	}
	if out.URL.Host == "" {
		if t.baseURL == nil {
			return nil, fmt.Errorf("httpclient: relative URL %q without base URL", req.URL.String())
		}
		out.URL = t.baseURL.ResolveReference(out.URL)
		out.Host = ""
	}
	for k, v := range t.headers {
		if out.Header.Get(k) == "" {
			out.Header.Set(k, v)
		}
	}
	if out.Header.Get("User-Agent") == "" && t.agent != "" {
		out.Header.Set("User-Agent", t.agent)
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return out, nil
}

func retryable(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete, http.MethodTrace:
	default:
		return false
	}
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}
