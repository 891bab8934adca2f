// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP plumbing under the Gemini client.
package httputil

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// maxRetryAfter caps a server-provided Retry-After value.
const maxRetryAfter = time.Minute

const defaultMaxRetries = 3

// RetryTransport retries requests answered with HTTP 429 (Too Many
// Requests) with exponential backoff: RetryBaseDelay, then double each
// attempt. A Retry-After header in seconds replaces the computed delay.
//
// Requests whose body cannot be replayed (no GetBody) are sent once. After
// MaxRetries the last 429 response is returned so the caller can inspect it.
// If the request context is cancelled during a backoff wait RoundTrip
// returns ctx.Err().
type RetryTransport struct {
	// Base is the underlying transport. Nil uses http.DefaultTransport.
	Base http.RoundTripper

	// MaxRetries is the number of retries after the first attempt.
	// Zero uses the default (3).
	MaxRetries int

	// Logger receives one debug line per retry. Nil discards.
	Logger *zap.Logger
}

// NewClient returns an http.Client with the given timeout whose transport
// retries 429 responses up to maxRetries times.
func NewClient(timeout time.Duration, maxRetries int, logger *zap.Logger) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &RetryTransport{
			MaxRetries: maxRetries,
			Logger:     logger,
		},
	}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	maxRetries := t.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	ctx := req.Context()

	for attempt := 0; ; attempt++ {
		out := req
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			out = req.Clone(ctx)
			out.Body = body
		}

		resp, err := base.RoundTrip(out)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Exhausted retries (or nothing to replay): return the 429 as-is.
		if attempt >= maxRetries || !replayable {
			return resp, nil
		}

		backoff := retryDelay(resp, attempt)

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logger.Debug("rate limited, retrying",
			zap.String("host", req.URL.Host),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryDelay honours a Retry-After header given in seconds and otherwise
// doubles RetryBaseDelay per attempt.
func retryDelay(resp *http.Response, attempt int) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			return min(time.Duration(secs)*time.Second, maxRetryAfter)
		}
	}
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}
