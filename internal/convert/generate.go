// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"math"
	"strings"

	"github.com/pdiddy/ottoman-converter/pkg/types"
)

// maxAttempts is the first call plus one retry.
const maxAttempts = 2

// Backend abstracts the Generative AI API so tests can supply a mock.
type Backend interface {
	// Generate sends the messages to the model and returns its raw text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest is one model call.
type GenerateRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
}

// Generate calls the backend and retries exactly once, at a slightly higher
// temperature, when the call fails or returns no text. The returned text is
// trimmed.
//
// The outcome of the last attempt decides the failure kind: an error gives
// FailureBackend, an empty response gives FailureEmptyResponse.
//
// Attempts are counted per Backend call. A backend built on httputil.NewClient
// may also resend a rate-limited HTTP request within a single attempt.
func Generate(ctx context.Context, backend Backend, req GenerateRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		call := req
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return "", newError(types.FailureBackend, err)
			}
			call.Temperature = retryTemperature(req.Temperature)
		}

		text, err := backend.Generate(ctx, call)
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		if t := strings.TrimSpace(text); t != "" {
			return t, nil
		}
	}

	if lastErr != nil {
		return "", newError(types.FailureBackend, lastErr)
	}
	return "", newError(types.FailureEmptyResponse, nil)
}

// retryTemperature raises t by 0.1, with a floor of 0.1.
func retryTemperature(t float64) float64 {
	return math.Max(0.1, t+0.1)
}
