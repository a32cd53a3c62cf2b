package llm

import (
	"context"
	"errors"
	"time"

	"resumegen/internal/shared/retry"
	"resumegen/internal/shared/telemetry"
	"resumegen/internal/shared/util"
)

// Generator wraps a provider Client with the adapter policy: a bounded
// per-request timeout, backoff on transient failures, and a single
// corrective re-prompt when the response carries no LaTeX document.
type Generator struct {
	client  Client
	timeout time.Duration
	policy  retry.Policy
}

// NewGenerator constructs a Generator. maxRetries counts retries after the
// first attempt; requestTimeout bounds each individual provider call.
func NewGenerator(client Client, requestTimeout time.Duration, maxRetries int) *Generator {
	if requestTimeout <= 0 {
		requestTimeout = 20 * time.Second
	}
	return &Generator{
		client:  client,
		timeout: requestTimeout,
		policy: retry.Policy{
			MaxAttempts: maxRetries + 1,
			Initial:     500 * time.Millisecond,
			Max:         4 * time.Second,
			OnRetry: func(attempt int, delay time.Duration, err error) {
				telemetry.Warn("llm.retry", map[string]any{
					"attempt":  attempt,
					"delay_ms": delay.Milliseconds(),
					"error":    util.SanitizeError(err),
				})
			},
		},
	}
}

// Generate produces compilable LaTeX source for the given input. Transient
// provider failures are retried with backoff; a malformed response triggers
// exactly one corrective retry before failing with ErrMalformedOutput.
func (g *Generator) Generate(ctx context.Context, input GenerateInput) (string, error) {
	raw, err := g.callWithRetry(ctx, input)
	if err != nil {
		return "", err
	}

	doc, err := ExtractDocument(raw)
	if err == nil {
		return doc, nil
	}

	telemetry.Warn("llm.malformed_output", map[string]any{
		"error": util.SanitizeError(err),
	})

	raw, err = g.callWithRetry(WithStrictPrompt(ctx), input)
	if err != nil {
		return "", err
	}
	return ExtractDocument(raw)
}

func (g *Generator) callWithRetry(ctx context.Context, input GenerateInput) (string, error) {
	var out string
	err := retry.Do(ctx, g.policy, retryableGeneration, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		raw, err := g.client.GenerateResume(attemptCtx, input)
		if err != nil {
			return err
		}
		out = raw
		return nil
	})
	return out, err
}

func retryableGeneration(err error) bool {
	return errors.Is(err, ErrRateLimited) || retry.Transient(err)
}
