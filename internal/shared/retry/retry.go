package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"strings"
	"time"
)

// Policy describes a bounded exponential backoff. The zero value is usable;
// withDefaults fills in the gaps.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// Initial is the sleep before the first retry.
	Initial time.Duration
	// Max caps the exponential backoff.
	Max time.Duration
	// JitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	JitterFrac float64
	// OnRetry, if set, is invoked before each retry sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Initial <= 0 {
		p.Initial = 300 * time.Millisecond
	}
	if p.Max <= 0 {
		p.Max = 5 * time.Second
	}
	if p.JitterFrac <= 0 {
		p.JitterFrac = 0.2
	}
	return p
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts the
// attempt budget, or ctx is cancelled. retryable decides whether an error is
// worth another attempt; a nil retryable retries on Transient.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	p = p.withDefaults()
	if retryable == nil {
		retryable = Transient
	}

	delay := p.Initial
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || !retryable(err) || attempt >= p.MaxAttempts {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}

		sleep := jittered(delay, p.JitterFrac)
		if p.OnRetry != nil {
			p.OnRetry(attempt, sleep, err)
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return err
		}

		delay *= 2
		if delay > p.Max {
			delay = p.Max
		}
	}
}

func jittered(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	spread := float64(d) * frac
	offset := (rand.Float64()*2 - 1) * spread
	out := time.Duration(float64(d) + offset)
	if out < 0 {
		return 0
	}
	return out
}

// Transient reports whether an error looks like a temporary network or
// upstream failure worth retrying.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
