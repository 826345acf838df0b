package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttler's admission budget:
// at most Calls admissions per rolling Period.
type Config struct {
	Calls  int           `json:"calls" validate:"required,gt=0"`
	Period time.Duration `json:"period" validate:"required,gt=0"`
}

// throttle is an http.RoundTripper enforcing a sliding admission
// window: it keeps the timestamps of the most recent admissions and
// admits a new request only while fewer than calls of them fall inside
// the rolling period.
type throttle struct {
	calls  int
	period time.Duration
	next   http.RoundTripper
	logFn  func() *slog.Logger

	mu       sync.Mutex
	admitted []time.Time
}

// NewRoundTripper returns an http.RoundTripper that throttles outbound
// requests to at most calls per rolling period. Once the window is
// full, the next admission waits until the oldest admission ages out
// of the period, so issuing calls+1 requests at once delays the last
// one past a full period boundary. Waiters retry as capacity frees up;
// no request is starved while capacity exists. logFn lazily resolves
// the logger at request time, making option ordering irrelevant. A
// nil-returning logFn skips the capacity probe used for logging.
func NewRoundTripper(calls int, period time.Duration, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if calls <= 0 || period <= 0 {
		return nil, fmt.Errorf("calls[%d] and period[%v] %w", calls, period, ErrMustNotBeZero)
	}

	t := &throttle{
		calls:  calls,
		period: period,
		next:   next,
		logFn:  logFn,
	}

	return t, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	logger := t.logFn()
	if logger != nil && !t.hasCapacity() {
		logger.Info("throttle window full", "calls", t.calls, "period", t.period.String(), "path", r.URL.Path)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "calls", t.calls, "period", t.period.String())
		}()
	}

	start := time.Now()

	err := t.acquire(ctx)
	waited = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}

// acquire blocks until the rolling window has room, then records the
// admission. It returns the context's error if ctx ends first.
func (t *throttle) acquire(ctx context.Context) error {
	for {
		t.mu.Lock()
		now := time.Now()

		// Drop admissions that have aged out of the window.
		cut := 0
		for cut < len(t.admitted) && now.Sub(t.admitted[cut]) >= t.period {
			cut++
		}
		t.admitted = t.admitted[cut:]

		if len(t.admitted) < t.calls {
			t.admitted = append(t.admitted, now)
			t.mu.Unlock()
			return nil
		}

		wait := t.period - now.Sub(t.admitted[0])
		t.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// hasCapacity reports whether an admission would proceed without
// waiting. Used only for logging.
func (t *throttle) hasCapacity() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	inWindow := 0
	for _, ts := range t.admitted {
		if now.Sub(ts) < t.period {
			inWindow++
		}
	}

	return inWindow < t.calls
}
