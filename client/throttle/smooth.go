package throttle

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// PacingConfig defines the smoothing gate's requests per second and
// burst capacity.
type PacingConfig struct {
	RPS   int `json:"rps" validate:"required,gt=0"`
	Burst int `json:"burst" validate:"required,gt=0"`
}

// smooth is an http.RoundTripper, using the time/rate token bucket
// limiter to spread outbound calls evenly. Unlike the sliding-window
// throttle, it shapes traffic rather than capping a rolling window;
// the two compose, with the window bounding how many calls go out per
// period and the bucket pacing them within it.
type smooth struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	next    http.RoundTripper
	logFn   func() *slog.Logger
}

// NewSmoothedRoundTripper returns an http.RoundTripper that paces
// outbound requests with a token bucket: burst tokens up front, one
// refilled every 1/rps seconds. logFn lazily resolves the logger at
// request time. A nil-returning logFn skips the calls to *Limiter.Allow().
func NewSmoothedRoundTripper(rps, burst int, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}

	s := &smooth{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		next:    next,
		logFn:   logFn,
	}

	return s, nil
}

func (s *smooth) RoundTrip(r *http.Request) (*http.Response, error) {
	if s.limiter == nil {
		return s.next.RoundTrip(r)
	}

	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	logger := s.logFn()
	if logger != nil && !s.limiter.Allow() {
		logger.Info("pacing tokens exhausted", "rps", s.rps, "burst", s.burst, "path", r.URL.Path)

		defer func() {
			logger.Info("pacing wait complete", "waited", waited.String(), "rps", s.rps, "burst", s.burst)
		}()
	}

	start := time.Now()

	err := s.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return s.next.RoundTrip(r)
}
