// Package throttle provides [http.RoundTripper] implementations that
// rate-limit outbound HTTP requests.
//
// [NewRoundTripper] enforces a sliding admission window: at most n
// admissions per rolling period. Once the window is full, the next
// request waits until the oldest admission ages out of the period:
//
//	rt, err := throttle.NewRoundTripper(
//		5,           // admissions per rolling period
//		time.Minute, // period length
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// [NewSmoothedRoundTripper] is a complementary traffic-shaping gate
// built on the token bucket from [golang.org/x/time/rate]; it spreads
// calls evenly rather than capping a window, and composes with the
// window throttle.
//
// When a gate is closed, outbound requests block until capacity frees
// up or the request context is cancelled. With a background context
// the wait is unbounded; both gates delay, they never reject.
package throttle
