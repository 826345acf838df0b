package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/paceline/paceline/client/quota"
	"github.com/paceline/paceline/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error

type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	headers           map[string][]string
	throttle          *throttle.Config
	pacing            *throttle.PacingConfig
	quotaKeys         quota.Keys
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
}

// WithClient replaces the default [http.Client] whose transport and
// timeout seed the [Client]'s session settings.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the session's
// underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithDefaultHeaders sets headers sent with every outgoing request,
// single calls and batches alike.
func WithDefaultHeaders(headers map[string][]string) Option {
	return func(c *options) error {
		c.headers = headers
		return nil
	}
}

// WithThrottle enables sliding-window rate limiting admitting at most
// calls requests per rolling period.
func WithThrottle(calls int, period time.Duration) Option {
	return func(c *options) error {
		cfg := throttle.Config{Calls: calls, Period: period}
		if err := Validate(cfg); err != nil {
			return fmt.Errorf("throttle config: %w", err)
		}
		c.throttle = &cfg
		return nil
	}
}

// WithPacing enables a token-bucket smoothing gate that spreads
// outbound requests to at most rps per second after an initial burst.
// It composes with [WithThrottle]: the window caps calls per period,
// the bucket paces them within it.
func WithPacing(rps, burst int) Option {
	return func(c *options) error {
		cfg := throttle.PacingConfig{RPS: rps, Burst: burst}
		if err := Validate(cfg); err != nil {
			return fmt.Errorf("pacing config: %w", err)
		}
		c.pacing = &cfg
		return nil
	}
}

// WithQuotaKeys names the response headers the server uses to report
// its call count, call limit, and remaining calls. Empty names disable
// the corresponding part of quota tracking.
func WithQuotaKeys(count, limit, remaining string) Option {
	return func(c *options) error {
		c.quotaKeys = quota.Keys{Count: count, Limit: limit, Remaining: remaining}
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer injects a [trace.Tracer] used to span batch runs and
// individual requests. A noop tracer is used when unset.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// RequestOption is a functional option for [Request].
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	body        any
	contentType *string
	cookies     []*http.Cookie
	headers     map[string][]string
}

// WithPayload sets the JSON-encoded request body.
func WithPayload(body any) RequestOption {
	return func(opts *requestOpts) error {
		opts.body = body

		return nil
	}
}

// WithContentType overrides the default "application/json" Content-Type header.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}

		opts.contentType = &contentType

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		opts.headers = headers

		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(opts *requestOpts) error {
		opts.cookies = cookies

		return nil
	}
}

// URLOption is a functional option for [URL].
type URLOption func(options *urlOpts)

type urlOpts struct {
	queryStrings map[string]string
	port         *int
}

// WithQueryStrings appends query parameters to the URL.
func WithQueryStrings(queryKV map[string]string) URLOption {
	return func(opts *urlOpts) {
		opts.queryStrings = queryKV
	}
}

// WithPort sets the port number on the URL's host.
func WithPort(port int) URLOption {
	return func(opts *urlOpts) {
		opts.port = &port
	}
}
