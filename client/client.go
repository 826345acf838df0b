// Package client implements a throttled, quota-aware HTTP client for
// JSON APIs, with single guarded calls and concurrent batch execution.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/paceline/paceline/client/quota"
	"github.com/paceline/paceline/client/throttle"
)

// Client wraps the std-lib *http.Client with a throttled transport
// chain and a quota tracker. The transport chain, and with it the
// limiter state, persists for the life of the Client; the session built
// on top of it is created lazily and can be discarded and recreated.
type Client struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	tracker *quota.Tracker

	// headers are sent with every outgoing request.
	headers http.Header

	chain             http.RoundTripper
	base              http.RoundTripper
	timeout           time.Duration
	noFollowRedirects bool

	mu   sync.Mutex
	sess *http.Client
}

func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("paceline"),
		headers: http.Header{},
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.headers != nil {
		client.headers = http.Header(opts.headers)
	}

	switch {
	case opts.timeout != nil:
		client.timeout = *opts.timeout
	case opts.client != nil:
		client.timeout = opts.client.Timeout
	}

	client.noFollowRedirects = opts.noFollowRedirects
	client.tracker = quota.NewTracker(opts.quotaKeys)

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	client.base = transport
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.pacing != nil {
		rt, err := throttle.NewSmoothedRoundTripper(opts.pacing.RPS, opts.pacing.Burst, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring pacing: %w", err)
		}
		transport = rt
	}
	// The window gate goes outermost so the rolling-period cap is
	// judged before any pacing wait.
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(opts.throttle.Calls, opts.throttle.Period, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.chain = transport

	return client, nil
}

// Quota exposes the client's quota tracker.
func (c *Client) Quota() *quota.Tracker {
	return c.tracker
}

// Get executes a single guarded GET against target. The quota guard
// runs before any transport I/O; an exhausted quota fails with a
// *quota.ExceededError. Transport failures and non-200 statuses
// propagate to the caller, unlike batched calls which degrade in place.
func (c *Client) Get(ctx context.Context, target string, headers http.Header) (Result, error) {
	if err := c.tracker.Check(); err != nil {
		return nil, err
	}

	return c.roundTrip(ctx, c.acquireSession(), http.MethodGet, target, headers, nil)
}

// Post executes a single guarded POST with a JSON-encoded payload.
// Guard and error semantics match [Client.Get].
func (c *Client) Post(ctx context.Context, target string, payload any) (Result, error) {
	if err := c.tracker.Check(); err != nil {
		return nil, err
	}

	return c.roundTrip(ctx, c.acquireSession(), http.MethodPost, target, nil, payload)
}

// Do runs a caller-built request, typically assembled with [Request]
// and [URL], through the same quota guard, transport chain, and JSON
// decoding as [Client.Get]. The request's own headers are preserved;
// the client's default headers are merged in alongside them.
func (c *Client) Do(req *http.Request) (Result, error) {
	if err := c.tracker.Check(); err != nil {
		return nil, err
	}

	ctx, span := c.addSpan(req.Context(), "paceline.request",
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.String()),
	)
	defer span.End()

	return c.execute(c.acquireSession(), req.WithContext(ctx))
}

// acquireSession returns the shared session, creating it if needed.
// The session reuses the client's transport chain, so limiter and
// quota state survive session turnover.
func (c *Client) acquireSession() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		sess := &http.Client{
			Transport: c.chain,
			Timeout:   c.timeout,
		}
		if c.noFollowRedirects {
			sess.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
		}
		c.sess = sess
	}

	return c.sess
}

// releaseSession discards the session and closes its idle connections.
// The next acquire builds a fresh one.
func (c *Client) releaseSession() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return
	}

	// The throttle and user-agent wrappers don't forward
	// CloseIdleConnections, so reach past them to the base transport.
	if tr, ok := c.base.(interface{ CloseIdleConnections() }); ok {
		tr.CloseIdleConnections()
	}
	c.sess = nil
}

// roundTrip builds one request and sends it through the given session.
func (c *Client) roundTrip(ctx context.Context, sess *http.Client, method, target string, headers http.Header, payload any) (Result, error) {
	ctx, span := c.addSpan(ctx, "paceline.request",
		attribute.String("http.method", method),
		attribute.String("http.url", target),
	)
	defer span.End()

	var body io.Reader
	if payload != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	return c.execute(sess, req)
}

// execute sends the request and decodes the JSON response. The quota
// tracker is updated for every received response, error statuses
// included, before the status is judged.
func (c *Client) execute(sess *http.Client, req *http.Request) (Result, error) {
	for k, v := range c.headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	resp, err := sess.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exec http do: %w", err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err = io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err = resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	c.tracker.UpdateFromResponse(resp.Header)

	if resp.StatusCode != http.StatusOK {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		return nil, &UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Err:        ErrUnexpectedStatusCode,
		}
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		discardBody = false
		return nil, fmt.Errorf("decoding body: %w", err)
	}

	return res, nil
}

// addSpan adds a span to the tracer, returning it and the context.
func (c *Client) addSpan(ctx context.Context, spanName string, keyValues ...attribute.KeyValue) (context.Context, trace.Span) {
	if c.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := c.tracer.Start(ctx, spanName)
	span.SetAttributes(keyValues...)

	return ctx, span
}
