package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ProcessGets executes one GET per url concurrently under the shared
// throttle and quota guard, joining all results in input order: index
// i of urls maps to index i of the returned slice regardless of
// completion order.
//
// An exhausted quota before dispatch fails the whole call with a
// *quota.ExceededError and no transport I/O. Once dispatched, a single
// request's failure never fails the batch; the failed index degrades
// to the uniform error-shaped [Result].
func (c *Client) ProcessGets(ctx context.Context, urls []string) ([]Result, error) {
	if err := c.tracker.Check(); err != nil {
		return nil, err
	}

	return c.processBatch(ctx, http.MethodGet, urls, nil), nil
}

// ProcessPosts executes one POST per (url, payload) pair concurrently,
// with the same guard, ordering, and degradation semantics as
// [Client.ProcessGets]. A single url with multiple payloads is
// broadcast: the one url is replicated to match the payload count.
func (c *Client) ProcessPosts(ctx context.Context, urls []string, payloads []any) ([]Result, error) {
	if err := c.tracker.Check(); err != nil {
		return nil, err
	}

	if len(urls) == 1 && len(payloads) > 1 {
		target := urls[0]
		urls = make([]string, len(payloads))
		for i := range urls {
			urls[i] = target
		}
	}

	if len(urls) != len(payloads) {
		return nil, fmt.Errorf("urls[%d] and payloads[%d] %w", len(urls), len(payloads), ErrLengthMismatch)
	}

	return c.processBatch(ctx, http.MethodPost, urls, payloads), nil
}

// processBatch dispatches one goroutine per request against a single
// shared session, acquired before dispatch and released once every
// task has completed.
func (c *Client) processBatch(ctx context.Context, method string, urls []string, payloads []any) []Result {
	sess := c.acquireSession()
	defer c.releaseSession()

	runID := uuid.NewString()

	ctx, span := c.addSpan(ctx, "paceline.batch",
		attribute.String("http.method", method),
		attribute.Int("batch.requests", len(urls)),
	)
	defer span.End()

	c.logger.Debug("dispatching batch", "run_id", runID, "method", method, "requests", len(urls))

	results := make([]Result, len(urls))

	var wg sync.WaitGroup
	for i, target := range urls {
		var payload any
		if payloads != nil {
			payload = payloads[i]
		}

		wg.Add(1)
		go func(idx int, target string, payload any) {
			defer wg.Done()
			results[idx] = c.tryRequest(ctx, sess, runID, method, target, payload)
		}(i, target, payload)
	}
	wg.Wait()

	return results
}

// tryRequest runs one guarded request and absorbs any failure into the
// degraded result shape. The quota is re-checked per task so that
// mid-batch exhaustion stops the remaining tasks before transport I/O.
func (c *Client) tryRequest(ctx context.Context, sess *http.Client, runID, method, target string, payload any) Result {
	if err := c.tracker.Check(); err != nil {
		c.logger.Error("request blocked by quota", "run_id", runID, "url", target, "error", err)
		return degradedResult(failureReason(err))
	}

	res, err := c.roundTrip(ctx, sess, method, target, nil, payload)
	if err != nil {
		c.logger.Error("request degraded", "run_id", runID, "method", method, "url", target, "error", err)
		return degradedResult(failureReason(err))
	}

	return res
}
