// Package client provides a throttled, quota-aware HTTP client for
// JSON APIs built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithThrottle(5, time.Minute),
//		client.WithQuotaKeys("X-Call-Count", "X-Call-Limit", "X-Calls-Remaining"),
//		client.WithDefaultHeaders(map[string][]string{"Authorization": {"Bearer ..."}}),
//	)
//
// # Single Calls
//
// [Client.Get] and [Client.Post] execute one guarded request each. The
// quota guard runs before any transport I/O and fails loudly with a
// *quota.ExceededError once the server-declared remaining-call count
// is exhausted; transport failures and unexpected statuses propagate
// as errors. For full control over the outgoing request, assemble one
// with [URL] and [Request] and run it through [Client.Do] under the
// same guard.
//
// # Batches
//
// [Client.ProcessGets] and [Client.ProcessPosts] dispatch one
// goroutine per request under the shared throttle, join them all, and
// return results in input order. A failed request inside a batch never
// fails the batch; its slot degrades to the uniform error shape
// described on [Result]. ProcessPosts broadcasts a single url across
// multiple payloads.
//
// # Synchronous Bridge
//
// [Client.Pipeline] runs one operation to completion on a fresh
// session, swallowing errors and panics, for callers that cannot
// coordinate the concurrent machinery themselves:
//
//	res := c.Pipeline(func(ctx context.Context, c *client.Client) (any, error) {
//		results, err := c.ProcessGets(ctx, urls)
//		return results, err
//	})
package client
