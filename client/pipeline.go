package client

import (
	"context"

	"github.com/google/uuid"
)

// Op is one unit of work run to completion by [Client.Pipeline].
// Arguments are carried by the closure.
type Op func(ctx context.Context, c *Client) (any, error)

// Pipeline runs op to completion for callers that cannot coordinate
// concurrent work themselves. Each invocation gets a fresh context and
// a fresh session, and the session is discarded afterwards whether the
// run succeeded or not, so repeated calls never leak connections.
//
// Any error or panic during the run is logged and swallowed; Pipeline
// then returns nil. Callers treating nil as "no-op success" must
// consult the log to tell the two apart.
func (c *Client) Pipeline(op Op) (res any) {
	// Drop any session left over from earlier work so this run
	// starts on a fresh one.
	c.releaseSession()
	defer c.releaseSession()

	runID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("pipeline run panicked", "run_id", runID, "panic", r)
			res = nil
		}
	}()

	out, err := op(context.Background(), c)
	if err != nil {
		c.logger.Error("pipeline run failed", "run_id", runID, "error", err)
		return nil
	}

	return out
}
