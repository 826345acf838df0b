// Package quota tracks server-declared remaining-call quota learned
// from HTTP response headers.
//
// A [Tracker] is configured with the header [Keys] a given API uses to
// report its call count, call limit, and remaining calls. After every
// received response, [Tracker.UpdateFromResponse] folds the headers
// into the tracker; before every guarded call, [Tracker.Check] fails
// with an [ExceededError] once the remaining count has been observed
// at or below zero, so no transport I/O is attempted against an
// exhausted quota.
package quota
