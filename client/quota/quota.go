package quota

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
)

// ErrExceeded is the sentinel error wrapped by [ExceededError].
var ErrExceeded = errors.New("no remaining api calls")

// ExceededError is returned by [Tracker.Check] once the server-declared
// remaining-call count has been observed at or below zero.
type ExceededError struct {
	Remaining int
	Err       error
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%v: %d remaining", e.Err, e.Remaining)
}

func (e *ExceededError) Unwrap() error {
	return e.Err
}

// Keys names the response headers carrying quota information.
// Any field left empty disables that part of the bookkeeping.
type Keys struct {
	Count     string
	Limit     string
	Remaining string
}

// Tracker records server-declared call quota learned from response
// headers and guards new calls once the quota is exhausted.
//
// Batches update the tracker from many goroutines, so all state sits
// behind a mutex.
type Tracker struct {
	mu        sync.Mutex
	keys      Keys
	count     int
	limit     int
	remaining *int // nil until first observed
}

func NewTracker(keys Keys) *Tracker {
	return &Tracker{keys: keys}
}

// Check reports whether a guarded call may proceed. A quota that has
// never been observed allows the call; a remaining count at or below
// zero fails it before any transport I/O.
func (t *Tracker) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.remaining == nil || *t.remaining > 0 {
		return nil
	}

	return &ExceededError{Remaining: *t.remaining, Err: ErrExceeded}
}

// UpdateFromResponse recomputes the remaining-call count from the
// configured headers. It must run for every received response,
// including error responses, so the guard stays accurate across a
// burst of calls.
//
// The remaining count is read directly from its header when present,
// otherwise derived as limit - count once both have been observed.
// Unparseable values count as 0; an absent remaining header carries no
// new information and leaves the last observation in place.
func (t *Tracker) UpdateFromResponse(h http.Header) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.keys.Count != "" && t.keys.Limit != "" {
		t.count = atoiOrZero(h.Get(t.keys.Count))
		t.limit = atoiOrZero(h.Get(t.keys.Limit))
	}

	switch {
	case t.keys.Remaining != "" && h.Get(t.keys.Remaining) != "":
		n := atoiOrZero(h.Get(t.keys.Remaining))
		t.remaining = &n
	case t.count > 0 && t.limit > 0:
		n := t.limit - t.count
		t.remaining = &n
	}
}

// Remaining returns the last observed remaining-call count.
// ok is false until the first observation.
func (t *Tracker) Remaining() (n int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.remaining == nil {
		return 0, false
	}

	return *t.remaining, true
}

// Counts returns the last observed call count and call limit.
func (t *Tracker) Counts() (count, limit int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count, t.limit
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}
