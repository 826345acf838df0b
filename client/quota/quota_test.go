package quota

import (
	"errors"
	"net/http"
	"testing"
)

func headerOf(kv map[string]string) http.Header {
	h := http.Header{}
	for k, v := range kv {
		h.Set(k, v)
	}
	return h
}

func TestTracker_Check(t *testing.T) {
	keys := Keys{Count: "X-Call-Count", Limit: "X-Call-Limit", Remaining: "X-Calls-Remaining"}

	testCases := []struct {
		name    string
		headers []map[string]string
		expErr  error
		expN    int
		expOK   bool
	}{
		{
			name:  "Never observed allows the call",
			expOK: false,
		},
		{
			name:    "Remaining header positive",
			headers: []map[string]string{{"X-Calls-Remaining": "7"}},
			expN:    7,
			expOK:   true,
		},
		{
			name:    "Remaining header zero fails",
			headers: []map[string]string{{"X-Calls-Remaining": "0"}},
			expErr:  ErrExceeded,
			expOK:   true,
		},
		{
			name:    "Unparseable remaining defaults to zero",
			headers: []map[string]string{{"X-Calls-Remaining": "garbage"}},
			expErr:  ErrExceeded,
			expOK:   true,
		},
		{
			name:    "Derived from limit minus count",
			headers: []map[string]string{{"X-Call-Count": "3", "X-Call-Limit": "5"}},
			expN:    2,
			expOK:   true,
		},
		{
			name:    "Derived exhausted fails",
			headers: []map[string]string{{"X-Call-Count": "5", "X-Call-Limit": "5"}},
			expErr:  ErrExceeded,
			expOK:   true,
		},
		{
			name: "Absent remaining header keeps last observation",
			headers: []map[string]string{
				{"X-Calls-Remaining": "4"},
				{},
			},
			expN:  4,
			expOK: true,
		},
		{
			name: "Exhaustion sticks across later updates without info",
			headers: []map[string]string{
				{"X-Calls-Remaining": "0"},
				{},
			},
			expErr: ErrExceeded,
			expOK:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewTracker(keys)
			for _, h := range tc.headers {
				tracker.UpdateFromResponse(headerOf(h))
			}

			err := tracker.Check()
			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Errorf("exp err %v; got: %v", tc.expErr, err)
				}

				var exceeded *ExceededError
				if !errors.As(err, &exceeded) {
					t.Error("exp *ExceededError")
				}
			} else if err != nil {
				t.Errorf("exp nil err, got: %v", err)
			}

			n, ok := tracker.Remaining()
			if ok != tc.expOK {
				t.Errorf("exp observed=%t, got %t", tc.expOK, ok)
			}
			if tc.expErr == nil && ok && n != tc.expN {
				t.Errorf("exp remaining %d, got %d", tc.expN, n)
			}
		})
	}
}

func TestTracker_NoKeysConfigured(t *testing.T) {
	tracker := NewTracker(Keys{})

	tracker.UpdateFromResponse(headerOf(map[string]string{"X-Calls-Remaining": "0"}))

	if err := tracker.Check(); err != nil {
		t.Errorf("tracker without keys must never block calls, got: %v", err)
	}
	if _, ok := tracker.Remaining(); ok {
		t.Error("tracker without keys should never observe a quota")
	}
}

func TestTracker_RemainingHeaderWinsOverDerivation(t *testing.T) {
	tracker := NewTracker(Keys{Count: "X-Count", Limit: "X-Limit", Remaining: "X-Remaining"})

	tracker.UpdateFromResponse(headerOf(map[string]string{
		"X-Count":     "9",
		"X-Limit":     "10",
		"X-Remaining": "42",
	}))

	if n, ok := tracker.Remaining(); !ok || n != 42 {
		t.Errorf("exp remaining 42 from header, got %d (observed=%t)", n, ok)
	}

	count, limit := tracker.Counts()
	if count != 9 || limit != 10 {
		t.Errorf("exp counts 9/10, got %d/%d", count, limit)
	}
}
