package client

import (
	"errors"
	"net/http"
	"strings"
)

// Result holds the decoded JSON body of one request. Failed requests
// inside a batch are represented as the uniform degraded shape
//
//	{"data": {}, "message": "Error: <reason>", "meta": {}}
//
// so that batch callers never need to special-case failures; check
// [Result.Degraded] or the message field instead of relying on errors.
type Result map[string]any

// Message returns the embedded message field, or "" when absent.
func (r Result) Message() string {
	s, _ := r["message"].(string)
	return s
}

// Degraded reports whether r carries the uniform error shape.
func (r Result) Degraded() bool {
	return strings.HasPrefix(r.Message(), "Error: ")
}

// degradedResult builds the uniform error shape for a failed request.
func degradedResult(reason string) Result {
	return Result{
		"data":    Result{},
		"message": "Error: " + reason,
		"meta":    Result{},
	}
}

// failureReason maps an error to the human-readable reason embedded in
// a degraded result. Status failures report the status text, mirroring
// the server's reason phrase.
func failureReason(err error) string {
	var statusErr *UnexpectedStatusError
	if errors.As(err, &statusErr) {
		if reason := http.StatusText(statusErr.StatusCode); reason != "" {
			return reason
		}
	}

	return err.Error()
}
