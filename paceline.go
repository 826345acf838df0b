// Package paceline exposes the client builder.
package paceline

import (
	"github.com/paceline/paceline/client"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, the default http.Transport is used, with no
// throttle and no quota tracking.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
