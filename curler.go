// Package curler exposes the client builder.
package curler

import (
	"github.com/adamwoolhether/curler/client"
)

// NewClient instantiates a new *client.Client with the provided options.
// Release it with Close once done.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
