// Package delivery defines the entry points that expose the application
// to the outside world.
package delivery

import "context"

// Delivery is a long-running transport, started by the application after
// dependency wiring completes.
type Delivery interface {
	// Serve blocks until the transport stops or fails.
	Serve(ctx context.Context) error
}
