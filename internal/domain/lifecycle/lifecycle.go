// Package lifecycle holds shared timings for component start/stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds graceful start and shutdown of managed components.
const DefaultTimeout = 10 * time.Second
