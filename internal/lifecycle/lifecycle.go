package lifecycle

import (
	"sync/atomic"
	"time"
)

var (
	shuttingDown atomic.Bool
	startedAt    = time.Now()
)

// SetShuttingDown flips the drain flag. main sets it on SIGTERM/SIGINT before srv.Shutdown,
// so /health reports shutting-down while in-flight weather requests finish.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Uptime returns the time since the process started.
func Uptime() time.Duration {
	return time.Since(startedAt)
}
