package loop

import "errors"

var (
	// ErrLoopAlreadyStarted is returned when Start is called on a running loop.
	ErrLoopAlreadyStarted = errors.New("loop already started")

	// ErrLoopNotStarted is returned when Stop is called on a loop that is not running.
	ErrLoopNotStarted = errors.New("loop not started")

	// ErrLoopNotRunning is returned by Healthcheck when the loop is not processing work.
	ErrLoopNotRunning = errors.New("loop not running")

	// ErrLoopStopped is returned for work submitted to, or still queued on, a loop that has exited.
	ErrLoopStopped = errors.New("loop stopped")

	// ErrShutdownTimeout is returned by Stop when the running work item outlives the shutdown timeout.
	ErrShutdownTimeout = errors.New("loop shutdown timeout exceeded")

	// ErrWorkPanicked wraps a panic recovered from a work item.
	ErrWorkPanicked = errors.New("loop work panicked")
)
