package async

import "errors"

var (
	// ErrTimeout is returned when AwaitWithTimeout exceeds its duration.
	ErrTimeout = errors.New("async: operation timed out")
)
