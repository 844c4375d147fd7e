package messenger

import "errors"

var (
	// ErrNilCallback is returned when a registration has no callback.
	ErrNilCallback = errors.New("callback is nil")

	// ErrNilOwner is returned when a method registration has no owner to call the method on.
	ErrNilOwner = errors.New("callback owner is nil")

	// ErrNoDispatcher is returned by SendOnDesignatedThread when the messenger has no dispatcher.
	ErrNoDispatcher = errors.New("no dispatcher configured")

	// ErrCallbackPanic wraps a panic recovered from a subscriber callback.
	ErrCallbackPanic = errors.New("callback panicked")
)
