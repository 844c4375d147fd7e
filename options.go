package messenger

import (
	"log/slog"
)

// Option configures a Messenger.
type Option func(*Messenger)

// WithConfig applies cfg. A negative CleanupDelay is ignored.
func WithConfig(cfg Config) Option {
	return func(m *Messenger) {
		if cfg.CleanupDelay >= 0 {
			m.cleanupDelay = cfg.CleanupDelay
		}
		m.concurrent = cfg.ConcurrentDelivery
	}
}

// WithLogger configures structured logging for messenger operations.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Messenger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDispatcher sets the designated-thread dispatcher used by SendOnDesignatedThread.
// *loop.Loop satisfies it.
func WithDispatcher(d Dispatcher) Option {
	return func(m *Messenger) {
		if d != nil {
			m.dispatcher = d
		}
	}
}

// WithIdleScheduler sets where deferred cleanup runs. *loop.Loop and
// loop.AfterFunc satisfy it. Defaults to loop.AfterFunc(CleanupDelay).
func WithIdleScheduler(s IdleScheduler) Option {
	return func(m *Messenger) {
		if s != nil {
			m.idle = s
		}
	}
}

// CallOption configures a single Register, Send or UnregisterType call.
type CallOption func(*callOptions)

type callOptions struct {
	token           any
	includeSubtypes bool
	concurrent      *bool
	callback        string
}

func newCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithToken sets the filter token. On Register it restricts the subscription
// to sends carrying an equal token; on Send it selects those subscriptions;
// on UnregisterType it limits removal to entries with an equal token.
// A nil token means no token.
func WithToken(token any) CallOption {
	return func(o *callOptions) { o.token = token }
}

// WithIncludeSubtypes registers the subscription in the polymorphic table so it
// also receives related types: implementations of an interface message type,
// or sends routed through an interface the message type implements.
func WithIncludeSubtypes(include bool) CallOption {
	return func(o *callOptions) { o.includeSubtypes = include }
}

// WithDerived is shorthand for WithIncludeSubtypes(true).
func WithDerived() CallOption {
	return WithIncludeSubtypes(true)
}

// WithConcurrentDelivery overrides the messenger default for one send. When
// enabled every matched callback runs on its own goroutine and the send waits
// for all of them. Ignored by SendOnDesignatedThread.
func WithConcurrentDelivery(enabled bool) CallOption {
	return func(o *callOptions) { o.concurrent = &enabled }
}

// WithCallback limits UnregisterType to entries whose callback has the same
// function name as fn, e.g. (*Inbox).OnOrderPlaced or inbox.OnOrderPlaced.
func WithCallback(fn any) CallOption {
	return func(o *callOptions) { o.callback = funcName(fn) }
}
