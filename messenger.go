package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"sync/atomic"
	"time"
	"weak"

	"github.com/google/uuid"

	"github.com/dmitrymomot/messenger/core/logger"
	"github.com/dmitrymomot/messenger/core/loop"
	"github.com/dmitrymomot/messenger/pkg/async"
)

// Dispatcher runs work on the host's designated thread.
type Dispatcher interface {
	Invoke(ctx context.Context, work func(context.Context) error) *async.ExecFuture
}

// IdleScheduler runs work once, during the host's next idle period.
type IdleScheduler interface {
	ScheduleIdle(work func())
}

// Messenger routes typed messages to weakly referenced subscribers.
// The zero value is not usable; create one with New.
type Messenger struct {
	strict *table
	poly   *table

	logger       *slog.Logger
	dispatcher   Dispatcher
	idle         IdleScheduler
	cleanupDelay time.Duration
	concurrent   bool

	cleanupPending   atomic.Bool
	messagesSent     atomic.Int64
	deliveries       atomic.Int64
	deliveryFailures atomic.Int64
	cleanupRuns      atomic.Int64
}

// Stats provides observability counters.
type Stats struct {
	// StrictTypes and PolymorphicTypes count buckets in each table.
	StrictTypes      int
	PolymorphicTypes int
	// Subscriptions counts entries held by both tables, including
	// entries marked dead that the next cleanup pass will remove.
	Subscriptions    int
	MessagesSent     int64
	Deliveries       int64
	DeliveryFailures int64
	CleanupRuns      int64
	CleanupPending   bool
}

// New creates a messenger with the given options.
//
// Example:
//
//	m := messenger.New(
//	    messenger.WithLogger(log),
//	    messenger.WithDispatcher(uiLoop),
//	    messenger.WithIdleScheduler(uiLoop),
//	)
func New(opts ...Option) *Messenger {
	cfg := DefaultConfig()
	m := &Messenger{
		strict:       newTable(),
		poly:         newTable(),
		logger:       logger.Discard(),
		cleanupDelay: cfg.CleanupDelay,
		concurrent:   cfg.ConcurrentDelivery,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.idle == nil {
		m.idle = loop.AfterFunc(m.cleanupDelay)
	}

	return m
}

// Register subscribes fn to messages of type T on behalf of subscriber.
// The messenger keeps only a weak reference to subscriber; once it is
// collected the subscription stops receiving messages. fn itself is held
// strongly, so it must not capture subscriber or the subscriber never dies.
// Use RegisterMethod to bind a method without keeping its receiver alive.
//
// Collection is only observable for subscribers with their own heap block.
// Pointer-free values under 16 bytes may share a tiny-allocator block and stay
// alive until the whole block is unreachable. Zero-size values and package-level
// variables are never collected, and all zero-size values may share one address,
// so Unregister on one of them can match the others.
//
// A nil subscriber is accepted but such a subscription is never delivered and
// is not purged by cleanup; remove it with Subscription.Cancel.
func Register[T, S any](m *Messenger, subscriber *S, fn func(context.Context, T) error, opts ...CallOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	return subscribe(m, reflect.TypeFor[T](), subscriber, newHandle(subscriber, fn), opts)
}

// RegisterMethod subscribes a method expression such as (*Inbox).OnOrderPlaced.
// Both subscriber and owner are referenced weakly and tracked independently;
// the subscription dies when either is collected. A nil subscriber yields a
// subscription that is dead from the start and removed by the next cleanup.
func RegisterMethod[T, S, O any](m *Messenger, subscriber *S, owner *O, method func(*O, context.Context, T) error, opts ...CallOption) (*Subscription, error) {
	if method == nil {
		return nil, ErrNilCallback
	}
	if owner == nil {
		return nil, ErrNilOwner
	}
	h := newMethodHandle(subscriber, owner, method)
	if subscriber == nil {
		h.MarkForDeletion()
	}
	return subscribe(m, reflect.TypeFor[T](), subscriber, h, opts)
}

func subscribe[S any](m *Messenger, typ reflect.Type, subscriber *S, h *weakHandle, opts []CallOption) (*Subscription, error) {
	o := newCallOptions(opts)
	s := &Subscription{
		id:              uuid.NewString(),
		messageType:     typ,
		token:           o.token,
		includeSubtypes: o.includeSubtypes,
		handle:          h,
		m:               m,
	}

	if o.includeSubtypes {
		m.poly.add(typ, s)
	} else {
		m.strict.add(typ, s)
	}

	// Purge promptly once the subscriber is collected.
	if subscriber != nil {
		runtime.AddCleanup(subscriber, func(wm weak.Pointer[Messenger]) {
			if m := wm.Value(); m != nil {
				m.requestCleanup()
			}
		}, weak.Make(m))
	}

	m.logger.Debug("subscription registered",
		logger.Component("messenger"),
		logger.SubscriptionID(s.id),
		logger.MessageType(typ.String()),
		logger.Method(h.method),
		logger.Token(o.token),
		slog.Bool("include_subtypes", o.includeSubtypes))

	m.requestCleanup()
	return s, nil
}

// Send delivers msg to every matching live subscription and returns once all
// invoked callbacks have returned. The routing type is T, not the dynamic
// type of msg, so Send[Shape](ctx, m, circle) routes as Shape.
//
// Strict subscriptions match when their type is T. Subscriptions registered
// WithDerived also match related types. A subscription with a token only
// receives sends carrying an equal token, and a send with a token only reaches
// subscriptions with an equal token. Callback errors are joined.
func Send[T any](ctx context.Context, m *Messenger, msg T, opts ...CallOption) error {
	return m.deliver(ctx, reflect.TypeFor[T](), msg, newCallOptions(opts))
}

// SendAsync is Send running on its own goroutine. If ctx is already done the
// send is skipped and the future carries ctx.Err().
func SendAsync[T any](ctx context.Context, m *Messenger, msg T, opts ...CallOption) *async.ExecFuture {
	typ, o := reflect.TypeFor[T](), newCallOptions(opts)
	return async.Exec(ctx, msg, func(ctx context.Context, msg T) error {
		return m.deliver(ctx, typ, msg, o)
	})
}

// SendOnDesignatedThread performs Send on the configured dispatcher.
// Callbacks run one after another on the dispatcher's thread.
func SendOnDesignatedThread[T any](ctx context.Context, m *Messenger, msg T, opts ...CallOption) *async.ExecFuture {
	if m.dispatcher == nil {
		return async.Completed(ErrNoDispatcher)
	}
	typ, o := reflect.TypeFor[T](), newCallOptions(opts)
	sequential := false
	o.concurrent = &sequential
	return m.dispatcher.Invoke(ctx, func(ctx context.Context) error {
		return m.deliver(ctx, typ, msg, o)
	})
}

// Unregister stops delivery to every subscription of subscriber, across all
// message types and tokens. Passing nil is a no-op.
func (m *Messenger) Unregister(subscriber any) {
	if isNil(subscriber) {
		return
	}

	match := func(s *Subscription) bool { return s.handle.subscribedBy(subscriber) }
	marked := m.strict.markAll(match)
	marked += m.poly.markAll(match)

	m.logger.Debug("subscriber unregistered",
		logger.Component("messenger"),
		logger.Count("subscriptions", marked))

	m.requestCleanup()
}

// UnregisterType stops delivery of T messages to subscriber. WithToken limits
// it to subscriptions with an equal token, WithCallback to subscriptions whose
// callback has the same name.
func UnregisterType[T any](m *Messenger, subscriber any, opts ...CallOption) {
	typ, o := reflect.TypeFor[T](), newCallOptions(opts)

	match := func(s *Subscription) bool {
		if !s.handle.subscribedBy(subscriber) {
			return false
		}
		if o.callback != "" && s.handle.method != o.callback {
			return false
		}
		return o.token == nil || tokensMatch(s.token, o.token)
	}
	marked := m.strict.markType(typ, match)
	marked += m.poly.markType(typ, match)

	m.logger.Debug("subscriber unregistered from type",
		logger.Component("messenger"),
		logger.MessageType(typ.String()),
		logger.Method(o.callback),
		logger.Token(o.token),
		logger.Count("subscriptions", marked))

	m.requestCleanup()
}

// Cleanup removes dead subscriptions and empty buckets from both tables.
// It runs automatically during idle time after registrations, sends and
// unregistrations; calling it directly is safe at any time.
func (m *Messenger) Cleanup() {
	start := time.Now()
	removed := m.strict.purge()
	removed += m.poly.purge()
	m.cleanupRuns.Add(1)

	if removed > 0 {
		m.logger.Debug("dead subscriptions purged",
			logger.Component("messenger"),
			logger.Count("removed", removed),
			logger.Elapsed(start))
	}
}

// Stats returns current messenger statistics.
func (m *Messenger) Stats() Stats {
	strictTypes, strictEntries := m.strict.size()
	polyTypes, polyEntries := m.poly.size()

	return Stats{
		StrictTypes:      strictTypes,
		PolymorphicTypes: polyTypes,
		Subscriptions:    strictEntries + polyEntries,
		MessagesSent:     m.messagesSent.Load(),
		Deliveries:       m.deliveries.Load(),
		DeliveryFailures: m.deliveryFailures.Load(),
		CleanupRuns:      m.cleanupRuns.Load(),
		CleanupPending:   m.cleanupPending.Load(),
	}
}

// requestCleanup schedules one deferred cleanup pass unless one is already pending.
func (m *Messenger) requestCleanup() {
	if !m.cleanupPending.CompareAndSwap(false, true) {
		return
	}
	m.idle.ScheduleIdle(func() {
		m.cleanupPending.Store(false)
		m.Cleanup()
	})
}

func (m *Messenger) deliver(ctx context.Context, typ reflect.Type, msg any, o callOptions) error {
	m.messagesSent.Add(1)

	d := delivery{
		id:          uuid.NewString(),
		messageType: typ.String(),
		token:       o.token,
	}

	var targets []*Subscription
	for _, s := range append(m.strict.exact(typ), m.poly.matching(typ)...) {
		if s.handle.IsAlive() && tokensMatch(s.token, o.token) {
			targets = append(targets, s)
		}
	}

	concurrent := m.concurrent
	if o.concurrent != nil {
		concurrent = *o.concurrent
	}

	var err error
	if concurrent && len(targets) > 1 {
		futures := make([]*async.ExecFuture, 0, len(targets))
		for _, s := range targets {
			futures = append(futures, async.Go(func() error {
				return m.invoke(ctx, d, s, msg)
			}))
		}
		err = async.JoinAll(futures...)
	} else {
		var errs []error
		for _, s := range targets {
			if err := m.invoke(ctx, d, s, msg); err != nil {
				errs = append(errs, err)
			}
		}
		err = errors.Join(errs...)
	}

	m.requestCleanup()
	return err
}

func (m *Messenger) invoke(ctx context.Context, d delivery, s *Subscription, msg any) (err error) {
	d.subscriptionID = s.id
	ctx = withDelivery(ctx, d)

	defer func() {
		if r := recover(); r != nil {
			m.deliveries.Add(1)
			m.deliveryFailures.Add(1)
			m.logger.ErrorContext(ctx, "subscriber callback panicked",
				logger.Component("messenger"),
				logger.SubscriptionID(s.id),
				logger.MessageType(d.messageType),
				logger.Method(s.handle.method),
				logger.Panic(r))
			err = fmt.Errorf("subscription %s (%s): %w: %v", s.id, s.handle.method, ErrCallbackPanic, r)
		}
	}()

	start := time.Now()
	delivered, err := s.handle.execute(ctx, msg)
	if !delivered {
		return nil
	}
	m.deliveries.Add(1)

	if err != nil {
		m.deliveryFailures.Add(1)
		m.logger.DebugContext(ctx, "subscriber callback failed",
			logger.Component("messenger"),
			logger.SubscriptionID(s.id),
			logger.MessageType(d.messageType),
			logger.Method(s.handle.method),
			logger.Duration(time.Since(start)),
			logger.Error(err))
		return fmt.Errorf("subscription %s (%s): %w", s.id, s.handle.method, err)
	}
	return nil
}

// tokensMatch is the delivery rule: both tokens absent, or both present and equal.
func tokensMatch(entry, sent any) bool {
	if entry == nil || sent == nil {
		return entry == nil && sent == nil
	}
	return tokensEqual(entry, sent)
}

// tokensEqual compares by value. Comparable values use ==, others reflect.DeepEqual.
func tokensEqual(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() {
		return va.Equal(vb)
	}
	return reflect.DeepEqual(a, b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
