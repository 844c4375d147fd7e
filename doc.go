// Package messenger is a typed, in-process publish/subscribe dispatcher.
//
// Components exchange messages without holding references to each other. The
// messenger keeps only weak references to subscribers, so registering never
// extends a subscriber's lifetime: once it is collected its subscriptions stop
// receiving messages and are purged during idle time.
//
// # Registering
//
// Register binds a callback to a message type on behalf of a subscriber:
//
//	m := messenger.New(messenger.WithLogger(log))
//
//	sub, err := messenger.Register(m, inbox, func(ctx context.Context, msg OrderPlaced) error {
//		return notify(ctx, msg)
//	})
//
// The callback is held strongly and must not capture the subscriber. To bind a
// method without keeping its receiver alive use RegisterMethod with a method
// expression; the owner is then referenced weakly as well:
//
//	messenger.RegisterMethod(m, inbox, inbox, (*Inbox).OnOrderPlaced)
//
// # Routing
//
// The routing type of a message is the type argument of Send, not its dynamic
// type. Strict subscriptions receive only their exact type. Subscriptions made
// WithDerived also receive related types, in both directions: an interface
// subscription receives its implementations, and a concrete subscription
// receives sends routed through an interface it implements. Instantiations of a
// generic message type share one bucket; a callback is skipped when the message
// does not convert to its parameter type.
//
// Tokens narrow delivery. A send reaches a subscription only when both have no
// token, or both have equal tokens:
//
//	messenger.Register(m, pane, onSelected, messenger.WithToken("left"))
//	messenger.Send(ctx, m, Selected{ID: id}, messenger.WithToken("left"))
//
// # Delivery
//
// Send runs every matching callback and returns once all have returned,
// joining their errors with errors.Join. Callbacks run in registration order by
// default, or concurrently with WithConcurrentDelivery. Panics are recovered
// and reported as ErrCallbackPanic. Callbacks may register, unregister and send
// reentrantly; an entry added during a send is not invoked by that send.
//
// SendAsync runs a send on its own goroutine. SendOnDesignatedThread marshals
// it onto a Dispatcher such as *loop.Loop, where callbacks run one by one.
//
// Inside a callback DeliveryID, MessageType, SubscriptionID and DeliveryToken
// describe the current delivery, and LogExtractor adds them to log records.
//
// # Cleanup
//
// Unregister, UnregisterType and Subscription.Cancel mark entries dead at
// once. Dead entries are removed by a cleanup pass scheduled on the
// IdleScheduler; requests made while a pass is pending are coalesced.
package messenger
