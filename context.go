package messenger

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/messenger/core/logger"
)

type deliveryCtx struct{}

type delivery struct {
	id             string
	messageType    string
	subscriptionID string
	token          any
}

func withDelivery(ctx context.Context, d delivery) context.Context {
	return context.WithValue(ctx, deliveryCtx{}, d)
}

func deliveryFrom(ctx context.Context) (delivery, bool) {
	d, ok := ctx.Value(deliveryCtx{}).(delivery)
	return d, ok
}

// DeliveryID returns the identifier of the send that invoked the callback.
// All callbacks reached by one send share it. Returns empty string outside a callback.
func DeliveryID(ctx context.Context) string {
	d, _ := deliveryFrom(ctx)
	return d.id
}

// MessageType returns the routing type of the message being delivered.
// Returns empty string outside a callback.
func MessageType(ctx context.Context) string {
	d, _ := deliveryFrom(ctx)
	return d.messageType
}

// SubscriptionID returns the identifier of the subscription being invoked.
// Returns empty string outside a callback.
func SubscriptionID(ctx context.Context) string {
	d, _ := deliveryFrom(ctx)
	return d.subscriptionID
}

// DeliveryToken returns the token the message was sent with, or nil.
func DeliveryToken(ctx context.Context) any {
	d, _ := deliveryFrom(ctx)
	return d.token
}

// LogExtractor is a logger.ContextExtractor that adds delivery metadata to
// records logged from inside a callback.
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	d, ok := deliveryFrom(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.Group("delivery",
		logger.DeliveryID(d.id),
		logger.MessageType(d.messageType),
		logger.SubscriptionID(d.subscriptionID),
	), true
}

var _ logger.ContextExtractor = LogExtractor
