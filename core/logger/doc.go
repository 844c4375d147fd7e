// Package logger provides structured logging utilities built on Go's standard slog package.
//
// New builds a *slog.Logger with a chosen format, level, output and static
// attributes. Context extractors pull request-scoped values out of the context
// given to the *Context logging methods, which is how delivery metadata ends up
// on every log line a subscriber callback writes:
//
//	log := logger.New(
//		logger.WithDevelopment("notifier"),
//		logger.WithContextExtractors(messenger.LogExtractor),
//	)
//
//	log.InfoContext(ctx, "message handled", logger.Component("inbox"))
//
// # Attribute Helpers
//
// The attribute helpers return an empty slog.Attr for nil or empty input, and
// slog drops empty attributes, so callers never need nil checks:
//
//	log.Error("delivery failed",
//		logger.MessageType("orders.Placed"),
//		logger.SubscriptionID(id),
//		logger.Error(err),
//	)
//
// Discard returns a logger that drops everything; components use it as their
// default so logging stays opt-in.
package logger
