package recipecontent

import (
	"context"
	"errors"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ImageStored(ctx context.Context, event ImageEvent) error {
	return nil
}

func (n *NoopEventSink) ImageAccessed(ctx context.Context, event ImageEvent) error {
	return nil
}

func (n *NoopEventSink) ImageRemoved(ctx context.Context, event ImageEvent) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink. A nil logger uses slog.Default().
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) ImageStored(ctx context.Context, event ImageEvent) error {
	l.logger.InfoContext(ctx, "Image stored",
		"recipe_uuid", event.RecipeUUID,
		"object_key", event.ObjectKey,
		"user_uid", event.UserUID,
		"content_type", event.ContentType,
		"size", event.Size)
	return nil
}

func (l *LoggingEventSink) ImageAccessed(ctx context.Context, event ImageEvent) error {
	l.logger.InfoContext(ctx, "Image accessed", "recipe_uuid", event.RecipeUUID, "user_uid", event.UserUID)
	return nil
}

func (l *LoggingEventSink) ImageRemoved(ctx context.Context, event ImageEvent) error {
	l.logger.InfoContext(ctx, "Image removed", "recipe_uuid", event.RecipeUUID, "user_uid", event.UserUID)
	return nil
}

// MultiEventSink fans each event out to every sink and joins their errors
type MultiEventSink []EventSink

func NewMultiEventSink(sinks ...EventSink) EventSink {
	return MultiEventSink(sinks)
}

func (m MultiEventSink) ImageStored(ctx context.Context, event ImageEvent) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.ImageStored(ctx, event))
	}
	return errors.Join(errs...)
}

func (m MultiEventSink) ImageAccessed(ctx context.Context, event ImageEvent) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.ImageAccessed(ctx, event))
	}
	return errors.Join(errs...)
}

func (m MultiEventSink) ImageRemoved(ctx context.Context, event ImageEvent) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.ImageRemoved(ctx, event))
	}
	return errors.Join(errs...)
}
