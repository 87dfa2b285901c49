package sim

import (
	"log/slog"
	"reflect"
)

// EventLogger is a hook that logs every event before it is handled. It logs
// at debug level, so it only writes when the logger enables it.
type EventLogger struct {
	logger *slog.Logger
}

// NewEventLogger creates an EventLogger writing to logger.
func NewEventLogger(logger *slog.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func logs the event of a before-event hook.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	attrs := []any{
		"time", float64(evt.Time()),
		"event", reflect.TypeOf(evt).String(),
	}

	if comp, ok := evt.Handler().(Named); ok {
		attrs = append(attrs, "handler", comp.Name())
	}

	h.logger.Debug("event", attrs...)
}
