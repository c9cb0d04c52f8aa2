package sink

import (
	"go.uber.org/zap"

	"github.com/statwatch/statwatch/internal/event"
)

// NewLogHandler returns a handler that logs every closed-window event with
// its full metadata.
func NewLogHandler(logger *zap.Logger) event.Handler {
	sugar := logger.Sugar()
	return func(e event.Event) {
		fields := []interface{}{
			zap.String("type", e.Type),
			zap.String("stat", e.Message),
			zap.Time("timestamp", e.Timestamp),
		}
		for k, v := range e.Metadata {
			fields = append(fields, zap.Any(k, v))
		}
		sugar.Infow("Window closed", fields...)
	}
}
