package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher records events in the log when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher returns a publisher that logs events instead of sending them.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Info("event", zap.String("type", event.Type), zap.Int64("entity_id", event.EntityID),
		zap.Int64("user_id", event.UserID))
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() {}
