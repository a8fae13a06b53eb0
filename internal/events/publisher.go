// Package events delivers domain events to the notification collaborator.
// Publishing is fire-and-forget from the ledger's point of view.
package events

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
)

// Publisher accepts domain events.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.Event) error {
	p.logger.Info("domain event",
		zap.String("event_id", event.ID.String()),
		zap.String("type", event.Type),
		zap.String("sponsorship_id", event.SponsorshipID.String()),
		zap.String("status", event.Status.String()),
	)
	return nil
}

// NewSink returns the publisher domain events are delivered to: the Redis stream when
// one is configured, the log otherwise.
func NewSink(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) Publisher {
	if client == nil || stream == "" {
		logger.Warn("no event stream configured, domain events will only be logged")
		return NewLogPublisher(logger)
	}
	return NewRedisStreamPublisher(client, stream, maxLen)
}
