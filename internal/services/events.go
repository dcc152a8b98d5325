// Package services orchestrates the use cases behind the HTTP API: each
// service validates input, calls the store and announces changes on the
// activity exchange.
package services

import (
	"context"
	"log/slog"
	"time"

	"moneymind/internal/amqp"
	"moneymind/internal/core"
)

// Publisher sends activity events. The AMQP client satisfies it.
type Publisher interface {
	PublishActivity(ctx context.Context, ev amqp.ActivityEvent) error
}

// events publishes activity events without ever failing the caller. The
// record is already stored by the time an event goes out.
type events struct {
	pub Publisher
}

func (e events) publish(ctx context.Context, kind string, userID, entityID int64) {
	if e.pub == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping activity event", "event_kind", kind)
		return
	}
	ev := amqp.NewActivityEvent(kind, userID, entityID)
	if err := e.pub.PublishActivity(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish activity event",
			"event_kind", kind,
			"user_id", userID,
			"entity_id", entityID,
			"error", err)
	}
}

// clock returns timestamps at the precision every store keeps.
type clock func() time.Time

func (c clock) now() time.Time {
	return c().UTC().Truncate(time.Microsecond)
}

func (c clock) today() core.Date {
	return core.DateOf(c().UTC())
}
