package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sealedger/internal/platform/middleware"
)

// Publisher stamps and enqueues events for the worker. Emission never blocks
// the calling workflow: if the inbox is full the event is dropped and logged.
// The audit trail is best-effort by design; the ledger itself is the durable
// record of committed state.
type Publisher struct {
	inbox chan<- Event
	log   *slog.Logger
}

func NewPublisher(inbox chan<- Event, log *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, log: log}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = middleware.GetRequestID(ctx)
	}
	select {
	case p.inbox <- event:
	default:
		p.log.WarnContext(ctx, "event inbox full, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
	}
}
