package events

import (
	"context"
	"log/slog"
)

// Worker drains the inbox into the configured sinks. A sink failure is
// logged and the event continues to the remaining sinks; the worker only
// stops when its context is cancelled.
type Worker struct {
	inbox <-chan Event
	sinks []Store
	log   *slog.Logger
}

func NewWorker(inbox <-chan Event, log *slog.Logger, sinks ...Store) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, log: log}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.log.ErrorContext(ctx, "event sink append failed",
						"action", event.Action,
						"subject", event.Subject,
						"error", err.Error(),
					)
				}
			}
		}
	}
}
