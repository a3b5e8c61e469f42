package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tutorbill/internal/amqp"
	"tutorbill/internal/storage"
)

// Ledger keeps consumed billing events.
type Ledger interface {
	AppendEvent(ctx context.Context, e storage.LedgerEntry) (bool, error)
}

// EventWorker writes billing events from the queue into the ledger. Events are
// keyed by message id, so redeliveries are stored once.
type EventWorker struct {
	ledger Ledger
}

func NewEventWorker(ledger Ledger) *EventWorker {
	return &EventWorker{ledger: ledger}
}

// HandleEvent processes a single billing event from AMQP. A returned error
// makes the consumer requeue the message.
func (w *EventWorker) HandleEvent(ctx context.Context, msg *amqp.BillingEvent) error {
	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	written, err := w.ledger.AppendEvent(ctx, storage.LedgerEntry{
		MessageID:  msg.MessageID,
		Kind:       string(msg.Kind),
		RecordID:   msg.RecordID,
		StudentID:  msg.StudentID,
		Month:      msg.Month,
		Payload:    payload,
		OccurredAt: msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("append event to ledger: %w", err)
	}

	if !written {
		slog.InfoContext(ctx, "Skipping duplicate billing event",
			"message_id", msg.MessageID,
			"kind", msg.Kind)
		return nil
	}

	slog.InfoContext(ctx, "Billing event recorded",
		"message_id", msg.MessageID,
		"kind", msg.Kind,
		"record_id", msg.RecordID,
		"student_id", msg.StudentID,
		"month", msg.Month)
	return nil
}
