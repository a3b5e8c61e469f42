package services

import (
	"context"
	"log/slog"

	"tutorbill/internal/core"
)

// EventPublisher announces billing changes to other processes. It is
// optional: a nil publisher skips publishing.
type EventPublisher interface {
	PublishPaymentToggled(ctx context.Context, rec core.SessionRecord) error
	PublishSessionDeleted(ctx context.Context, id int64) error
	PublishInvoiceGenerated(ctx context.Context, req core.InvoiceRequest, size int) error
}

// publisher wraps an optional EventPublisher. Failures are logged and never
// returned: the change itself already happened in the store.
type publisher struct {
	p EventPublisher
}

func (p publisher) paymentToggled(ctx context.Context, rec core.SessionRecord) {
	if p.p == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping payment event", "id", rec.ID)
		return
	}
	if err := p.p.PublishPaymentToggled(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to publish payment toggled event",
			"id", rec.ID, "error", err)
	}
}

func (p publisher) sessionDeleted(ctx context.Context, id int64) {
	if p.p == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping delete event", "id", id)
		return
	}
	if err := p.p.PublishSessionDeleted(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish session deleted event",
			"id", id, "error", err)
	}
}

func (p publisher) invoiceGenerated(ctx context.Context, req core.InvoiceRequest, size int) {
	if p.p == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping invoice event")
		return
	}
	if err := p.p.PublishInvoiceGenerated(ctx, req, size); err != nil {
		slog.ErrorContext(ctx, "Failed to publish invoice generated event",
			"student_id", req.PrimaryStudentID, "month", req.Month.String(), "error", err)
	}
}
