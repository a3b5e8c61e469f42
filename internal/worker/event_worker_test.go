package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tutorbill/internal/amqp"
	"tutorbill/internal/core"
	"tutorbill/internal/storage"
)

type memLedger struct {
	entries map[string]storage.LedgerEntry
	fail    error
}

func (l *memLedger) AppendEvent(_ context.Context, e storage.LedgerEntry) (bool, error) {
	if l.fail != nil {
		return false, l.fail
	}
	if _, ok := l.entries[e.MessageID]; ok {
		return false, nil
	}
	l.entries[e.MessageID] = e
	return true, nil
}

func TestEventWorkerRecordsEvent(t *testing.T) {
	ledger := &memLedger{entries: map[string]storage.LedgerEntry{}}
	w := NewEventWorker(ledger)
	msg := amqp.NewPaymentToggledEvent(core.SessionRecord{
		ID:          7,
		StudentID:   10,
		SessionDate: core.NewDate(2024, 3, 12),
		Status:      core.StatusPaid,
	})

	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	// Redelivery is not an error.
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle duplicate: %v", err)
	}

	if len(ledger.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(ledger.entries))
	}
	e := ledger.entries[msg.MessageID]
	if e.Kind != "payment_toggled" || e.RecordID != 7 || e.Month != "2024-03" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	var decoded amqp.BillingEvent
	if err := json.Unmarshal(e.Payload, &decoded); err != nil || decoded.Status != "paid" {
		t.Fatalf("payload should hold the full event: %s (%v)", e.Payload, err)
	}
}

func TestEventWorkerLedgerFailure(t *testing.T) {
	boom := errors.New("disk full")
	w := NewEventWorker(&memLedger{fail: boom})
	err := w.HandleEvent(context.Background(), amqp.NewSessionDeletedEvent(1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected ledger error, got %v", err)
	}
}
