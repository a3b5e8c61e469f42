package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tutorbill/internal/core"
)

// EventKind identifies what happened to the billing data.
type EventKind string

const (
	KindPaymentToggled   EventKind = "payment_toggled"
	KindSessionDeleted   EventKind = "session_deleted"
	KindInvoiceGenerated EventKind = "invoice_generated"
)

func (k EventKind) Valid() bool {
	switch k {
	case KindPaymentToggled, KindSessionDeleted, KindInvoiceGenerated:
		return true
	}
	return false
}

// BillingEvent is the message body published for every billing change.
// Fields that do not apply to a kind are left empty.
type BillingEvent struct {
	MessageID  string    `json:"messageId"`
	Kind       EventKind `json:"kind"`
	RecordID   int64     `json:"recordId,omitempty"`
	StudentID  int64     `json:"studentId,omitempty"`
	Month      string    `json:"month,omitempty"`
	Status     string    `json:"status,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	SessionIDs []int64   `json:"sessionRecordIds,omitempty"`
	Students   []int64   `json:"selectedStudentIds,omitempty"`
	Size       int       `json:"size,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func newEvent(kind EventKind) *BillingEvent {
	return &BillingEvent{
		MessageID: uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// NewPaymentToggledEvent describes the state a record was toggled into.
func NewPaymentToggledEvent(rec core.SessionRecord) *BillingEvent {
	e := newEvent(KindPaymentToggled)
	e.RecordID = rec.ID
	e.StudentID = rec.StudentID
	e.Month = core.MonthOf(rec.SessionDate.Time).String()
	e.Status = rec.Status.String()
	e.Amount = rec.TotalAmount.Amount
	return e
}

func NewSessionDeletedEvent(id int64) *BillingEvent {
	e := newEvent(KindSessionDeleted)
	e.RecordID = id
	return e
}

// NewInvoiceGeneratedEvent records which sessions went into an artifact of
// size bytes.
func NewInvoiceGeneratedEvent(req core.InvoiceRequest, size int) *BillingEvent {
	e := newEvent(KindInvoiceGenerated)
	e.StudentID = req.PrimaryStudentID
	e.Month = req.Month.String()
	e.SessionIDs = append([]int64(nil), req.SessionRecordIDs...)
	e.Students = append([]int64(nil), req.SelectedStudentIDs...)
	e.Size = size
	return e
}

// ToJSON converts the message to JSON bytes
func (m *BillingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillingEventFromJSON decodes a message and rejects unknown kinds or a
// missing message id.
func BillingEventFromJSON(data []byte) (*BillingEvent, error) {
	var msg BillingEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if msg.MessageID == "" {
		return nil, fmt.Errorf("event without message id")
	}
	return &msg, nil
}
