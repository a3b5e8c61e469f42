package records

import (
	"errors"
	"testing"

	"tutorbill/internal/core"
)

func TestNewSessionRecordValidate(t *testing.T) {
	valid := NewSessionRecord{
		StudentID:    10,
		StudentName:  "Minh",
		PricePerHour: 200000,
		SessionDate:  core.NewDate(2024, 3, 5),
		Sessions:     1,
		Hours:        2,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	tests := []struct {
		name  string
		edit  func(*NewSessionRecord)
		field string
	}{
		{"missing student", func(n *NewSessionRecord) { n.StudentID = 0 }, "studentID"},
		{"blank name", func(n *NewSessionRecord) { n.StudentName = "" }, "studentName"},
		{"zero price", func(n *NewSessionRecord) { n.PricePerHour = 0 }, "pricePerHour"},
		{"zero hours", func(n *NewSessionRecord) { n.Hours = 0 }, "hours"},
		{"zero date", func(n *NewSessionRecord) { n.SessionDate = core.Date{} }, "sessionDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.edit(&n)
			err := n.Validate()
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestNewSessionRecordComputesTotal(t *testing.T) {
	n := NewSessionRecord{StudentID: 1, StudentName: " Lan ", PricePerHour: 150000, Hours: 3, Sessions: 1, Paid: true}
	r := n.Record(42)
	if r.ID != 42 || r.TotalAmount.Amount != 450000 || r.StudentName != "Lan" || !r.Paid() {
		t.Fatalf("unexpected record: %+v", r)
	}
}
