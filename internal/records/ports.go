package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tutorbill/internal/core"
)

// ErrNotFound is returned by stores for an unknown record id.
var ErrNotFound = errors.New("session record not found")

// Ports for outbound adapters.
type (
	// Source is the record store the month view reads and mutates. Every
	// failure is reported as a *core.NetworkError.
	Source interface {
		GetByMonth(ctx context.Context, month core.Month) ([]core.SessionRecord, error)
		// TogglePayment flips the paid flag of one record and returns it.
		TogglePayment(ctx context.Context, id int64) (core.SessionRecord, error)
		Delete(ctx context.Context, id int64) error
	}

	// InvoiceGenerator turns a request into an opaque artifact (a PDF).
	InvoiceGenerator interface {
		Generate(ctx context.Context, req core.InvoiceRequest) ([]byte, error)
	}

	// Creator adds new session records.
	Creator interface {
		Create(ctx context.Context, n NewSessionRecord) (core.SessionRecord, error)
	}

	// MonthLister lists the months that have records, newest first.
	MonthLister interface {
		Months(ctx context.Context) ([]core.Month, error)
	}
)

// NewSessionRecord is the input for Creator.Create.
type NewSessionRecord struct {
	StudentID    int64     `json:"studentId" validate:"required,gt=0"`
	StudentName  string    `json:"studentName" validate:"required,max=200"`
	PricePerHour int64     `json:"pricePerHour" validate:"gt=0"`
	SessionDate  core.Date `json:"sessionDate"`
	Sessions     int       `json:"sessions" validate:"gte=1,lte=31"`
	Hours        int       `json:"hours" validate:"gte=1"`
	Paid         bool      `json:"paid"`
}

var validate = validator.New()

// Validate checks field constraints and the session date.
func (n NewSessionRecord) Validate() error {
	if err := validate.Struct(n); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &core.ValidationError{
				Field:  lowerFirst(fe.Field()),
				Reason: fmt.Errorf("failed %q constraint", fe.Tag()),
			}
		}
		return &core.ValidationError{Reason: err}
	}
	if err := n.SessionDate.Validate(); err != nil {
		return &core.ValidationError{Field: "sessionDate", Reason: err}
	}
	return nil
}

// Record builds the stored form. The total is computed here, upstream of the
// aggregation layer, as hours times the hourly price.
func (n NewSessionRecord) Record(id int64) core.SessionRecord {
	price := core.Money{Amount: n.PricePerHour}
	return core.SessionRecord{
		ID:           id,
		StudentID:    n.StudentID,
		StudentName:  strings.TrimSpace(n.StudentName),
		PricePerHour: price,
		SessionDate:  n.SessionDate,
		Sessions:     n.Sessions,
		Hours:        n.Hours,
		TotalAmount:  price.Mul(n.Hours),
		Status:       core.StatusFromPaid(n.Paid),
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
