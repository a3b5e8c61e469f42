package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tutorbill/internal/core"
	"tutorbill/internal/records"
)

// Refresher re-fetches and re-aggregates the current month.
type Refresher interface {
	Reload(ctx context.Context) error
}

// GroupToggleResult lists record ids by outcome, in the order they were tried.
type GroupToggleResult struct {
	Succeeded []int64 `json:"succeeded"`
	Failed    []int64 `json:"failed"`
}

// Partial reports whether some but not all toggles went through.
func (r GroupToggleResult) Partial() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) > 0
}

// PartialToggleError is returned when one or more toggles of a batch failed.
// Toggles that succeeded stay applied.
type PartialToggleError struct {
	StudentID int64 // zero for an explicit id batch
	Result    GroupToggleResult
	Errs      []error
}

func (e *PartialToggleError) Error() string {
	target := "records"
	if e.StudentID != 0 {
		target = fmt.Sprintf("student %d", e.StudentID)
	}
	return fmt.Sprintf("toggle payment for %s: %d of %d failed: %v",
		target, len(e.Result.Failed), len(e.Result.Failed)+len(e.Result.Succeeded), errors.Join(e.Errs...))
}

func (e *PartialToggleError) Unwrap() []error {
	return e.Errs
}

// PaymentCoordinator flips payment flags through the record source and then
// asks the view to reload instead of patching its state.
type PaymentCoordinator struct {
	source    records.Source
	refresher Refresher
	events    publisher
}

func NewPaymentCoordinator(source records.Source, refresher Refresher, events EventPublisher) *PaymentCoordinator {
	return &PaymentCoordinator{
		source:    source,
		refresher: refresher,
		events:    publisher{p: events},
	}
}

// TogglePayment flips one record and reloads.
func (c *PaymentCoordinator) TogglePayment(ctx context.Context, id int64) (core.SessionRecord, error) {
	rec, err := c.toggle(ctx, id)
	if err != nil {
		return core.SessionRecord{}, err
	}
	return rec, c.reload(ctx)
}

// ToggleGroupPayment toggles every session of the student's group, one after
// another. It is best-effort: a failure does not stop the loop and nothing is
// rolled back, so the group may end up partly paid. The view reloads once at
// the end whatever the outcome.
func (c *PaymentCoordinator) ToggleGroupPayment(ctx context.Context, studentID int64, groups core.Groups) (GroupToggleResult, error) {
	grp, ok := groups.Get(studentID)
	if !ok {
		return GroupToggleResult{}, &core.ValidationError{
			Field:  "studentId",
			Reason: fmt.Errorf("%w: %d", core.ErrUnknownStudent, studentID),
		}
	}
	res, err := c.toggleAll(ctx, grp.SessionIDs())
	var perr *PartialToggleError
	if errors.As(err, &perr) {
		perr.StudentID = studentID
	}
	slog.InfoContext(ctx, "Toggled group payment",
		"student_id", studentID, "succeeded", len(res.Succeeded), "failed", len(res.Failed))
	return res, err
}

// ToggleRecords toggles an explicit list of records, typically the failed
// subset of an earlier group toggle.
func (c *PaymentCoordinator) ToggleRecords(ctx context.Context, ids []int64) (GroupToggleResult, error) {
	if len(ids) == 0 {
		return GroupToggleResult{}, &core.ValidationError{Field: "ids", Reason: core.ErrNoSessions}
	}
	return c.toggleAll(ctx, ids)
}

func (c *PaymentCoordinator) toggleAll(ctx context.Context, ids []int64) (GroupToggleResult, error) {
	var (
		res  GroupToggleResult
		errs []error
	)
	for _, id := range ids {
		if _, err := c.toggle(ctx, id); err != nil {
			res.Failed = append(res.Failed, id)
			errs = append(errs, err)
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}

	var err error
	if len(errs) > 0 {
		err = &PartialToggleError{Result: res, Errs: errs}
	}
	if rerr := c.reload(ctx); rerr != nil {
		err = errors.Join(err, rerr)
	}
	return res, err
}

func (c *PaymentCoordinator) toggle(ctx context.Context, id int64) (core.SessionRecord, error) {
	rec, err := c.source.TogglePayment(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to toggle payment", "id", id, "error", err)
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, err)
	}
	c.events.paymentToggled(ctx, rec)
	return rec, nil
}

// reload ignores ErrStale: a newer fetch already owns the view.
func (c *PaymentCoordinator) reload(ctx context.Context) error {
	if c.refresher == nil {
		return nil
	}
	if err := c.refresher.Reload(ctx); err != nil && !errors.Is(err, ErrStale) {
		return fmt.Errorf("reload after toggle: %w", err)
	}
	return nil
}
