package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tutorbill/internal/core"
	"tutorbill/internal/records"
)

// ErrStale is returned when a result arrives after a newer request or a month
// change made it obsolete. The result is discarded.
var ErrStale = errors.New("result is stale")

// Op names an operation whose progress the view reports.
type Op string

const (
	OpLoad     Op = "load"
	OpToggle   Op = "toggle"
	OpDelete   Op = "delete"
	OpGenerate Op = "generate"
)

var ops = []Op{OpLoad, OpToggle, OpDelete, OpGenerate}

// artifactCache is implemented by generators that keep generated invoices.
// Cached artifacts are dropped whenever freshly fetched records are applied.
type artifactCache interface {
	Invalidate()
}

// Invoice is a generated artifact ready for download.
type Invoice struct {
	Filename string
	Request  core.InvoiceRequest
	Data     []byte
}

// ViewSnapshot is everything the UI renders for one month.
type ViewSnapshot struct {
	Month     core.Month          `json:"month"`
	Label     string              `json:"label"`
	Loaded    bool                `json:"loaded"`
	Groups    []core.StudentGroup `json:"groups"`
	Selected  []int64             `json:"selected"`
	SelectAll bool                `json:"selectAll"`
	Combined  core.Totals         `json:"combined"`
	Summary   core.MonthSummary   `json:"summary"`
	Busy      map[Op]bool         `json:"busy"`
	Errors    map[Op]string       `json:"errors,omitempty"`
}

// MonthlyView owns one month's records, the groups derived from them and the
// invoice selection. It is safe for concurrent use. The mutex is never held
// across a call to the source or the generator; results of those calls are
// applied only when their sequence token and month still match.
type MonthlyView struct {
	source    records.Source
	generator records.InvoiceGenerator
	events    publisher
	payments  *PaymentCoordinator

	mu        sync.Mutex
	month     core.Month
	loaded    bool
	records   []core.SessionRecord
	groups    core.Groups
	selection Selection
	fetchSeq  uint64
	genSeq    uint64 // bumped only by ChangeMonth
	busy      map[Op]int
	lastErr   map[Op]error
}

// NewMonthlyView creates a view for month. Nothing is fetched until Reload or
// ChangeMonth is called. events may be nil.
func NewMonthlyView(source records.Source, generator records.InvoiceGenerator, events EventPublisher, month core.Month) *MonthlyView {
	v := &MonthlyView{
		source:    source,
		generator: generator,
		events:    publisher{p: events},
		month:     month,
		groups:    core.GroupByStudent(nil),
		busy:      make(map[Op]int),
		lastErr:   make(map[Op]error),
	}
	v.payments = NewPaymentCoordinator(source, v, events)
	return v
}

// Month returns the month currently shown.
func (v *MonthlyView) Month() core.Month {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.month
}

// Groups returns the current groups. Groups are replaced, never mutated, so
// the value stays consistent after the lock is released.
func (v *MonthlyView) Groups() core.Groups {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.groups
}

// ChangeMonth switches to month, clears the selection unconditionally and
// fetches the new month. Generations still in flight for the old month are
// invalidated.
func (v *MonthlyView) ChangeMonth(ctx context.Context, month core.Month) error {
	if month.IsZero() || month.Month < 1 || month.Month > 12 {
		return &core.ValidationError{Field: "month", Reason: core.ErrInvalidMonth}
	}

	v.mu.Lock()
	if month != v.month {
		v.month = month
		v.loaded = false
		v.records = nil
		v.groups = core.GroupByStudent(nil)
	}
	v.selection.Reset()
	v.genSeq++
	v.mu.Unlock()

	slog.InfoContext(ctx, "Changed month", "month", month.String())
	return v.Reload(ctx)
}

// ShiftMonth moves delta months forward or backward.
func (v *MonthlyView) ShiftMonth(ctx context.Context, delta int) error {
	return v.ChangeMonth(ctx, v.Month().Shift(delta))
}

// Reload fetches the current month and re-aggregates. A result is applied only
// if no newer fetch was issued and the month did not change meanwhile;
// otherwise ErrStale is returned.
func (v *MonthlyView) Reload(ctx context.Context) error {
	v.mu.Lock()
	v.fetchSeq++
	token, month := v.fetchSeq, v.month
	v.busy[OpLoad]++
	v.mu.Unlock()

	recs, err := v.source.GetByMonth(ctx, month)
	err = core.NewNetworkError("get records", 0, err)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy[OpLoad]--

	if token != v.fetchSeq || month != v.month {
		slog.DebugContext(ctx, "Discarding stale fetch", "month", month.String(), "token", token)
		return ErrStale
	}
	if err != nil {
		v.lastErr[OpLoad] = err
		slog.ErrorContext(ctx, "Failed to load month", "month", month.String(), "error", err)
		return err
	}

	v.records = recs
	v.groups = core.GroupByStudent(recs)
	v.selection.PruneToCurrentGroups(v.groups.Keys())
	v.loaded = true
	v.lastErr[OpLoad] = nil
	if c, ok := v.generator.(artifactCache); ok {
		c.Invalidate()
	}
	return nil
}

// ToggleSelection adds or removes a student from the combined-invoice
// selection. Only students with a group this month can be selected.
func (v *MonthlyView) ToggleSelection(studentID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.groups.Has(studentID) && !v.selection.Contains(studentID) {
		return &core.ValidationError{
			Field:  "studentId",
			Reason: fmt.Errorf("%w: %d", core.ErrUnknownStudent, studentID),
		}
	}
	v.selection.Toggle(studentID)
	return nil
}

func (v *MonthlyView) SelectAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.SelectAll(v.groups.Keys())
}

func (v *MonthlyView) ToggleSelectAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.ToggleSelectAll(v.groups.Keys())
}

func (v *MonthlyView) ClearSelection() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.ClearAll()
}

// TogglePayment flips one record's paid flag and reloads.
func (v *MonthlyView) TogglePayment(ctx context.Context, id int64) (core.SessionRecord, error) {
	v.start(OpToggle)
	rec, err := v.payments.TogglePayment(ctx, id)
	v.finish(OpToggle, err)
	return rec, err
}

// ToggleGroupPayment flips every session of a student. See
// PaymentCoordinator.ToggleGroupPayment for the partial failure contract.
func (v *MonthlyView) ToggleGroupPayment(ctx context.Context, studentID int64) (GroupToggleResult, error) {
	v.start(OpToggle)
	res, err := v.payments.ToggleGroupPayment(ctx, studentID, v.Groups())
	v.finish(OpToggle, err)
	return res, err
}

// ToggleRecords flips each listed record, for retrying a partial failure.
func (v *MonthlyView) ToggleRecords(ctx context.Context, ids []int64) (GroupToggleResult, error) {
	v.start(OpToggle)
	res, err := v.payments.ToggleRecords(ctx, ids)
	v.finish(OpToggle, err)
	return res, err
}

// DeleteRecord removes a record, then reloads. Selected students left without
// sessions drop out of the selection.
func (v *MonthlyView) DeleteRecord(ctx context.Context, id int64) error {
	v.start(OpDelete)
	err := core.NewNetworkError("delete", id, v.source.Delete(ctx, id))
	v.finish(OpDelete, err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to delete session record", "id", id, "error", err)
		return err
	}
	v.events.sessionDeleted(ctx, id)

	if err := v.Reload(ctx); err != nil && !errors.Is(err, ErrStale) {
		return fmt.Errorf("reload after delete: %w", err)
	}
	return nil
}

// GenerateSingle produces the invoice for one student of the current month.
func (v *MonthlyView) GenerateSingle(ctx context.Context, studentID int64) (Invoice, error) {
	return v.generate(ctx, func(month core.Month, groups core.Groups, _ []int64) (core.InvoiceRequest, error) {
		return core.BuildSingle(month, studentID, groups)
	})
}

// GenerateCombined produces one invoice covering every selected student.
func (v *MonthlyView) GenerateCombined(ctx context.Context) (Invoice, error) {
	return v.generate(ctx, func(month core.Month, groups core.Groups, selected []int64) (core.InvoiceRequest, error) {
		return core.BuildCombined(month, selected, groups)
	})
}

type buildFunc func(month core.Month, groups core.Groups, selected []int64) (core.InvoiceRequest, error)

func (v *MonthlyView) generate(ctx context.Context, build buildFunc) (Invoice, error) {
	v.mu.Lock()
	req, err := build(v.month, v.groups, v.selection.IDs())
	if err != nil {
		v.lastErr[OpGenerate] = err
		v.mu.Unlock()
		return Invoice{}, err
	}
	token, month := v.genSeq, v.month
	v.busy[OpGenerate]++
	v.mu.Unlock()

	data, err := v.generator.Generate(ctx, req)
	err = core.NewNetworkError("generate invoice", req.PrimaryStudentID, err)

	v.mu.Lock()
	v.busy[OpGenerate]--
	if token != v.genSeq || month != v.month {
		v.mu.Unlock()
		slog.InfoContext(ctx, "Discarding invoice for a month no longer shown", "month", month.String())
		return Invoice{}, ErrStale
	}
	v.lastErr[OpGenerate] = err
	v.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Failed to generate invoice",
			"month", month.String(), "students", req.Participants(), "error", err)
		return Invoice{}, err
	}

	v.events.invoiceGenerated(ctx, req, len(data))
	slog.InfoContext(ctx, "Generated invoice",
		"month", month.String(), "students", req.Participants(), "sessions", len(req.SessionRecordIDs))
	return Invoice{Filename: req.Filename(), Request: req, Data: data}, nil
}

func (v *MonthlyView) start(op Op) {
	v.mu.Lock()
	v.busy[op]++
	v.mu.Unlock()
}

func (v *MonthlyView) finish(op Op, err error) {
	v.mu.Lock()
	v.busy[op]--
	v.lastErr[op] = err
	v.mu.Unlock()
}

// Err returns the last error recorded for op, or nil.
func (v *MonthlyView) Err(op Op) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr[op]
}

// Snapshot returns a consistent copy of the view state.
func (v *MonthlyView) Snapshot() ViewSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	selected := v.selection.IDs()
	s := ViewSnapshot{
		Month:     v.month,
		Label:     v.month.Label(),
		Loaded:    v.loaded,
		Groups:    v.groups.Ordered(),
		Selected:  selected,
		SelectAll: v.selection.AllSelected(),
		Combined:  core.CombinedTotals(v.groups, selected),
		Summary:   core.SummarizeMonth(v.month, v.records),
		Busy:      make(map[Op]bool, len(ops)),
	}
	for _, op := range ops {
		s.Busy[op] = v.busy[op] > 0
		if err := v.lastErr[op]; err != nil {
			if s.Errors == nil {
				s.Errors = make(map[Op]string)
			}
			s.Errors[op] = err.Error()
		}
	}
	return s
}
