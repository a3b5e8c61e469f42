package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tutorbill/internal/core"
	"tutorbill/internal/records"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetByMonth implements records.Source
func (r *SQLiteRepository) GetByMonth(ctx context.Context, month core.Month) ([]core.SessionRecord, error) {
	rows, err := r.queries.ListSessionRecordsByDateRange(ctx, month.Start().String(), month.Next().Start().String())
	if err != nil {
		return nil, core.NewNetworkError("get records", 0, fmt.Errorf("list %s: %w", month, err))
	}
	out := make([]core.SessionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toCore(row)
		if err != nil {
			return nil, core.NewNetworkError("get records", row.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// TogglePayment implements records.Source
func (r *SQLiteRepository) TogglePayment(ctx context.Context, id int64) (core.SessionRecord, error) {
	row, err := r.queries.ToggleSessionRecordPaid(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, records.ErrNotFound)
	}
	if err != nil {
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, err)
	}

	rec, err := toCore(row)
	if err != nil {
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, err)
	}
	slog.InfoContext(ctx, "Session payment toggled", "id", id, "status", rec.Status.String())
	return rec, nil
}

// Delete implements records.Source
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteSessionRecord(ctx, id)
	if err != nil {
		return core.NewNetworkError("delete", id, err)
	}
	if n == 0 {
		return core.NewNetworkError("delete", id, records.ErrNotFound)
	}
	slog.InfoContext(ctx, "Session record deleted", "id", id)
	return nil
}

// Create implements records.Creator
func (r *SQLiteRepository) Create(ctx context.Context, n records.NewSessionRecord) (core.SessionRecord, error) {
	if err := n.Validate(); err != nil {
		return core.SessionRecord{}, err
	}
	rec := n.Record(0)
	row, err := r.queries.CreateSessionRecord(ctx, CreateSessionRecordParams{
		StudentID:    rec.StudentID,
		StudentName:  rec.StudentName,
		PricePerHour: rec.PricePerHour.Amount,
		SessionDate:  rec.SessionDate.String(),
		Sessions:     int64(rec.Sessions),
		Hours:        int64(rec.Hours),
		TotalAmount:  rec.TotalAmount.Amount,
		Paid:         boolToInt(rec.Paid()),
	})
	if err != nil {
		return core.SessionRecord{}, core.NewNetworkError("create record", 0, err)
	}

	slog.InfoContext(ctx, "Session record saved to SQLite",
		"id", row.ID,
		"student_id", row.StudentID,
		"session_date", row.SessionDate,
		"total_amount", row.TotalAmount)

	return toCore(row)
}

// Months implements records.MonthLister
func (r *SQLiteRepository) Months(ctx context.Context) ([]core.Month, error) {
	raw, err := r.queries.ListRecordMonths(ctx)
	if err != nil {
		return nil, core.NewNetworkError("list months", 0, err)
	}
	months := make([]core.Month, 0, len(raw))
	for _, s := range raw {
		m, err := core.ParseMonth(s)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed session date", "month", s, "error", err)
			continue
		}
		months = append(months, m)
	}
	return months, nil
}

// LedgerEntry is one billing event as kept by the worker.
type LedgerEntry struct {
	MessageID  string
	Kind       string
	RecordID   int64
	StudentID  int64
	Month      string
	Payload    []byte
	OccurredAt time.Time
	ReceivedAt time.Time
}

// AppendEvent stores e unless its message id was seen before. It reports
// whether a row was written.
func (r *SQLiteRepository) AppendEvent(ctx context.Context, e LedgerEntry) (bool, error) {
	n, err := r.queries.InsertBillingEvent(ctx, InsertBillingEventParams{
		MessageID:  e.MessageID,
		Kind:       e.Kind,
		RecordID:   e.RecordID,
		StudentID:  e.StudentID,
		Month:      e.Month,
		Payload:    string(e.Payload),
		OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return false, fmt.Errorf("insert billing event: %w", err)
	}
	return n > 0, nil
}

// ListEvents returns up to limit ledger entries in arrival order. An empty
// month lists every month.
func (r *SQLiteRepository) ListEvents(ctx context.Context, month string, limit int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.queries.ListBillingEvents(ctx, month, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list billing events: %w", err)
	}
	out := make([]LedgerEntry, 0, len(rows))
	for _, row := range rows {
		e := LedgerEntry{
			MessageID: row.MessageID,
			Kind:      row.Kind,
			RecordID:  row.RecordID,
			StudentID: row.StudentID,
			Month:     row.Month,
			Payload:   []byte(row.Payload),
		}
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, row.OccurredAt)
		e.ReceivedAt, _ = time.Parse(time.RFC3339, row.ReceivedAt)
		out = append(out, e)
	}
	return out, nil
}

func toCore(row SessionRecord) (core.SessionRecord, error) {
	date, err := core.ParseDate(row.SessionDate)
	if err != nil {
		return core.SessionRecord{}, err
	}
	return core.SessionRecord{
		ID:           row.ID,
		StudentID:    row.StudentID,
		StudentName:  row.StudentName,
		PricePerHour: core.Money{Amount: row.PricePerHour},
		SessionDate:  date,
		Sessions:     int(row.Sessions),
		Hours:        int(row.Hours),
		TotalAmount:  core.Money{Amount: row.TotalAmount},
		Status:       core.StatusFromPaid(row.Paid != 0),
	}, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
