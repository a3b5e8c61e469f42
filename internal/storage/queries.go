package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// SessionRecord is a session_records row.
type SessionRecord struct {
	ID           int64
	StudentID    int64
	StudentName  string
	PricePerHour int64
	SessionDate  string
	Sessions     int64
	Hours        int64
	TotalAmount  int64
	Paid         int64
}

// BillingEvent is a billing_events row.
type BillingEvent struct {
	ID         int64
	MessageID  string
	Kind       string
	RecordID   int64
	StudentID  int64
	Month      string
	Payload    string
	OccurredAt string
	ReceivedAt string
}

const sessionRecordColumns = `id, student_id, student_name, price_per_hour, session_date, sessions, hours, total_amount, paid`

func scanSessionRecord(row interface{ Scan(...any) error }) (SessionRecord, error) {
	var i SessionRecord
	err := row.Scan(
		&i.ID,
		&i.StudentID,
		&i.StudentName,
		&i.PricePerHour,
		&i.SessionDate,
		&i.Sessions,
		&i.Hours,
		&i.TotalAmount,
		&i.Paid,
	)
	return i, err
}

const listSessionRecordsByDateRange = `
SELECT ` + sessionRecordColumns + `
FROM session_records
WHERE session_date >= ? AND session_date < ?
ORDER BY session_date, id
`

// ListSessionRecordsByDateRange returns records with from <= date < to.
func (q *Queries) ListSessionRecordsByDateRange(ctx context.Context, from, to string) ([]SessionRecord, error) {
	rows, err := q.db.QueryContext(ctx, listSessionRecordsByDateRange, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SessionRecord
	for rows.Next() {
		i, err := scanSessionRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSessionRecord = `
INSERT INTO session_records (student_id, student_name, price_per_hour, session_date, sessions, hours, total_amount, paid)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + sessionRecordColumns

type CreateSessionRecordParams struct {
	StudentID    int64
	StudentName  string
	PricePerHour int64
	SessionDate  string
	Sessions     int64
	Hours        int64
	TotalAmount  int64
	Paid         int64
}

func (q *Queries) CreateSessionRecord(ctx context.Context, arg CreateSessionRecordParams) (SessionRecord, error) {
	row := q.db.QueryRowContext(ctx, createSessionRecord,
		arg.StudentID,
		arg.StudentName,
		arg.PricePerHour,
		arg.SessionDate,
		arg.Sessions,
		arg.Hours,
		arg.TotalAmount,
		arg.Paid,
	)
	return scanSessionRecord(row)
}

const toggleSessionRecordPaid = `
UPDATE session_records
SET paid = 1 - paid, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
WHERE id = ?
RETURNING ` + sessionRecordColumns

func (q *Queries) ToggleSessionRecordPaid(ctx context.Context, id int64) (SessionRecord, error) {
	row := q.db.QueryRowContext(ctx, toggleSessionRecordPaid, id)
	return scanSessionRecord(row)
}

const deleteSessionRecord = `DELETE FROM session_records WHERE id = ?`

func (q *Queries) DeleteSessionRecord(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSessionRecord, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listRecordMonths = `
SELECT DISTINCT substr(session_date, 1, 7) AS month
FROM session_records
ORDER BY month DESC
`

func (q *Queries) ListRecordMonths(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listRecordMonths)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, err
		}
		items = append(items, month)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertBillingEvent = `
INSERT OR IGNORE INTO billing_events (message_id, kind, record_id, student_id, month, payload, occurred_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertBillingEventParams struct {
	MessageID  string
	Kind       string
	RecordID   int64
	StudentID  int64
	Month      string
	Payload    string
	OccurredAt string
}

// InsertBillingEvent returns the number of inserted rows: zero for a message
// id that is already stored.
func (q *Queries) InsertBillingEvent(ctx context.Context, arg InsertBillingEventParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertBillingEvent,
		arg.MessageID,
		arg.Kind,
		arg.RecordID,
		arg.StudentID,
		arg.Month,
		arg.Payload,
		arg.OccurredAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listBillingEvents = `
SELECT id, message_id, kind, record_id, student_id, month, payload, occurred_at, received_at
FROM billing_events
WHERE (?1 = '' OR month = ?1)
ORDER BY id
LIMIT ?2
`

func (q *Queries) ListBillingEvents(ctx context.Context, month string, limit int64) ([]BillingEvent, error) {
	rows, err := q.db.QueryContext(ctx, listBillingEvents, month, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillingEvent
	for rows.Next() {
		var i BillingEvent
		if err := rows.Scan(
			&i.ID,
			&i.MessageID,
			&i.Kind,
			&i.RecordID,
			&i.StudentID,
			&i.Month,
			&i.Payload,
			&i.OccurredAt,
			&i.ReceivedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
