// Package postgres stores session records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutorbill/internal/core"
	"tutorbill/internal/records"
)

type PGRepository struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*PGRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PGRepository{pool: pool}, nil
}

func (r *PGRepository) Close() error {
	r.pool.Close()
	return nil
}

// RunMigrations creates the schema when missing.
func (r *PGRepository) RunMigrations(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS session_records (
			id BIGSERIAL PRIMARY KEY,
			student_id BIGINT NOT NULL,
			student_name TEXT NOT NULL,
			price_per_hour BIGINT NOT NULL CHECK (price_per_hour > 0),
			session_date DATE NOT NULL,
			sessions INTEGER NOT NULL DEFAULT 1,
			hours INTEGER NOT NULL,
			total_amount BIGINT NOT NULL,
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_session_records_date ON session_records(session_date);
	`)
	return err
}

const columns = `id, student_id, student_name, price_per_hour, session_date, sessions, hours, total_amount, paid`

func scan(row pgx.Row) (core.SessionRecord, error) {
	var (
		rec             core.SessionRecord
		price, total    int64
		date            time.Time
		sessions, hours int32
		paid            bool
	)
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &price, &date, &sessions, &hours, &total, &paid); err != nil {
		return core.SessionRecord{}, err
	}
	rec.PricePerHour = core.Money{Amount: price}
	rec.SessionDate = core.NewDate(date.Year(), int(date.Month()), date.Day())
	rec.Sessions = int(sessions)
	rec.Hours = int(hours)
	rec.TotalAmount = core.Money{Amount: total}
	rec.Status = core.StatusFromPaid(paid)
	return rec, nil
}

func (r *PGRepository) GetByMonth(ctx context.Context, month core.Month) ([]core.SessionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+columns+` FROM session_records
		 WHERE session_date >= $1 AND session_date < $2
		 ORDER BY session_date, id`,
		month.Start().Time, month.Next().Start().Time,
	)
	if err != nil {
		return nil, core.NewNetworkError("get records", 0, err)
	}
	defer rows.Close()

	var out []core.SessionRecord
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, core.NewNetworkError("get records", 0, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewNetworkError("get records", 0, err)
	}
	return out, nil
}

func (r *PGRepository) TogglePayment(ctx context.Context, id int64) (core.SessionRecord, error) {
	rec, err := scan(r.pool.QueryRow(ctx,
		`UPDATE session_records SET paid = NOT paid, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+columns,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, records.ErrNotFound)
	}
	if err != nil {
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, err)
	}
	slog.InfoContext(ctx, "Session payment toggled", "id", id, "status", rec.Status.String())
	return rec, nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM session_records WHERE id = $1", id)
	if err != nil {
		return core.NewNetworkError("delete", id, err)
	}
	if result.RowsAffected() == 0 {
		return core.NewNetworkError("delete", id, records.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) Create(ctx context.Context, n records.NewSessionRecord) (core.SessionRecord, error) {
	if err := n.Validate(); err != nil {
		return core.SessionRecord{}, err
	}
	in := n.Record(0)
	rec, err := scan(r.pool.QueryRow(ctx,
		`INSERT INTO session_records (student_id, student_name, price_per_hour, session_date, sessions, hours, total_amount, paid)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+columns,
		in.StudentID, in.StudentName, in.PricePerHour.Amount, in.SessionDate.Time,
		in.Sessions, in.Hours, in.TotalAmount.Amount, in.Paid(),
	))
	if err != nil {
		return core.SessionRecord{}, core.NewNetworkError("create record", 0, err)
	}
	return rec, nil
}

func (r *PGRepository) Months(ctx context.Context) ([]core.Month, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT to_char(session_date, 'YYYY-MM') AS month
		 FROM session_records
		 ORDER BY month DESC`)
	if err != nil {
		return nil, core.NewNetworkError("list months", 0, err)
	}
	defer rows.Close()

	var out []core.Month
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, core.NewNetworkError("list months", 0, err)
		}
		m, err := core.ParseMonth(s)
		if err != nil {
			return nil, core.NewNetworkError("list months", 0, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
