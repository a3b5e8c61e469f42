package google

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tutorbill/internal/core"
)

// Sheet layout: ID | Student ID | Student | Price/h | Date | Sessions | Hours | Total | Paid
const (
	firstDataRow = 2
	paidColumn   = "I"
	columnCount  = 9
)

type sheetRow struct {
	row    int
	record core.SessionRecord
}

func blankRow(cells []any) bool {
	for _, c := range cells {
		if strings.TrimSpace(fmt.Sprint(c)) != "" {
			return false
		}
	}
	return true
}

// tombstone reports a deleted row: an id cell with nothing after it.
func tombstone(cells []any) bool {
	return len(cells) > 0 && !blankRow(cells[:1]) && blankRow(cells[1:])
}

// parseRecord reads one row as returned with UNFORMATTED_VALUE rendering.
// Numbers arrive as float64 and booleans as bool, but hand-typed cells may
// still be strings.
func parseRecord(cells []any) (core.SessionRecord, error) {
	var r core.SessionRecord
	if len(cells) < columnCount-1 {
		return r, fmt.Errorf("want %d columns, got %d", columnCount, len(cells))
	}
	var err error
	if r.ID, err = cellInt(cells[0]); err != nil || r.ID <= 0 {
		return r, fmt.Errorf("id: invalid value %v", cells[0])
	}
	if r.StudentID, err = cellInt(cells[1]); err != nil {
		return r, fmt.Errorf("student id: %w", err)
	}
	r.StudentName = strings.TrimSpace(fmt.Sprint(cells[2]))
	if r.PricePerHour.Amount, err = cellInt(cells[3]); err != nil {
		return r, fmt.Errorf("price per hour: %w", err)
	}
	if r.SessionDate, err = cellDate(cells[4]); err != nil {
		return r, err
	}
	sessions, err := cellInt(cells[5])
	if err != nil {
		return r, fmt.Errorf("sessions: %w", err)
	}
	hours, err := cellInt(cells[6])
	if err != nil {
		return r, fmt.Errorf("hours: %w", err)
	}
	r.Sessions, r.Hours = int(sessions), int(hours)
	if r.TotalAmount.Amount, err = cellInt(cells[7]); err != nil {
		return r, fmt.Errorf("total: %w", err)
	}
	if len(cells) > 8 {
		paid, err := cellBool(cells[8])
		if err != nil {
			return r, fmt.Errorf("paid: %w", err)
		}
		r.Status = core.StatusFromPaid(paid)
	}
	return r, nil
}

func formatRecord(r core.SessionRecord) []any {
	return []any{
		r.ID,
		r.StudentID,
		r.StudentName,
		r.PricePerHour.Amount,
		r.SessionDate.String(),
		r.Sessions,
		r.Hours,
		r.TotalAmount.Amount,
		r.Paid(),
	}
}

// cellInt accepts whole numbers. String cells may carry thousands
// separators ("200.000" or "200,000") since VND amounts have no minor unit.
func cellInt(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("not a whole number: %v", x)
		}
		return int64(x), nil
	case string:
		s := strings.TrimSpace(x)
		s = strings.NewReplacer(",", "", ".", "", " ", "").Replace(s)
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not a whole number: %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected cell type %T", v)
	}
}

// Date cells typed into the sheet come back as serial day numbers counted
// from 1899-12-30; dates written by the store are plain text.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func cellDate(v any) (core.Date, error) {
	if x, ok := v.(float64); ok {
		if x != math.Trunc(x) || x <= 0 {
			return core.Date{}, fmt.Errorf("date: invalid serial %v", x)
		}
		return core.Date{Time: serialEpoch.AddDate(0, 0, int(x))}, nil
	}
	return core.ParseDate(fmt.Sprint(v))
}

func cellBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return false, nil
		}
		return strconv.ParseBool(s)
	default:
		return false, fmt.Errorf("unexpected cell type %T", v)
	}
}
