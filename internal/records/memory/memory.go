package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"tutorbill/internal/core"
	"tutorbill/internal/records"
)

// Store keeps session records in memory. Records are returned in insertion
// order.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.SessionRecord
}

func New(seed ...core.SessionRecord) *Store {
	s := &Store{}
	for _, r := range seed {
		if r.ID == 0 {
			s.nextID++
			r.ID = s.nextID
		} else if r.ID > s.nextID {
			s.nextID = r.ID
		}
		s.items = append(s.items, r)
	}
	return s
}

// NewFromFile seeds a store from a comma separated file with one record per
// line: studentId,studentName,pricePerHour,YYYY-MM-DD,sessions,hours,paid.
// Blank lines and lines starting with # are skipped. A missing file yields
// an empty store.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}
	defer f.Close()

	s := New()
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n, err := parseSeedLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if _, err := s.Create(context.Background(), n); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	return s, sc.Err()
}

func parseSeedLine(line string) (records.NewSessionRecord, error) {
	var n records.NewSessionRecord
	parts := strings.Split(line, ",")
	if len(parts) != 7 {
		return n, fmt.Errorf("want 7 fields, got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var err error
	if n.StudentID, err = strconv.ParseInt(parts[0], 10, 64); err != nil {
		return n, fmt.Errorf("studentId: %w", err)
	}
	n.StudentName = parts[1]
	if n.PricePerHour, err = strconv.ParseInt(parts[2], 10, 64); err != nil {
		return n, fmt.Errorf("pricePerHour: %w", err)
	}
	if n.SessionDate, err = core.ParseDate(parts[3]); err != nil {
		return n, err
	}
	if n.Sessions, err = strconv.Atoi(parts[4]); err != nil {
		return n, fmt.Errorf("sessions: %w", err)
	}
	if n.Hours, err = strconv.Atoi(parts[5]); err != nil {
		return n, fmt.Errorf("hours: %w", err)
	}
	if n.Paid, err = strconv.ParseBool(parts[6]); err != nil {
		return n, fmt.Errorf("paid: %w", err)
	}
	return n, nil
}

// GetByMonth returns copies of the records dated inside month.
func (s *Store) GetByMonth(_ context.Context, month core.Month) ([]core.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.SessionRecord
	for _, r := range s.items {
		if month.Contains(r.SessionDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) TogglePayment(_ context.Context, id int64) (core.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, records.ErrNotFound)
	}
	s.items[i].Status = s.items[i].Status.Toggle()
	return s.items[i], nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.NewNetworkError("delete", id, records.ErrNotFound)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Create validates n and stores it under the next id.
func (s *Store) Create(_ context.Context, n records.NewSessionRecord) (core.SessionRecord, error) {
	if err := n.Validate(); err != nil {
		return core.SessionRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r := n.Record(s.nextID)
	s.items = append(s.items, r)
	return r, nil
}

// Months lists months with at least one record, newest first.
func (s *Store) Months(_ context.Context) ([]core.Month, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[core.Month]struct{}{}
	var out []core.Month
	for _, r := range s.items {
		m := core.MonthOf(r.SessionDate.Time)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].Start().Before(out[i].Start())
	})
	return out, nil
}

func (s *Store) indexOf(id int64) int {
	for i, r := range s.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}
