package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tutorbill/internal/core"
	"tutorbill/internal/records"
)

// DefaultSheetName is used when Config.SheetName is empty.
const DefaultSheetName = "Sessions"

// Config selects the spreadsheet and how to authenticate against it.
// Exactly one credential source is used, in this order: AccessToken,
// CredentialsJSON, CredentialsFile, then GOOGLE_APPLICATION_CREDENTIALS.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	AccessToken     string
}

// Store keeps session records in one sheet of a spreadsheet. Row 1 is a
// header; each following row holds one record in columns A to I. Deleted
// records leave a blank row behind.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *slog.Logger

	// Serializes read-modify-write cycles issued by this process.
	mu sync.Mutex
}

var (
	_ records.Source      = (*Store)(nil)
	_ records.Creator     = (*Store)(nil)
	_ records.MonthLister = (*Store)(nil)
)

// New creates a Sheets-backed store. Extra client options are appended after
// the credential options, which lets callers point the store at another
// endpoint.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...goption.ClientOption) (*Store, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = slog.Default()
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}

	creds, err := credentialOptions(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, append(creds, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{svc: svc, spreadsheetID: id, sheet: sheet, logger: logger}, nil
}

func credentialOptions(ctx context.Context, cfg Config, logger *slog.Logger) ([]goption.ClientOption, error) {
	scopes := goption.WithScopes(gsheet.SpreadsheetsScope)

	if token := strings.TrimSpace(cfg.AccessToken); token != "" {
		logger.InfoContext(ctx, "Using static access token for Google Sheets")
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
	}

	file := strings.TrimSpace(cfg.CredentialsFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		credentialsJSON = data
	default:
		return nil, errors.New("missing Google credentials (set an access token, service account JSON or service account file)")
	}
	return []goption.ClientOption{goption.WithCredentialsJSON(credentialsJSON), scopes}, nil
}

// dataRange covers every record row below the header.
func (s *Store) dataRange() string {
	return fmt.Sprintf("%s!A%d:I", s.sheet, firstDataRow)
}

// fieldsRange covers a row's cells after the id column.
func (s *Store) fieldsRange(row int) string {
	return fmt.Sprintf("%s!B%d:%s%d", s.sheet, row, paidColumn, row)
}

// readAll fetches every data row. Blank rows are skipped; rows that do not
// parse are logged and skipped so one bad hand edit does not hide a month.
// The returned high-water mark is the largest id ever written, including ids
// left behind by deleted rows.
func (s *Store) readAll(ctx context.Context) ([]sheetRow, int64, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.dataRange()).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", s.dataRange(), err)
	}
	out := make([]sheetRow, 0, len(resp.Values))
	var highWater int64
	for i, cells := range resp.Values {
		if blankRow(cells) {
			continue
		}
		if id, err := cellInt(cells[0]); err == nil {
			highWater = max(highWater, id)
		}
		if tombstone(cells) {
			continue
		}
		row := firstDataRow + i
		r, err := parseRecord(cells)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping malformed session row", "sheet", s.sheet, "row", row, "error", err)
			continue
		}
		out = append(out, sheetRow{row: row, record: r})
	}
	return out, highWater, nil
}

func (s *Store) find(ctx context.Context, id int64) (sheetRow, error) {
	rows, _, err := s.readAll(ctx)
	if err != nil {
		return sheetRow{}, err
	}
	for _, r := range rows {
		if r.record.ID == id {
			return r, nil
		}
	}
	return sheetRow{}, records.ErrNotFound
}

// GetByMonth returns the month's records in sheet order.
func (s *Store) GetByMonth(ctx context.Context, month core.Month) ([]core.SessionRecord, error) {
	rows, _, err := s.readAll(ctx)
	if err != nil {
		return nil, core.NewNetworkError("get records", 0, err)
	}
	var out []core.SessionRecord
	for _, r := range rows {
		if month.Contains(r.record.SessionDate) {
			out = append(out, r.record)
		}
	}
	return out, nil
}

// TogglePayment rewrites the paid cell of the record's row.
func (s *Store) TogglePayment(ctx context.Context, id int64) (core.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.find(ctx, id)
	if err != nil {
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, err)
	}
	r := found.record
	r.Status = r.Status.Toggle()

	cell := fmt.Sprintf("%s!%s%d", s.sheet, paidColumn, found.row)
	vr := &gsheet.ValueRange{Values: [][]any{{r.Paid()}}}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, cell, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return core.SessionRecord{}, core.NewNetworkError("toggle payment", id, fmt.Errorf("update %s: %w", cell, err))
	}
	return r, nil
}

// Delete blanks the record's row but keeps its id cell, so the id is never
// handed out again.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.find(ctx, id)
	if err != nil {
		return core.NewNetworkError("delete", id, err)
	}
	rng := s.fieldsRange(found.row)
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return core.NewNetworkError("delete", id, fmt.Errorf("clear %s: %w", rng, err))
	}
	return nil
}

// Create appends a row under the id after the high-water mark.
func (s *Store) Create(ctx context.Context, n records.NewSessionRecord) (core.SessionRecord, error) {
	if err := n.Validate(); err != nil {
		return core.SessionRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, highWater, err := s.readAll(ctx)
	if err != nil {
		return core.SessionRecord{}, core.NewNetworkError("create record", 0, err)
	}
	r := n.Record(highWater + 1)

	vr := &gsheet.ValueRange{Values: [][]any{formatRecord(r)}}
	if _, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.dataRange(), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return core.SessionRecord{}, core.NewNetworkError("create record", 0, fmt.Errorf("append: %w", err))
	}
	return r, nil
}

// Months lists months with at least one record, newest first.
func (s *Store) Months(ctx context.Context) ([]core.Month, error) {
	rows, _, err := s.readAll(ctx)
	if err != nil {
		return nil, core.NewNetworkError("list months", 0, err)
	}
	seen := map[core.Month]struct{}{}
	var out []core.Month
	for _, r := range rows {
		m := core.MonthOf(r.record.SessionDate.Time)
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
