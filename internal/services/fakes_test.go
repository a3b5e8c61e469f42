package services

import (
	"context"
	"errors"
	"sync"

	"tutorbill/internal/core"
)

var errUnavailable = errors.New("service unavailable")

// fakeSource is an in-memory records.Source. Calls to GetByMonth can be held
// at a gate, in call order, so tests control completion order.
type fakeSource struct {
	mu         sync.Mutex
	recs       []core.SessionRecord
	failGet    error
	failDelete error
	failToggle map[int64]bool
	toggled    []int64

	gates   []chan struct{}
	calls   int
	started chan core.Month
}

func newFakeSource(recs ...core.SessionRecord) *fakeSource {
	return &fakeSource{
		recs:       recs,
		failToggle: map[int64]bool{},
		started:    make(chan core.Month, 16),
	}
}

// hold makes the next GetByMonth call wait until the returned channel is closed.
func (f *fakeSource) hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	for len(f.gates) < f.calls {
		f.gates = append(f.gates, nil)
	}
	f.gates = append(f.gates, g)
	return g
}

func (f *fakeSource) GetByMonth(_ context.Context, month core.Month) ([]core.SessionRecord, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	var gate chan struct{}
	if n < len(f.gates) {
		gate = f.gates[n]
	}
	f.mu.Unlock()

	f.started <- month
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	var out []core.SessionRecord
	for _, r := range f.recs {
		if month.Contains(r.SessionDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) TogglePayment(_ context.Context, id int64) (core.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failToggle[id] {
		return core.SessionRecord{}, errUnavailable
	}
	for i := range f.recs {
		if f.recs[i].ID == id {
			f.recs[i].Status = f.recs[i].Status.Toggle()
			f.toggled = append(f.toggled, id)
			return f.recs[i], nil
		}
	}
	return core.SessionRecord{}, errors.New("not found")
}

func (f *fakeSource) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	for i := range f.recs {
		if f.recs[i].ID == id {
			f.recs = append(f.recs[:i], f.recs[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeSource) set(recs ...core.SessionRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = recs
}

type fakeGenerator struct {
	mu      sync.Mutex
	gate    chan struct{}
	started chan core.InvoiceRequest
	fail    error
	reqs    []core.InvoiceRequest
	purged  int
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{started: make(chan core.InvoiceRequest, 16)}
}

func (g *fakeGenerator) Generate(_ context.Context, req core.InvoiceRequest) ([]byte, error) {
	g.mu.Lock()
	gate := g.gate
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()

	g.started <- req
	if gate != nil {
		<-gate
	}
	if g.fail != nil {
		return nil, g.fail
	}
	return []byte("%PDF-1.4 " + req.Month.String()), nil
}

func (g *fakeGenerator) Invalidate() {
	g.mu.Lock()
	g.purged++
	g.mu.Unlock()
}

func (g *fakeGenerator) invalidations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.purged
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.reqs)
}

type fakePublisher struct {
	mu       sync.Mutex
	toggled  []int64
	deleted  []int64
	invoices int
	fail     bool
}

func (p *fakePublisher) PublishPaymentToggled(_ context.Context, rec core.SessionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toggled = append(p.toggled, rec.ID)
	if p.fail {
		return errUnavailable
	}
	return nil
}

func (p *fakePublisher) PublishSessionDeleted(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
	if p.fail {
		return errUnavailable
	}
	return nil
}

func (p *fakePublisher) PublishInvoiceGenerated(_ context.Context, _ core.InvoiceRequest, _ int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invoices++
	if p.fail {
		return errUnavailable
	}
	return nil
}

func rec(id, student int64, name string, price int64, date core.Date, sessions, hours int, paid bool) core.SessionRecord {
	p := core.Money{Amount: price}
	return core.SessionRecord{
		ID:           id,
		StudentID:    student,
		StudentName:  name,
		PricePerHour: p,
		SessionDate:  date,
		Sessions:     sessions,
		Hours:        hours,
		TotalAmount:  p.Mul(hours),
		Status:       core.StatusFromPaid(paid),
	}
}

var march = core.Month{Year: 2024, Month: 3}

// march2024 is two unpaid records for student 10 and one paid for student 11.
func march2024() []core.SessionRecord {
	return []core.SessionRecord{
		rec(1, 10, "Minh", 200000, core.NewDate(2024, 3, 12), 1, 2, false),
		rec(2, 11, "Lan", 150000, core.NewDate(2024, 3, 7), 1, 3, true),
		rec(3, 10, "Minh", 200000, core.NewDate(2024, 3, 5), 1, 2, false),
	}
}
