package records

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tutorbill/internal/core"
)

// fetchTimeout bounds a shared fetch once it no longer follows the context of
// the caller that started it.
const fetchTimeout = 30 * time.Second

// Deduped collapses concurrent GetByMonth calls for the same month into one
// call to the wrapped Source. A mutation detaches every fetch in flight so
// that reads issued after it never join a read that started before it.
type Deduped struct {
	Source
	group singleflight.Group

	mu       sync.Mutex
	seq      uint64
	inflight map[string]uint64 // month key to the token of its leading call
}

func NewDeduped(src Source) *Deduped {
	return &Deduped{Source: src, inflight: make(map[string]uint64)}
}

func (d *Deduped) GetByMonth(ctx context.Context, month core.Month) ([]core.SessionRecord, error) {
	key := month.String()
	ch := d.group.DoChan(key, func() (any, error) {
		d.mu.Lock()
		d.seq++
		token := d.seq
		d.inflight[key] = token
		d.mu.Unlock()

		defer func() {
			d.mu.Lock()
			if d.inflight[key] == token {
				delete(d.inflight, key)
			}
			d.mu.Unlock()
		}()
		// Other callers may have joined, so the first one leaving must not
		// cancel the fetch.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return d.Source.GetByMonth(fetchCtx, month)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// Callers own their slice.
	return append([]core.SessionRecord(nil), res.Val.([]core.SessionRecord)...), nil
}

func (d *Deduped) TogglePayment(ctx context.Context, id int64) (core.SessionRecord, error) {
	defer d.forgetInflight()
	return d.Source.TogglePayment(ctx, id)
}

func (d *Deduped) Delete(ctx context.Context, id int64) error {
	defer d.forgetInflight()
	return d.Source.Delete(ctx, id)
}

// Create forwards to the wrapped source when it can create records.
func (d *Deduped) Create(ctx context.Context, n NewSessionRecord) (core.SessionRecord, error) {
	c, ok := d.Source.(Creator)
	if !ok {
		return core.SessionRecord{}, errors.New("record source cannot create records")
	}
	defer d.forgetInflight()
	return c.Create(ctx, n)
}

func (d *Deduped) forgetInflight() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.inflight {
		d.group.Forget(key)
		delete(d.inflight, key)
	}
}
