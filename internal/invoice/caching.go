package invoice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tutorbill/internal/cache"
	"tutorbill/internal/core"
	"tutorbill/internal/records"
)

// flightTimeout bounds a shared upstream call once it no longer follows the
// context of the caller that started it.
const flightTimeout = 2 * time.Minute

// CachingGenerator keeps recently generated artifacts keyed by request and
// collapses identical concurrent requests into one upstream call. Any change
// to session records must call Invalidate.
type CachingGenerator struct {
	next  records.InvoiceGenerator
	lru   *cache.LRU[[]byte]
	group singleflight.Group

	// epoch counts invalidations. Flights are keyed by the epoch they
	// started in and only store their artifact if it is still current.
	mu    sync.Mutex
	epoch uint64
}

func NewCachingGenerator(next records.InvoiceGenerator, size int, ttl time.Duration) *CachingGenerator {
	return &CachingGenerator{
		next: next,
		lru:  cache.NewLRU[[]byte](size, ttl),
	}
}

func (g *CachingGenerator) Generate(ctx context.Context, req core.InvoiceRequest) ([]byte, error) {
	key, err := cacheKey(req)
	if err != nil {
		return g.next.Generate(ctx, req)
	}
	if data, ok := g.lru.Get(key); ok {
		slog.DebugContext(ctx, "Invoice served from cache", "month", req.Month.String())
		return data, nil
	}

	g.mu.Lock()
	epoch := g.epoch
	g.mu.Unlock()

	ch := g.group.DoChan(strconv.FormatUint(epoch, 10)+"/"+key, func() (any, error) {
		// Joined callers depend on this call, so the first caller leaving
		// must not cancel it.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		data, err := g.next.Generate(callCtx, req)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		if g.epoch == epoch {
			g.lru.Set(key, data)
		}
		g.mu.Unlock()
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate drops every cached artifact. Generations already in flight still
// answer their callers but are not cached, and later requests start afresh.
func (g *CachingGenerator) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.epoch++
	g.lru.Purge()
}

// Cache exposes the underlying LRU for periodic cleanup.
func (g *CachingGenerator) Cache() *cache.LRU[[]byte] {
	return g.lru
}

func cacheKey(req core.InvoiceRequest) (string, error) {
	b, err := json.Marshal(req)
	return string(b), err
}
