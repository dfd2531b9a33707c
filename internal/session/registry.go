package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/storage"
)

// AdjusterFunc restores a session's price adjuster when its cart is opened.
// It returns nil when the session has none.
type AdjusterFunc func(ctx context.Context, session string) cart.Adjuster

// Registry opens at most one cart store per session and keeps it while the
// session is active.
type Registry struct {
	slots    storage.Slots
	adjuster AdjusterFunc
	lg       *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	store    *cart.Store
	lastUsed time.Time
}

// NewRegistry creates a Registry over slots. adjuster may be nil.
func NewRegistry(slots storage.Slots, adjuster AdjusterFunc, lg *zap.Logger) *Registry {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Registry{
		slots:    slots,
		adjuster: adjuster,
		lg:       lg,
		now:      time.Now,
		entries:  make(map[string]*entry),
	}
}

// Cart returns the store for session, loading it from its snapshot on first
// use.
func (r *Registry) Cart(ctx context.Context, session string) *cart.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[session]; ok {
		e.lastUsed = r.now()
		return e.store
	}

	opts := []cart.Option{cart.WithLogger(r.lg.With(zap.String("session", session)))}
	if r.adjuster != nil {
		if a := r.adjuster(ctx, session); a != nil {
			opts = append(opts, cart.WithAdjuster(a))
		}
	}
	s := cart.Open(ctx, storage.NewCartSlot(r.slots, session), nil, opts...)
	r.entries[session] = &entry{store: s, lastUsed: r.now()}
	return s
}

// Len returns the number of open stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Evict closes stores idle for longer than maxIdle. Their snapshots stay in
// the slot store and are reloaded on next use. A non-positive maxIdle evicts
// nothing.
func (r *Registry) Evict(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	n := 0
	for id, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// StartEviction runs Evict every interval until ctx is done.
func (r *Registry) StartEviction(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Evict(maxIdle); n > 0 {
					r.lg.Debug("Evicted idle carts", zap.Int("count", n))
				}
			}
		}
	}()
}
