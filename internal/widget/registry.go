package widget

import (
	"context"
	"sync"
	"time"
)

// Factory builds the widget of one browser profile.
type Factory func(ctx context.Context, profileID string) (*Widget, error)

type entry struct {
	w        *Widget
	lastSeen time.Time
}

// Registry keeps one Widget per browser profile and evicts widgets idle for
// longer than its TTL. The persisted session id survives eviction; only the
// in-memory transcript is lost.
type Registry struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	entries  map[string]*entry
	cleanupN uint64
}

// NewRegistry returns an empty Registry. A non-positive ttl disables eviction.
func NewRegistry(ttl time.Duration, factory Factory) *Registry {
	return &Registry{
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the widget of profileID, building it on first use.
func (r *Registry) Get(ctx context.Context, profileID string) (*Widget, error) {
	now := r.now()

	r.mu.Lock()
	r.cleanupN++
	if r.cleanupN >= 1000 {
		r.sweepLocked(now)
		r.cleanupN = 0
	}
	if e, ok := r.entries[profileID]; ok {
		e.lastSeen = now
		r.mu.Unlock()
		return e.w, nil
	}
	r.mu.Unlock()

	w, err := r.factory(ctx, profileID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[profileID]; ok {
		// Lost a race with a concurrent Get for the same profile.
		e.lastSeen = now
		return e.w, nil
	}
	r.entries[profileID] = &entry{w: w, lastSeen: now}
	return w, nil
}

// Sweep evicts idle widgets and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

func (r *Registry) sweepLocked(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	n := 0
	for k, e := range r.entries {
		if now.Sub(e.lastSeen) >= r.ttl {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// Len reports how many widgets are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}
