package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testFactory(calls *int, mu *sync.Mutex) Factory {
	return func(ctx context.Context, profileID string) (*Widget, error) {
		mu.Lock()
		*calls++
		mu.Unlock()
		if profileID == "bad" {
			return nil, errors.New("store unavailable")
		}
		return New(ctx, Options{Store: &memStore{}, Assistant: &fakeAssistant{}, Logger: zerolog.Nop()}), nil
	}
}

func TestRegistry_ReusesPerProfile(t *testing.T) {
	var (
		calls int
		mu    sync.Mutex
	)
	r := NewRegistry(time.Minute, testFactory(&calls, &mu))

	a1, err := r.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	a2, _ := r.Get(context.Background(), "a")
	b, _ := r.Get(context.Background(), "b")

	if a1 != a2 {
		t.Fatal("same profile must share a widget")
	}
	if a1 == b {
		t.Fatal("profiles must not share widgets")
	}
	if calls != 2 || r.Len() != 2 {
		t.Fatalf("calls=%d len=%d", calls, r.Len())
	}
	if _, err := r.Get(context.Background(), "bad"); err == nil {
		t.Fatal("expected factory error")
	}
	if r.Len() != 2 {
		t.Fatal("failed build must not be cached")
	}
}

func TestRegistry_SweepEvictsIdle(t *testing.T) {
	var (
		calls int
		mu    sync.Mutex
	)
	now := time.Unix(1_700_000_000, 0)
	r := NewRegistry(10*time.Minute, testFactory(&calls, &mu))
	r.now = func() time.Time { return now }

	_, _ = r.Get(context.Background(), "old")
	now = now.Add(6 * time.Minute)
	_, _ = r.Get(context.Background(), "fresh")
	now = now.Add(5 * time.Minute)

	if n := r.Sweep(); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestRegistry_ZeroTTLNeverEvicts(t *testing.T) {
	var (
		calls int
		mu    sync.Mutex
	)
	r := NewRegistry(0, testFactory(&calls, &mu))
	_, _ = r.Get(context.Background(), "a")
	r.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	if r.Sweep() != 0 || r.Len() != 1 {
		t.Fatal("zero TTL must disable eviction")
	}
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := NewRegistry(time.Minute, func(context.Context, string) (*Widget, error) { return nil, nil })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
