package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/infrastructure/cache"
)

func newTestRegistry(t *testing.T, store domain.CatalogStore, idle time.Duration) *SessionRegistry {
	t.Helper()
	cfg := testConfig()
	cfg.SessionIdleTTL = idle
	r := NewSessionRegistry(context.Background(), store, newMemPrefs(), cache.NewMemoryCache(idle, 10*time.Millisecond), cfg)
	t.Cleanup(r.Shutdown)
	return r
}

func TestRegistryOpenAndGet(t *testing.T) {
	r := newTestRegistry(t, newFakeStore(100), time.Minute)

	s, snap, err := r.Open(context.Background(), "sort=rating", "client-9")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if snap.ID == "" || snap.ID != s.ID() {
		t.Errorf("snapshot id %q, session id %q", snap.ID, s.ID())
	}
	if snap.Criteria.SortMode != domain.SortRating || len(snap.State.Items) != 36 {
		t.Errorf("snapshot = sort %q, %d items", snap.Criteria.SortMode, len(snap.State.Items))
	}

	got, err := r.Get(s.ID())
	if err != nil || got != s {
		t.Errorf("Get() = %p, %v; want %p", got, err, s)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if _, err := r.Get("missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistryKeepsSessionWhenMountFails(t *testing.T) {
	store := newFakeStore(100)
	store.setFail(failNth(0, errors.New("down")))
	r := newTestRegistry(t, store, time.Minute)

	s, _, err := r.Open(context.Background(), "", "")
	if !errors.Is(err, domain.ErrQueryFailed) {
		t.Fatalf("Open() error = %v, want ErrQueryFailed", err)
	}
	if _, err := r.Get(s.ID()); err != nil {
		t.Fatalf("session not registered: %v", err)
	}
	if _, err := s.Retry(context.Background()); err != nil {
		t.Errorf("Retry() error = %v", err)
	}
}

func TestRegistryCloseTearsDownSession(t *testing.T) {
	r := newTestRegistry(t, newFakeStore(100), time.Minute)
	s, _, err := r.Open(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Close(s.ID()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := r.Get(s.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get() after Close error = %v", err)
	}
	if _, err := s.LoadMore(context.Background()); !errors.Is(err, domain.ErrControllerClosed) {
		t.Errorf("LoadMore() on closed session error = %v, want ErrControllerClosed", err)
	}
	if err := r.Close(s.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRegistryGetRacingCloseDoesNotRevive(t *testing.T) {
	r := newTestRegistry(t, newFakeStore(100), time.Minute)

	for round := 0; round < 20; round++ {
		s, _, err := r.Open(context.Background(), "", "")
		if err != nil {
			t.Fatal(err)
		}

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_, _ = r.Get(s.ID())
				}
			}()
		}
		if err := r.Close(s.ID()); err != nil {
			t.Fatalf("round %d: Close() error = %v", round, err)
		}
		wg.Wait()

		if _, err := r.Get(s.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Fatalf("round %d: closed session is registered again", round)
		}
		if n := r.Len(); n != 0 {
			t.Fatalf("round %d: Len() = %d, want 0", round, n)
		}
	}
}

func TestRegistryEvictsIdleSessions(t *testing.T) {
	r := newTestRegistry(t, newFakeStore(100), 40*time.Millisecond)
	s, _, err := r.Open(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(150 * time.Millisecond)

	if _, err := r.Get(s.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get() after idle TTL error = %v", err)
	}
	if _, err := s.LoadMore(context.Background()); !errors.Is(err, domain.ErrControllerClosed) {
		t.Errorf("evicted session still open: %v", err)
	}
}

func TestRegistryShutdownClosesAll(t *testing.T) {
	r := newTestRegistry(t, newFakeStore(100), time.Minute)
	var opened []*BrowseSession
	for i := 0; i < 3; i++ {
		s, _, err := r.Open(context.Background(), "", "")
		if err != nil {
			t.Fatal(err)
		}
		opened = append(opened, s)
	}

	r.Shutdown()

	if r.Len() != 0 {
		t.Errorf("Len() after Shutdown = %d", r.Len())
	}
	for _, s := range opened {
		if _, err := s.GoToPage(context.Background(), 2); !errors.Is(err, domain.ErrControllerClosed) {
			t.Errorf("session %s still open: %v", s.ID(), err)
		}
	}
}
