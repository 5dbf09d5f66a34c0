package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-catalog/internal/domain"
)

type fakeCall struct {
	q         domain.QueryDescriptor
	withCount bool
}

// fakeStore serves total synthetic rows; row i has id "p%03d" and price
// (i+1)*step, with step 1 unless set.
// Every item's Name carries the committed search term of the query that
// produced it, so tests can tell responses apart.
type fakeStore struct {
	mu    sync.Mutex
	calls []fakeCall
	total int
	step  float64
	delay func(q domain.QueryDescriptor) time.Duration
	fail  func(call int) error
}

func newFakeStore(total int) *fakeStore {
	return &fakeStore{total: total, step: 1}
}

func (f *fakeStore) Execute(ctx context.Context, q domain.QueryDescriptor, withCount bool) (domain.QueryResult, error) {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, fakeCall{q: q, withCount: withCount})
	total, step, delay, fail := f.total, f.step, f.delay, f.fail
	f.mu.Unlock()

	if delay != nil {
		select {
		case <-ctx.Done():
			return domain.QueryResult{}, ctx.Err()
		case <-time.After(delay(q)):
		}
	}
	if fail != nil {
		if err := fail(call); err != nil {
			return domain.QueryResult{}, err
		}
	}

	term := searchTerm(q)
	items := []domain.ProductSummary{}
	for i := q.Window.Offset; i < total && i < q.Window.Offset+q.Window.Limit; i++ {
		items = append(items, domain.ProductSummary{
			ID:    fmt.Sprintf("p%03d", i),
			Name:  term,
			Price: float64(i+1) * step,
		})
	}
	res := domain.QueryResult{Items: items}
	if withCount {
		res.TotalCount = total
		res.Counted = true
	}
	return res, nil
}

func (f *fakeStore) setTotal(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total = n
}

func (f *fakeStore) setPriceStep(step float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = step
}

func (f *fakeStore) setDelay(fn func(q domain.QueryDescriptor) time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = fn
}

func (f *fakeStore) setFail(fn func(call int) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeStore) lastCall() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func searchTerm(q domain.QueryDescriptor) string {
	for _, p := range q.Predicates {
		if p.Op == domain.OpContainsAny {
			s, _ := p.Value.(string)
			return s
		}
	}
	return ""
}

// failNth fails exactly the given call index.
func failNth(n int, err error) func(int) error {
	return func(call int) error {
		if call == n {
			return err
		}
		return nil
	}
}

// memPrefs is an in-memory preference store that can be switched offline.
type memPrefs struct {
	mu      sync.Mutex
	values  map[string]string
	offline bool
	sets    int
}

func newMemPrefs() *memPrefs {
	return &memPrefs{values: map[string]string{}}
}

var errOffline = fmt.Errorf("store offline")

func (m *memPrefs) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return "", false, errOffline
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memPrefs) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.offline {
		return errOffline
	}
	m.values[key] = value
	return nil
}

func withSearch(text string) domain.FilterCriteria {
	c := domain.DefaultCriteria(1000)
	c.SearchText = text
	c.CommittedSearchText = text
	return c
}
