package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront-catalog/internal/domain"
)

func newTestController(store domain.CatalogStore, onUpdate func(PageUpdate)) *PageController {
	return NewPageController(store, PageControllerOptions{
		PageSize:             36,
		PriceCeilingFallback: 1000,
		OnUpdate:             onUpdate,
	})
}

func assertHasMoreInvariant(t *testing.T, st domain.PageState) {
	t.Helper()
	want := st.Page < domain.TotalPages(st.TotalCount, st.PageSize)
	if st.HasMore != want {
		t.Errorf("HasMore = %v with page %d, total %d, size %d; want %v", st.HasMore, st.Page, st.TotalCount, st.PageSize, want)
	}
}

func TestReloadAndJumpToLastPage(t *testing.T) {
	store := newFakeStore(100)
	var updates []PageUpdate
	pc := newTestController(store, func(u PageUpdate) { updates = append(updates, u) })
	ctx := context.Background()

	st, err := pc.Reload(ctx, domain.DefaultCriteria(1000))
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if st.Page != 1 || len(st.Items) != 36 || !st.HasMore || st.TotalPages != 3 {
		t.Errorf("after reload: page=%d items=%d hasMore=%v totalPages=%d, want 1/36/true/3", st.Page, len(st.Items), st.HasMore, st.TotalPages)
	}
	if !store.lastCall().withCount {
		t.Error("reload did not request a count")
	}
	assertHasMoreInvariant(t, st)

	st, err = pc.GoToPage(ctx, 3)
	if err != nil {
		t.Fatalf("GoToPage(3) error = %v", err)
	}
	if st.Page != 3 || len(st.Items) != 28 || st.HasMore {
		t.Errorf("page 3: page=%d items=%d hasMore=%v, want 3/28/false", st.Page, len(st.Items), st.HasMore)
	}
	if st.Items[0].ID != "p072" || st.Items[27].ID != "p099" {
		t.Errorf("page 3 spans %s..%s, want p072..p099", st.Items[0].ID, st.Items[27].ID)
	}
	if !store.lastCall().withCount {
		t.Error("jump did not request a count")
	}
	assertHasMoreInvariant(t, st)

	last := updates[len(updates)-1]
	if last.Mode != domain.FetchJump || !last.ScrollToTop {
		t.Errorf("last update = %s scrollToTop=%v, want jump with scrollToTop", last.Mode, last.ScrollToTop)
	}
	if updates[0].ScrollToTop {
		t.Error("reload asked to scroll to top")
	}
}

func TestLoadMoreAppends(t *testing.T) {
	store := newFakeStore(100)
	pc := newTestController(store, nil)
	ctx := context.Background()

	if _, err := pc.Reload(ctx, domain.DefaultCriteria(1000)); err != nil {
		t.Fatal(err)
	}

	st, err := pc.LoadMore(ctx)
	if err != nil {
		t.Fatalf("LoadMore() error = %v", err)
	}
	if len(st.Items) != 72 || st.Page != 2 {
		t.Errorf("after load more: items=%d page=%d, want 72/2", len(st.Items), st.Page)
	}
	if st.Items[36].ID != "p036" {
		t.Errorf("items[36] = %s, want p036", st.Items[36].ID)
	}
	call := store.lastCall()
	if call.withCount {
		t.Error("load more requested a count")
	}
	if call.q.Window.Offset != 36 || call.q.Window.Limit != 36 {
		t.Errorf("window = %+v, want offset 36 limit 36", call.q.Window)
	}
	assertHasMoreInvariant(t, st)

	st, _ = pc.LoadMore(ctx)
	if len(st.Items) != 100 || st.Page != 3 || st.HasMore {
		t.Errorf("after second load more: items=%d page=%d hasMore=%v, want 100/3/false", len(st.Items), st.Page, st.HasMore)
	}

	calls := store.callCount()
	if _, err := pc.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if store.callCount() != calls {
		t.Error("load more fetched with hasMore=false")
	}
}

func TestGoToCurrentPageIsNoop(t *testing.T) {
	store := newFakeStore(100)
	var updates atomic.Int32
	pc := newTestController(store, func(PageUpdate) { updates.Add(1) })
	ctx := context.Background()

	before, err := pc.Reload(ctx, domain.DefaultCriteria(1000))
	if err != nil {
		t.Fatal(err)
	}
	calls, notified := store.callCount(), updates.Load()

	for _, target := range []int{1, 0, -4} {
		after, err := pc.GoToPage(ctx, target)
		if err != nil {
			t.Fatalf("GoToPage(%d) error = %v", target, err)
		}
		if after.Page != before.Page || len(after.Items) != len(before.Items) {
			t.Errorf("GoToPage(%d) changed state: page %d, items %d", target, after.Page, len(after.Items))
		}
	}
	if store.callCount() != calls {
		t.Errorf("fetches = %d, want %d", store.callCount(), calls)
	}
	if updates.Load() != notified {
		t.Error("no-op jump notified the presentation layer")
	}
}

func TestGoToPagePastTheEnd(t *testing.T) {
	store := newFakeStore(100)
	pc := newTestController(store, nil)
	ctx := context.Background()

	st, err := pc.GoToPage(ctx, 10)
	if err != nil {
		t.Fatalf("GoToPage(10) error = %v", err)
	}
	if st.Page != 3 || len(st.Items) != 28 {
		t.Errorf("page=%d items=%d, want the last page (3) with 28 items", st.Page, len(st.Items))
	}
	assertHasMoreInvariant(t, st)
}

func TestGoToPageOnEmptyResult(t *testing.T) {
	store := newFakeStore(0)
	pc := newTestController(store, nil)

	st, err := pc.GoToPage(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if st.Page != 1 || len(st.Items) != 0 || st.HasMore {
		t.Errorf("page=%d items=%d hasMore=%v, want 1/0/false", st.Page, len(st.Items), st.HasMore)
	}
}

func TestShrinkingTotalClearsHasMore(t *testing.T) {
	store := newFakeStore(100)
	pc := newTestController(store, nil)
	ctx := context.Background()

	if _, err := pc.Reload(ctx, domain.DefaultCriteria(1000)); err != nil {
		t.Fatal(err)
	}
	if _, err := pc.GoToPage(ctx, 2); err != nil {
		t.Fatal(err)
	}

	// Narrowed remotely below (page-1)*pageSize.
	store.setTotal(30)
	st, err := pc.GoToPage(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if st.HasMore || st.TotalCount != 30 || st.Page != 1 {
		t.Errorf("hasMore=%v total=%d page=%d, want false/30/1", st.HasMore, st.TotalCount, st.Page)
	}
	assertHasMoreInvariant(t, st)
}

func TestEmptyAppendReconcilesTotal(t *testing.T) {
	store := newFakeStore(100)
	pc := newTestController(store, nil)
	ctx := context.Background()

	if _, err := pc.Reload(ctx, domain.DefaultCriteria(1000)); err != nil {
		t.Fatal(err)
	}
	store.setTotal(36)

	st, err := pc.LoadMore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalCount != 36 || st.HasMore || st.Page != 1 || len(st.Items) != 36 {
		t.Errorf("total=%d hasMore=%v page=%d items=%d, want 36/false/1/36", st.TotalCount, st.HasMore, st.Page, len(st.Items))
	}
}

func TestReloadFailureClearsList(t *testing.T) {
	store := newFakeStore(100)
	pc := newTestController(store, nil)
	ctx := context.Background()

	if _, err := pc.Reload(ctx, domain.DefaultCriteria(1000)); err != nil {
		t.Fatal(err)
	}
	store.setFail(failNth(1, errors.New("connection reset")))

	st, err := pc.Reload(ctx, withSearch("lamp"))
	if !errors.Is(err, domain.ErrQueryFailed) {
		t.Fatalf("Reload() error = %v, want ErrQueryFailed", err)
	}
	if len(st.Items) != 0 || st.HasMore {
		t.Errorf("items=%d hasMore=%v, want empty list without more", len(st.Items), st.HasMore)
	}
	if st.Error == nil || st.Error.Kind != domain.ErrorKindQuery || !st.Error.Retryable {
		t.Errorf("Error = %+v, want retryable query error", st.Error)
	}

	calls := store.callCount()
	if _, err := pc.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if store.callCount() != calls {
		t.Error("load more ran after a failed reload")
	}

	st, err = pc.Reload(ctx, withSearch("lamp"))
	if err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if st.Error != nil || len(st.Items) != 36 {
		t.Errorf("after retry: error=%v items=%d", st.Error, len(st.Items))
	}
}

func TestLoadMoreFailureKeepsItems(t *testing.T) {
	store := newFakeStore(100)
	store.setFail(failNth(1, errors.New("timeout")))
	pc := newTestController(store, nil)
	ctx := context.Background()

	if _, err := pc.Reload(ctx, domain.DefaultCriteria(1000)); err != nil {
		t.Fatal(err)
	}

	st, err := pc.LoadMore(ctx)
	if !errors.Is(err, domain.ErrIncrementalFetchFailed) {
		t.Fatalf("LoadMore() error = %v, want ErrIncrementalFetchFailed", err)
	}
	if len(st.Items) != 36 || st.Page != 1 || !st.HasMore {
		t.Errorf("items=%d page=%d hasMore=%v, want untouched 36/1/true", len(st.Items), st.Page, st.HasMore)
	}
	if st.Error == nil || st.Error.Kind != domain.ErrorKindIncremental {
		t.Errorf("Error = %+v, want incremental", st.Error)
	}

	st, err = pc.LoadMore(ctx)
	if err != nil {
		t.Fatalf("second LoadMore() error = %v", err)
	}
	if len(st.Items) != 72 || st.Error != nil {
		t.Errorf("items=%d error=%v, want 72 and cleared error", len(st.Items), st.Error)
	}
}

func TestSupersededReloadIsDiscarded(t *testing.T) {
	store := newFakeStore(100)
	store.setDelay(func(q domain.QueryDescriptor) time.Duration {
		if searchTerm(q) == "first" {
			return 200 * time.Millisecond
		}
		return 10 * time.Millisecond
	})
	pc := newTestController(store, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = pc.Reload(ctx, withSearch("first"))
	}()

	time.Sleep(50 * time.Millisecond)
	st, err := pc.Reload(ctx, withSearch("second"))
	if err != nil {
		t.Fatalf("second Reload() error = %v", err)
	}
	wg.Wait()

	if !errors.Is(firstErr, domain.ErrSuperseded) {
		t.Errorf("first Reload() error = %v, want ErrSuperseded", firstErr)
	}
	final := pc.State()
	if len(final.Items) != 36 || final.Items[0].Name != "second" {
		t.Errorf("final items come from %q, want second", final.Items[0].Name)
	}
	if st.Items[0].Name != "second" {
		t.Errorf("second Reload() returned %q items", st.Items[0].Name)
	}
	if pc.Criteria().CommittedSearchText != "second" {
		t.Errorf("criteria = %q, want second", pc.Criteria().CommittedSearchText)
	}
}

func TestLoadMoreSuppressedWhileInFlight(t *testing.T) {
	store := newFakeStore(100)
	pc := newTestController(store, nil)
	ctx := context.Background()

	if _, err := pc.Reload(ctx, domain.DefaultCriteria(1000)); err != nil {
		t.Fatal(err)
	}
	store.setDelay(func(domain.QueryDescriptor) time.Duration { return 100 * time.Millisecond })

	done := make(chan domain.PageState, 1)
	go func() {
		st, _ := pc.LoadMore(ctx)
		done <- st
	}()

	time.Sleep(20 * time.Millisecond)
	if !pc.State().Loading {
		t.Error("Loading = false while a fetch is in flight")
	}
	st, err := pc.LoadMore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Items) != 36 {
		t.Errorf("suppressed LoadMore returned %d items, want the current 36", len(st.Items))
	}

	final := <-done
	if len(final.Items) != 72 || final.Page != 2 {
		t.Errorf("items=%d page=%d, want 72/2", len(final.Items), final.Page)
	}
	if store.callCount() != 2 {
		t.Errorf("fetches = %d, want 2 (reload + one load more)", store.callCount())
	}
}

func TestCloseDropsInFlightFetch(t *testing.T) {
	store := newFakeStore(100)
	store.setDelay(func(domain.QueryDescriptor) time.Duration { return 100 * time.Millisecond })
	var updates atomic.Int32
	pc := newTestController(store, func(PageUpdate) { updates.Add(1) })

	errc := make(chan error, 1)
	go func() {
		_, err := pc.Reload(context.Background(), domain.DefaultCriteria(1000))
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	pc.Close()

	if err := <-errc; err == nil {
		t.Error("in-flight reload succeeded after Close")
	}
	if updates.Load() != 0 {
		t.Errorf("updates after close = %d, want 0", updates.Load())
	}
	st := pc.State()
	if len(st.Items) != 0 || st.Loading {
		t.Errorf("state after close: items=%d loading=%v", len(st.Items), st.Loading)
	}
	if _, err := pc.Reload(context.Background(), domain.DefaultCriteria(1000)); !errors.Is(err, domain.ErrControllerClosed) {
		t.Errorf("Reload() after Close error = %v, want ErrControllerClosed", err)
	}
}

func TestReloadResetsToFirstPage(t *testing.T) {
	store := newFakeStore(100)
	pc := newTestController(store, nil)
	ctx := context.Background()

	if _, err := pc.GoToPage(ctx, 3); err != nil {
		t.Fatal(err)
	}
	c := domain.DefaultCriteria(1000)
	c.OnlyInStock = true
	st, err := pc.Reload(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if st.Page != 1 {
		t.Errorf("page = %d, want 1", st.Page)
	}
	if store.lastCall().q.Window.Offset != 0 {
		t.Errorf("offset = %d, want 0", store.lastCall().q.Window.Offset)
	}
}

func TestMaxPriceFollowsLoadedItems(t *testing.T) {
	store := newFakeStore(100)
	pc := newTestController(store, nil)

	if got := pc.MaxPrice(); got != 1000 {
		t.Errorf("MaxPrice() before load = %v, want fallback 1000", got)
	}
	if _, err := pc.Reload(context.Background(), domain.DefaultCriteria(1000)); err != nil {
		t.Fatal(err)
	}
	if got := pc.MaxPrice(); got != 36 {
		t.Errorf("MaxPrice() = %v, want 36", got)
	}
	if _, err := pc.LoadMore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := pc.MaxPrice(); got != 72 {
		t.Errorf("MaxPrice() after append = %v, want 72", got)
	}
}

func TestPagingKeepsTheCountedPredicates(t *testing.T) {
	store := newFakeStore(100)
	store.setPriceStep(50)
	pc := newTestController(store, nil)
	ctx := context.Background()

	if _, err := pc.Reload(ctx, domain.DefaultCriteria(1000)); err != nil {
		t.Fatal(err)
	}
	reload := store.lastCall().q
	if got := pc.MaxPrice(); got != 1800 {
		t.Fatalf("MaxPrice() = %v, want 1800", got)
	}

	if _, err := pc.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	more := store.lastCall().q
	if more.Window != (domain.Window{Offset: 36, Limit: 36}) {
		t.Errorf("append window = %+v", more.Window)
	}

	if _, err := pc.GoToPage(ctx, 3); err != nil {
		t.Fatal(err)
	}
	jump := store.lastCall().q

	reload.Window = domain.Window{}
	for name, q := range map[string]domain.QueryDescriptor{"append": more, "jump": jump} {
		q.Window = domain.Window{}
		if string(q.Fingerprint()) != string(reload.Fingerprint()) {
			t.Errorf("%s predicates = %+v, want %+v", name, q.Predicates, reload.Predicates)
		}
	}
}

func TestFetchTimeout(t *testing.T) {
	store := newFakeStore(100)
	store.setDelay(func(domain.QueryDescriptor) time.Duration { return time.Second })
	pc := NewPageController(store, PageControllerOptions{PageSize: 36, FetchTimeout: 20 * time.Millisecond})

	_, err := pc.Reload(context.Background(), domain.DefaultCriteria(1000))
	if !errors.Is(err, domain.ErrQueryFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Reload() error = %v, want ErrQueryFailed wrapping DeadlineExceeded", err)
	}
}
