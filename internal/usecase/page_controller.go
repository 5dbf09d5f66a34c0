package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/logger"

	"github.com/rs/zerolog"
)

// PageUpdate is delivered to the update hook every time a fetch result is
// applied to the controller state.
type PageUpdate struct {
	Mode        domain.FetchMode
	State       domain.PageState
	Criteria    domain.FilterCriteria
	ScrollToTop bool
}

type PageControllerOptions struct {
	PageSize int
	// PriceCeilingFallback is used as the max price while no priced item is loaded.
	PriceCeilingFallback float64
	// FetchTimeout bounds each store call; zero means no deadline.
	FetchTimeout time.Duration
	// OnUpdate runs with the controller lock held. It must not call back into
	// the controller.
	OnUpdate func(PageUpdate)
}

// PageController owns the visible list and its pagination metadata, and
// drives the three access modes against the catalog store: reload (replace
// from page 1 with a fresh count), load-more (append the next page without a
// count) and jump (replace with an arbitrary page and a fresh count).
//
// Every fetch captures a generation number at dispatch. A reload or jump
// bumps the generation and cancels the fetch it supersedes; a response whose
// generation is no longer current is dropped, so only the most recent
// request ever reaches the state.
type PageController struct {
	store    domain.CatalogStore
	pageSize int
	fallback float64
	timeout  time.Duration
	onUpdate func(PageUpdate)
	log      zerolog.Logger

	mu         sync.Mutex
	state      domain.PageState
	criteria   domain.FilterCriteria
	ceiling    float64
	loaded     bool
	generation uint64
	inFlight   domain.FetchMode
	cancel     context.CancelFunc
	closed     bool
}

func NewPageController(store domain.CatalogStore, opts PageControllerOptions) *PageController {
	if opts.PageSize < 1 {
		opts.PageSize = 36
	}
	if opts.PriceCeilingFallback <= 0 {
		opts.PriceCeilingFallback = 1000
	}
	return &PageController{
		store:    store,
		pageSize: opts.PageSize,
		fallback: opts.PriceCeilingFallback,
		timeout:  opts.FetchTimeout,
		onUpdate: opts.OnUpdate,
		log:      logger.WithComponent("page_controller"),
		state: domain.PageState{
			Page:     1,
			PageSize: opts.PageSize,
			Items:    []domain.ProductSummary{},
		},
		criteria: domain.DefaultCriteria(opts.PriceCeilingFallback),
		ceiling:  opts.PriceCeilingFallback,
	}
}

// State returns a copy of the current page state.
func (pc *PageController) State() domain.PageState {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.snapshotLocked()
}

// Criteria returns the criteria the current list was fetched with.
func (pc *PageController) Criteria() domain.FilterCriteria {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.criteria.Clone()
}

// MaxPrice is the derived price ceiling of the visible list.
func (pc *PageController) MaxPrice() float64 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return MaxPrice(pc.state.Items, pc.fallback)
}

// Reload fetches page 1 for c with a fresh total count and replaces the list.
// On failure the list is cleared and a retryable query error is surfaced.
func (pc *PageController) Reload(ctx context.Context, c domain.FilterCriteria) (domain.PageState, error) {
	st, _, err := pc.ReloadWith(ctx, func(float64) (domain.FilterCriteria, bool) { return c, true })
	return st, err
}

// ReloadWith runs mutate and dispatches the reload under the controller lock,
// so concurrent mutations reach the generation fence in the order they were
// applied. mutate receives the derived max price of the visible list and
// reports whether the query changed; when it did not, nothing is fetched and
// dispatched is false.
func (pc *PageController) ReloadWith(ctx context.Context, mutate func(maxPrice float64) (domain.FilterCriteria, bool)) (st domain.PageState, dispatched bool, err error) {
	pc.mu.Lock()
	if pc.closed {
		pc.mu.Unlock()
		return domain.PageState{}, false, domain.ErrControllerClosed
	}
	c, changed := mutate(MaxPrice(pc.state.Items, pc.fallback))
	if !changed {
		st = pc.snapshotLocked()
		pc.mu.Unlock()
		return st, false, nil
	}
	pc.criteria = c.Clone()
	pc.ceiling = MaxPrice(pc.state.Items, pc.fallback)
	q := BuildQuery(pc.criteria, pc.ceiling, 1, pc.pageSize)
	gen, fetchCtx := pc.beginLocked(ctx, domain.FetchReload)
	pc.mu.Unlock()

	st, err = pc.finishReload(fetchCtx, q, gen)
	return st, true, err
}

func (pc *PageController) finishReload(fetchCtx context.Context, q domain.QueryDescriptor, gen uint64) (domain.PageState, error) {
	res, err := pc.execute(fetchCtx, q, true, gen, domain.FetchReload)

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.currentLocked(gen) {
		return domain.PageState{}, domain.ErrSuperseded
	}
	pc.finishLocked()

	if err != nil {
		pc.state.Items = []domain.ProductSummary{}
		pc.state.Page = 1
		pc.state.TotalCount = 0
		pc.state.TotalPages = 0
		pc.state.HasMore = false
		pc.state.Error = &domain.LoadError{
			Kind:      domain.ErrorKindQuery,
			Message:   "We couldn't load products.",
			Retryable: true,
		}
		pc.loaded = false
		pc.notifyLocked(domain.FetchReload, false)
		return pc.snapshotLocked(), fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}

	pc.applyReplaceLocked(res, 1)
	pc.notifyLocked(domain.FetchReload, false)
	return pc.snapshotLocked(), nil
}

// LoadMore appends the next page. It is a no-op when there is nothing more
// to load or when any fetch is already in flight; calls are never queued.
func (pc *PageController) LoadMore(ctx context.Context) (domain.PageState, error) {
	pc.mu.Lock()
	if pc.closed {
		pc.mu.Unlock()
		return domain.PageState{}, domain.ErrControllerClosed
	}
	if !pc.loaded || !pc.state.HasMore || pc.inFlight != "" {
		st := pc.snapshotLocked()
		pc.mu.Unlock()
		return st, nil
	}
	next := pc.state.Page + 1
	// Same predicates as the counted fetch that produced the list; only the
	// window moves.
	q := BuildQuery(pc.criteria, pc.ceiling, next, pc.pageSize)
	gen, fetchCtx := pc.beginLocked(ctx, domain.FetchAppend)
	pc.mu.Unlock()

	res, err := pc.execute(fetchCtx, q, false, gen, domain.FetchAppend)

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.currentLocked(gen) {
		return domain.PageState{}, domain.ErrSuperseded
	}
	pc.finishLocked()

	if err != nil {
		pc.state.Error = &domain.LoadError{
			Kind:      domain.ErrorKindIncremental,
			Message:   "Couldn't load more products. Scroll to try again.",
			Retryable: true,
		}
		return pc.snapshotLocked(), fmt.Errorf("%w: %w", domain.ErrIncrementalFetchFailed, err)
	}

	pc.state.Error = nil
	if len(res.Items) == 0 {
		// Rows vanished since the count was taken; settle the total on what we have.
		pc.state.TotalCount = len(pc.state.Items)
		pc.state.TotalPages = domain.TotalPages(pc.state.TotalCount, pc.pageSize)
		pc.state.HasMore = false
		pc.notifyLocked(domain.FetchAppend, false)
		return pc.snapshotLocked(), nil
	}

	items := make([]domain.ProductSummary, 0, len(pc.state.Items)+len(res.Items))
	items = append(items, pc.state.Items...)
	items = append(items, res.Items...)
	pc.state.Items = items
	pc.state.Page = next
	pc.recomputeLocked()
	pc.notifyLocked(domain.FetchAppend, false)
	return pc.snapshotLocked(), nil
}

// GoToPage replaces the list with page target (clamped to at least 1) and a
// fresh total count. Jumping to the page already shown is a no-op. A failed
// jump keeps the previous list and surfaces an error.
func (pc *PageController) GoToPage(ctx context.Context, target int) (domain.PageState, error) {
	if target < 1 {
		target = 1
	}
	pc.mu.Lock()
	if pc.closed {
		pc.mu.Unlock()
		return domain.PageState{}, domain.ErrControllerClosed
	}
	if pc.loaded && pc.inFlight == "" && target == pc.state.Page {
		st := pc.snapshotLocked()
		pc.mu.Unlock()
		return st, nil
	}
	pc.mu.Unlock()
	return pc.jump(ctx, nil, target)
}

// Restore loads page for the criteria apply returns, regardless of what is
// currently shown. apply runs under the controller lock. It is used when a
// session is mounted from an address.
func (pc *PageController) Restore(ctx context.Context, apply func() domain.FilterCriteria, page int) (domain.PageState, error) {
	if page <= 1 {
		st, _, err := pc.ReloadWith(ctx, func(float64) (domain.FilterCriteria, bool) { return apply(), true })
		return st, err
	}
	return pc.jump(ctx, apply, page)
}

// Close drops the effect of any in-flight fetch and rejects further calls.
func (pc *PageController) Close() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.closed {
		return
	}
	pc.closed = true
	pc.generation++
	if pc.cancel != nil {
		pc.cancel()
		pc.cancel = nil
	}
	pc.inFlight = ""
	pc.state.Loading = false
}

// jump replaces the list with page target. A nil apply keeps the current
// criteria and the price ceiling they were last fetched with.
func (pc *PageController) jump(ctx context.Context, apply func() domain.FilterCriteria, target int) (domain.PageState, error) {
	pc.mu.Lock()
	if pc.closed {
		pc.mu.Unlock()
		return domain.PageState{}, domain.ErrControllerClosed
	}
	if apply != nil || !pc.loaded {
		if apply != nil {
			pc.criteria = apply().Clone()
		}
		pc.ceiling = MaxPrice(pc.state.Items, pc.fallback)
	}
	criteria := pc.criteria.Clone()
	ceiling := pc.ceiling
	gen, fetchCtx := pc.beginLocked(ctx, domain.FetchJump)
	pc.mu.Unlock()

	page := target
	res, err := pc.execute(fetchCtx, BuildQuery(criteria, ceiling, page, pc.pageSize), true, gen, domain.FetchJump)
	if err == nil {
		// Past the end of a non-empty result: show the last page instead of an
		// empty one so the list always matches the page number.
		if last := domain.TotalPages(res.TotalCount, pc.pageSize); last >= 1 && page > last && len(res.Items) == 0 {
			page = last
			res, err = pc.execute(fetchCtx, BuildQuery(criteria, ceiling, page, pc.pageSize), true, gen, domain.FetchJump)
		}
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.currentLocked(gen) {
		return domain.PageState{}, domain.ErrSuperseded
	}
	pc.finishLocked()

	if err != nil {
		pc.state.Error = &domain.LoadError{
			Kind:      domain.ErrorKindQuery,
			Message:   fmt.Sprintf("We couldn't load page %d.", target),
			Retryable: true,
		}
		return pc.snapshotLocked(), fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}

	if last := domain.TotalPages(res.TotalCount, pc.pageSize); page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	pc.applyReplaceLocked(res, page)
	pc.notifyLocked(domain.FetchJump, true)
	return pc.snapshotLocked(), nil
}

func (pc *PageController) execute(ctx context.Context, q domain.QueryDescriptor, withCount bool, gen uint64, mode domain.FetchMode) (domain.QueryResult, error) {
	start := time.Now()
	res, err := pc.store.Execute(ctx, q, withCount)
	logger.CatalogFetch(pc.log, gen, string(mode), q.Window.Offset, q.Window.Limit, len(res.Items), time.Since(start), err)
	if err != nil {
		return domain.QueryResult{}, err
	}
	return res, nil
}

// beginLocked starts a new generation, cancelling whatever fetch it supersedes.
func (pc *PageController) beginLocked(ctx context.Context, mode domain.FetchMode) (uint64, context.Context) {
	if pc.cancel != nil {
		pc.cancel()
	}
	pc.generation++

	var fetchCtx context.Context
	var cancel context.CancelFunc
	if pc.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, pc.timeout)
	} else {
		fetchCtx, cancel = context.WithCancel(ctx)
	}
	pc.cancel = cancel
	pc.inFlight = mode
	pc.state.Loading = true
	return pc.generation, fetchCtx
}

func (pc *PageController) currentLocked(gen uint64) bool {
	if pc.closed || gen != pc.generation {
		pc.log.Debug().Uint64("generation", gen).Uint64("current", pc.generation).Msg("discarding stale catalog response")
		return false
	}
	return true
}

func (pc *PageController) finishLocked() {
	if pc.cancel != nil {
		pc.cancel()
		pc.cancel = nil
	}
	pc.inFlight = ""
	pc.state.Loading = false
}

func (pc *PageController) applyReplaceLocked(res domain.QueryResult, page int) {
	items := res.Items
	if items == nil {
		items = []domain.ProductSummary{}
	}
	pc.state.Items = items
	pc.state.Page = page
	pc.state.TotalCount = res.TotalCount
	pc.state.Error = nil
	pc.loaded = true
	pc.recomputeLocked()
}

func (pc *PageController) recomputeLocked() {
	pc.state.TotalPages = domain.TotalPages(pc.state.TotalCount, pc.pageSize)
	pc.state.HasMore = domain.HasMore(pc.state.Page, pc.state.TotalCount, pc.pageSize)
}

func (pc *PageController) notifyLocked(mode domain.FetchMode, scrollToTop bool) {
	if pc.onUpdate == nil {
		return
	}
	pc.onUpdate(PageUpdate{
		Mode:        mode,
		State:       pc.snapshotLocked(),
		Criteria:    pc.criteria.Clone(),
		ScrollToTop: scrollToTop,
	})
}

func (pc *PageController) snapshotLocked() domain.PageState {
	st := pc.state
	st.Items = slices.Clone(pc.state.Items)
	if st.Items == nil {
		st.Items = []domain.ProductSummary{}
	}
	if pc.state.Error != nil {
		e := *pc.state.Error
		st.Error = &e
	}
	return st
}
