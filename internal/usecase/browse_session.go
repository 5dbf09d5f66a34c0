package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/logger"

	"github.com/rs/zerolog"
)

type BrowseSessionOptions struct {
	ID       string
	ClientID string
	PageSize int
	// PriceCeiling is the fallback max price while nothing priced is loaded.
	PriceCeiling   float64
	SearchDebounce time.Duration
	FetchTimeout   time.Duration
	Preferences    domain.PreferenceStore
	// AddressWriter receives every rewritten address; optional.
	AddressWriter AddressWriter
}

// SessionSnapshot is everything the presentation layer renders.
type SessionSnapshot struct {
	ID          string                `json:"id"`
	Criteria    domain.FilterCriteria `json:"criteria"`
	State       domain.PageState      `json:"state"`
	Address     string                `json:"address"`
	ViewDensity domain.ViewDensity    `json:"viewDensity"`
	MaxPrice    float64               `json:"maxPrice"`
	ScrollToTop bool                  `json:"scrollToTop"`
}

// BrowseSession wires the criteria store, debouncer, page controller, address
// sync and preferences of one storefront browsing session.
//
// Every mutation of a query-affecting field resets to page 1 through Reload.
// Raw search input only reaches the query after the debounce window, from the
// debouncer's goroutine, using the session's own context so the fetch outlives
// the call that typed the text. Addresses are rewritten from the controller's
// update hook, so they always describe the state that was actually applied.
type BrowseSession struct {
	id       string
	criteria *CriteriaStore
	pages    *PageController
	search   *Debouncer
	urls     *URLSync
	prefs    *Preferences
	ceiling  float64
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	scrollToTop atomic.Bool
	closeOnce   sync.Once
}

func NewBrowseSession(parent context.Context, store domain.CatalogStore, opts BrowseSessionOptions) *BrowseSession {
	if opts.PriceCeiling <= 0 {
		opts.PriceCeiling = 1000
	}
	ctx, cancel := context.WithCancel(parent)

	s := &BrowseSession{
		id:       opts.ID,
		criteria: NewCriteriaStore(domain.DefaultCriteria(opts.PriceCeiling)),
		urls:     NewURLSync(opts.AddressWriter),
		prefs:    NewPreferences(opts.Preferences, opts.ClientID),
		ceiling:  opts.PriceCeiling,
		log:      logger.WithSessionID(logger.WithComponent("browse_session"), opts.ID),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.pages = NewPageController(store, PageControllerOptions{
		PageSize:             opts.PageSize,
		PriceCeilingFallback: opts.PriceCeiling,
		FetchTimeout:         opts.FetchTimeout,
		OnUpdate:             s.onPageUpdate,
	})
	s.search = NewDebouncer(opts.SearchDebounce, s.commitSearch)
	return s
}

func (s *BrowseSession) ID() string { return s.id }

// Mount restores criteria and page from address, loads the density
// preference and performs the initial fetch.
func (s *BrowseSession) Mount(ctx context.Context, address string) (SessionSnapshot, error) {
	c, page := s.urls.Restore(address, s.ceiling)
	s.prefs.Load(ctx)

	s.log.Info().Str("address", address).Int("page", page).Msg("mounting browse session")
	_, err := s.pages.Restore(ctx, func() domain.FilterCriteria { return s.criteria.Replace(c) }, page)
	return s.result(err)
}

// TypeSearch records raw search input and restarts the debounce window.
func (s *BrowseSession) TypeSearch(text string) SessionSnapshot {
	s.criteria.SetSearchText(text)
	s.search.OnInput()
	return s.Snapshot()
}

func (s *BrowseSession) ToggleCategory(ctx context.Context, id string) (SessionSnapshot, error) {
	return s.mutate(ctx, func(float64) domain.FilterCriteria { return s.criteria.ToggleCategory(id) })
}

func (s *BrowseSession) SetSort(ctx context.Context, raw string) (SessionSnapshot, error) {
	mode, ok := domain.ParseSortMode(raw)
	if !ok {
		return s.Snapshot(), domain.ErrInvalidSort
	}
	return s.mutate(ctx, func(float64) domain.FilterCriteria { return s.criteria.SetSort(mode) })
}

func (s *BrowseSession) ToggleStockOnly(ctx context.Context) (SessionSnapshot, error) {
	return s.mutate(ctx, func(float64) domain.FilterCriteria { return s.criteria.ToggleStockOnly() })
}

func (s *BrowseSession) ToggleSaleOnly(ctx context.Context) (SessionSnapshot, error) {
	return s.mutate(ctx, func(float64) domain.FilterCriteria { return s.criteria.ToggleSaleOnly() })
}

func (s *BrowseSession) SetAdvanced(ctx context.Context, block domain.AdvancedFilters) (SessionSnapshot, error) {
	pr := block.PriceRange
	if pr.Min < 0 || pr.Max < 0 || (pr.Max > 0 && pr.Min > pr.Max) {
		return s.Snapshot(), domain.ErrInvalidPriceRange
	}
	return s.mutate(ctx, func(float64) domain.FilterCriteria { return s.criteria.SetAdvanced(block) })
}

// ClearAll resets every filter, with the price range spanning the max price
// of the items currently loaded.
func (s *BrowseSession) ClearAll(ctx context.Context) (SessionSnapshot, error) {
	return s.mutate(ctx, s.criteria.ClearAll)
}

func (s *BrowseSession) LoadMore(ctx context.Context) (SessionSnapshot, error) {
	_, err := s.pages.LoadMore(ctx)
	return s.result(err)
}

func (s *BrowseSession) GoToPage(ctx context.Context, page int) (SessionSnapshot, error) {
	_, err := s.pages.GoToPage(ctx, page)
	return s.result(err)
}

// Retry re-runs reload with the current criteria.
func (s *BrowseSession) Retry(ctx context.Context) (SessionSnapshot, error) {
	_, _, err := s.pages.ReloadWith(ctx, func(float64) (domain.FilterCriteria, bool) {
		return s.criteria.Snapshot(), true
	})
	return s.result(err)
}

func (s *BrowseSession) SetViewDensity(ctx context.Context, raw string) (SessionSnapshot, error) {
	if err := s.prefs.Save(ctx, domain.ViewDensity(raw)); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

func (s *BrowseSession) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		ID:          s.id,
		Criteria:    s.criteria.Snapshot(),
		State:       s.pages.State(),
		Address:     s.urls.Address(),
		ViewDensity: s.prefs.Density(),
		MaxPrice:    s.pages.MaxPrice(),
		ScrollToTop: s.scrollToTop.Load(),
	}
}

// Close tears the session down. No fetch result is applied afterwards.
func (s *BrowseSession) Close() {
	s.closeOnce.Do(func() {
		s.search.Stop()
		s.pages.Close()
		s.cancel()
		s.log.Debug().Msg("browse session closed")
	})
}

// mutate applies fn to the criteria store and dispatches the reload as one
// step under the controller lock. fn receives the derived max price of the
// visible list.
func (s *BrowseSession) mutate(ctx context.Context, fn func(maxPrice float64) domain.FilterCriteria) (SessionSnapshot, error) {
	_, _, err := s.pages.ReloadWith(ctx, func(maxPrice float64) (domain.FilterCriteria, bool) {
		before := s.criteria.Snapshot()
		next := fn(maxPrice)
		return next, !next.QueryEqual(before)
	})
	return s.result(err)
}

func (s *BrowseSession) commitSearch() {
	var committed string
	_, dispatched, err := s.pages.ReloadWith(s.ctx, func(float64) (domain.FilterCriteria, bool) {
		next, changed := s.criteria.CommitSearch()
		committed = next.CommittedSearchText
		return next, changed
	})
	if dispatched {
		s.log.Debug().Str("search", committed).Msg("search committed")
	}
	if err != nil && !isFenced(err) {
		s.log.Warn().Err(err).Msg("debounced reload failed")
	}
}

func (s *BrowseSession) onPageUpdate(u PageUpdate) {
	s.scrollToTop.Store(u.ScrollToTop)
	s.urls.Rewrite(u.Criteria, u.State.Page)
}

// result maps controller outcomes onto the snapshot the caller sees. A
// fenced-off response is not an error: the newer request owns the state.
func (s *BrowseSession) result(err error) (SessionSnapshot, error) {
	if errors.Is(err, domain.ErrSuperseded) {
		err = nil
	}
	return s.Snapshot(), err
}

func isFenced(err error) bool {
	return errors.Is(err, domain.ErrSuperseded) || errors.Is(err, domain.ErrControllerClosed)
}
