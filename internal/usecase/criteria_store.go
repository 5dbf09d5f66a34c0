package usecase

import (
	"slices"
	"sync"

	"storefront-catalog/internal/domain"
)

// CriteriaStore holds the current FilterCriteria of one browse session.
// It performs no I/O; every mutation returns the new snapshot, which the
// caller owns outright.
type CriteriaStore struct {
	mu      sync.RWMutex
	current domain.FilterCriteria
}

func NewCriteriaStore(initial domain.FilterCriteria) *CriteriaStore {
	return &CriteriaStore{current: normalize(initial)}
}

// Snapshot returns a copy of the current criteria.
func (s *CriteriaStore) Snapshot() domain.FilterCriteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// SetSearchText records raw input. Queries keep using the committed text
// until CommitSearch runs.
func (s *CriteriaStore) SetSearchText(text string) domain.FilterCriteria {
	return s.update(func(c *domain.FilterCriteria) {
		c.SearchText = text
	})
}

// CommitSearch copies the raw search text into the committed slot. changed
// reports whether the committed value actually moved.
func (s *CriteriaStore) CommitSearch() (snapshot domain.FilterCriteria, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed = s.current.CommittedSearchText != s.current.SearchText
	s.current.CommittedSearchText = s.current.SearchText
	return s.current.Clone(), changed
}

func (s *CriteriaStore) ToggleCategory(id string) domain.FilterCriteria {
	return s.update(func(c *domain.FilterCriteria) {
		if i := slices.Index(c.CategoryIDs, id); i >= 0 {
			c.CategoryIDs = slices.Delete(c.CategoryIDs, i, i+1)
			return
		}
		c.CategoryIDs = domain.NormalizeSet(append(c.CategoryIDs, id))
	})
}

func (s *CriteriaStore) SetSort(mode domain.SortMode) domain.FilterCriteria {
	return s.update(func(c *domain.FilterCriteria) {
		c.SortMode = mode
	})
}

func (s *CriteriaStore) ToggleStockOnly() domain.FilterCriteria {
	return s.update(func(c *domain.FilterCriteria) {
		c.OnlyInStock = !c.OnlyInStock
	})
}

func (s *CriteriaStore) ToggleSaleOnly() domain.FilterCriteria {
	return s.update(func(c *domain.FilterCriteria) {
		c.OnlyOnSale = !c.OnlyOnSale
	})
}

// SetAdvanced replaces the whole advanced filter block.
func (s *CriteriaStore) SetAdvanced(block domain.AdvancedFilters) domain.FilterCriteria {
	return s.update(func(c *domain.FilterCriteria) {
		c.PriceRange = block.PriceRange
		c.RatingFloor = block.RatingFloor
		c.Brands = block.Brands
		c.Tags = block.Tags
	})
}

// ClearAll resets every field to the session defaults, with the price range
// spanning [0, currentMaxPrice].
func (s *CriteriaStore) ClearAll(currentMaxPrice float64) domain.FilterCriteria {
	return s.update(func(c *domain.FilterCriteria) {
		*c = domain.DefaultCriteria(currentMaxPrice)
	})
}

// Replace swaps in a whole criteria record, used when restoring from an address.
func (s *CriteriaStore) Replace(next domain.FilterCriteria) domain.FilterCriteria {
	return s.update(func(c *domain.FilterCriteria) {
		*c = next
	})
}

func (s *CriteriaStore) update(fn func(c *domain.FilterCriteria)) domain.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current.Clone()
	fn(&next)
	s.current = normalize(next)
	return s.current.Clone()
}

func normalize(c domain.FilterCriteria) domain.FilterCriteria {
	c = c.Clone()
	c.CategoryIDs = domain.NormalizeSet(c.CategoryIDs)
	c.Brands = domain.NormalizeSet(c.Brands)
	c.Tags = domain.NormalizeSet(c.Tags)
	if _, ok := domain.ParseSortMode(string(c.SortMode)); !ok {
		c.SortMode = domain.SortPopular
	}
	return c
}
