package domain

import (
	"slices"
)

type SortMode string

const (
	SortPopular   SortMode = "popular"
	SortNewest    SortMode = "newest"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortRating    SortMode = "rating"
	SortName      SortMode = "name"
)

// SortModes lists every accepted sort token, default first.
var SortModes = []SortMode{
	SortPopular,
	SortNewest,
	SortPriceAsc,
	SortPriceDesc,
	SortRating,
	SortName,
}

// ParseSortMode reports whether s names a known sort mode.
func ParseSortMode(s string) (SortMode, bool) {
	for _, m := range SortModes {
		if string(m) == s {
			return m, true
		}
	}
	return SortPopular, false
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AdvancedFilters is the block edited by the advanced filter panel.
type AdvancedFilters struct {
	PriceRange  PriceRange `json:"priceRange"`
	RatingFloor *int       `json:"ratingFloor,omitempty"`
	Brands      []string   `json:"brands,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// FilterCriteria is the closed record of everything that shapes a catalog query.
// Sets (CategoryIDs, Brands, Tags) are kept sorted and deduplicated so equal
// criteria always compare and serialize identically.
type FilterCriteria struct {
	SearchText          string     `json:"searchText"`
	CommittedSearchText string     `json:"committedSearchText"`
	CategoryIDs         []string   `json:"categoryIds"`
	SortMode            SortMode   `json:"sortMode"`
	OnlyInStock         bool       `json:"onlyInStock"`
	OnlyOnSale          bool       `json:"onlyOnSale"`
	PriceRange          PriceRange `json:"priceRange"`
	RatingFloor         *int       `json:"ratingFloor,omitempty"`
	Brands              []string   `json:"brands"`
	Tags                []string   `json:"tags"`
}

// DefaultCriteria returns the session defaults for the given price ceiling.
func DefaultCriteria(priceCeiling float64) FilterCriteria {
	return FilterCriteria{
		CategoryIDs: []string{},
		SortMode:    SortPopular,
		PriceRange:  PriceRange{Min: 0, Max: priceCeiling},
		Brands:      []string{},
		Tags:        []string{},
	}
}

// Clone returns a deep copy so snapshots never share backing arrays.
func (c FilterCriteria) Clone() FilterCriteria {
	out := c
	out.CategoryIDs = slices.Clone(c.CategoryIDs)
	out.Brands = slices.Clone(c.Brands)
	out.Tags = slices.Clone(c.Tags)
	if out.CategoryIDs == nil {
		out.CategoryIDs = []string{}
	}
	if out.Brands == nil {
		out.Brands = []string{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if c.RatingFloor != nil {
		v := *c.RatingFloor
		out.RatingFloor = &v
	}
	return out
}

// Advanced extracts the advanced filter block.
func (c FilterCriteria) Advanced() AdvancedFilters {
	cc := c.Clone()
	return AdvancedFilters{
		PriceRange:  cc.PriceRange,
		RatingFloor: cc.RatingFloor,
		Brands:      cc.Brands,
		Tags:        cc.Tags,
	}
}

// Equal compares every field, including the uncommitted search text.
func (c FilterCriteria) Equal(o FilterCriteria) bool {
	return c.SearchText == o.SearchText && c.QueryEqual(o)
}

// QueryEqual compares only the fields that reach the catalog query.
func (c FilterCriteria) QueryEqual(o FilterCriteria) bool {
	if c.CommittedSearchText != o.CommittedSearchText ||
		c.SortMode != o.SortMode ||
		c.OnlyInStock != o.OnlyInStock ||
		c.OnlyOnSale != o.OnlyOnSale ||
		c.PriceRange != o.PriceRange {
		return false
	}
	if (c.RatingFloor == nil) != (o.RatingFloor == nil) {
		return false
	}
	if c.RatingFloor != nil && *c.RatingFloor != *o.RatingFloor {
		return false
	}
	return slices.Equal(c.CategoryIDs, o.CategoryIDs) &&
		slices.Equal(c.Brands, o.Brands) &&
		slices.Equal(c.Tags, o.Tags)
}

// NormalizeSet sorts and deduplicates a string set, dropping empty members.
func NormalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
