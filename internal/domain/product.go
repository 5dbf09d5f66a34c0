package domain

import (
	"context"
	"time"
)

// ProductSummary is the read model the storefront lists. It is owned by the
// catalog store and treated as immutable once fetched.
type ProductSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	CompareAtPrice *float64  `json:"compareAtPrice,omitempty"`
	DiscountPct    *float64  `json:"discountPct,omitempty"`
	StockQty       int       `json:"stockQty"`
	Rating         *float64  `json:"rating,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	CategoryID     string    `json:"categoryId"`
	Brand          string    `json:"brand,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ParentID   string `json:"parentId,omitempty"`
	OrderIndex int    `json:"orderIndex"`
}

// QueryResult is what the catalog store returns for one descriptor.
// TotalCount is only meaningful when the caller asked for a count.
type QueryResult struct {
	Items      []ProductSummary `json:"items"`
	TotalCount int              `json:"totalCount"`
	Counted    bool             `json:"counted"`
}

// --- Interfaces ---

// CatalogStore executes query descriptors against the remote catalog.
// withCount requests the exact-count channel, which is expensive and only
// used on reload and page jumps.
type CatalogStore interface {
	Execute(ctx context.Context, q QueryDescriptor, withCount bool) (QueryResult, error)
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
}
