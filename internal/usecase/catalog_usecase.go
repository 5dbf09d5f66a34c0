package usecase

import (
	"context"
	"fmt"

	"storefront-catalog/config"
	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/cache"
)

const categoriesCacheKey = "category:flat:all"

// ProductListing is one stateless page of the catalog.
type ProductListing struct {
	Items      []domain.ProductSummary `json:"items"`
	Pagination domain.Pagination       `json:"pagination"`
	Criteria   domain.FilterCriteria   `json:"criteria"`
	Address    string                  `json:"address"`
}

// CatalogUsecase serves the stateless catalog endpoints: one page for an
// address, and the category facet.
type CatalogUsecase struct {
	store      domain.CatalogStore
	categories domain.CategoryRepository
	cache      cache.CacheService
	cfg        *config.Config
}

func NewCatalogUsecase(store domain.CatalogStore, categories domain.CategoryRepository, cache cache.CacheService, cfg *config.Config) *CatalogUsecase {
	return &CatalogUsecase{
		store:      store,
		categories: categories,
		cache:      cache,
		cfg:        cfg,
	}
}

// ListProducts restores criteria and page from address and fetches that page
// with a count. Nothing is loaded yet, so the price ceiling is the configured
// fallback.
func (u *CatalogUsecase) ListProducts(ctx context.Context, address string) (ProductListing, error) {
	c, page := ParseAddress(address, u.cfg.DefaultPriceCeiling)
	q := BuildQuery(c, u.cfg.DefaultPriceCeiling, page, u.cfg.PageSize)

	res, err := u.store.Execute(ctx, q, true)
	if err != nil {
		return ProductListing{}, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}

	items := res.Items
	if items == nil {
		items = []domain.ProductSummary{}
	}
	return ProductListing{
		Items: items,
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      u.cfg.PageSize,
			TotalItems: int64(res.TotalCount),
			TotalPages: domain.TotalPages(res.TotalCount, u.cfg.PageSize),
			HasMore:    domain.HasMore(page, res.TotalCount, u.cfg.PageSize),
		},
		Criteria: c,
		Address:  SerializeAddress(c, page),
	}, nil
}

func (u *CatalogUsecase) GetCategories(ctx context.Context) ([]domain.Category, error) {
	if val, found := u.cache.Get(categoriesCacheKey); found {
		if cats, ok := val.([]domain.Category); ok {
			return cats, nil
		}
	}

	cats, err := u.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	u.cache.Set(categoriesCacheKey, cats, u.cfg.CacheCategoryTTL)
	return cats, nil
}
