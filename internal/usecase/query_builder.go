package usecase

import (
	"storefront-catalog/internal/domain"
)

// BuildQuery maps a criteria snapshot and page cursor to a catalog query.
//
// priceCeiling is the derived maximum price of the currently loaded items; the
// upper price bound is only emitted when it is below the ceiling, so a slider
// left at its maximum does not produce an always-true clause. BuildQuery is
// pure: the same inputs always give a descriptor with the same Fingerprint.
func BuildQuery(c domain.FilterCriteria, priceCeiling float64, page, pageSize int) domain.QueryDescriptor {
	if page < 1 {
		page = 1
	}

	preds := []domain.Predicate{
		{Field: domain.FieldIsActive, Op: domain.OpEq, Value: true},
	}

	if c.CommittedSearchText != "" {
		preds = append(preds, domain.Predicate{
			Fields: []domain.Field{domain.FieldName, domain.FieldDescription},
			Op:     domain.OpContainsAny,
			Value:  c.CommittedSearchText,
		})
	}
	if cats := domain.NormalizeSet(c.CategoryIDs); len(cats) > 0 {
		preds = append(preds, domain.Predicate{Field: domain.FieldCategoryID, Op: domain.OpIn, Value: cats})
	}
	if c.OnlyInStock {
		preds = append(preds, domain.Predicate{Field: domain.FieldStockQty, Op: domain.OpGt, Value: 0})
	}
	if c.OnlyOnSale {
		preds = append(preds, domain.Predicate{Field: domain.FieldDiscountPct, Op: domain.OpGt, Value: 0})
	}
	if c.PriceRange.Min > 0 {
		preds = append(preds, domain.Predicate{Field: domain.FieldPrice, Op: domain.OpGe, Value: c.PriceRange.Min})
	}
	if c.PriceRange.Max > 0 && c.PriceRange.Max < priceCeiling {
		preds = append(preds, domain.Predicate{Field: domain.FieldPrice, Op: domain.OpLe, Value: c.PriceRange.Max})
	}
	if c.RatingFloor != nil {
		preds = append(preds, domain.Predicate{Field: domain.FieldRating, Op: domain.OpGe, Value: *c.RatingFloor})
	}
	if brands := domain.NormalizeSet(c.Brands); len(brands) > 0 {
		preds = append(preds, domain.Predicate{Field: domain.FieldBrand, Op: domain.OpIn, Value: brands})
	}
	if tags := domain.NormalizeSet(c.Tags); len(tags) > 0 {
		preds = append(preds, domain.Predicate{Field: domain.FieldTags, Op: domain.OpOverlaps, Value: tags})
	}

	return domain.QueryDescriptor{
		Predicates: preds,
		Order:      orderingFor(c.SortMode),
		Window: domain.Window{
			Offset: (page - 1) * pageSize,
			Limit:  pageSize,
		},
	}
}

func orderingFor(mode domain.SortMode) domain.Ordering {
	switch mode {
	case domain.SortPriceAsc:
		return domain.Ordering{Field: domain.FieldPrice}
	case domain.SortPriceDesc:
		return domain.Ordering{Field: domain.FieldPrice, Descending: true}
	case domain.SortRating:
		return domain.Ordering{Field: domain.FieldRating, Descending: true, NullsLast: true}
	case domain.SortNewest:
		return domain.Ordering{Field: domain.FieldCreatedAt, Descending: true}
	case domain.SortName:
		return domain.Ordering{Field: domain.FieldName}
	default:
		return domain.Ordering{Field: domain.FieldStockQty, Descending: true}
	}
}

// MaxPrice derives the advanced price-filter ceiling from the loaded items,
// falling back when nothing with a positive price is loaded. The ceiling is a
// function of the visible list, not of the whole catalog.
func MaxPrice(items []domain.ProductSummary, fallback float64) float64 {
	maxPrice := 0.0
	for _, it := range items {
		if it.Price > maxPrice {
			maxPrice = it.Price
		}
	}
	if maxPrice <= 0 {
		return fallback
	}
	return maxPrice
}
