package memory

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/utils"

	"github.com/goccy/go-json"
	"golang.org/x/text/cases"
)

// Product is a fixture row: the listed summary plus the attributes only
// predicates look at.
type Product struct {
	domain.ProductSummary
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

func (p Product) active() bool {
	return p.IsActive == nil || *p.IsActive
}

// Fixture is the on-disk catalog format.
type Fixture struct {
	Categories []domain.Category `json:"categories"`
	Products   []Product         `json:"products"`
}

// CatalogStore evaluates query descriptors over an in-process fixture. It
// implements the same contract as the Postgres store, including the id
// tiebreak after the requested ordering.
type CatalogStore struct {
	products   []Product
	categories []domain.Category
	latency    time.Duration
}

func NewCatalogStore(f Fixture) *CatalogStore {
	cats := slices.Clone(f.Categories)
	for i := range cats {
		if cats[i].Slug == "" {
			cats[i].Slug = utils.GenerateSlug(cats[i].Name)
		}
	}
	return &CatalogStore{
		products:   slices.Clone(f.Products),
		categories: cats,
	}
}

// LoadFixture reads a JSON fixture from path.
func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("failed to read catalog fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("failed to decode catalog fixture %s: %w", path, err)
	}
	return f, nil
}

// WithLatency delays every Execute, honouring cancellation.
func (s *CatalogStore) WithLatency(d time.Duration) *CatalogStore {
	s.latency = d
	return s
}

func (s *CatalogStore) Execute(ctx context.Context, q domain.QueryDescriptor, withCount bool) (domain.QueryResult, error) {
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return domain.QueryResult{}, ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.QueryResult{}, err
	}

	matched := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		ok, err := matchesAll(p, q.Predicates)
		if err != nil {
			return domain.QueryResult{}, err
		}
		if ok {
			matched = append(matched, p)
		}
	}
	if err := sortProducts(matched, q.Order); err != nil {
		return domain.QueryResult{}, err
	}

	res := domain.QueryResult{Items: []domain.ProductSummary{}}
	if withCount {
		res.TotalCount = len(matched)
		res.Counted = true
	}
	start := min(max(q.Window.Offset, 0), len(matched))
	end := len(matched)
	if q.Window.Limit > 0 {
		end = min(start+q.Window.Limit, len(matched))
	}
	for _, p := range matched[start:end] {
		res.Items = append(res.Items, p.ProductSummary)
	}
	return res, nil
}

func (s *CatalogStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats := slices.Clone(s.categories)
	slices.SortStableFunc(cats, func(a, b domain.Category) int {
		if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return cats, nil
}

func matchesAll(p Product, preds []domain.Predicate) (bool, error) {
	for _, pred := range preds {
		ok, err := matches(p, pred)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matches(p Product, pred domain.Predicate) (bool, error) {
	switch pred.Op {
	case domain.OpContainsAny:
		term, ok := pred.Value.(string)
		if !ok {
			return false, fmt.Errorf("pattern predicate needs a string, got %T", pred.Value)
		}
		fold := cases.Fold()
		needle := fold.String(term)
		for _, f := range pred.Fields {
			v, err := field(p, f)
			if err != nil {
				return false, err
			}
			if s, ok := v.(string); ok && strings.Contains(fold.String(s), needle) {
				return true, nil
			}
		}
		return false, nil

	case domain.OpIn:
		v, err := field(p, pred.Field)
		if err != nil {
			return false, err
		}
		s, _ := v.(string)
		return slices.Contains(stringSet(pred.Value), s), nil

	case domain.OpOverlaps:
		v, err := field(p, pred.Field)
		if err != nil {
			return false, err
		}
		have, _ := v.([]string)
		want := stringSet(pred.Value)
		return slices.ContainsFunc(have, func(t string) bool { return slices.Contains(want, t) }), nil

	case domain.OpEq:
		v, err := field(p, pred.Field)
		if err != nil {
			return false, err
		}
		if a, ok := toFloat(v); ok {
			b, ok := toFloat(pred.Value)
			return ok && a == b, nil
		}
		return v == pred.Value, nil

	case domain.OpGt, domain.OpGe, domain.OpLt, domain.OpLe:
		v, err := field(p, pred.Field)
		if err != nil {
			return false, err
		}
		a, ok := toFloat(v)
		if !ok {
			// NULL never satisfies a range.
			return false, nil
		}
		b, ok := toFloat(pred.Value)
		if !ok {
			return false, fmt.Errorf("range predicate on %s needs a number, got %T", pred.Field, pred.Value)
		}
		switch pred.Op {
		case domain.OpGt:
			return a > b, nil
		case domain.OpGe:
			return a >= b, nil
		case domain.OpLt:
			return a < b, nil
		default:
			return a <= b, nil
		}
	}
	return false, fmt.Errorf("unsupported operator %q", pred.Op)
}

// field returns the attribute value; nil stands for NULL.
func field(p Product, f domain.Field) (any, error) {
	switch f {
	case domain.FieldID:
		return p.ID, nil
	case domain.FieldName:
		return p.Name, nil
	case domain.FieldDescription:
		return p.Description, nil
	case domain.FieldCategoryID:
		return p.CategoryID, nil
	case domain.FieldPrice:
		return p.Price, nil
	case domain.FieldDiscountPct:
		if p.DiscountPct == nil {
			return nil, nil
		}
		return *p.DiscountPct, nil
	case domain.FieldStockQty:
		return p.StockQty, nil
	case domain.FieldRating:
		if p.Rating == nil {
			return nil, nil
		}
		return *p.Rating, nil
	case domain.FieldCreatedAt:
		return p.CreatedAt, nil
	case domain.FieldBrand:
		return p.Brand, nil
	case domain.FieldTags:
		return p.Tags, nil
	case domain.FieldIsActive:
		return p.active(), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, f)
}

func sortProducts(items []Product, o domain.Ordering) error {
	if _, err := field(Product{}, o.Field); err != nil {
		return err
	}
	slices.SortStableFunc(items, func(a, b Product) int {
		if c := compareField(a, b, o); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return nil
}

func compareField(a, b Product, o domain.Ordering) int {
	va, _ := field(a, o.Field)
	vb, _ := field(b, o.Field)

	// Postgres places NULLs first on DESC unless NULLS LAST is requested.
	if va == nil || vb == nil {
		switch {
		case va == nil && vb == nil:
			return 0
		case va == nil:
			if o.NullsLast || !o.Descending {
				return 1
			}
			return -1
		default:
			if o.NullsLast || !o.Descending {
				return -1
			}
			return 1
		}
	}

	var c int
	switch x := va.(type) {
	case string:
		c = strings.Compare(x, vb.(string))
	case time.Time:
		c = x.Compare(vb.(time.Time))
	default:
		fa, _ := toFloat(va)
		fb, _ := toFloat(vb)
		c = cmp.Compare(fa, fb)
	}
	if o.Descending {
		return -c
	}
	return c
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func stringSet(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, x := range s {
			if str, ok := x.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{s}
	}
	return nil
}
