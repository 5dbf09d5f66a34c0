package postgres

import (
	"context"
	"fmt"
	"time"

	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogStore struct {
	db *pgxpool.Pool
}

func NewCatalogStore(db *pgxpool.Pool) domain.CatalogStore {
	return &catalogStore{db: db}
}

// Execute runs the descriptor. With a count it reads the total and the page
// from one read-only snapshot, so both agree.
func (s *catalogStore) Execute(ctx context.Context, q domain.QueryDescriptor, withCount bool) (domain.QueryResult, error) {
	cq, err := compile(q)
	if err != nil {
		return domain.QueryResult{}, err
	}

	if !withCount {
		items, err := s.fetchPage(ctx, s.db, cq)
		if err != nil {
			return domain.QueryResult{}, err
		}
		return domain.QueryResult{Items: items}, nil
	}

	var res domain.QueryResult
	err = readSnapshot(ctx, s.db, func(tx pgx.Tx) error {
		countQuery := cq.countSQL()
		start := time.Now()
		var total int64
		err := tx.QueryRow(ctx, countQuery, cq.args...).Scan(&total)
		logger.DBQuery(countQuery, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}

		res = domain.QueryResult{TotalCount: int(total), Counted: true, Items: []domain.ProductSummary{}}
		if total == 0 || int64(cq.offset) >= total {
			return nil
		}
		res.Items, err = s.fetchPage(ctx, tx, cq)
		return err
	})
	if err != nil {
		return domain.QueryResult{}, err
	}
	return res, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *catalogStore) fetchPage(ctx context.Context, db queryer, cq compiledQuery) ([]domain.ProductSummary, error) {
	query, args := cq.selectSQL()
	start := time.Now()
	rows, err := db.Query(ctx, query, args...)
	logger.DBQuery(query, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ProductSummary, 0, cq.limit)
	for rows.Next() {
		item, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return items, nil
}

func scanProduct(row pgx.Row) (domain.ProductSummary, error) {
	var (
		p                      domain.ProductSummary
		price, compareAt, disc pgtype.Numeric
		rating                 pgtype.Numeric
		imageURL, brand        pgtype.Text
		createdAt              pgtype.Timestamptz
	)
	err := row.Scan(
		&p.ID, &p.Name, &price, &compareAt, &disc, &p.StockQty,
		&rating, &imageURL, &p.CategoryID, &brand, &p.Tags, &createdAt,
	)
	if err != nil {
		return domain.ProductSummary{}, err
	}
	p.Price = numericToFloat64(price)
	p.CompareAtPrice = numericToFloat64Ptr(compareAt)
	p.DiscountPct = numericToFloat64Ptr(disc)
	p.Rating = numericToFloat64Ptr(rating)
	p.ImageURL = imageURL.String
	p.Brand = brand.String
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	return p, nil
}

func numericToFloat64(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, _ := n.Float64Value()
	return f.Float64
}

func numericToFloat64Ptr(n pgtype.Numeric) *float64 {
	if !n.Valid {
		return nil
	}
	f, _ := n.Float64Value()
	val := f.Float64
	return &val
}
