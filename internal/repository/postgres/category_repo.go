package postgres

import (
	"context"
	"fmt"
	"time"

	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listCategoriesSQL = `SELECT id, name, slug, COALESCE(parent_id, ''), order_index
	FROM storefront_categories
	ORDER BY order_index ASC, name ASC`

type categoryRepository struct {
	db *pgxpool.Pool
}

func NewCategoryRepository(db *pgxpool.Pool) domain.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, listCategoriesSQL)
	logger.DBQuery(listCategoriesSQL, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	cats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
		var c domain.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.OrderIndex)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return cats, nil
}
