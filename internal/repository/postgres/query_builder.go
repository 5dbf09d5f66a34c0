package postgres

import (
	"fmt"
	"strings"

	"storefront-catalog/internal/domain"
)

const productSource = "storefront_products p"

const productColumns = `p.id, p.name, p.price, p.compare_at_price, p.discount_pct, p.stock_qty,
	p.rating, p.image_url, p.category_id, p.brand, p.tags, p.created_at`

var columns = map[domain.Field]string{
	domain.FieldID:          "p.id",
	domain.FieldName:        "p.name",
	domain.FieldDescription: "p.description",
	domain.FieldCategoryID:  "p.category_id",
	domain.FieldPrice:       "p.price",
	domain.FieldDiscountPct: "p.discount_pct",
	domain.FieldStockQty:    "p.stock_qty",
	domain.FieldRating:      "p.rating",
	domain.FieldCreatedAt:   "p.created_at",
	domain.FieldBrand:       "p.brand",
	domain.FieldTags:        "p.tags",
	domain.FieldIsActive:    "p.is_active",
}

var comparators = map[domain.Op]string{
	domain.OpEq: "=",
	domain.OpGt: ">",
	domain.OpGe: ">=",
	domain.OpLt: "<",
	domain.OpLe: "<=",
}

type queryBuilder struct {
	conditions []string
	args       []interface{}
	argId      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		argId: 1,
		args:  make([]interface{}, 0),
	}
}

// addCondition formats condition with the column and the next placeholder.
func (qb *queryBuilder) addCondition(condition string, column string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, column, qb.argId))
	qb.args = append(qb.args, arg)
	qb.argId++
}

func (qb *queryBuilder) addPredicate(p domain.Predicate) error {
	if p.Op == domain.OpContainsAny {
		return qb.addPattern(p)
	}

	col, ok := columns[p.Field]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, p.Field)
	}
	switch p.Op {
	case domain.OpIn:
		qb.addCondition("%s = ANY($%d)", col, p.Value)
	case domain.OpOverlaps:
		qb.addCondition("%s && $%d", col, p.Value)
	default:
		cmp, ok := comparators[p.Op]
		if !ok {
			return fmt.Errorf("unsupported operator %q on %s", p.Op, p.Field)
		}
		qb.addCondition("%s "+cmp+" $%d", col, p.Value)
	}
	return nil
}

// addPattern ORs a case-insensitive substring match across every field,
// sharing one placeholder.
func (qb *queryBuilder) addPattern(p domain.Predicate) error {
	term, ok := p.Value.(string)
	if !ok {
		return fmt.Errorf("pattern predicate needs a string, got %T", p.Value)
	}
	fields := p.Fields
	if len(fields) == 0 && p.Field != "" {
		fields = []domain.Field{p.Field}
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := columns[f]
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownField, f)
		}
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", col, qb.argId))
	}
	if len(parts) == 0 {
		return nil
	}
	qb.conditions = append(qb.conditions, "("+strings.Join(parts, " OR ")+")")
	qb.args = append(qb.args, "%"+escapeLike(term)+"%")
	qb.argId++
	return nil
}

func (qb *queryBuilder) build() (string, []interface{}) {
	whereClause := ""
	if len(qb.conditions) > 0 {
		whereClause = "WHERE " + strings.Join(qb.conditions, " AND ")
	}
	return whereClause, qb.args
}

// compiledQuery is a QueryDescriptor rendered for Postgres.
type compiledQuery struct {
	where   string
	orderBy string
	args    []interface{}
	limit   int
	offset  int
}

func compile(q domain.QueryDescriptor) (compiledQuery, error) {
	qb := newQueryBuilder()
	for _, p := range q.Predicates {
		if err := qb.addPredicate(p); err != nil {
			return compiledQuery{}, err
		}
	}
	orderBy, err := orderClause(q.Order)
	if err != nil {
		return compiledQuery{}, err
	}
	where, args := qb.build()
	return compiledQuery{
		where:   where,
		orderBy: orderBy,
		args:    args,
		limit:   q.Window.Limit,
		offset:  q.Window.Offset,
	}, nil
}

// orderClause appends the id tiebreak so pages never overlap or skip rows
// when the sort key has duplicates.
func orderClause(o domain.Ordering) (string, error) {
	col, ok := columns[o.Field]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownField, o.Field)
	}
	var b strings.Builder
	b.WriteString("ORDER BY ")
	b.WriteString(col)
	if o.Descending {
		b.WriteString(" DESC")
	} else {
		b.WriteString(" ASC")
	}
	if o.NullsLast {
		b.WriteString(" NULLS LAST")
	}
	if o.Field != domain.FieldID {
		b.WriteString(", p.id ASC")
	}
	return b.String(), nil
}

func (c compiledQuery) countSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s %s", productSource, c.where)
}

func (c compiledQuery) selectSQL() (string, []interface{}) {
	args := append(append(make([]interface{}, 0, len(c.args)+2), c.args...), c.limit, c.offset)
	sql := fmt.Sprintf("SELECT %s FROM %s %s %s LIMIT $%d OFFSET $%d",
		productColumns, productSource, c.where, c.orderBy, len(c.args)+1, len(c.args)+2)
	return sql, args
}

// SQL renders the data query of a descriptor, for diagnostics.
func SQL(q domain.QueryDescriptor) (string, []interface{}, error) {
	c, err := compile(q)
	if err != nil {
		return "", nil, err
	}
	sql, args := c.selectSQL()
	return sql, args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
