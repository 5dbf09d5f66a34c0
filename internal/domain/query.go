package domain

import (
	"github.com/goccy/go-json"
)

// Field names a catalog attribute a predicate or ordering may reference.
// Storage adapters map these onto their own column names.
type Field string

const (
	FieldID          Field = "id"
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldCategoryID  Field = "category_id"
	FieldPrice       Field = "price"
	FieldDiscountPct Field = "discount_pct"
	FieldStockQty    Field = "stock_qty"
	FieldRating      Field = "rating"
	FieldCreatedAt   Field = "created_at"
	FieldBrand       Field = "brand"
	FieldTags        Field = "tags"
	FieldIsActive    Field = "is_active"
)

type Op string

const (
	OpEq Op = "eq"
	OpIn Op = "in"
	OpGt Op = "gt"
	OpGe Op = "gte"
	OpLt Op = "lt"
	OpLe Op = "lte"
	// OpContainsAny matches when any of Fields contains Value as a
	// case-insensitive substring.
	OpContainsAny Op = "contains_any"
	// OpOverlaps matches when the array field shares a member with Value.
	OpOverlaps Op = "overlaps"
)

// Predicate is one filter term. Exactly one of Field or Fields is set:
// Fields is used by OpContainsAny only. Value holds a string, float64, int,
// bool or []string.
type Predicate struct {
	Field  Field   `json:"field,omitempty"`
	Fields []Field `json:"fields,omitempty"`
	Op     Op      `json:"op"`
	Value  any     `json:"value"`
}

type Ordering struct {
	Field      Field `json:"field"`
	Descending bool  `json:"descending"`
	NullsLast  bool  `json:"nullsLast"`
}

// Window selects rows [Offset, Offset+Limit).
type Window struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// QueryDescriptor is the storage-neutral description of one catalog fetch.
// Predicates are conjunctive.
type QueryDescriptor struct {
	Predicates []Predicate `json:"predicates"`
	Order      Ordering    `json:"order"`
	Window     Window      `json:"window"`
}

// Fingerprint returns the canonical encoding of the descriptor. Equal
// descriptors always produce identical bytes, which makes it usable as a
// de-duplication or cache key.
func (q QueryDescriptor) Fingerprint() []byte {
	b, err := json.Marshal(q)
	if err != nil {
		// Values are restricted to plain scalars and string slices.
		panic("domain: unencodable query descriptor: " + err.Error())
	}
	return b
}
