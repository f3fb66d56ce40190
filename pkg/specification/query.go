package specification

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Operator identifies a filter comparison.
type Operator string

const (
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "ne"
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpLike           Operator = "like"
	OpIn             Operator = "in"
	OpBetween        Operator = "between"
	OpIsNull         Operator = "is_null"
)

// FilterClause is a single column comparison.
type FilterClause struct {
	Column   string
	Operator Operator
	Value    any
	// High is the upper bound for OpBetween.
	High any
}

// Order is a sort directive.
type Order struct {
	Column     string
	Descending bool
}

// Query accumulates filters, ordering, pagination and preloads, and
// translates them into a gorm scope.
type Query struct {
	filters  []FilterClause
	orders   []Order
	limit    int
	offset   int
	preloads []string
}

// NewQuery creates an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Where adds a filter.
func (q *Query) Where(column string, op Operator, value any) *Query {
	q.filters = append(q.filters, FilterClause{Column: column, Operator: op, Value: value})
	return q
}

// WhereBetween adds a range filter with inclusive bounds.
func (q *Query) WhereBetween(column string, low, high any) *Query {
	q.filters = append(q.filters, FilterClause{Column: column, Operator: OpBetween, Value: low, High: high})
	return q
}

// WhereNull adds an IS NULL filter.
func (q *Query) WhereNull(column string) *Query {
	q.filters = append(q.filters, FilterClause{Column: column, Operator: OpIsNull})
	return q
}

// OrderBy adds an ascending sort directive.
func (q *Query) OrderBy(column string) *Query {
	q.orders = append(q.orders, Order{Column: column})
	return q
}

// OrderByDesc adds a descending sort directive.
func (q *Query) OrderByDesc(column string) *Query {
	q.orders = append(q.orders, Order{Column: column, Descending: true})
	return q
}

// Paginate sets page-based limit and offset. Pages start at 1.
func (q *Query) Paginate(page, perPage int) *Query {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	q.limit = perPage
	q.offset = (page - 1) * perPage
	return q
}

// Preload adds an association to eager-load.
func (q *Query) Preload(association string) *Query {
	q.preloads = append(q.preloads, association)
	return q
}

// Filters returns the accumulated filters.
func (q *Query) Filters() []FilterClause {
	return q.filters
}

// FilterScope returns a gorm scope applying only the filters, for counting
// without ordering or pagination.
func (q *Query) FilterScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, f := range q.filters {
			db = applyFilter(db, f)
		}
		return db
	}
}

// Scope returns a gorm scope applying the query. Unknown operators are
// ignored rather than producing broken SQL.
func (q *Query) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, f := range q.filters {
			db = applyFilter(db, f)
		}
		for _, o := range q.orders {
			direction := "ASC"
			if o.Descending {
				direction = "DESC"
			}
			db = db.Order(fmt.Sprintf("%s %s", o.Column, direction))
		}
		if q.limit > 0 {
			db = db.Limit(q.limit).Offset(q.offset)
		}
		for _, p := range q.preloads {
			db = db.Preload(p)
		}
		return db
	}
}

func applyFilter(db *gorm.DB, f FilterClause) *gorm.DB {
	column := f.Column
	switch f.Operator {
	case OpEqual:
		return db.Where(column+" = ?", f.Value)
	case OpNotEqual:
		return db.Where(column+" <> ?", f.Value)
	case OpGreaterThan:
		return db.Where(column+" > ?", f.Value)
	case OpGreaterOrEqual:
		return db.Where(column+" >= ?", f.Value)
	case OpLessThan:
		return db.Where(column+" < ?", f.Value)
	case OpLessOrEqual:
		return db.Where(column+" <= ?", f.Value)
	case OpLike:
		pattern, ok := f.Value.(string)
		if !ok {
			return db
		}
		if !strings.ContainsRune(pattern, '%') {
			pattern = "%" + pattern + "%"
		}
		return db.Where(column+" LIKE ?", pattern)
	case OpIn:
		return db.Where(column+" IN ?", f.Value)
	case OpBetween:
		return db.Where(column+" BETWEEN ? AND ?", f.Value, f.High)
	case OpIsNull:
		return db.Where(column + " IS NULL")
	default:
		return db
	}
}
