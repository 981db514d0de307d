// Package database builds parameterized list queries for the Postgres repositories.
package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType is a comparison operator supported in WHERE clauses.
type ConditionType string

const (
	Equal    ConditionType = "="
	NotEqual ConditionType = "!="
	In       ConditionType = "IN"
	IsNull   ConditionType = "IS NULL"

	defaultLimit  = -1
	defaultOffset = -1
)

// Condition is a single predicate. All conditions of a query are joined with AND.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

// WhereCond builds a condition on a column.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

// ListQueryOptions describes a SELECT over a single table.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    []string
	OrderDir   string
	Limit      int
	Offset     int
}

// ListQueryOption mutates ListQueryOptions.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions applies opts over defaults for table.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  defaultLimit,
		Offset: defaultOffset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering columns and a shared direction.
func WithOrderBy(direction string, columns ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = columns
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly turns the query into SELECT COUNT(*). Ordering and paging are dropped.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

func sanitizeIdentifier(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// BuildListQuery constructs a SQL query string and arguments from options, sanitizing identifiers.
//
//	query, args := BuildListQuery(NewListQueryOptions("runs",
//		WithColumns("id", "status"),
//		WithCondition(WhereCond("job_id", Equal, jobID)),
//		WithOrderBy("ASC", "created_at", "id"),
//		WithLimit(50),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	query.WriteString(buildSelectClause(options))
	query.WriteString("FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	where, args := buildWhereClause(options.Conditions)
	if where != "" {
		query.WriteString(" ")
		query.WriteString(where)
	}
	if options.CountOnly {
		return query.String(), args
	}

	if len(options.OrderBy) > 0 {
		dir := ""
		if d := strings.ToUpper(options.OrderDir); d == "ASC" || d == "DESC" {
			dir = " " + d
		}
		parts := make([]string, len(options.OrderBy))
		for i, col := range options.OrderBy {
			parts[i] = sanitizeIdentifier(col) + dir
		}
		query.WriteString(" ORDER BY ")
		query.WriteString(strings.Join(parts, ", "))
	}
	if options.Limit != defaultLimit {
		args = append(args, options.Limit)
		fmt.Fprintf(&query, " LIMIT $%d", len(args))
	}
	if options.Offset != defaultOffset {
		args = append(args, options.Offset)
		fmt.Fprintf(&query, " OFFSET $%d", len(args))
	}
	return query.String(), args
}

func buildSelectClause(options *ListQueryOptions) string {
	if options.CountOnly {
		return "SELECT COUNT(*) "
	}
	if len(options.Columns) == 0 {
		return "SELECT * "
	}
	cols := make([]string, len(options.Columns))
	for i, c := range options.Columns {
		cols[i] = sanitizeIdentifier(c)
	}
	return "SELECT " + strings.Join(cols, ", ") + " "
}

func buildWhereClause(conds []Condition) (string, []any) {
	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		if c.Field == "" {
			continue
		}
		field := sanitizeIdentifier(c.Field)
		switch c.Type {
		case IsNull:
			parts = append(parts, field+" IS NULL")
		case In:
			values, ok := c.Value.([]any)
			if !ok || len(values) == 0 {
				parts = append(parts, "FALSE")
				continue
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				args = append(args, v)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			parts = append(parts, fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")))
		case Equal, NotEqual:
			args = append(args, c.Value)
			parts = append(parts, fmt.Sprintf("%s %s $%d", field, c.Type, len(args)))
		}
	}
	if len(parts) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(parts, " AND "), args
}
