package data

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/target/harvester-api/internal/data/database"
	"github.com/target/harvester-api/internal/data/pgxutil"
)

// listQuery describes one filtered, paged listing over a table.
type listQuery struct {
	table      string
	columns    []string
	conditions []database.Condition
	limit      int
	offset     int
}

// listRows runs the page query and the matching COUNT(*) in one read snapshot.
// Rows are ordered by insertion (created_at, id). A non-positive limit returns every row.
func listRows[T any](ctx context.Context, db *sql.DB, q listQuery) ([]*T, int, error) {
	pageOpts := []database.ListQueryOption{
		database.WithColumns(q.columns...),
		database.WithOrderBy("ASC", "created_at", "id"),
	}
	countOpts := []database.ListQueryOption{database.WithCountOnly()}
	for _, c := range q.conditions {
		pageOpts = append(pageOpts, database.WithCondition(c))
		countOpts = append(countOpts, database.WithCondition(c))
	}
	if q.limit > 0 {
		pageOpts = append(pageOpts, database.WithLimit(q.limit))
	}
	if q.offset > 0 {
		pageOpts = append(pageOpts, database.WithOffset(q.offset))
	}

	pageSQL, pageArgs := database.BuildListQuery(database.NewListQueryOptions(q.table, pageOpts...))
	countSQL, countArgs := database.BuildListQuery(database.NewListQueryOptions(q.table, countOpts...))

	var (
		items []T
		total int
	)
	err := pgxutil.WithPgxTx(ctx, db, pgxutil.ReadSnapshot, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, pageSQL, pageArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, total, nil
}

// queryOne runs a statement expected to return exactly one row.
func queryOne[T any](ctx context.Context, db *sql.DB, query string, args ...any) (*T, error) {
	var out T
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// execAffected runs a statement and returns the number of affected rows.
func execAffected(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	var n int64
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		n = ct.RowsAffected()
		return nil
	})
	return n, err
}

// updateSet accumulates "col = $n" assignments for a partial UPDATE.
type updateSet struct {
	parts []string
	args  []any
}

func (u *updateSet) add(column string, value any) {
	u.args = append(u.args, value)
	u.parts = append(u.parts, column+" = $"+strconv.Itoa(len(u.args)))
}

func (u *updateSet) empty() bool { return len(u.parts) == 0 }

func (u *updateSet) clause() string { return strings.Join(u.parts, ", ") }

// where appends the id argument and returns its placeholder.
func (u *updateSet) where(id string) string {
	u.args = append(u.args, id)
	return "$" + strconv.Itoa(len(u.args))
}
