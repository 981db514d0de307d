package database

import (
	"reflect"
	"testing"
)

func TestBuildListQuery_BasicSelect(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("projects"))

	expected := `SELECT * FROM "projects"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_FiltersOrderAndPaging(t *testing.T) {
	opts := NewListQueryOptions("runs",
		WithColumns("id", "status"),
		WithCondition(WhereCond("job_id", Equal, "j1")),
		WithCondition(WhereCond("status", Equal, "queued")),
		WithOrderBy("asc", "created_at", "id"),
		WithLimit(10),
		WithOffset(20),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT "id", "status" FROM "runs" WHERE "job_id" = $1 AND "status" = $2 ORDER BY "created_at" ASC, "id" ASC LIMIT $3 OFFSET $4`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if !reflect.DeepEqual(args, []any{"j1", "queued", 10, 20}) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestBuildListQuery_CountOnlyIgnoresPaging(t *testing.T) {
	opts := NewListQueryOptions("jobs",
		WithCountOnly(),
		WithCondition(WhereCond("project_id", Equal, "p1")),
		WithOrderBy("DESC", "created_at"),
		WithLimit(5),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT COUNT(*) FROM "jobs" WHERE "project_id" = $1`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 1 || args[0] != "p1" {
		t.Errorf("Expected args [p1], got %v", args)
	}
}

func TestBuildListQuery_InAndNull(t *testing.T) {
	opts := NewListQueryOptions("runs",
		WithCondition(WhereCond("status", In, []any{"queued", "failure"})),
		WithCondition(WhereCond("job_id", IsNull, nil)),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT * FROM "runs" WHERE "status" IN ($1, $2) AND "job_id" IS NULL`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 2 {
		t.Errorf("Expected 2 args, got %v", args)
	}

	empty, _ := BuildListQuery(NewListQueryOptions("runs", WithCondition(WhereCond("status", In, []any{}))))
	if empty != `SELECT * FROM "runs" WHERE FALSE` {
		t.Errorf("empty IN should match nothing, got %q", empty)
	}
}

func TestBuildListQuery_SanitizesIdentifiers(t *testing.T) {
	query, _ := BuildListQuery(NewListQueryOptions(`runs"; DROP TABLE runs; --`))
	expected := `SELECT * FROM "runs""; DROP TABLE runs; --"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if q, args := BuildListQuery(nil); q != "" || args != nil {
		t.Errorf("nil options should build nothing, got %q %v", q, args)
	}
}
