// Package memstore is an in-memory implementation of the entity store ports.
// One RWMutex guards every table, so each write is atomic and readers only
// ever see copies of fully written records.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/harvester-api/internal/core"
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Store holds all entity tables.
type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	newID func() string

	projects table[projectRecord]
	jobs     table[jobRecord]
	runs     table[runRecord]
	results  table[resultRecord]
	users    table[userRecord]
}

// New constructs an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.projects = newTable[projectRecord]()
	s.jobs = newTable[jobRecord]()
	s.runs = newTable[runRecord]()
	s.results = newTable[resultRecord]()
	s.users = newTable[userRecord]()
	return s
}

// Repositories returns every port backed by this store.
func (s *Store) Repositories() core.Repositories {
	return core.Repositories{
		Projects: s.Projects(),
		Jobs:     s.Jobs(),
		Runs:     s.Runs(),
		Results:  s.Results(),
		Users:    s.Users(),
		Health:   s,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// table keeps records by id and remembers insertion order.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) insert(id string, v T) {
	t.rows[id] = v
	t.order = append(t.order, id)
}

func (t *table[T]) put(id string, v T) {
	t.rows[id] = v
}

func (t *table[T]) remove(id string) {
	delete(t.rows, id)
	if i := slices.Index(t.order, id); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
}

// filter returns matching records in insertion order.
func (t *table[T]) filter(match func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if match == nil || match(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[T]) exists(match func(T) bool) bool {
	for _, v := range t.rows {
		if match(v) {
			return true
		}
	}
	return false
}

// paginate applies limit/offset; a non-positive limit returns everything after offset.
func paginate[T any](items []T, limit, offset int) []T {
	offset = max(offset, 0)
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func eqStr(p *string, want string) bool {
	return p != nil && *p == want
}
