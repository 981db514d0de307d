// Package model defines the entity and request types shared by the store, services and HTTP layer.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Document is a free-form structured value: a string-keyed map whose values are
// strings, float64 numbers, booleans, nil, []any sequences or nested map[string]any.
// Values are normalized into that shape at the edge so the rest of the code can
// range over them without type surprises.
type Document map[string]any

// ErrDocumentNotObject is returned when a document is not a mapping at the top level.
var ErrDocumentNotObject = errors.New("must be an object")

// NewDocument normalizes an arbitrary decoded tree into a Document.
// A nil input yields a nil Document.
func NewDocument(in map[string]any) (Document, error) {
	if in == nil {
		return nil, nil
	}
	out := make(Document, len(in))
	for k, v := range in {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, errors.New("non-finite number")
		}
		return t, nil
	case float32:
		return normalizeValue(float64(t))
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			nv, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = nv
		}
		return out, nil
	case map[string]any:
		d, err := NewDocument(t)
		if err != nil {
			return nil, err
		}
		return map[string]any(d), nil
	case Document:
		return normalizeValue(map[string]any(t))
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = item
		}
		return normalizeValue(m)
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// UnmarshalJSON accepts a JSON object or null.
func (d *Document) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrDocumentNotObject
	}
	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	doc, err := NewDocument(raw)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// Keys returns the top-level keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		return map[string]any(Document(t).Clone())
	default:
		return t
	}
}
