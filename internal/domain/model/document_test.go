package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Document
		wantErr bool
	}{
		{name: "object", in: `{"a":1,"b":[true,"x",null],"c":{"d":2.5}}`, want: Document{
			"a": float64(1),
			"b": []any{true, "x", nil},
			"c": map[string]any{"d": 2.5},
		}},
		{name: "null", in: `null`, want: nil},
		{name: "array rejected", in: `[1,2]`, wantErr: true},
		{name: "scalar rejected", in: `"text"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Document
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestDocument_InsideStruct(t *testing.T) {
	var req CreateResultRequest
	err := json.Unmarshal([]byte(`{"run_id":"r1","payload":{"k":"v"},"artifacts":null}`), &req)
	require.NoError(t, err)
	assert.Equal(t, Document{"k": "v"}, req.Payload)
	assert.Nil(t, req.Artifacts)

	err = json.Unmarshal([]byte(`{"run_id":"r1","payload":"nope"}`), &req)
	require.Error(t, err)
}

func TestNewDocument_Normalizes(t *testing.T) {
	d, err := NewDocument(map[string]any{
		"int":    3,
		"nested": map[any]any{1: "one", "two": int64(2)},
		"list":   []any{map[string]any{"x": int32(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(3), d["int"])
	assert.Equal(t, map[string]any{"1": "one", "two": float64(2)}, d["nested"])
	assert.Equal(t, []any{map[string]any{"x": float64(1)}}, d["list"])

	_, err = NewDocument(map[string]any{"bad": struct{}{}})
	require.Error(t, err)

	nilDoc, err := NewDocument(nil)
	require.NoError(t, err)
	assert.Nil(t, nilDoc)
}

func TestDocument_CloneIsDeep(t *testing.T) {
	orig := Document{"list": []any{"a"}, "obj": map[string]any{"k": "v"}}
	cp := orig.Clone()
	cp["list"].([]any)[0] = "changed"
	cp["obj"].(map[string]any)["k"] = "changed"

	assert.Equal(t, "a", orig["list"].([]any)[0])
	assert.Equal(t, "v", orig["obj"].(map[string]any)["k"])
	assert.Nil(t, Document(nil).Clone())
	assert.Equal(t, []string{"list", "obj"}, orig.Keys())
}
