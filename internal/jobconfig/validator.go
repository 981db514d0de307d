// Package jobconfig parses the YAML text attached to a job into its structured form.
package jobconfig

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

// Field is the request field that carries job configuration text.
const Field = "raw_yaml"

// DefaultMaxBytes bounds the size of a configuration document.
const DefaultMaxBytes = 1 << 20

var (
	// ErrNotMapping is returned when the document is a scalar or sequence at the top level.
	ErrNotMapping = errors.New("top-level YAML value must be a mapping")
	// ErrMultipleDocuments is returned when the text holds more than one YAML document.
	ErrMultipleDocuments = errors.New("expected a single YAML document")
	// ErrTooLarge is returned when the text exceeds the configured limit.
	ErrTooLarge = errors.New("configuration exceeds size limit")
)

// Validator parses job configuration text.
type Validator struct {
	maxBytes int
}

// Options configures a Validator.
type Options struct {
	// MaxBytes bounds the raw text length; zero uses DefaultMaxBytes.
	MaxBytes int
}

// New constructs a Validator.
func New(opts Options) *Validator {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Validator{maxBytes: maxBytes}
}

// Validate parses raw into a Document.
//
// A nil, empty or comment-only text yields a nil Document and no error. Any parse
// failure is returned as a MalformedConfig error on the raw_yaml field.
func (v *Validator) Validate(raw *string) (model.Document, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	text := *raw
	if len(text) > v.limit() {
		return nil, apperrors.MalformedConfig(Field, fmt.Errorf("%w (%d bytes)", ErrTooLarge, v.limit()))
	}

	dec := yaml.NewDecoder(strings.NewReader(text))
	var node yaml.Node
	if err := dec.Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, apperrors.MalformedConfig(Field, err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, apperrors.MalformedConfig(Field, err)
		}
		return nil, apperrors.MalformedConfig(Field, ErrMultipleDocuments)
	}

	keepTimestampsAsText(&node, make(map[*yaml.Node]bool))

	var decoded any
	if err := node.Decode(&decoded); err != nil {
		return nil, apperrors.MalformedConfig(Field, err)
	}
	if decoded == nil {
		return nil, nil
	}

	var tree map[string]any
	switch t := decoded.(type) {
	case map[string]any:
		tree = t
	case map[any]any:
		tree = make(map[string]any, len(t))
		for k, item := range t {
			tree[fmt.Sprint(k)] = item
		}
	default:
		return nil, apperrors.MalformedConfig(Field, ErrNotMapping)
	}

	doc, err := model.NewDocument(tree)
	if err != nil {
		return nil, apperrors.MalformedConfig(Field, err)
	}
	return doc, nil
}

// keepTimestampsAsText retags implicit timestamp scalars as strings so they
// decode to the text written in the document instead of a time.Time.
func keepTimestampsAsText(n *yaml.Node, seen map[*yaml.Node]bool) {
	if n == nil || seen[n] {
		return
	}
	seen[n] = true
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	keepTimestampsAsText(n.Alias, seen)
	for _, c := range n.Content {
		keepTimestampsAsText(c, seen)
	}
}

func (v *Validator) limit() int {
	if v == nil || v.maxBytes <= 0 {
		return DefaultMaxBytes
	}
	return v.maxBytes
}
