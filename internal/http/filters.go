package httpx

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/target/harvester-api/internal/domain/model"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// pageOpts are the parsed page and page_size query parameters.
type pageOpts struct {
	Page     int
	PageSize int
}

func (p pageOpts) Limit() int { return p.PageSize }

// Offset saturates at math.MaxInt so a huge page reads past the end instead of
// wrapping to a negative offset.
func (p pageOpts) Offset() int {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Meta builds the envelope meta for a page holding total matching records.
func (p pageOpts) Meta(total int) model.Page {
	return model.Page{Page: p.Page, PageSize: p.PageSize, Total: total}
}

// parsePageParams reads page (default 1) and page_size (default 50, capped at 200).
// Non-numeric or non-positive values are rejected rather than silently replaced.
func parsePageParams(q url.Values) (pageOpts, *FieldError) {
	pg := pageOpts{Page: 1, PageSize: defaultPageSize}
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return pg, &FieldError{Field: "page", Message: "page must be a positive integer"}
		}
		pg.Page = n
	}
	if raw := strings.TrimSpace(q.Get("page_size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return pg, &FieldError{Field: "page_size", Message: "page_size must be a positive integer"}
		}
		pg.PageSize = min(n, maxPageSize)
	}
	return pg, nil
}

// parseUUIDQuery returns the named query parameter when present. A present value
// that is not a UUID is a field error.
func parseUUIDQuery(q url.Values, name string) (*string, *FieldError) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &FieldError{Field: name, Message: name + " must be a valid UUID"}
	}
	s := id.String()
	return &s, nil
}

func parseStatusQuery(q url.Values) (*model.RunStatus, *FieldError) {
	raw := strings.TrimSpace(q.Get("status"))
	if raw == "" {
		return nil, nil
	}
	var s model.RunStatus
	if err := s.UnmarshalText([]byte(raw)); err != nil {
		return nil, &FieldError{Field: "status", Message: "status must be one of: queued, running, success, failure"}
	}
	return &s, nil
}

// pathID reads the {id} path value and writes a VALIDATION_ERROR when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteValidation(w, "id", "id must be a valid UUID")
		return "", false
	}
	return id.String(), true
}

// writeFieldError writes fe as a VALIDATION_ERROR.
func writeFieldError(w http.ResponseWriter, fe *FieldError) {
	WriteValidation(w, fe.Field, fe.Message)
}
