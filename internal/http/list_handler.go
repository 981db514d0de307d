package httpx

import (
	"context"
	"net/http"
	"net/url"
)

// FilterParser parses URL query parameters into filter data. A non-nil FieldError
// is written as VALIDATION_ERROR before any fetch happens.
type FilterParser[F any] func(url.Values) (F, *FieldError)

// FilteredFetcher fetches one page of items plus the total number matching filters.
type FilteredFetcher[T any, F any] func(ctx context.Context, filters F, pg pageOpts) ([]T, int, error)

// ListHandlerOpts contains all options needed for the generic list handler.
type ListHandlerOpts[T any, F any] struct {
	W http.ResponseWriter
	R *http.Request
	// Fetch is required.
	Fetch FilteredFetcher[T, F]
	// Filters is optional; the zero F is used when nil.
	Filters FilterParser[F]
}

// HandleList parses pagination and filters, fetches a page and writes it with meta.
//
// Usage:
//
//	HandleList(ListHandlerOpts[*model.Run, model.RunListOptions]{
//	    W: w, R: r,
//	    Filters: parseRunFilters,
//	    Fetch: func(ctx context.Context, f model.RunListOptions, pg pageOpts) ([]*model.Run, int, error) {
//	        f.Limit, f.Offset = pg.Limit(), pg.Offset()
//	        return h.Svc.List(ctx, f)
//	    },
//	})
func HandleList[T, F any](opts ListHandlerOpts[T, F]) {
	q := opts.R.URL.Query()
	pg, fe := parsePageParams(q)
	if fe != nil {
		writeFieldError(opts.W, fe)
		return
	}

	var filters F
	if opts.Filters != nil {
		filters, fe = opts.Filters(q)
		if fe != nil {
			writeFieldError(opts.W, fe)
			return
		}
	}

	items, total, err := opts.Fetch(opts.R.Context(), filters, pg)
	if err != nil {
		WriteAppError(opts.W, opts.R, err)
		return
	}
	WriteList(opts.W, items, pg.Meta(total))
}
