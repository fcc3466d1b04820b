package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

// NewRequestWithURLParams creates an HTTP request with chi URL parameters.
// This helper simplifies testing chi handlers that use chi.URLParam() to extract path parameters.
//
// Example:
//
//	req := testutil.NewRequestWithURLParams(
//	    http.MethodGet,
//	    "/api/amc/123-456/funds",
//	    map[string]string{"id": "123-456"},
//	)
func NewRequestWithURLParams(method, path string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range params {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req
}

// NewRequestWithQueryAndURLParams creates an HTTP request with both query
// string and chi URL parameters.
//
// Example:
//
//	req := testutil.NewRequestWithQueryAndURLParams(
//	    http.MethodGet,
//	    "/api/fund/123-456/nav",
//	    map[string]string{"start_date": "2024-04-01"},
//	    map[string]string{"id": "123-456"},
//	)
func NewRequestWithQueryAndURLParams(method, path string, queryParams, urlParams map[string]string) *http.Request {
	req := NewRequestWithURLParams(method, path, urlParams)

	if len(queryParams) > 0 {
		q := req.URL.Query()
		for key, value := range queryParams {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	return req
}
