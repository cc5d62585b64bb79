// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/realty-go/internal/service"
)

// MaxJSONBody caps JSON request bodies. Newsletter attachments arrive
// base64-encoded inside the body.
const MaxJSONBody = 16 << 20

// ErrBadID is returned for a malformed numeric path parameter.
var ErrBadID = errors.New("invalid id")

// ParseIDParam parses the chi URL parameter "id" as a positive int64.
func ParseIDParam(r *http.Request) (int64, error) {
	return ParseInt64Param(r, "id")
}

// ParseInt64Param parses a named chi URL parameter as a positive int64.
func ParseInt64Param(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrBadID
	}
	return id, nil
}

// ParsePaging reads page and per_page from the query string. The service
// layer clamps out-of-range values.
func ParsePaging(r *http.Request) service.Paging {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return service.Paging{Page: page, PerPage: perPage}
}

// DecodeJSON reads a JSON body into v. An empty body decodes to the zero value.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// QueryBool parses an optional boolean query value.
func QueryBool(r *http.Request, key string) *bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &v
}

// QueryFloat parses an optional float query value.
func QueryFloat(r *http.Request, key string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get(key)), 64)
	if err != nil {
		return nil
	}
	return &v
}

// QueryInt parses an optional integer query value.
func QueryInt(r *http.Request, key string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return nil
	}
	return &v
}

// QueryInt64 parses an optional int64 query value.
func QueryInt64(r *http.Request, key string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get(key)), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
