// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/realty-go/internal/geo"
	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/service"
)

// ListProperties handles GET /properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.PropertyFilter{
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		Featured: handler.QueryBool(r, "featured"),
		City:     q.Get("city"),
		MinPrice: handler.QueryFloat(r, "minPrice"),
		MaxPrice: handler.QueryFloat(r, "maxPrice"),
		Bedrooms: handler.QueryInt(r, "bedrooms"),
		Query:    q.Get("q"),
	}
	list, err := h.properties.List(r.Context(), f, handler.ParsePaging(r))
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	handler.WriteList(w, list)
}

// GetProperty handles GET /properties/{id}.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.properties.Get(r.Context(), id)
	respond(w, r, p, err)
}

// SimilarProperties handles GET /properties/{id}/similar.
func (h *Handler) SimilarProperties(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	items, err := h.properties.Similar(r.Context(), id)
	respond(w, r, items, err)
}

// CreateProperty handles POST /properties.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var in service.PropertyInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.properties.Create(r.Context(), in)
	created(w, r, p, err)
}

// UpdateProperty handles PUT /properties/{id}.
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in service.PropertyInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.properties.Update(r.Context(), id, in)
	respond(w, r, p, err)
}

// DeleteProperty handles DELETE /properties/{id}.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted(w, r, "Property", h.properties.Delete(r.Context(), id))
}

// GeocodeSearch handles GET /properties/geocode/search/{q}.
func (h *Handler) GeocodeSearch(w http.ResponseWriter, r *http.Request) {
	places, err := h.geo.Search(r.Context(), chi.URLParam(r, "q"))
	h.geoResponse(w, places, err)
}

// GeocodeReverse handles GET /properties/geocode/reverse/{lat}/{lng}.
func (h *Handler) GeocodeReverse(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	lng, err2 := strconv.ParseFloat(chi.URLParam(r, "lng"), 64)
	if err1 != nil || err2 != nil {
		handler.WriteBadRequest(w, "Invalid coordinates")
		return
	}
	place, err := h.geo.Reverse(r.Context(), lat, lng)
	h.geoResponse(w, place, err)
}

type poiRequest struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Radius int      `json:"radius"`
}

// FetchPOIs handles POST /properties/pois/fetch.
func (h *Handler) FetchPOIs(w http.ResponseWriter, r *http.Request) {
	var in poiRequest
	if !decode(w, r, &in) {
		return
	}
	if in.Lat == nil || in.Lng == nil {
		handler.WriteBadRequest(w, "lat and lng are required")
		return
	}
	pois, err := h.geo.NearbyPOIs(r.Context(), *in.Lat, *in.Lng, in.Radius)
	h.geoResponse(w, pois, err)
}

// geoResponse maps geocoder failures: bad input is a 400, anything else
// is an upstream failure.
func (h *Handler) geoResponse(w http.ResponseWriter, data any, err error) {
	switch {
	case err == nil:
		handler.WriteSuccess(w, data, nil)
	case errors.Is(err, geo.ErrInvalidCoordinates):
		handler.WriteBadRequest(w, "Invalid coordinates")
	default:
		slog.Warn("geocoder request failed", "error", err)
		handler.WriteError(w, http.StatusBadGateway, "upstream_error", "Location service unavailable", nil)
	}
}
