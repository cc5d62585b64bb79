// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/realty-go/internal/export"
	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/reviews"
	"github.com/olegiv/realty-go/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GoogleReviews handles GET /reviews/google. It always answers with
// testimonials, falling back to the static set.
func (h *Handler) GoogleReviews(w http.ResponseWriter, r *http.Request) {
	handler.WriteSuccess(w, h.reviews.Testimonials(r.Context()), nil)
}

// FindPlaceID handles GET /reviews/find-place-id?query=&location=.
func (h *Handler) FindPlaceID(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("query") == "" {
		handler.WriteBadRequest(w, "query is required")
		return
	}
	res, err := h.reviews.FindPlace(r.Context(), q.Get("query"), q.Get("location"))
	switch {
	case err == nil:
		handler.WriteSuccess(w, res, nil)
	case errors.Is(err, reviews.ErrNotConfigured):
		handler.WriteError(w, http.StatusServiceUnavailable, "not_configured", "Google Places API key not configured", nil)
	default:
		slog.Warn("google find place failed", "error", err)
		handler.WriteError(w, http.StatusBadGateway, "upstream_error", "Google Places request failed", nil)
	}
}

// Stats handles GET /admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context())
	respond(w, r, stats, err)
}

// ListEvents handles GET /admin/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.events.List(r.Context(), service.EventFilter{
		Level:    q.Get("level"),
		Category: q.Get("category"),
	}, handler.ParsePaging(r))
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	handler.WriteList(w, list)
}

// Export handles GET /admin/exports/{kind}.xlsx.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	data, err := h.exportSheet(r, kind)
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	if data == nil {
		handler.WriteNotFound(w, "Unknown export: "+kind)
		return
	}

	name := kind + "_" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	h.logAdminAction(r, model.EventCategoryLead, "export downloaded", map[string]any{"kind": kind})
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// exportSheet builds the workbook for kind, or nil for an unknown kind.
func (h *Handler) exportSheet(r *http.Request, kind string) ([]byte, error) {
	ctx := r.Context()
	switch kind {
	case "contacts":
		items, err := h.contacts.All(ctx)
		if err != nil {
			return nil, err
		}
		return export.Contacts(items)
	case "visits":
		items, err := h.visits.All(ctx)
		if err != nil {
			return nil, err
		}
		return export.Visits(items)
	case "video-chats":
		items, err := h.videoChats.All(ctx)
		if err != nil {
			return nil, err
		}
		return export.VideoChats(items)
	case "subscribers":
		items, err := h.newsletter.All(ctx)
		if err != nil {
			return nil, err
		}
		return export.Subscribers(items)
	}
	return nil, nil
}
