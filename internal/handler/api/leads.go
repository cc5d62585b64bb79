// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/service"
)

// leadHandler serves one kind of lead.
type leadHandler[T any] struct {
	svc  *service.LeadService[T]
	noun string
}

// mountLeads registers the lead routes. Creating a lead is public, the
// rest goes through admin.
func mountLeads[T any](r chi.Router, svc *service.LeadService[T], noun string, admin func(http.Handler) http.Handler) {
	h := &leadHandler[T]{svc: svc, noun: noun}
	r.Post("/", h.create)
	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Get("/", h.list)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/status", h.setStatus)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *leadHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var lead T
	if !decode(w, r, &lead) {
		return
	}
	res, err := h.svc.Create(r.Context(), lead)
	created(w, r, res, err)
}

func (h *leadHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), handler.ParsePaging(r))
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	handler.WriteList(w, list)
}

func (h *leadHandler[T]) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	respond(w, r, st, err)
}

func (h *leadHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	lead, err := h.svc.Get(r.Context(), id)
	respond(w, r, lead, err)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *leadHandler[T]) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in statusRequest
	if !decode(w, r, &in) {
		return
	}
	lead, err := h.svc.SetStatus(r.Context(), id, in.Status)
	respond(w, r, lead, err)
}

func (h *leadHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	lead, err := h.svc.Update(r.Context(), id, mergeJSON[T](body))
	respond(w, r, lead, err)
}

func (h *leadHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted(w, r, h.noun, h.svc.Delete(r.Context(), id))
}

// readBody reads a bounded request body, writing a 400 on failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, handler.MaxJSONBody))
	if err != nil {
		handler.WriteBadRequest(w, "Invalid request body")
		return nil, false
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	return body, true
}

// mergeJSON returns an apply func that overlays body onto a loaded row,
// leaving fields absent from body unchanged.
func mergeJSON[T any](body []byte) func(*T) error {
	return func(row *T) error {
		return json.Unmarshal(body, row)
	}
}
