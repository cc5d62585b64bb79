// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/realty-go/internal/model"
)

// orderedStore is a positioned list of site content rows.
type orderedStore[T any] interface {
	Public(ctx context.Context) ([]T, error)
	All(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	New() T
	Create(ctx context.Context, row T) (*T, error)
	Update(ctx context.Context, id int64, apply func(*T) error) (*T, error)
	Delete(ctx context.Context, id int64) error
	Reorder(ctx context.Context, ids []int64) error
}

type orderedHandler[T any] struct {
	store orderedStore[T]
	noun  string
}

// mountOrdered registers list and CRUD routes for store. Reads are public;
// /all, /reorder and writes go through admin.
func mountOrdered[T any](r chi.Router, store orderedStore[T], noun string, admin func(http.Handler) http.Handler) {
	h := &orderedHandler[T]{store: store, noun: noun}
	r.Get("/", h.list)
	r.With(admin).Get("/all", h.all)
	r.Get("/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Post("/", h.create)
		r.Post("/reorder", h.reorder)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *orderedHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Public(r.Context())
	respond(w, r, items, err)
}

func (h *orderedHandler[T]) all(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.All(r.Context())
	respond(w, r, items, err)
}

func (h *orderedHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	item, err := h.store.Get(r.Context(), id)
	respond(w, r, item, err)
}

func (h *orderedHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	row := h.store.New()
	if !decode(w, r, &row) {
		return
	}
	item, err := h.store.Create(r.Context(), row)
	created(w, r, item, err)
}

func (h *orderedHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	item, err := h.store.Update(r.Context(), id, mergeJSON[T](body))
	respond(w, r, item, err)
}

func (h *orderedHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted(w, r, h.noun, h.store.Delete(r.Context(), id))
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *orderedHandler[T]) reorder(w http.ResponseWriter, r *http.Request) {
	var in reorderRequest
	if !decode(w, r, &in) {
		return
	}
	err := h.store.Reorder(r.Context(), in.IDs)
	respond(w, r, message{Message: h.noun + " order updated"}, err)
}

// ContactInfo handles GET /contact-info.
func (h *Handler) ContactInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.content.ContactInfo(r.Context())
	respond(w, r, info, err)
}

// CreateContactInfo handles POST /contact-info.
func (h *Handler) CreateContactInfo(w http.ResponseWriter, r *http.Request) {
	var in model.ContactInfo
	if !decode(w, r, &in) {
		return
	}
	info, err := h.content.CreateContactInfo(r.Context(), in)
	created(w, r, info, err)
}

// UpdateContactInfo handles PUT /contact-info.
func (h *Handler) UpdateContactInfo(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	info, err := h.content.UpdateContactInfo(r.Context(), mergeJSON[model.ContactInfo](body))
	respond(w, r, info, err)
}

// About handles GET /about.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	about, err := h.content.About(r.Context())
	respond(w, r, about, err)
}

// UpsertAbout handles PUT /about.
func (h *Handler) UpsertAbout(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	about, err := h.content.UpsertAbout(r.Context(), mergeJSON[model.AboutContent](body))
	respond(w, r, about, err)
}

// AboutUs handles GET /about-us.
func (h *Handler) AboutUs(w http.ResponseWriter, r *http.Request) {
	page, err := h.content.AboutUs(r.Context())
	respond(w, r, page, err)
}

// UpsertAboutUsInfo handles POST /about-us.
func (h *Handler) UpsertAboutUsInfo(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	info, err := h.content.UpsertAboutUsInfo(r.Context(), mergeJSON[model.AboutUsInfo](body))
	respond(w, r, info, err)
}

// UpdateAboutUsInfo handles PUT /about-us/{id}.
func (h *Handler) UpdateAboutUsInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	info, err := h.content.UpdateAboutUsInfo(r.Context(), id, mergeJSON[model.AboutUsInfo](body))
	respond(w, r, info, err)
}

// FutureVision handles GET /future-vision.
func (h *Handler) FutureVision(w http.ResponseWriter, r *http.Request) {
	page, err := h.content.FutureVision(r.Context())
	respond(w, r, page, err)
}

type visionRequest struct {
	VisionText string `json:"visionText"`
}

// UpsertVision handles PUT /future-vision/content.
func (h *Handler) UpsertVision(w http.ResponseWriter, r *http.Request) {
	var in visionRequest
	if !decode(w, r, &in) {
		return
	}
	c, err := h.content.UpsertVision(r.Context(), in.VisionText)
	respond(w, r, c, err)
}
