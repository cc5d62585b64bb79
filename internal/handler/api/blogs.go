// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/middleware"
	"github.com/olegiv/realty-go/internal/service"
	"github.com/olegiv/realty-go/internal/util"
)

type viewResult struct {
	Views int64 `json:"views"`
}

// ListBlogs handles GET /blogs. Only admins may list drafts and
// scheduled posts.
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.BlogFilter{
		Public:   !middleware.IsAdmin(r),
		AuthorID: handler.QueryInt64(r, "author"),
		Tag:      q.Get("tag"),
		Query:    q.Get("q"),
	}
	if !f.Public {
		f.Status = q.Get("status")
	}
	// category accepts an id or a slug
	if c := q.Get("category"); c != "" {
		if id, err := strconv.ParseInt(c, 10, 64); err == nil {
			f.CategoryID = &id
		} else {
			f.Category = c
		}
	}

	list, err := h.blogs.List(r.Context(), f, handler.ParsePaging(r))
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	handler.WriteList(w, list)
}

// BlogStats handles GET /blogs/stats.
func (h *Handler) BlogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.blogs.Stats(r.Context())
	respond(w, r, stats, err)
}

// GetBlog handles GET /blogs/{id}, where id may also be a slug.
func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	b, err := h.blogs.Get(r.Context(), chi.URLParam(r, "id"), !middleware.IsAdmin(r))
	respond(w, r, b, err)
}

// RecordBlogView handles POST /blogs/{id}/view.
func (h *Handler) RecordBlogView(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	views, err := h.blogs.RecordView(r.Context(), id, util.ClientIP(r), r.UserAgent())
	respond(w, r, viewResult{Views: views}, err)
}

// CreateBlog handles POST /blogs.
func (h *Handler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var in service.BlogInput
	if !decode(w, r, &in) {
		return
	}
	b, err := h.blogs.Create(r.Context(), in)
	created(w, r, b, err)
}

// UpdateBlog handles PUT /blogs/{id}.
func (h *Handler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in service.BlogInput
	if !decode(w, r, &in) {
		return
	}
	b, err := h.blogs.Update(r.Context(), id, in)
	respond(w, r, b, err)
}

// DeleteBlog handles DELETE /blogs/{id}.
func (h *Handler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted(w, r, "Blog", h.blogs.Delete(r.Context(), id))
}

// ListAuthors handles GET /blogs/authors.
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.blogs.ListAuthors(r.Context())
	respond(w, r, authors, err)
}

// GetAuthor handles GET /blogs/authors/{id}.
func (h *Handler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	a, err := h.blogs.GetAuthor(r.Context(), id)
	respond(w, r, a, err)
}

// CreateAuthor handles POST /blogs/authors.
func (h *Handler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var in service.AuthorInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.blogs.CreateAuthor(r.Context(), in)
	created(w, r, a, err)
}

// UpdateAuthor handles PUT /blogs/authors/{id}.
func (h *Handler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in service.AuthorInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.blogs.UpdateAuthor(r.Context(), id, in)
	respond(w, r, a, err)
}

// DeleteAuthor handles DELETE /blogs/authors/{id}.
func (h *Handler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted(w, r, "Author", h.blogs.DeleteAuthor(r.Context(), id))
}

// ListCategories handles GET /blogs/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.blogs.ListCategories(r.Context())
	respond(w, r, cats, err)
}

// GetCategory handles GET /blogs/categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.blogs.GetCategory(r.Context(), id)
	respond(w, r, c, err)
}

// CreateCategory handles POST /blogs/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.blogs.CreateCategory(r.Context(), in)
	created(w, r, c, err)
}

// UpdateCategory handles PUT /blogs/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in service.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.blogs.UpdateCategory(r.Context(), id, in)
	respond(w, r, c, err)
}

// DeleteCategory handles DELETE /blogs/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted(w, r, "Category", h.blogs.DeleteCategory(r.Context(), id))
}
