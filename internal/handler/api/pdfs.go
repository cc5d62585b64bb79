// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/service"
)

// maxMultipartMemory is the part of a multipart form kept in memory.
const maxMultipartMemory = 10 << 20

// UploadPDF handles POST /pdfs/upload.
func (h *Handler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxPDFSize+1<<20)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.WriteBadRequest(w, "File too large. Maximum size is 10MB")
			return
		}
		handler.WriteBadRequest(w, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		handler.WriteBadRequest(w, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	pdf, err := h.pdfs.Upload(r.Context(), service.PDFUpload{
		Filename:    header.Filename,
		Name:        r.FormValue("name"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
	}, file)
	created(w, r, pdf, err)
}

// ListPDFs handles GET /pdfs/list.
func (h *Handler) ListPDFs(w http.ResponseWriter, r *http.Request) {
	pdfs, err := h.pdfs.List(r.Context(), r.URL.Query().Get("category"))
	respond(w, r, pdfs, err)
}

// DownloadPDF handles GET /pdfs/download/{id}.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	pdf, f, err := h.pdfs.Open(r.Context(), id)
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	name := pdf.OriginalName
	if name == "" {
		name = pdf.FileName
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, pdf.UpdatedAt, f)
}

// UpdatePDF handles PUT /pdfs/{id}.
func (h *Handler) UpdatePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in service.PDFUpdate
	if !decode(w, r, &in) {
		return
	}
	pdf, err := h.pdfs.Update(r.Context(), id, in)
	respond(w, r, pdf, err)
}

// DeletePDF handles DELETE /pdfs/{id}.
func (h *Handler) DeletePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted(w, r, "PDF", h.pdfs.Delete(r.Context(), id))
}

// GeneratePDF handles POST /pdfs/generate/{kind}.
func (h *Handler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	pdf, err := h.pdfs.Generate(r.Context(), kind)
	if err == nil {
		h.logAdminAction(r, model.EventCategoryMarketing, "marketing pdf generated", map[string]any{"kind": kind, "pdf_id": pdf.ID})
	}
	created(w, r, pdf, err)
}
