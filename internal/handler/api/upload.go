// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/media"
)

// parseImageForm reads a multipart form bounded to n images.
func parseImageForm(w http.ResponseWriter, r *http.Request, n int) bool {
	r.Body = http.MaxBytesReader(w, r.Body, int64(n)*(media.MaxUploadSize+1<<20))
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.WriteBadRequest(w, media.ErrTooLarge.Error())
			return false
		}
		handler.WriteBadRequest(w, "Invalid multipart form")
		return false
	}
	return true
}

func (h *Handler) storeImage(r *http.Request, fh *multipart.FileHeader) (*media.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return h.media.Upload(r.Context(), fh.Filename, f)
}

// writeMediaError maps media failures to responses.
func writeMediaError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, media.ErrTooLarge), errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrInvalidPublicID):
		handler.WriteBadRequest(w, err.Error())
	default:
		handler.WriteServiceError(w, r, err)
	}
}

// UploadImage handles POST /upload/image.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !parseImageForm(w, r, 1) {
		return
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		handler.WriteBadRequest(w, "No image uploaded")
		return
	}
	img, err := h.storeImage(r, files[0])
	if err != nil {
		writeMediaError(w, r, err)
		return
	}
	handler.WriteCreated(w, img)
}

// UploadImages handles POST /upload/images.
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	if !parseImageForm(w, r, media.MaxFilesPerRequest) {
		return
	}
	files := r.MultipartForm.File["images"]
	switch {
	case len(files) == 0:
		handler.WriteBadRequest(w, "No images uploaded")
		return
	case len(files) > media.MaxFilesPerRequest:
		handler.WriteBadRequest(w, "At most 10 images per request")
		return
	}

	images := make([]*media.Image, 0, len(files))
	for _, fh := range files {
		img, err := h.storeImage(r, fh)
		if err != nil {
			writeMediaError(w, r, err)
			return
		}
		images = append(images, img)
	}
	handler.WriteCreated(w, images)
}

// DeleteImage handles DELETE /upload/*. Cloudinary public ids contain
// slashes, so the whole remaining path is the id.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.media.Delete(r.Context(), chi.URLParam(r, "*")); err != nil {
		writeMediaError(w, r, err)
		return
	}
	handler.WriteSuccess(w, message{Message: "Image deleted"}, nil)
}
