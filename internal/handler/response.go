// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler holds the HTTP plumbing shared by the API handlers:
// response envelopes, error mapping, request parsing and health checks.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/realty-go/internal/service"
)

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Pages   int   `json:"pages"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response wrapping data.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteAccepted writes a 202 Accepted response for background work.
func WriteAccepted(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusAccepted, Response{Data: data})
}

// WriteList writes one page of a service list with its meta block.
func WriteList[T any](w http.ResponseWriter, l service.List[T]) {
	WriteSuccess(w, l.Items, &Meta{Total: l.Total, Page: l.Page, PerPage: l.PerPage, Pages: l.Pages()})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}

type errorMapping struct {
	kind    error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, "not_found", "Resource not found"},
	{service.ErrConflict, http.StatusConflict, "conflict", "Resource already exists"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Unauthorized"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden", "Forbidden"},
	{service.ErrExpired, http.StatusBadRequest, "expired", "Expired"},
	{service.ErrInvalidInput, http.StatusBadRequest, "bad_request", "Invalid input"},
}

// WriteServiceError maps a service error onto the error envelope. Unknown
// errors are logged and reported as 500 without detail.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		WriteError(w, http.StatusBadRequest, "validation_error", "Validation failed", ve.Fields)
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		msg := m.message
		var se *service.Error
		if errors.As(err, &se) {
			msg = se.Message
		}
		WriteError(w, m.status, m.code, msg, nil)
		return
	}

	slog.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()))
	WriteInternalError(w)
}
