// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the business logic of the realty backend on
// top of gorm.
package service

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gorm.io/gorm"
)

// Domain errors. Handlers map them to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrExpired      = errors.New("expired")
)

// ValidationError carries per-field messages. It matches ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// validator collects field errors.
type validator map[string]string

func (v validator) check(ok bool, field, msg string) {
	if !ok {
		if _, exists := v[field]; !exists {
			v[field] = msg
		}
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(v)}
}

// Paging selects one page of a list.
type Paging struct {
	Page    int
	PerPage int
}

// Default paging values.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

func (p Paging) normalize() Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Paging) apply(q *gorm.DB) *gorm.DB {
	p = p.normalize()
	return q.Offset((p.Page - 1) * p.PerPage).Limit(p.PerPage)
}

// List is one page of results plus the total match count.
type List[T any] struct {
	Items   []T
	Total   int64
	Page    int
	PerPage int
}

// Pages returns the page count.
func (l List[T]) Pages() int {
	if l.PerPage <= 0 {
		return 0
	}
	return int((l.Total + int64(l.PerPage) - 1) / int64(l.PerPage))
}

// paginate counts q, then loads one page of it into a List.
func paginate[T any](q *gorm.DB, p Paging) (List[T], error) {
	p = p.normalize()
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return List[T]{}, err
	}
	items := make([]T, 0)
	if err := p.apply(q.Session(&gorm.Session{})).Find(&items).Error; err != nil {
		return List[T]{}, err
	}
	return List[T]{Items: items, Total: total, Page: p.Page, PerPage: p.PerPage}, nil
}

// dbErr maps gorm errors onto domain errors.
func dbErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// likeEscape is appended to LIKE clauses built with likePattern.
const likeEscape = " ESCAPE '!'"

// likePattern lower-cases s and escapes LIKE wildcards in it.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ptr[T any](v T) *T { return &v }

// Error is a domain error with a message safe to show to API clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap returns the sentinel the error belongs to.
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
