// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a custom slog handler that integrates with the event log.
// It forwards logs at WARN level and above to the database-backed event log for auditing.
package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/model"
)

// Attribute keys with a dedicated event column.
const (
	KeyCategory = "category"
	KeyUserID   = "user_id"
	KeyIP       = "ip"
	KeyURL      = "url"
)

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the events table. Records carrying a "category"
// attribute are written regardless of level.
type EventLogHandler struct {
	inner slog.Handler
	db    *gorm.DB
	level slog.Level // Minimum level to forward to the event log (default: WARN)
	attrs []slog.Attr
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
func NewEventLogHandler(inner slog.Handler, db *gorm.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *gorm.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner: inner,
		db:    db,
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level || h.hasCategory(r) {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{
		inner: h.inner.WithAttrs(attrs),
		db:    h.db,
		level: h.level,
		attrs: merged,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner: h.inner.WithGroup(name),
		db:    h.db,
		level: h.level,
		attrs: h.attrs,
	}
}

func (h *EventLogHandler) hasCategory(r slog.Record) bool {
	found := false
	h.eachAttr(r, func(a slog.Attr) {
		if a.Key == KeyCategory {
			found = true
		}
	})
	return found
}

// eachAttr visits handler-level attributes first, then the record's own.
func (h *EventLogHandler) eachAttr(r slog.Record, fn func(slog.Attr)) {
	for _, a := range h.attrs {
		fn(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		fn(a)
		return true
	})
}

// writeToEventLog writes a log record to the events table.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	event := model.Event{
		Level:     slogLevelToEventLevel(r.Level),
		Message:   r.Message,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: r.Time,
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	h.eachAttr(r, func(a slog.Attr) {
		switch a.Key {
		case KeyCategory:
			event.Category = a.Value.String()
		case KeyUserID:
			if id, ok := attrInt64(a.Value); ok {
				event.UserID = &id
			}
		case KeyIP:
			event.IPAddress = a.Value.String()
		case KeyURL:
			event.RequestURL = a.Value.String()
		default:
			val := a.Value.Resolve().Any()
			if err, ok := val.(error); ok {
				val = err.Error()
			}
			event.Metadata[a.Key] = val
		}
	})
	if event.Category == "" {
		event.Category = inferCategory(r.Message)
	}

	// Background context so the event is kept even if the request was cancelled.
	_ = h.db.WithContext(context.Background()).Create(&event).Error
}

func attrInt64(v slog.Value) (int64, bool) {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		return int64(v.Uint64()), true
	default:
		return 0, false
	}
}

// slogLevelToEventLevel converts a slog.Level to an event level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category from the message text.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "password") || strings.Contains(msg, "otp"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "property") || strings.Contains(msg, "geocode"):
		return model.EventCategoryProperty
	case strings.Contains(msg, "blog"):
		return model.EventCategoryBlog
	case strings.Contains(msg, "newsletter") || strings.Contains(msg, "marketing") || strings.Contains(msg, "email"):
		return model.EventCategoryMarketing
	case strings.Contains(msg, "upload") || strings.Contains(msg, "cloudinary"):
		return model.EventCategoryUpload
	case strings.Contains(msg, "user"):
		return model.EventCategoryUser
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}
