// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/model"
)

// EventService provides event logging functionality.
type EventService struct {
	db *gorm.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	event := model.Event{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    userID,
		IPAddress: ipAddress,
		Metadata:  datatypes.JSONMap(metadata),
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		slog.Warn("failed to log event", "error", err)
		return err
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, userID, ipAddress, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, userID, ipAddress, metadata)
}

// EventFilter narrows an event listing.
type EventFilter struct {
	Level    string
	Category string
}

// List returns events, newest first.
func (s *EventService) List(ctx context.Context, f EventFilter, p Paging) (List[model.Event], error) {
	q := s.db.WithContext(ctx).Model(&model.Event{})
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	res, err := paginate[model.Event](q.Order("created_at DESC").Order("id DESC"), p)
	return res, dbErr(err, "listing events")
}

// DeleteOlderThan removes events created before cutoff.
func (s *EventService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.Event{})
	return res.RowsAffected, dbErr(res.Error, "deleting old events")
}
