// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"gorm.io/datatypes"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth      = "auth"
	EventCategoryUser      = "user"
	EventCategoryProperty  = "property"
	EventCategoryBlog      = "blog"
	EventCategoryLead      = "lead"
	EventCategoryMarketing = "marketing"
	EventCategoryUpload    = "upload"
	EventCategorySystem    = "system"
	EventCategoryCache     = "cache"
	EventCategoryScheduler = "scheduler"
)

// Event represents an audit log entry.
type Event struct {
	ID         int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	Level      string            `gorm:"size:16;not null;default:info;index" json:"level"`
	Category   string            `gorm:"size:32;not null;default:system;index" json:"category"`
	Message    string            `gorm:"type:text;not null" json:"message"`
	UserID     *int64            `gorm:"index" json:"userId,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	IPAddress  string            `gorm:"size:64" json:"ipAddress,omitempty"`
	RequestURL string            `gorm:"size:1000" json:"requestUrl,omitempty"`
	CreatedAt  time.Time         `gorm:"index" json:"createdAt"`
}
