// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Contact form statuses.
const (
	ContactStatusNew       = "new"
	ContactStatusRead      = "read"
	ContactStatusResponded = "responded"
)

// Visit and video chat statuses.
const (
	VisitStatusPending   = "pending"
	VisitStatusConfirmed = "confirmed"
	VisitStatusCompleted = "completed"
	VisitStatusCancelled = "cancelled"
)

// ContactForm is a message sent through the site's contact form.
type ContactForm struct {
	Base
	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255;not null;index" json:"email"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Subject string `gorm:"size:255" json:"subject,omitempty"`
	Message string `gorm:"type:text;not null" json:"message"`
	Status  string `gorm:"size:16;not null;default:new;index" json:"status"`
}

// VisitRequest holds the fields shared by in-person and video visit requests.
type VisitRequest struct {
	Name             string `gorm:"size:255;not null" json:"name"`
	Email            string `gorm:"size:255;not null;index" json:"email"`
	Phone            string `gorm:"size:50" json:"phone,omitempty"`
	PreferredDate    string `gorm:"size:32" json:"preferredDate,omitempty"`
	PreferredTime    string `gorm:"size:32" json:"preferredTime,omitempty"`
	Message          string `gorm:"type:text" json:"message,omitempty"`
	PreferredContact string `gorm:"size:32" json:"preferredContact,omitempty"`
	PropertyID       *int64 `gorm:"index" json:"propertyId,omitempty"`
	PropertyTitle    string `gorm:"size:255" json:"propertyTitle,omitempty"`
	Status           string `gorm:"size:16;not null;default:pending;index" json:"status"`
}

// ScheduleVisit is a request for an in-person viewing.
type ScheduleVisit struct {
	Base
	VisitRequest
}

// VideoChat is a request for a video call about a property.
type VideoChat struct {
	Base
	VisitRequest
	Platform string `gorm:"size:32" json:"platform,omitempty"`
}

// TableName keeps the original table name.
func (VideoChat) TableName() string { return "video_chats" }
