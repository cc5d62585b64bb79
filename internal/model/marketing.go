// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"slices"
	"time"
)

// Marketing PDF categories.
const (
	PDFCategoryWelcomeGuide   = "welcome-guide"
	PDFCategoryPropertyGuide  = "property-guide"
	PDFCategoryInvestmentTips = "investment-tips"
	PDFCategoryOther          = "other"
)

var pdfCategories = []string{PDFCategoryWelcomeGuide, PDFCategoryPropertyGuide, PDFCategoryInvestmentTips, PDFCategoryOther}

// IsValidPDFCategory reports whether c is a known PDF category.
func IsValidPDFCategory(c string) bool { return slices.Contains(pdfCategories, c) }

// MarketingPDF is a collateral document attached to marketing emails.
type MarketingPDF struct {
	Base
	Name         string `gorm:"size:255;not null" json:"name"`
	OriginalName string `gorm:"size:255" json:"originalName"`
	FileName     string `gorm:"size:255;not null;uniqueIndex" json:"fileName"`
	FilePath     string `gorm:"size:1000;not null" json:"-"`
	FileSize     int64  `gorm:"not null;default:0" json:"fileSize"`
	Category     string `gorm:"size:32;not null;index" json:"category"`
	Description  string `gorm:"type:text" json:"description,omitempty"`
	IsActive     bool   `gorm:"not null;index" json:"isActive"`
}

// NewsletterSubscriber is an email address on the newsletter list.
// A subscriber receives mail only after confirming and until unsubscribing.
type NewsletterSubscriber struct {
	Base
	Email            string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FirstName        string     `gorm:"size:100" json:"firstName,omitempty"`
	ConfirmToken     string     `gorm:"size:64;index" json:"-"`
	UnsubscribeToken string     `gorm:"size:64;index" json:"-"`
	ConfirmedAt      *time.Time `json:"confirmedAt,omitempty"`
	UnsubscribedAt   *time.Time `json:"unsubscribedAt,omitempty"`
}

// IsActive reports whether the subscriber should receive newsletters.
func (s *NewsletterSubscriber) IsActive() bool {
	return s.ConfirmedAt != nil && s.UnsubscribedAt == nil
}
