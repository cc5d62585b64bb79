// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the persistent domain models of the realty backend:
// users, properties and their nested records, blog content, leads,
// newsletter subscribers, marketing PDFs, site content and the event log.
package model

import "time"

// Base holds the columns shared by every table.
type Base struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Row returns the shared columns of a record.
func (b *Base) Row() *Base { return b }

// All returns every model in migration order.
// Parents come before children so foreign keys resolve on all dialects.
func All() []any {
	return []any{
		&User{},
		&Property{},
		&PropertyLocation{},
		&PropertyImage{},
		&PropertySpecification{},
		&MaterialCertification{},
		&POI{},
		&BlogAuthor{},
		&BlogCategory{},
		&Blog{},
		&BlogView{},
		&ContactForm{},
		&ScheduleVisit{},
		&VideoChat{},
		&NewsletterSubscriber{},
		&MarketingPDF{},
		&ContactInfo{},
		&Achievement{},
		&AboutContent{},
		&AboutTimelineItem{},
		&AboutUsInfo{},
		&AboutUsValue{},
		&AboutUsTeamMember{},
		&CoreStrength{},
		&WhyChooseUsReason{},
		&FutureVisionContent{},
		&FutureVisionGoal{},
		&FutureVisionTimelineItem{},
		&Event{},
	}
}
