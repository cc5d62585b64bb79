// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/model"
)

// Seed inserts default site content into empty tables.
// Tables that already have rows are left untouched.
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			name  string
			model any
			rows  any
		}{
			{"contact info", &model.ContactInfo{}, ptr(model.DefaultContactInfo())},
			{"about content", &model.AboutContent{}, ptr(model.DefaultAboutContent())},
			{"about-us info", &model.AboutUsInfo{}, ptr(model.DefaultAboutUsInfo())},
			{"future vision", &model.FutureVisionContent{}, ptr(model.DefaultFutureVision())},
			{"core strengths", &model.CoreStrength{}, &[]model.CoreStrength{
				{Feature: model.Feature{Title: "Quality Construction", Description: "Certified materials and experienced engineers on every project.", Icon: "building", Order: 0}},
				{Feature: model.Feature{Title: "Transparent Pricing", Description: "No hidden charges from booking to handover.", Icon: "receipt", Order: 1}},
				{Feature: model.Feature{Title: "Timely Delivery", Description: "Projects handed over on schedule.", Icon: "clock", Order: 2}},
			}},
			{"why choose us", &model.WhyChooseUsReason{}, &[]model.WhyChooseUsReason{
				{Feature: model.Feature{Title: "Trusted Experience", Description: "Two decades of residential projects.", Icon: "award", Order: 0}},
				{Feature: model.Feature{Title: "Prime Locations", Description: "Homes close to schools, transit and hospitals.", Icon: "map-pin", Order: 1}},
				{Feature: model.Feature{Title: "After-Sales Support", Description: "A dedicated team after you move in.", Icon: "headset", Order: 2}},
			}},
			{"achievements", &model.Achievement{}, &[]model.Achievement{
				{Title: "Projects Delivered", Description: "Residential and commercial projects completed.", Icon: "home", Category: "projects", Stats: "150+", Order: 0, IsActive: true},
				{Title: "Happy Families", Description: "Families who found their home with us.", Icon: "users", Category: "clients", Stats: "2000+", Order: 1, IsActive: true},
				{Title: "Years of Experience", Description: "Building across the region.", Icon: "calendar", Category: "company", Stats: "20+", Order: 2, IsActive: true},
			}},
			{"blog authors", &model.BlogAuthor{}, &[]model.BlogAuthor{
				{Name: "Pacific Realty Team", Email: "editorial@pacificrealty.example", Bio: "News and advice from our property experts."},
			}},
			{"blog categories", &model.BlogCategory{}, &[]model.BlogCategory{
				{Name: "Market Insights", Slug: "market-insights"},
				{Name: "Buying Guide", Slug: "buying-guide"},
				{Name: "Investment", Slug: "investment"},
			}},
		}

		for _, s := range steps {
			var count int64
			if err := tx.Model(s.model).Count(&count).Error; err != nil {
				return fmt.Errorf("counting %s: %w", s.name, err)
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(s.rows).Error; err != nil {
				return fmt.Errorf("seeding %s: %w", s.name, err)
			}
			slog.Info("seeded default content", "section", s.name)
		}
		return nil
	})
}

func ptr[T any](v T) *T { return &v }
