// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/model"
)

// LeadCounts holds the total and unhandled count of one lead type.
type LeadCounts struct {
	Total int64 `json:"total"`
	Open  int64 `json:"open"`
}

// DashboardStats are the counters on the admin dashboard.
type DashboardStats struct {
	Properties  int64      `json:"properties"`
	Featured    int64      `json:"featured"`
	Blogs       BlogStats  `json:"blogs"`
	Users       UserCount  `json:"users"`
	Subscribers int64      `json:"subscribers"`
	Contacts    LeadCounts `json:"contacts"`
	Visits      LeadCounts `json:"visits"`
	VideoChats  LeadCounts `json:"videoChats"`
}

// StatsService gathers dashboard counters.
type StatsService struct {
	db    *gorm.DB
	blogs *BlogService
	users *AuthService
}

// NewStatsService creates a StatsService.
func NewStatsService(db *gorm.DB, blogs *BlogService, users *AuthService) *StatsService {
	return &StatsService{db: db, blogs: blogs, users: users}
}

func leadCounts(db *gorm.DB, table any, open string) (LeadCounts, error) {
	var c LeadCounts
	if err := db.Model(table).Count(&c.Total).Error; err != nil {
		return c, err
	}
	err := db.Model(table).Where("status = ?", open).Count(&c.Open).Error
	return c, err
}

// Dashboard counts listings, content, audience and open leads.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var st DashboardStats
	var err error

	if err = db.Model(&model.Property{}).Count(&st.Properties).Error; err != nil {
		return nil, dbErr(err, "counting properties")
	}
	if err = db.Model(&model.Property{}).Where("featured = ?", true).Count(&st.Featured).Error; err != nil {
		return nil, dbErr(err, "counting featured properties")
	}
	if st.Blogs, err = s.blogs.Stats(ctx); err != nil {
		return nil, err
	}
	if st.Users, err = s.users.CountUsers(ctx); err != nil {
		return nil, err
	}
	if err = activeSubscribers(db).Count(&st.Subscribers).Error; err != nil {
		return nil, dbErr(err, "counting subscribers")
	}
	if st.Contacts, err = leadCounts(db, &model.ContactForm{}, model.ContactStatusNew); err != nil {
		return nil, dbErr(err, "counting contacts")
	}
	if st.Visits, err = leadCounts(db, &model.ScheduleVisit{}, model.VisitStatusPending); err != nil {
		return nil, dbErr(err, "counting visits")
	}
	if st.VideoChats, err = leadCounts(db, &model.VideoChat{}, model.VisitStatusPending); err != nil {
		return nil, dbErr(err, "counting video chats")
	}
	return &st, nil
}
