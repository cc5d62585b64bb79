// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/model"
)

// LeadStats counts leads by status.
type LeadStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// leadKind describes one lead table.
type leadKind[T any] struct {
	noun          string
	statuses      []string
	defaultStatus string
	base          func(*T) *model.Base
	status        func(*T) *string
	validate      func(*T) error
	notify        func(*T) []mail.Field
	prepare       func(ctx context.Context, db *gorm.DB, t *T) error
}

// LeadService stores one kind of lead: contact messages, visit requests
// or video chat requests.
type LeadService[T any] struct {
	db     *gorm.DB
	mailer *mail.Mailer
	bg     *Background
	kind   leadKind[T]
}

// Statuses returns the statuses a lead of this kind may have.
func (s *LeadService[T]) Statuses() []string {
	return slices.Clone(s.kind.statuses)
}

// NewContactService manages contact form messages.
func NewContactService(db *gorm.DB, mailer *mail.Mailer, bg *Background) *LeadService[model.ContactForm] {
	return &LeadService[model.ContactForm]{db: db, mailer: mailer, bg: bg, kind: leadKind[model.ContactForm]{
		noun:          "contact message",
		statuses:      []string{model.ContactStatusNew, model.ContactStatusRead, model.ContactStatusResponded},
		defaultStatus: model.ContactStatusNew,
		base:          func(c *model.ContactForm) *model.Base { return &c.Base },
		status:        func(c *model.ContactForm) *string { return &c.Status },
		validate: func(c *model.ContactForm) error {
			v := validator{}
			v.check(notBlank(c.Name), "name", "is required")
			v.check(isEmail(c.Email), "email", "must be a valid email address")
			v.check(notBlank(c.Message), "message", "is required")
			v.check(maxLen(c.Subject, 255), "subject", "is too long")
			return v.err()
		},
		notify: func(c *model.ContactForm) []mail.Field {
			return []mail.Field{
				{Label: "Name", Value: c.Name},
				{Label: "Email", Value: c.Email},
				{Label: "Phone", Value: c.Phone},
				{Label: "Subject", Value: c.Subject},
				{Label: "Message", Value: c.Message},
			}
		},
	}}
}

func validateVisit(v validator, r *model.VisitRequest) {
	v.check(notBlank(r.Name), "name", "is required")
	v.check(isEmail(r.Email), "email", "must be a valid email address")
	v.check(maxLen(r.PreferredDate, 32), "preferredDate", "is too long")
	v.check(maxLen(r.PreferredTime, 32), "preferredTime", "is too long")
}

func visitFields(r *model.VisitRequest) []mail.Field {
	fields := []mail.Field{
		{Label: "Name", Value: r.Name},
		{Label: "Email", Value: r.Email},
		{Label: "Phone", Value: r.Phone},
		{Label: "Preferred date", Value: r.PreferredDate},
		{Label: "Preferred time", Value: r.PreferredTime},
		{Label: "Preferred contact", Value: r.PreferredContact},
	}
	if r.PropertyTitle != "" {
		fields = append(fields, mail.Field{Label: "Property", Value: r.PropertyTitle})
	} else if r.PropertyID != nil {
		fields = append(fields, mail.Field{Label: "Property", Value: "#" + strconv.FormatInt(*r.PropertyID, 10)})
	}
	return append(fields, mail.Field{Label: "Message", Value: r.Message})
}

// fillPropertyTitle copies the title of the referenced property when the
// request did not name it.
func fillPropertyTitle(ctx context.Context, db *gorm.DB, r *model.VisitRequest) error {
	if r.PropertyID == nil || r.PropertyTitle != "" {
		return nil
	}
	var titles []string
	if err := db.WithContext(ctx).Model(&model.Property{}).Where("id = ?", *r.PropertyID).Limit(1).Pluck("title", &titles).Error; err != nil {
		return err
	}
	if len(titles) > 0 {
		r.PropertyTitle = titles[0]
	}
	return nil
}

var visitStatuses = []string{model.VisitStatusPending, model.VisitStatusConfirmed, model.VisitStatusCompleted, model.VisitStatusCancelled}

// NewVisitService manages in-person viewing requests.
func NewVisitService(db *gorm.DB, mailer *mail.Mailer, bg *Background) *LeadService[model.ScheduleVisit] {
	return &LeadService[model.ScheduleVisit]{db: db, mailer: mailer, bg: bg, kind: leadKind[model.ScheduleVisit]{
		noun:          "visit request",
		statuses:      visitStatuses,
		defaultStatus: model.VisitStatusPending,
		base:          func(v *model.ScheduleVisit) *model.Base { return &v.Base },
		status:        func(v *model.ScheduleVisit) *string { return &v.Status },
		validate: func(sv *model.ScheduleVisit) error {
			v := validator{}
			validateVisit(v, &sv.VisitRequest)
			return v.err()
		},
		notify: func(v *model.ScheduleVisit) []mail.Field { return visitFields(&v.VisitRequest) },
		prepare: func(ctx context.Context, db *gorm.DB, v *model.ScheduleVisit) error {
			return fillPropertyTitle(ctx, db, &v.VisitRequest)
		},
	}}
}

// NewVideoChatService manages video call requests.
func NewVideoChatService(db *gorm.DB, mailer *mail.Mailer, bg *Background) *LeadService[model.VideoChat] {
	return &LeadService[model.VideoChat]{db: db, mailer: mailer, bg: bg, kind: leadKind[model.VideoChat]{
		noun:          "video chat request",
		statuses:      visitStatuses,
		defaultStatus: model.VisitStatusPending,
		base:          func(v *model.VideoChat) *model.Base { return &v.Base },
		status:        func(v *model.VideoChat) *string { return &v.Status },
		validate: func(vc *model.VideoChat) error {
			v := validator{}
			validateVisit(v, &vc.VisitRequest)
			v.check(maxLen(vc.Platform, 32), "platform", "is too long")
			return v.err()
		},
		notify: func(v *model.VideoChat) []mail.Field {
			return append(visitFields(&v.VisitRequest), mail.Field{Label: "Platform", Value: v.Platform})
		},
		prepare: func(ctx context.Context, db *gorm.DB, v *model.VideoChat) error {
			return fillPropertyTitle(ctx, db, &v.VisitRequest)
		},
	}}
}

func (s *LeadService[T]) title() string {
	return "New " + s.kind.noun
}

// Create stores a lead with the default status and notifies the admin
// mailbox in the background.
func (s *LeadService[T]) Create(ctx context.Context, lead T) (*T, error) {
	*s.kind.base(&lead) = model.Base{}
	*s.kind.status(&lead) = s.kind.defaultStatus
	if err := s.kind.validate(&lead); err != nil {
		return nil, err
	}
	if s.kind.prepare != nil {
		if err := s.kind.prepare(ctx, s.db, &lead); err != nil {
			return nil, dbErr(err, "preparing "+s.kind.noun)
		}
	}
	if err := s.db.WithContext(ctx).Create(&lead).Error; err != nil {
		return nil, dbErr(err, "creating "+s.kind.noun)
	}

	id := s.kind.base(&lead).ID
	slog.Info(s.kind.noun+" received", "category", model.EventCategoryLead, "lead_id", id)

	if s.mailer != nil && s.mailer.AdminEnabled() {
		fields := s.kind.notify(&lead)
		s.bg.Go("lead-notification", func(ctx context.Context) {
			if err := s.mailer.SendAdminNotification(ctx, s.title(), fields); err != nil {
				slog.Warn("admin notification email failed", "category", model.EventCategoryLead, "lead_id", id, "error", err)
			}
		})
	}
	return &lead, nil
}

// List returns leads newest first, optionally with one status.
func (s *LeadService[T]) List(ctx context.Context, status string, p Paging) (List[T], error) {
	q := s.db.WithContext(ctx).Model(new(T))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	res, err := paginate[T](q.Order("created_at DESC").Order("id DESC"), p)
	return res, dbErr(err, "listing "+s.kind.noun+"s")
}

// All returns every lead newest first.
func (s *LeadService[T]) All(ctx context.Context) ([]T, error) {
	items := make([]T, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&items).Error
	return items, dbErr(err, "loading "+s.kind.noun+"s")
}

// Get loads one lead.
func (s *LeadService[T]) Get(ctx context.Context, id int64) (*T, error) {
	var lead T
	if err := s.db.WithContext(ctx).First(&lead, id).Error; err != nil {
		return nil, dbErr(err, "loading "+s.kind.noun)
	}
	return &lead, nil
}

// Stats counts leads per status. Every known status is present.
func (s *LeadService[T]) Stats(ctx context.Context) (LeadStats, error) {
	st := LeadStats{ByStatus: make(map[string]int64, len(s.kind.statuses))}
	for _, status := range s.kind.statuses {
		st.ByStatus[status] = 0
	}
	var rows []struct {
		Status string
		N      int64
	}
	if err := s.db.WithContext(ctx).Model(new(T)).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return st, dbErr(err, "counting "+s.kind.noun+"s")
	}
	for _, r := range rows {
		st.ByStatus[r.Status] = r.N
		st.Total += r.N
	}
	return st, nil
}

// CountStatus returns the number of leads with the given status.
func (s *LeadService[T]) CountStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(new(T)).Where("status = ?", status).Count(&n).Error
	return n, dbErr(err, "counting "+s.kind.noun+"s")
}

func (s *LeadService[T]) checkStatus(status string) error {
	if !slices.Contains(s.kind.statuses, status) {
		return &ValidationError{Fields: map[string]string{
			"status": "must be one of " + strings.Join(s.kind.statuses, ", "),
		}}
	}
	return nil
}

// SetStatus changes the status of a lead.
func (s *LeadService[T]) SetStatus(ctx context.Context, id int64, status string) (*T, error) {
	if err := s.checkStatus(status); err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, dbErr(res.Error, "updating "+s.kind.noun)
	}
	if res.RowsAffected == 0 {
		return nil, dbErr(gorm.ErrRecordNotFound, "updating "+s.kind.noun)
	}
	return s.Get(ctx, id)
}

// Update loads a lead, lets apply change it and saves the result. The id
// and creation time cannot be changed.
func (s *LeadService[T]) Update(ctx context.Context, id int64, apply func(*T) error) (*T, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	orig := *s.kind.base(lead)
	if err := apply(lead); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	base := s.kind.base(lead)
	base.ID, base.CreatedAt = orig.ID, orig.CreatedAt
	if err := s.checkStatus(*s.kind.status(lead)); err != nil {
		return nil, err
	}
	if err := s.kind.validate(lead); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(lead).Error; err != nil {
		return nil, dbErr(err, "updating "+s.kind.noun)
	}
	return lead, nil
}

// Delete removes a lead.
func (s *LeadService[T]) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return dbErr(res.Error, "deleting "+s.kind.noun)
	}
	if res.RowsAffected == 0 {
		return dbErr(gorm.ErrRecordNotFound, "deleting "+s.kind.noun)
	}
	return nil
}
