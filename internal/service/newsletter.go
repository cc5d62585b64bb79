// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/base64"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/richtext"
)

// MaxNewsletterAttachmentSize caps each decoded newsletter attachment.
const MaxNewsletterAttachmentSize = 10 << 20

// NewsletterConfig controls links and batch pacing.
type NewsletterConfig struct {
	BackendURL string
	BatchSize  int
	BatchDelay time.Duration
}

// NewsletterAttachment is an attachment in a send request. The content may
// arrive as contentBase64 or bufferBase64.
type NewsletterAttachment struct {
	Filename      string `json:"filename"`
	ContentBase64 string `json:"contentBase64"`
	BufferBase64  string `json:"bufferBase64"`
	ContentType   string `json:"contentType"`
}

// NewsletterInput is the body of a newsletter send. Markdown wins over HTML
// when both are given.
type NewsletterInput struct {
	Subject     string                 `json:"subject"`
	HTML        string                 `json:"html"`
	Markdown    string                 `json:"markdown"`
	Attachments []NewsletterAttachment `json:"attachments"`
}

// SendResult reports a queued mass send.
type SendResult struct {
	Recipients int `json:"recipients"`
	Batches    int `json:"batches"`
}

// NewsletterService manages the subscriber list and newsletter sends.
type NewsletterService struct {
	db     *gorm.DB
	mailer *mail.Mailer
	bg     *Background
	cfg    NewsletterConfig
	now    func() time.Time
}

// NewNewsletterService creates a NewsletterService.
func NewNewsletterService(db *gorm.DB, mailer *mail.Mailer, bg *Background, cfg NewsletterConfig) *NewsletterService {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 90
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	return &NewsletterService{db: db, mailer: mailer, bg: bg, cfg: cfg, now: time.Now}
}

func (s *NewsletterService) link(path, token string) string {
	return s.cfg.BackendURL + path + "?token=" + url.QueryEscape(token)
}

// UnsubscribeURL returns the unsubscribe link of a subscriber.
func (s *NewsletterService) UnsubscribeURL(sub *model.NewsletterSubscriber) string {
	return s.link("/newsletter/unsubscribe", sub.UnsubscribeToken)
}

// Subscribe adds email to the list, or re-activates it, and mails a
// confirmation link. Already active subscribers keep their tokens, so
// unsubscribe links in mail already sent stay valid.
func (s *NewsletterService) Subscribe(ctx context.Context, email, firstName string) (*model.NewsletterSubscriber, error) {
	email = normalizeEmail(email)
	firstName = strings.TrimSpace(firstName)
	v := validator{}
	v.check(isEmail(email), "email", "must be a valid email address")
	v.check(maxLen(firstName, 100), "firstName", "is too long")
	if err := v.err(); err != nil {
		return nil, err
	}

	var sub model.NewsletterSubscriber
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&sub).Error
		switch {
		case err == nil:
		case isNotFound(err):
			sub = model.NewsletterSubscriber{Email: email}
		default:
			return err
		}
		if firstName != "" {
			sub.FirstName = firstName
		}
		if sub.IsActive() {
			return tx.Save(&sub).Error
		}
		sub.ConfirmedAt = nil
		sub.UnsubscribedAt = nil
		sub.ConfirmToken = uuid.NewString()
		sub.UnsubscribeToken = uuid.NewString()
		return tx.Save(&sub).Error
	})
	if err != nil {
		return nil, dbErr(err, "subscribing")
	}
	if sub.IsActive() {
		return &sub, nil
	}

	slog.Info("newsletter subscription requested", "category", model.EventCategoryMarketing, "subscriber_id", sub.ID)
	to, name, confirmURL := sub.Email, sub.FirstName, s.link("/newsletter/confirm", sub.ConfirmToken)
	s.bg.Go("newsletter-confirm", func(ctx context.Context) {
		if err := s.mailer.SendSubscriptionConfirm(ctx, to, name, confirmURL); err != nil {
			slog.Warn("newsletter confirmation email failed", "category", model.EventCategoryMarketing, "error", err)
		}
	})
	return &sub, nil
}

var errBadToken = newError(ErrInvalidInput, "Invalid or expired link")

// Confirm activates the subscription holding token and sends the welcome email.
func (s *NewsletterService) Confirm(ctx context.Context, token string) (*model.NewsletterSubscriber, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errBadToken
	}
	var sub model.NewsletterSubscriber
	if err := s.db.WithContext(ctx).Where("confirm_token = ?", token).First(&sub).Error; err != nil {
		if isNotFound(err) {
			return nil, errBadToken
		}
		return nil, dbErr(err, "loading subscriber")
	}
	if sub.ConfirmedAt != nil {
		return &sub, nil
	}
	sub.ConfirmedAt = ptr(s.now().UTC())
	if err := s.db.WithContext(ctx).Model(&sub).Update("confirmed_at", sub.ConfirmedAt).Error; err != nil {
		return nil, dbErr(err, "confirming subscriber")
	}

	slog.Info("newsletter subscription confirmed", "category", model.EventCategoryMarketing, "subscriber_id", sub.ID)
	to, name, unsub := sub.Email, sub.FirstName, s.UnsubscribeURL(&sub)
	s.bg.Go("newsletter-welcome", func(ctx context.Context) {
		if err := s.mailer.SendNewsletterWelcome(ctx, to, name, unsub); err != nil {
			slog.Warn("newsletter welcome email failed", "category", model.EventCategoryMarketing, "error", err)
		}
	})
	return &sub, nil
}

// Unsubscribe stops newsletters to the subscriber holding token.
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) (*model.NewsletterSubscriber, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errBadToken
	}
	var sub model.NewsletterSubscriber
	if err := s.db.WithContext(ctx).Where("unsubscribe_token = ?", token).First(&sub).Error; err != nil {
		if isNotFound(err) {
			return nil, errBadToken
		}
		return nil, dbErr(err, "loading subscriber")
	}
	if sub.UnsubscribedAt == nil {
		sub.UnsubscribedAt = ptr(s.now().UTC())
		if err := s.db.WithContext(ctx).Model(&sub).Update("unsubscribed_at", sub.UnsubscribedAt).Error; err != nil {
			return nil, dbErr(err, "unsubscribing")
		}
		slog.Info("newsletter unsubscribed", "category", model.EventCategoryMarketing, "subscriber_id", sub.ID)
	}
	return &sub, nil
}

// List returns subscribers newest first.
func (s *NewsletterService) List(ctx context.Context, p Paging) (List[model.NewsletterSubscriber], error) {
	q := s.db.WithContext(ctx).Model(&model.NewsletterSubscriber{}).Order("created_at DESC").Order("id DESC")
	res, err := paginate[model.NewsletterSubscriber](q, p)
	return res, dbErr(err, "listing subscribers")
}

// All returns every subscriber newest first.
func (s *NewsletterService) All(ctx context.Context) ([]model.NewsletterSubscriber, error) {
	subs := make([]model.NewsletterSubscriber, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&subs).Error
	return subs, dbErr(err, "loading subscribers")
}

func activeSubscribers(db *gorm.DB) *gorm.DB {
	return db.Model(&model.NewsletterSubscriber{}).Where("confirmed_at IS NOT NULL AND unsubscribed_at IS NULL")
}

// CountActive returns the number of subscribers who receive newsletters.
func (s *NewsletterService) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := activeSubscribers(s.db.WithContext(ctx)).Count(&n).Error
	return n, dbErr(err, "counting subscribers")
}

// DecodeAttachments turns request attachments into mail attachments.
func DecodeAttachments(in []NewsletterAttachment) ([]mail.Attachment, error) {
	out := make([]mail.Attachment, 0, len(in))
	v := validator{}
	for _, a := range in {
		raw := a.ContentBase64
		if raw == "" {
			raw = a.BufferBase64
		}
		data, err := base64.StdEncoding.DecodeString(raw)
		v.check(err == nil && len(data) > 0, "attachments", "must carry base64 content")
		v.check(len(data) <= MaxNewsletterAttachmentSize, "attachments", "must be at most 10MB each")
		v.check(notBlank(a.Filename), "attachments", "need a filename")
		if err := v.err(); err != nil {
			return nil, err
		}
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		out = append(out, mail.Attachment{Filename: a.Filename, ContentType: ct, Data: data})
	}
	return out, nil
}

// Send mails a newsletter to every active subscriber. Delivery runs in the
// background in batches separated by the configured delay.
func (s *NewsletterService) Send(ctx context.Context, in NewsletterInput) (SendResult, error) {
	v := validator{}
	v.check(notBlank(in.Subject), "subject", "is required")
	v.check(notBlank(in.HTML) || notBlank(in.Markdown), "html", "html or markdown body is required")
	if err := v.err(); err != nil {
		return SendResult{}, err
	}

	var body string
	if notBlank(in.Markdown) {
		out, err := richtext.Render(in.Markdown, richtext.FormatMarkdown)
		if err != nil {
			return SendResult{}, &ValidationError{Fields: map[string]string{"markdown": err.Error()}}
		}
		body = out
	} else {
		body = richtext.Sanitize(in.HTML)
	}
	attachments, err := DecodeAttachments(in.Attachments)
	if err != nil {
		return SendResult{}, err
	}

	var subs []model.NewsletterSubscriber
	if err := activeSubscribers(s.db.WithContext(ctx)).Order("id").Find(&subs).Error; err != nil {
		return SendResult{}, dbErr(err, "loading subscribers")
	}
	batches := chunk(subs, s.cfg.BatchSize)
	res := SendResult{Recipients: len(subs), Batches: len(batches)}
	if len(subs) == 0 {
		return res, nil
	}

	subject := strings.TrimSpace(in.Subject)
	slog.Info("newsletter queued", "category", model.EventCategoryMarketing,
		"subject", subject, "recipients", res.Recipients, "batches", res.Batches)

	s.bg.Go("newsletter-send", func(ctx context.Context) {
		sent, failed := 0, 0
		for i, batch := range batches {
			if i > 0 && !sleepCtx(ctx, s.cfg.BatchDelay) {
				slog.Warn("newsletter send interrupted", "category", model.EventCategoryMarketing,
					"sent", sent, "failed", failed, "remaining", res.Recipients-sent-failed)
				return
			}
			for _, sub := range batch {
				err := s.mailer.SendNewsletter(ctx, sub.Email, subject, template.HTML(body), s.UnsubscribeURL(&sub), attachments)
				if err != nil {
					failed++
					slog.Warn("newsletter email failed", "subscriber_id", sub.ID, "error", err)
					continue
				}
				sent++
			}
		}
		slog.Info("newsletter sent", "category", model.EventCategoryMarketing,
			"subject", subject, "sent", sent, "failed", failed)
	})
	return res, nil
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// sleepCtx waits for d and reports whether ctx is still live.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
