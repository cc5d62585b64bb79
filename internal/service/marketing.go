// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"html"
	"html/template"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/guide"
	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/model"
)

// LatestBlogCount is the number of blogs in the latest-blogs email.
const LatestBlogCount = 5

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// BlastInput is the body of a marketing blast. Subject and Message are
// required for the "other" category only.
type BlastInput struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// MarketingService sends property alerts, blog digests and blasts to users.
type MarketingService struct {
	db          *gorm.DB
	mailer      *mail.Mailer
	attachments AttachmentProvider
	bg          *Background
	frontendURL string
}

// NewMarketingService creates a MarketingService.
func NewMarketingService(db *gorm.DB, mailer *mail.Mailer, attachments AttachmentProvider, bg *Background, frontendURL string) *MarketingService {
	return &MarketingService{
		db:          db,
		mailer:      mailer,
		attachments: attachments,
		bg:          bg,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// FormatPrice renders a price as whole US dollars with grouping.
func FormatPrice(p float64) string {
	return pricePrinter.Sprintf("$%d", int64(math.Round(p)))
}

func (s *MarketingService) user(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, dbErr(err, "loading user")
	}
	return &u, nil
}

// PropertyAlert emails the details of a property to a user. Mail failures
// are logged, not returned.
func (s *MarketingService) PropertyAlert(ctx context.Context, userID, propertyID int64) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	var p model.Property
	err = s.db.WithContext(ctx).
		Preload("Location").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position").Order("id") }).
		First(&p, propertyID).Error
	if err != nil {
		if isNotFound(err) {
			return newError(ErrNotFound, "Property not found")
		}
		return dbErr(err, "loading property")
	}

	summary := mail.PropertySummary{
		Title:     p.Title,
		Price:     FormatPrice(p.Price),
		Type:      p.Type,
		Status:    p.Status,
		Bedrooms:  p.Bedrooms,
		Bathrooms: p.Bathrooms,
		URL:       s.frontendURL + "/properties/" + strconv.FormatInt(p.ID, 10),
	}
	if p.Location != nil {
		parts := make([]string, 0, 3)
		for _, part := range []string{p.Location.Address, p.Location.City, p.Location.State} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		summary.Location = strings.Join(parts, ", ")
	}
	if len(p.Images) > 0 {
		summary.Image = p.Images[0].URL
	}

	if err := s.mailer.SendPropertyAlert(ctx, u.Email, u.FirstName, summary); err != nil {
		slog.Warn("property alert email failed", "category", model.EventCategoryMarketing, "user_id", u.ID, "error", err)
		return nil
	}
	slog.Info("property alert sent", "category", model.EventCategoryMarketing, "user_id", u.ID, "property_id", p.ID)
	return nil
}

// LatestBlogs emails the newest published blogs to a user.
func (s *MarketingService) LatestBlogs(ctx context.Context, userID int64) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	var blogs []model.Blog
	if err := s.db.WithContext(ctx).
		Where("status = ?", model.BlogStatusPublished).
		Order("published_at DESC").Order("id DESC").
		Limit(LatestBlogCount).Find(&blogs).Error; err != nil {
		return dbErr(err, "loading blogs")
	}

	summaries := make([]mail.BlogSummary, 0, len(blogs))
	for _, b := range blogs {
		summaries = append(summaries, mail.BlogSummary{
			Title:   b.Title,
			Excerpt: b.Excerpt,
			URL:     s.frontendURL + "/blog/" + b.Slug,
		})
	}
	if err := s.mailer.SendLatestBlogs(ctx, u.Email, u.FirstName, summaries); err != nil {
		slog.Warn("latest blogs email failed", "category", model.EventCategoryMarketing, "user_id", u.ID, "error", err)
	}
	return nil
}

// textToHTML escapes plain text and keeps its paragraphs and line breaks.
func textToHTML(text string) template.HTML {
	var b strings.Builder
	for _, para := range strings.Split(strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n"), "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(strings.TrimSpace(para)), "\n", "<br>"))
		b.WriteString("</p>\n")
	}
	return template.HTML(b.String()) //nolint:gosec // every fragment is escaped above
}

func blastContent(category string, in BlastInput) (string, template.HTML, error) {
	switch category {
	case model.PDFCategoryPropertyGuide, model.PDFCategoryInvestmentTips:
		title := guide.Title(category)
		subject := strings.TrimSpace(in.Subject)
		if subject == "" {
			subject = "Your " + title
		}
		body := in.Message
		if strings.TrimSpace(body) == "" {
			body = "We have put together our " + title + " for you. You will find it attached to this email.\n\n" +
				"Reply to this message if you would like to talk to one of our agents."
		}
		return subject, textToHTML(body), nil
	case model.PDFCategoryOther:
		v := validator{}
		v.check(notBlank(in.Subject), "subject", "is required")
		v.check(notBlank(in.Message), "message", "is required")
		if err := v.err(); err != nil {
			return "", "", err
		}
		return strings.TrimSpace(in.Subject), textToHTML(in.Message), nil
	default:
		return "", "", newError(ErrInvalidInput, "Unknown marketing category: "+category)
	}
}

// Blast emails every verified user in the background with the active PDFs
// of category attached. It returns the number of recipients.
func (s *MarketingService) Blast(ctx context.Context, category string, in BlastInput) (int, error) {
	subject, body, err := blastContent(category, in)
	if err != nil {
		return 0, err
	}
	attachments, err := s.attachments.Attachments(ctx, category, "")
	if err != nil {
		return 0, err
	}

	var users []model.User
	if err := s.db.WithContext(ctx).
		Select("id", "email", "first_name").
		Where("is_email_verified = ?", true).
		Order("id").Find(&users).Error; err != nil {
		return 0, dbErr(err, "loading recipients")
	}
	if len(users) == 0 {
		return 0, nil
	}

	slog.Info("marketing blast queued", "category", model.EventCategoryMarketing,
		"kind", category, "recipients", len(users), "attachments", len(attachments))
	s.bg.Go("marketing-blast", func(ctx context.Context) {
		sent, failed := 0, 0
		for _, u := range users {
			if ctx.Err() != nil {
				break
			}
			if err := s.mailer.SendMarketing(ctx, u.Email, u.FirstName, subject, body, attachments); err != nil {
				failed++
				slog.Warn("marketing email failed", "user_id", u.ID, "error", err)
				continue
			}
			sent++
		}
		slog.Info("marketing blast finished", "category", model.EventCategoryMarketing,
			"kind", category, "sent", sent, "failed", failed)
	})
	return len(users), nil
}
