// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"github.com/olegiv/realty-go/internal/richtext"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds the values shared by every email.
type Config struct {
	Brand       string
	FrontendURL string
	AdminEmail  string // lead notifications; empty disables them
}

// Field is a label/value row in an admin notification.
type Field struct {
	Label string
	Value string
}

// PropertySummary is the property shown in a property alert.
type PropertySummary struct {
	Title     string
	Price     string
	Type      string
	Status    string
	Location  string
	Image     string
	Bedrooms  int
	Bathrooms int
	URL       string
}

// BlogSummary is one entry of the latest-blogs email.
type BlogSummary struct {
	Title   string
	Excerpt string
	URL     string
}

// Mailer renders the application emails and hands them to a Sender.
type Mailer struct {
	sender    Sender
	cfg       Config
	templates map[string]*template.Template
	now       func() time.Time
}

// NewMailer parses the embedded templates.
func NewMailer(sender Sender, cfg Config) (*Mailer, error) {
	if cfg.Brand == "" {
		cfg.Brand = "Pacific Realty"
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	tmpls := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == "templates/layout.html" {
			continue
		}
		t, err := template.ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".html")
		tmpls[key] = t
	}

	return &Mailer{sender: sender, cfg: cfg, templates: tmpls, now: time.Now}, nil
}

// AdminEnabled reports whether admin notifications have a recipient.
func (m *Mailer) AdminEnabled() bool {
	return m.cfg.AdminEmail != ""
}

type envelope struct {
	Subject        string
	Brand          string
	Year           int
	FrontendURL    string
	UnsubscribeURL string
	HasAttachments bool

	Name       string
	Intro      string
	Code       string
	ExpiresIn  string
	ConfirmURL string
	Title      string
	Fields     []Field
	Body       template.HTML
	Property   *PropertySummary
	Blogs      []BlogSummary
}

func (m *Mailer) render(name string, data *envelope) (string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	data.Brand = m.cfg.Brand
	data.Year = m.now().Year()
	data.FrontendURL = m.cfg.FrontendURL

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func (m *Mailer) send(ctx context.Context, to, tmpl string, data *envelope, attachments []Attachment) error {
	data.HasAttachments = len(attachments) > 0
	html, err := m.render(tmpl, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{
		To:          []string{to},
		Subject:     data.Subject,
		HTML:        html,
		Text:        richtext.PlainText(html),
		Attachments: attachments,
	})
}

// SendVerificationOTP emails an email-verification code.
func (m *Mailer) SendVerificationOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return m.send(ctx, to, "otp", &envelope{
		Subject:   "Verify your email address",
		Name:      name,
		Intro:     "Use the code below to verify your email address.",
		Code:      code,
		ExpiresIn: formatTTL(ttl),
	}, nil)
}

// SendPasswordResetOTP emails a password reset code.
func (m *Mailer) SendPasswordResetOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return m.send(ctx, to, "otp", &envelope{
		Subject:   "Reset your password",
		Name:      name,
		Intro:     "Use the code below to reset your password.",
		Code:      code,
		ExpiresIn: formatTTL(ttl),
	}, nil)
}

// SendWelcome greets a new account, optionally with guides attached.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string, attachments []Attachment) error {
	return m.send(ctx, to, "welcome", &envelope{
		Subject: "Welcome to " + m.cfg.Brand,
		Name:    name,
	}, attachments)
}

// SendAdminNotification tells the site admin about a new lead.
// It is a no-op when no admin address is configured.
func (m *Mailer) SendAdminNotification(ctx context.Context, title string, fields []Field) error {
	if !m.AdminEnabled() {
		return nil
	}
	return m.send(ctx, m.cfg.AdminEmail, "admin_notification", &envelope{
		Subject: title,
		Title:   title,
		Fields:  fields,
	}, nil)
}

// SendSubscriptionConfirm asks a newsletter subscriber to confirm.
func (m *Mailer) SendSubscriptionConfirm(ctx context.Context, to, name, confirmURL string) error {
	return m.send(ctx, to, "subscription_confirm", &envelope{
		Subject:    "Confirm your subscription",
		Name:       greetingName(name),
		ConfirmURL: confirmURL,
	}, nil)
}

// SendNewsletterWelcome is sent once a subscription is confirmed.
func (m *Mailer) SendNewsletterWelcome(ctx context.Context, to, name, unsubscribeURL string) error {
	return m.send(ctx, to, "newsletter_welcome", &envelope{
		Subject:        "You're subscribed",
		Name:           greetingName(name),
		UnsubscribeURL: unsubscribeURL,
	}, nil)
}

// SendNewsletter sends one issue of the newsletter. body must already be
// sanitised.
func (m *Mailer) SendNewsletter(ctx context.Context, to, subject string, body template.HTML, unsubscribeURL string, attachments []Attachment) error {
	return m.send(ctx, to, "newsletter", &envelope{
		Subject:        subject,
		Body:           body,
		UnsubscribeURL: unsubscribeURL,
	}, attachments)
}

// SendPropertyAlert emails the details of one property.
func (m *Mailer) SendPropertyAlert(ctx context.Context, to, name string, p PropertySummary) error {
	return m.send(ctx, to, "property_alert", &envelope{
		Subject:  "Property alert: " + p.Title,
		Name:     greetingName(name),
		Property: &p,
	}, nil)
}

// SendLatestBlogs emails a digest of recent articles.
func (m *Mailer) SendLatestBlogs(ctx context.Context, to, name string, blogs []BlogSummary) error {
	return m.send(ctx, to, "latest_blogs", &envelope{
		Subject: "Latest from " + m.cfg.Brand,
		Name:    greetingName(name),
		Blogs:   blogs,
	}, nil)
}

// SendMarketing sends a marketing email. body must already be sanitised.
func (m *Mailer) SendMarketing(ctx context.Context, to, name, subject string, body template.HTML, attachments []Attachment) error {
	return m.send(ctx, to, "marketing", &envelope{
		Subject: subject,
		Name:    greetingName(name),
		Body:    body,
	}, attachments)
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

func formatTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
