// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/olegiv/realty-go/internal/geoip"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/richtext"
	"github.com/olegiv/realty-go/internal/util"
)

// ExcerptLength is the size of generated excerpts in runes.
const ExcerptLength = 200

// CountryLookup resolves an IP address to an ISO country code.
type CountryLookup interface {
	Country(ip string) string
}

// BlogFilter narrows a blog listing. Public listings ignore Status and
// show published blogs only.
type BlogFilter struct {
	Public     bool
	Status     string
	AuthorID   *int64
	CategoryID *int64
	Category   string
	Tag        string
	Query      string
}

// BlogInput is the body of a blog create or update. Nil fields are left
// unchanged on update.
type BlogInput struct {
	Title           *string    `json:"title"`
	Slug            *string    `json:"slug"`
	Content         *string    `json:"content"`
	ContentFormat   *string    `json:"contentFormat"`
	Excerpt         *string    `json:"excerpt"`
	FeaturedImage   *string    `json:"featuredImage"`
	Status          *string    `json:"status"`
	AuthorID        *int64     `json:"authorId"`
	CategoryID      *int64     `json:"categoryId"`
	Tags            *[]string  `json:"tags"`
	MetaTitle       *string    `json:"metaTitle"`
	MetaDescription *string    `json:"metaDescription"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
}

// BlogStats summarises blog content for the dashboard.
type BlogStats struct {
	Total     int64 `json:"total"`
	Views     int64 `json:"views"`
	Authors   int64 `json:"authors"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
	Scheduled int64 `json:"scheduled"`
}

// BlogService manages blogs, authors, categories and view tracking.
type BlogService struct {
	db  *gorm.DB
	geo CountryLookup
	now func() time.Time
}

// NewBlogService creates a BlogService. geo may be nil.
func NewBlogService(db *gorm.DB, geo CountryLookup) *BlogService {
	return &BlogService{db: db, geo: geo, now: time.Now}
}

// jsonText casts a JSON column to text so it can be searched with LIKE.
func jsonText(db *gorm.DB, col string) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "CAST(" + col + " AS TEXT)"
	case "mysql":
		return "CAST(" + col + " AS CHAR)"
	default:
		return col
	}
}

// List returns blogs newest first with author and category.
func (s *BlogService) List(ctx context.Context, f BlogFilter, p Paging) (List[model.Blog], error) {
	q := s.db.WithContext(ctx).Model(&model.Blog{})
	switch {
	case f.Public:
		q = q.Where("blogs.status = ?", model.BlogStatusPublished)
	case f.Status != "":
		q = q.Where("blogs.status = ?", f.Status)
	}
	if f.AuthorID != nil {
		q = q.Where("blogs.author_id = ?", *f.AuthorID)
	}
	if f.CategoryID != nil {
		q = q.Where("blogs.category_id = ?", *f.CategoryID)
	}
	if f.Category != "" {
		q = q.Where("blogs.category_id IN (SELECT id FROM blog_categories WHERE slug = ?)", f.Category)
	}
	if f.Tag != "" {
		q = q.Where("LOWER("+jsonText(s.db, "blogs.tags")+") LIKE ?"+likeEscape, likePattern(`"`+f.Tag+`"`))
	}
	if f.Query != "" {
		pat := likePattern(f.Query)
		q = q.Where("(LOWER(blogs.title) LIKE ?"+likeEscape+" OR LOWER(blogs.excerpt) LIKE ?"+likeEscape+")", pat, pat)
	}
	q = q.Preload("Author").Preload("Category").
		Order("COALESCE(blogs.published_at, blogs.created_at) DESC").Order("blogs.id DESC")

	res, err := paginate[model.Blog](q, p)
	return res, dbErr(err, "listing blogs")
}

// Get loads a blog by numeric id or slug. Public callers only see
// published blogs.
func (s *BlogService) Get(ctx context.Context, idOrSlug string, public bool) (*model.Blog, error) {
	q := s.db.WithContext(ctx).Preload("Author").Preload("Category")
	if id, err := strconv.ParseInt(idOrSlug, 10, 64); err == nil {
		q = q.Where("id = ? OR slug = ?", id, idOrSlug)
	} else {
		q = q.Where("slug = ?", idOrSlug)
	}
	if public {
		q = q.Where("status = ?", model.BlogStatusPublished)
	}
	var b model.Blog
	if err := q.First(&b).Error; err != nil {
		return nil, dbErr(err, "loading blog")
	}
	return &b, nil
}

func (s *BlogService) validate(ctx context.Context, in *BlogInput, create bool) error {
	v := validator{}
	if create {
		v.check(in.Title != nil && notBlank(*in.Title), "title", "is required")
		v.check(in.Content != nil && notBlank(*in.Content), "content", "is required")
		v.check(in.AuthorID != nil, "authorId", "is required")
	}
	if in.Title != nil {
		v.check(notBlank(*in.Title), "title", "is required")
		v.check(maxLen(*in.Title, 255), "title", "is too long")
	}
	if in.Slug != nil && *in.Slug != "" {
		v.check(util.IsValidSlug(*in.Slug), "slug", "may contain lowercase letters, digits and single hyphens only")
	}
	if in.ContentFormat != nil {
		v.check(*in.ContentFormat == model.ContentFormatHTML || *in.ContentFormat == model.ContentFormatMarkdown,
			"contentFormat", "must be html or markdown")
	}
	if in.Status != nil {
		v.check(model.IsValidBlogStatus(*in.Status), "status", "must be draft, published or scheduled")
		if *in.Status == model.BlogStatusScheduled {
			v.check(in.ScheduledAt != nil, "scheduledAt", "is required for scheduled blogs")
		}
	}
	if err := v.err(); err != nil {
		return err
	}

	if in.AuthorID != nil {
		if err := s.db.WithContext(ctx).Select("id").First(&model.BlogAuthor{}, *in.AuthorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ValidationError{Fields: map[string]string{"authorId": "does not exist"}}
			}
			return err
		}
	}
	if in.CategoryID != nil {
		if err := s.db.WithContext(ctx).Select("id").First(&model.BlogCategory{}, *in.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ValidationError{Fields: map[string]string{"categoryId": "does not exist"}}
			}
			return err
		}
	}
	return nil
}

func (s *BlogService) slugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Blog{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

// resolveSlug returns the explicit slug, failing when it is taken, or a
// unique slug derived from title.
func (s *BlogService) resolveSlug(ctx context.Context, explicit, title string, exceptID int64) (string, error) {
	taken := func(slug string) (bool, error) { return s.slugTaken(ctx, slug, exceptID) }
	if explicit != "" {
		exists, err := taken(explicit)
		if err != nil {
			return "", err
		}
		if exists {
			return "", newError(ErrConflict, "A blog with this slug already exists")
		}
		return explicit, nil
	}
	base := util.Slugify(title)
	if base == "" {
		base = "post"
	}
	return util.UniqueSlug(base, taken)
}

// applyStatus sets the publish timestamps that go with the blog's status.
func (s *BlogService) applyStatus(b *model.Blog) {
	switch b.Status {
	case model.BlogStatusPublished:
		if b.PublishedAt == nil {
			b.PublishedAt = ptr(s.now().UTC())
		}
	case model.BlogStatusScheduled:
		b.PublishedAt = nil
	default:
		b.ScheduledAt = nil
	}
}

func (s *BlogService) render(b *model.Blog, excerptGiven bool) error {
	out, err := richtext.Render(b.Content, b.ContentFormat)
	if err != nil {
		return &ValidationError{Fields: map[string]string{"content": err.Error()}}
	}
	b.ContentHTML = out
	if !excerptGiven || strings.TrimSpace(b.Excerpt) == "" {
		b.Excerpt = richtext.Excerpt(out, ExcerptLength)
	} else {
		b.Excerpt = richtext.PlainText(b.Excerpt)
	}
	return nil
}

func (in *BlogInput) applyTo(b *model.Blog) {
	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		b.Content = *in.Content
	}
	if in.ContentFormat != nil {
		b.ContentFormat = *in.ContentFormat
	}
	if in.Excerpt != nil {
		b.Excerpt = *in.Excerpt
	}
	if in.FeaturedImage != nil {
		b.FeaturedImage = *in.FeaturedImage
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	if in.AuthorID != nil {
		b.AuthorID = *in.AuthorID
	}
	if in.CategoryID != nil {
		if *in.CategoryID == 0 {
			b.CategoryID = nil
		} else {
			b.CategoryID = in.CategoryID
		}
	}
	if in.Tags != nil {
		b.Tags = *in.Tags
	}
	if in.MetaTitle != nil {
		b.MetaTitle = *in.MetaTitle
	}
	if in.MetaDescription != nil {
		b.MetaDescription = *in.MetaDescription
	}
	if in.ScheduledAt != nil {
		b.ScheduledAt = ptr(in.ScheduledAt.UTC())
	}
}

// Create stores a new blog.
func (s *BlogService) Create(ctx context.Context, in BlogInput) (*model.Blog, error) {
	if in.CategoryID != nil && *in.CategoryID == 0 {
		in.CategoryID = nil
	}
	if err := s.validate(ctx, &in, true); err != nil {
		return nil, err
	}
	b := model.Blog{ContentFormat: model.ContentFormatHTML, Status: model.BlogStatusDraft, Tags: []string{}}
	in.applyTo(&b)
	if err := s.render(&b, in.Excerpt != nil); err != nil {
		return nil, err
	}
	s.applyStatus(&b)

	slug, err := s.resolveSlug(ctx, deref(in.Slug), b.Title, 0)
	if err != nil {
		return nil, dbErr(err, "creating blog")
	}
	b.Slug = slug

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&b).Error; err != nil {
		return nil, dbErr(err, "creating blog")
	}
	slog.Info("blog created", "category", model.EventCategoryBlog, "blog_id", b.ID, "status", b.Status)
	return s.Get(ctx, strconv.FormatInt(b.ID, 10), false)
}

// Update changes a blog. A new title does not change an existing slug.
func (s *BlogService) Update(ctx context.Context, id int64, in BlogInput) (*model.Blog, error) {
	if err := s.validate(ctx, &in, false); err != nil {
		return nil, err
	}
	var b model.Blog
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, dbErr(err, "loading blog")
	}
	in.applyTo(&b)
	if b.Status == model.BlogStatusScheduled && b.ScheduledAt == nil {
		return nil, &ValidationError{Fields: map[string]string{"scheduledAt": "is required for scheduled blogs"}}
	}
	if in.Content != nil || in.ContentFormat != nil || in.Excerpt != nil {
		if err := s.render(&b, in.Excerpt != nil); err != nil {
			return nil, err
		}
	}
	s.applyStatus(&b)

	if in.Slug != nil && *in.Slug != b.Slug {
		slug, err := s.resolveSlug(ctx, *in.Slug, b.Title, b.ID)
		if err != nil {
			return nil, dbErr(err, "updating blog")
		}
		b.Slug = slug
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(&b).Error; err != nil {
		return nil, dbErr(err, "updating blog")
	}
	return s.Get(ctx, strconv.FormatInt(b.ID, 10), false)
}

// Delete removes a blog and its recorded views.
func (s *BlogService) Delete(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Blog{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("blog_id = ?", id).Delete(&model.BlogView{}).Error
	})
	return dbErr(err, "deleting blog")
}

// RecordView stores one read of a published blog and bumps its counter.
func (s *BlogService) RecordView(ctx context.Context, id int64, ip, userAgent string) (int64, error) {
	agent := geoip.ParseAgent(userAgent)
	view := model.BlogView{
		BlogID:    id,
		IP:        ip,
		UserAgent: truncate(userAgent, 500),
		Browser:   truncate(agent.Browser, 64),
		OS:        truncate(agent.OS, 64),
		Device:    agent.Device,
	}
	if s.geo != nil {
		view.Country = s.geo.Country(ip)
	}

	var views int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Blog{}).
			Where("id = ? AND status = ?", id, model.BlogStatusPublished).
			UpdateColumn("views", gorm.Expr("views + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Create(&view).Error; err != nil {
			return err
		}
		return tx.Model(&model.Blog{}).Where("id = ?", id).Pluck("views", &views).Error
	})
	return views, dbErr(err, "recording blog view")
}

// truncate cuts s to at most n bytes on a rune boundary. Invalid UTF-8
// is replaced first, since the database rejects it.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Stats counts blogs by status plus total views and authors.
func (s *BlogService) Stats(ctx context.Context) (BlogStats, error) {
	var st BlogStats
	db := s.db.WithContext(ctx)

	var rows []struct {
		Status string
		N      int64
		Views  int64
	}
	if err := db.Model(&model.Blog{}).
		Select("status, COUNT(*) AS n, COALESCE(SUM(views), 0) AS views").
		Group("status").Scan(&rows).Error; err != nil {
		return st, dbErr(err, "counting blogs")
	}
	for _, r := range rows {
		st.Total += r.N
		st.Views += r.Views
		switch r.Status {
		case model.BlogStatusPublished:
			st.Published = r.N
		case model.BlogStatusDraft:
			st.Drafts = r.N
		case model.BlogStatusScheduled:
			st.Scheduled = r.N
		}
	}
	if err := db.Model(&model.BlogAuthor{}).Count(&st.Authors).Error; err != nil {
		return st, dbErr(err, "counting authors")
	}
	return st, nil
}

// PublishDue publishes scheduled blogs whose time has come.
func (s *BlogService) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Blog{}).
		Where("status = ? AND scheduled_at <= ?", model.BlogStatusScheduled, now.UTC()).
		Updates(map[string]any{"status": model.BlogStatusPublished, "published_at": now.UTC()})
	if res.Error != nil {
		return 0, dbErr(res.Error, "publishing scheduled blogs")
	}
	if res.RowsAffected > 0 {
		slog.Info("scheduled blogs published", "category", model.EventCategoryBlog, "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// Latest returns the n most recently published blogs.
func (s *BlogService) Latest(ctx context.Context, n int) ([]model.Blog, error) {
	items := make([]model.Blog, 0, n)
	err := s.db.WithContext(ctx).
		Where("status = ?", model.BlogStatusPublished).
		Order("published_at DESC").Order("id DESC").
		Limit(n).Find(&items).Error
	return items, dbErr(err, "loading latest blogs")
}
