// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/realty-go/internal/geoip"
	"github.com/olegiv/realty-go/internal/model"
)

type fixedCountry string

func (c fixedCountry) Country(string) string { return string(c) }

func newBlogEnv(t *testing.T) (*testEnv, *BlogService, *model.BlogAuthor) {
	t.Helper()
	e := newTestEnv(t)
	svc := NewBlogService(e.db, fixedCountry("DE"))
	author, err := svc.CreateAuthor(context.Background(), AuthorInput{Name: ptr("Jane Writer"), Email: ptr("Jane@Example.com")})
	require.NoError(t, err)
	return e, svc, author
}

func createBlog(t *testing.T, svc *BlogService, authorID int64, title, status string) *model.Blog {
	t.Helper()
	in := BlogInput{
		Title:    ptr(title),
		Content:  ptr("<p>Buying a home in <strong>2026</strong> is easier than ever.</p>"),
		AuthorID: &authorID,
		Status:   ptr(status),
	}
	if status == model.BlogStatusScheduled {
		in.ScheduledAt = ptr(time.Now().Add(time.Hour))
	}
	b, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return b
}

func TestBlogCreateDerivesSlugExcerptAndHTML(t *testing.T) {
	_, svc, author := newBlogEnv(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, BlogInput{
		Title:         ptr("Café Guide: Top Spots!"),
		Content:       ptr("# Heading\n\nSome **bold** text <script>alert(1)</script>"),
		ContentFormat: ptr(model.ContentFormatMarkdown),
		AuthorID:      &author.ID,
		Status:        ptr(model.BlogStatusPublished),
		Tags:          &[]string{"guide"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cafe-guide-top-spots", b.Slug)
	assert.Contains(t, b.ContentHTML, "<strong>bold</strong>")
	assert.NotContains(t, b.ContentHTML, "<script>")
	assert.NotEmpty(t, b.Excerpt)
	assert.NotContains(t, b.Excerpt, "<")
	assert.NotNil(t, b.PublishedAt)
	require.NotNil(t, b.Author)
	assert.Equal(t, "jane@example.com", b.Author.Email)

	second, err := svc.Create(ctx, BlogInput{Title: ptr("Café Guide: Top Spots!"), Content: ptr("x"), AuthorID: &author.ID})
	require.NoError(t, err)
	assert.Equal(t, "cafe-guide-top-spots-2", second.Slug)
	assert.Nil(t, second.PublishedAt, "drafts are not published")
}

func TestBlogCreateExplicitSlugConflict(t *testing.T) {
	_, svc, author := newBlogEnv(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, BlogInput{Title: ptr("A"), Slug: ptr("market-update"), Content: ptr("x"), AuthorID: &author.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, BlogInput{Title: ptr("B"), Slug: ptr("market-update"), Content: ptr("y"), AuthorID: &author.ID})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBlogCreateValidation(t *testing.T) {
	_, svc, author := newBlogEnv(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, BlogInput{
		Title: ptr("Later"), Content: ptr("x"), AuthorID: &author.ID,
		Status: ptr(model.BlogStatusScheduled),
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "scheduledAt")

	_, err = svc.Create(ctx, BlogInput{Title: ptr("Orphan"), Content: ptr("x"), AuthorID: ptr(int64(999))})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "authorId")
}

func TestBlogGetHidesDraftsFromPublic(t *testing.T) {
	_, svc, author := newBlogEnv(t)
	ctx := context.Background()
	draft := createBlog(t, svc, author.ID, "Secret Draft", model.BlogStatusDraft)

	_, err := svc.Get(ctx, draft.Slug, true)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, strconv.FormatInt(draft.ID, 10), false)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	got, err = svc.Get(ctx, draft.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestBlogListFilters(t *testing.T) {
	_, svc, author := newBlogEnv(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: ptr("Market News")})
	require.NoError(t, err)
	assert.Equal(t, "market-news", cat.Slug)

	pub := createBlog(t, svc, author.ID, "Rates Are Falling", model.BlogStatusPublished)
	_, err = svc.Update(ctx, pub.ID, BlogInput{CategoryID: &cat.ID, Tags: &[]string{"rates", "finance"}})
	require.NoError(t, err)
	createBlog(t, svc, author.ID, "Staging Tips", model.BlogStatusPublished)
	createBlog(t, svc, author.ID, "Unfinished", model.BlogStatusDraft)
	createBlog(t, svc, author.ID, "Next Week", model.BlogStatusScheduled)

	tests := []struct {
		name   string
		filter BlogFilter
		want   int
	}{
		{"public sees published", BlogFilter{Public: true}, 2},
		{"admin sees all", BlogFilter{}, 4},
		{"admin status", BlogFilter{Status: model.BlogStatusScheduled}, 1},
		{"public ignores status", BlogFilter{Public: true, Status: model.BlogStatusDraft}, 2},
		{"category slug", BlogFilter{Category: "market-news"}, 1},
		{"category id", BlogFilter{CategoryID: &cat.ID}, 1},
		{"author", BlogFilter{AuthorID: &author.ID}, 4},
		{"tag", BlogFilter{Tag: "Rates"}, 1},
		{"tag needs whole word", BlogFilter{Tag: "rate"}, 0},
		{"query", BlogFilter{Query: "staging"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.List(ctx, tt.filter, Paging{})
			require.NoError(t, err)
			assert.Len(t, res.Items, tt.want)
		})
	}
}

func TestBlogUpdateKeepsSlugAndRerenders(t *testing.T) {
	_, svc, author := newBlogEnv(t)
	ctx := context.Background()
	b := createBlog(t, svc, author.ID, "Original Title", model.BlogStatusDraft)

	updated, err := svc.Update(ctx, b.ID, BlogInput{
		Title:   ptr("New Title"),
		Content: ptr("<p>Fresh <em>content</em></p>"),
		Status:  ptr(model.BlogStatusPublished),
	})
	require.NoError(t, err)
	assert.Equal(t, "original-title", updated.Slug)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, "Fresh content", updated.Excerpt)
	assert.NotNil(t, updated.PublishedAt)

	_, err = svc.Update(ctx, 999, BlogInput{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogRecordView(t *testing.T) {
	e, svc, author := newBlogEnv(t)
	ctx := context.Background()
	b := createBlog(t, svc, author.ID, "Popular", model.BlogStatusPublished)

	const chrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	views, err := svc.RecordView(ctx, b.ID, "203.0.113.9", chrome)
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)
	views, err = svc.RecordView(ctx, b.ID, "203.0.113.9", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), views)

	var recorded []model.BlogView
	require.NoError(t, e.db.Order("id").Find(&recorded).Error)
	require.Len(t, recorded, 2)
	assert.Equal(t, "Chrome", recorded[0].Browser)
	assert.Equal(t, geoip.DeviceDesktop, recorded[0].Device)
	assert.Equal(t, "DE", recorded[0].Country)
	assert.Equal(t, geoip.DeviceUnknown, recorded[1].Device)

	draft := createBlog(t, svc, author.ID, "Hidden", model.BlogStatusDraft)
	_, err = svc.RecordView(ctx, draft.ID, "203.0.113.9", chrome)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcd", 2))
	// "é" is two bytes; cutting inside it drops the whole rune.
	assert.Equal(t, "caf", truncate("café", 4))
	assert.Equal(t, "café", truncate("café", 5))
	assert.True(t, utf8.ValidString(truncate("a\xffb", 10)))
}

func TestBlogRecordViewLongMultibyteAgent(t *testing.T) {
	e, svc, author := newBlogEnv(t)
	ctx := context.Background()
	b := createBlog(t, svc, author.ID, "Global", model.BlogStatusPublished)

	ua := "Mozilla/5.0 " + strings.Repeat("日本", 200)
	_, err := svc.RecordView(ctx, b.ID, "203.0.113.9", ua)
	require.NoError(t, err)

	var v model.BlogView
	require.NoError(t, e.db.First(&v).Error)
	assert.LessOrEqual(t, len(v.UserAgent), 500)
	assert.True(t, utf8.ValidString(v.UserAgent))
}

func TestBlogStatsAndPublishDue(t *testing.T) {
	e, svc, author := newBlogEnv(t)
	ctx := context.Background()
	createBlog(t, svc, author.ID, "One", model.BlogStatusPublished)
	createBlog(t, svc, author.ID, "Two", model.BlogStatusDraft)
	sched := createBlog(t, svc, author.ID, "Three", model.BlogStatusScheduled)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, BlogStats{Total: 3, Authors: 1, Published: 1, Drafts: 1, Scheduled: 1}, st)

	n, err := svc.PublishDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n, "not yet due")

	n, err = svc.PublishDue(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var got model.Blog
	require.NoError(t, e.db.First(&got, sched.ID).Error)
	assert.Equal(t, model.BlogStatusPublished, got.Status)
	assert.NotNil(t, got.PublishedAt)

	latest, err := svc.Latest(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, latest, 2)
}

func TestBlogAuthorsAndCategories(t *testing.T) {
	e, svc, author := newBlogEnv(t)
	ctx := context.Background()

	_, err := svc.CreateAuthor(ctx, AuthorInput{Name: ptr("Dup"), Email: ptr("jane@example.com")})
	assert.ErrorIs(t, err, ErrConflict)

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: ptr("Guides")})
	require.NoError(t, err)
	b := createBlog(t, svc, author.ID, "Guide One", model.BlogStatusPublished)
	_, err = svc.Update(ctx, b.ID, BlogInput{CategoryID: &cat.ID})
	require.NoError(t, err)
	_, err = svc.RecordView(ctx, b.ID, "198.51.100.1", "")
	require.NoError(t, err)

	authors, err := svc.ListAuthors(ctx)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, int64(1), authors[0].BlogCount)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, int64(1), cats[0].BlogCount)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	got, err := svc.Get(ctx, b.Slug, false)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	require.NoError(t, svc.DeleteAuthor(ctx, author.ID))
	var blogs, views int64
	require.NoError(t, e.db.Model(&model.Blog{}).Count(&blogs).Error)
	require.NoError(t, e.db.Model(&model.BlogView{}).Count(&views).Error)
	assert.Zero(t, blogs)
	assert.Zero(t, views)

	assert.ErrorIs(t, svc.DeleteAuthor(ctx, author.ID), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, cat.ID), ErrNotFound)
}
