// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"gorm.io/datatypes"
)

// Blog statuses.
const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
	BlogStatusScheduled = "scheduled"
)

// Blog content formats.
const (
	ContentFormatHTML     = "html"
	ContentFormatMarkdown = "markdown"
)

// IsValidBlogStatus reports whether s is a known blog status.
func IsValidBlogStatus(s string) bool {
	return s == BlogStatusDraft || s == BlogStatusPublished || s == BlogStatusScheduled
}

// Blog is an article. Content holds the author's source; ContentHTML is the
// sanitised HTML served to readers.
type Blog struct {
	Base
	Title           string                      `gorm:"size:255;not null" json:"title"`
	Slug            string                      `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Content         string                      `gorm:"type:text" json:"content"`
	ContentFormat   string                      `gorm:"size:16;not null;default:html" json:"contentFormat"`
	ContentHTML     string                      `gorm:"type:text" json:"contentHtml"`
	Excerpt         string                      `gorm:"type:text" json:"excerpt"`
	FeaturedImage   string                      `gorm:"size:1000" json:"featuredImage,omitempty"`
	Status          string                      `gorm:"size:16;not null;default:draft;index" json:"status"`
	AuthorID        int64                       `gorm:"not null;index" json:"authorId"`
	Author          *BlogAuthor                 `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
	CategoryID      *int64                      `gorm:"index" json:"categoryId,omitempty"`
	Category        *BlogCategory               `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	MetaTitle       string                      `gorm:"size:255" json:"metaTitle,omitempty"`
	MetaDescription string                      `gorm:"size:500" json:"metaDescription,omitempty"`
	Views           int64                       `gorm:"not null;default:0" json:"views"`
	PublishedAt     *time.Time                  `gorm:"index" json:"publishedAt,omitempty"`
	ScheduledAt     *time.Time                  `gorm:"index" json:"scheduledAt,omitempty"`
}

// IsPublished reports whether the blog is visible to the public.
func (b *Blog) IsPublished() bool {
	return b.Status == BlogStatusPublished
}

// BlogAuthor writes blogs. Deleting an author removes their blogs.
type BlogAuthor struct {
	Base
	Name   string `gorm:"size:255;not null" json:"name"`
	Email  string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Bio    string `gorm:"type:text" json:"bio,omitempty"`
	Avatar string `gorm:"size:1000" json:"avatar,omitempty"`

	BlogCount int64 `gorm:"-:all" json:"blogCount"`
}

// BlogCategory groups blogs.
type BlogCategory struct {
	Base
	Name        string `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Slug        string `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	BlogCount int64 `gorm:"-:all" json:"blogCount"`
}

// BlogView records a single read of a blog.
type BlogView struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlogID    int64     `gorm:"not null;index" json:"blogId"`
	IP        string    `gorm:"size:64" json:"ip"`
	UserAgent string    `gorm:"size:500" json:"userAgent"`
	Browser   string    `gorm:"size:64" json:"browser"`
	OS        string    `gorm:"size:64" json:"os"`
	Device    string    `gorm:"size:16" json:"device"`
	Country   string    `gorm:"size:8" json:"country,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
