// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/util"
)

// AuthorInput is the body of an author create or update.
type AuthorInput struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

// CategoryInput is the body of a category create or update.
type CategoryInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

type blogCount struct {
	OwnerID int64
	N       int64
}

func (s *BlogService) countBlogsBy(ctx context.Context, col string) (map[int64]int64, error) {
	var rows []blogCount
	err := s.db.WithContext(ctx).Model(&model.Blog{}).
		Select(col + " AS owner_id, COUNT(*) AS n").
		Where(col + " IS NOT NULL").
		Group(col).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		out[r.OwnerID] = r.N
	}
	return out, nil
}

// ListAuthors returns all authors by name with their blog counts.
func (s *BlogService) ListAuthors(ctx context.Context) ([]model.BlogAuthor, error) {
	authors := make([]model.BlogAuthor, 0)
	if err := s.db.WithContext(ctx).Order("name").Find(&authors).Error; err != nil {
		return nil, dbErr(err, "listing authors")
	}
	counts, err := s.countBlogsBy(ctx, "author_id")
	if err != nil {
		return nil, dbErr(err, "counting blogs per author")
	}
	for i := range authors {
		authors[i].BlogCount = counts[authors[i].ID]
	}
	return authors, nil
}

// GetAuthor loads one author with their blog count.
func (s *BlogService) GetAuthor(ctx context.Context, id int64) (*model.BlogAuthor, error) {
	var a model.BlogAuthor
	db := s.db.WithContext(ctx)
	if err := db.First(&a, id).Error; err != nil {
		return nil, dbErr(err, "loading author")
	}
	if err := db.Model(&model.Blog{}).Where("author_id = ?", id).Count(&a.BlogCount).Error; err != nil {
		return nil, dbErr(err, "counting author blogs")
	}
	return &a, nil
}

func validateAuthor(in *AuthorInput, create bool) error {
	v := validator{}
	if create {
		v.check(in.Name != nil, "name", "is required")
		v.check(in.Email != nil, "email", "is required")
	}
	if in.Name != nil {
		v.check(notBlank(*in.Name), "name", "is required")
		v.check(maxLen(*in.Name, 255), "name", "is too long")
	}
	if in.Email != nil {
		v.check(isEmail(*in.Email), "email", "must be a valid email address")
	}
	return v.err()
}

func (in *AuthorInput) applyTo(a *model.BlogAuthor) {
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		a.Email = normalizeEmail(*in.Email)
	}
	if in.Bio != nil {
		a.Bio = *in.Bio
	}
	if in.Avatar != nil {
		a.Avatar = *in.Avatar
	}
}

// CreateAuthor adds an author. A duplicate email is a conflict.
func (s *BlogService) CreateAuthor(ctx context.Context, in AuthorInput) (*model.BlogAuthor, error) {
	if err := validateAuthor(&in, true); err != nil {
		return nil, err
	}
	var a model.BlogAuthor
	in.applyTo(&a)
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, dbErr(err, "creating author")
	}
	return &a, nil
}

// UpdateAuthor changes an author.
func (s *BlogService) UpdateAuthor(ctx context.Context, id int64, in AuthorInput) (*model.BlogAuthor, error) {
	if err := validateAuthor(&in, false); err != nil {
		return nil, err
	}
	var a model.BlogAuthor
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, dbErr(err, "loading author")
	}
	in.applyTo(&a)
	if err := s.db.WithContext(ctx).Save(&a).Error; err != nil {
		return nil, dbErr(err, "updating author")
	}
	return s.GetAuthor(ctx, id)
}

// DeleteAuthor removes an author together with their blogs.
func (s *BlogService) DeleteAuthor(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&model.BlogAuthor{}, id).Error; err != nil {
			return err
		}
		blogIDs := tx.Model(&model.Blog{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("blog_id IN (?)", blogIDs).Delete(&model.BlogView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&model.Blog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.BlogAuthor{}, id).Error
	})
	return dbErr(err, "deleting author")
}

// ListCategories returns all categories by name with their blog counts.
func (s *BlogService) ListCategories(ctx context.Context) ([]model.BlogCategory, error) {
	cats := make([]model.BlogCategory, 0)
	if err := s.db.WithContext(ctx).Order("name").Find(&cats).Error; err != nil {
		return nil, dbErr(err, "listing categories")
	}
	counts, err := s.countBlogsBy(ctx, "category_id")
	if err != nil {
		return nil, dbErr(err, "counting blogs per category")
	}
	for i := range cats {
		cats[i].BlogCount = counts[cats[i].ID]
	}
	return cats, nil
}

// GetCategory loads one category.
func (s *BlogService) GetCategory(ctx context.Context, id int64) (*model.BlogCategory, error) {
	var c model.BlogCategory
	db := s.db.WithContext(ctx)
	if err := db.First(&c, id).Error; err != nil {
		return nil, dbErr(err, "loading category")
	}
	if err := db.Model(&model.Blog{}).Where("category_id = ?", id).Count(&c.BlogCount).Error; err != nil {
		return nil, dbErr(err, "counting category blogs")
	}
	return &c, nil
}

func validateCategory(in *CategoryInput, create bool) error {
	v := validator{}
	if create {
		v.check(in.Name != nil, "name", "is required")
	}
	if in.Name != nil {
		v.check(notBlank(*in.Name), "name", "is required")
		v.check(maxLen(*in.Name, 255), "name", "is too long")
	}
	if in.Slug != nil && *in.Slug != "" {
		v.check(util.IsValidSlug(*in.Slug), "slug", "may contain lowercase letters, digits and single hyphens only")
	}
	return v.err()
}

func (in *CategoryInput) applyTo(c *model.BlogCategory) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil && *in.Slug != "" {
		c.Slug = *in.Slug
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if c.Slug == "" {
		c.Slug = util.Slugify(c.Name)
	}
}

// CreateCategory adds a category. Name and slug must be unique.
func (s *BlogService) CreateCategory(ctx context.Context, in CategoryInput) (*model.BlogCategory, error) {
	if err := validateCategory(&in, true); err != nil {
		return nil, err
	}
	var c model.BlogCategory
	in.applyTo(&c)
	if c.Slug == "" {
		return nil, &ValidationError{Fields: map[string]string{"slug": "cannot be derived from the name"}}
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, dbErr(err, "creating category")
	}
	return &c, nil
}

// UpdateCategory changes a category.
func (s *BlogService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*model.BlogCategory, error) {
	if err := validateCategory(&in, false); err != nil {
		return nil, err
	}
	var c model.BlogCategory
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, dbErr(err, "loading category")
	}
	in.applyTo(&c)
	if err := s.db.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, dbErr(err, "updating category")
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category and detaches its blogs.
func (s *BlogService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&model.BlogCategory{}, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Blog{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.BlogCategory{}, id).Error
	})
	return dbErr(err, "deleting category")
}
