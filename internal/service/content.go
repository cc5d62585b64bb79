// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/cache"
	"github.com/olegiv/realty-go/internal/model"
)

// Cached site content pages.
const (
	PageContactInfo  = "contact-info"
	PageAbout        = "about"
	PageAboutUs      = "about-us"
	PageAchievements = "achievements"
	PageStrengths    = "core-strengths"
	PageWhyChooseUs  = "why-choose-us"
	PageFutureVision = "future-vision"
)

// AboutUsPage is the full about-us page.
type AboutUsPage struct {
	Info        model.AboutUsInfo         `json:"info"`
	Values      []model.AboutUsValue      `json:"values"`
	TeamMembers []model.AboutUsTeamMember `json:"teamMembers"`
}

// FutureVisionPage is the full future vision section.
type FutureVisionPage struct {
	Content  model.FutureVisionContent        `json:"content"`
	Goals    []model.FutureVisionGoal         `json:"goals"`
	Timeline []model.FutureVisionTimelineItem `json:"timeline"`
}

// ContentService serves the editable marketing pages of the site.
type ContentService struct {
	db    *gorm.DB
	cache *cache.Manager

	AboutTimeline  *OrderedStore[model.AboutTimelineItem, *model.AboutTimelineItem]
	AboutUsValues  *OrderedStore[model.AboutUsValue, *model.AboutUsValue]
	TeamMembers    *OrderedStore[model.AboutUsTeamMember, *model.AboutUsTeamMember]
	Achievements   *OrderedStore[model.Achievement, *model.Achievement]
	CoreStrengths  *OrderedStore[model.CoreStrength, *model.CoreStrength]
	WhyChooseUs    *OrderedStore[model.WhyChooseUsReason, *model.WhyChooseUsReason]
	FutureGoals    *OrderedStore[model.FutureVisionGoal, *model.FutureVisionGoal]
	FutureTimeline *OrderedStore[model.FutureVisionTimelineItem, *model.FutureVisionTimelineItem]

	contactInfoCache  *cache.TypedCache[model.ContactInfo]
	aboutCache        *cache.TypedCache[model.AboutContent]
	aboutUsCache      *cache.TypedCache[AboutUsPage]
	futureVisionCache *cache.TypedCache[FutureVisionPage]
}

func validateFeature(f *model.Feature) error {
	v := validator{}
	v.check(notBlank(f.Title), "title", "is required")
	v.check(maxLen(f.Title, 255), "title", "is too long")
	v.check(maxLen(f.Icon, 100), "icon", "is too long")
	return v.err()
}

func validateMilestone(m *model.Milestone) error {
	v := validator{}
	v.check(notBlank(m.Year), "year", "is required")
	v.check(maxLen(m.Year, 16), "year", "is too long")
	v.check(notBlank(m.Title), "title", "is required")
	v.check(maxLen(m.Title, 255), "title", "is too long")
	return v.err()
}

// NewContentService creates a ContentService caching public reads for ttl.
func NewContentService(db *gorm.DB, cm *cache.Manager, ttl time.Duration) *ContentService {
	s := &ContentService{
		db:    db,
		cache: cm,

		AboutTimeline: newOrderedStore(db, cm, ttl, PageAbout, "timeline", "timeline item",
			func(t *model.AboutTimelineItem) error { return validateMilestone(&t.Milestone) }),
		AboutUsValues: newOrderedStore(db, cm, ttl, PageAboutUs, "values", "value",
			func(v *model.AboutUsValue) error { return validateFeature(&v.Feature) }),
		TeamMembers: newOrderedStore(db, cm, ttl, PageAboutUs, "team", "team member",
			func(m *model.AboutUsTeamMember) error {
				v := validator{}
				v.check(notBlank(m.Name), "name", "is required")
				v.check(maxLen(m.Name, 255), "name", "is too long")
				v.check(m.Email == "" || isEmail(m.Email), "email", "must be a valid email address")
				return v.err()
			}),
		Achievements: newOrderedStore(db, cm, ttl, PageAchievements, "list", "achievement",
			func(a *model.Achievement) error {
				v := validator{}
				v.check(notBlank(a.Title), "title", "is required")
				v.check(maxLen(a.Title, 255), "title", "is too long")
				v.check(maxLen(a.Year, 16), "year", "is too long")
				return v.err()
			}),
		CoreStrengths: newOrderedStore(db, cm, ttl, PageStrengths, "list", "core strength",
			func(c *model.CoreStrength) error { return validateFeature(&c.Feature) }),
		WhyChooseUs: newOrderedStore(db, cm, ttl, PageWhyChooseUs, "list", "reason",
			func(r *model.WhyChooseUsReason) error { return validateFeature(&r.Feature) }),
		FutureGoals: newOrderedStore(db, cm, ttl, PageFutureVision, "goals", "goal",
			func(g *model.FutureVisionGoal) error { return validateFeature(&g.Feature) }),
		FutureTimeline: newOrderedStore(db, cm, ttl, PageFutureVision, "timeline", "timeline item",
			func(t *model.FutureVisionTimelineItem) error { return validateMilestone(&t.Milestone) }),

		contactInfoCache:  cache.NewTypedCache[model.ContactInfo](cm.Backend(), ttl),
		aboutCache:        cache.NewTypedCache[model.AboutContent](cm.Backend(), ttl),
		aboutUsCache:      cache.NewTypedCache[AboutUsPage](cm.Backend(), ttl),
		futureVisionCache: cache.NewTypedCache[FutureVisionPage](cm.Backend(), ttl),
	}
	s.Achievements.public = func(q *gorm.DB) *gorm.DB { return q.Where("is_active = ?", true) }
	s.Achievements.defaults = func(a *model.Achievement) { a.IsActive = true }
	return s
}

func pageKey(page string) string {
	return cache.Key(cache.NamespaceContent, page, "page")
}

// ContactInfo returns the active contact details, or the defaults when
// none were saved.
func (s *ContentService) ContactInfo(ctx context.Context) (*model.ContactInfo, error) {
	return s.contactInfoCache.GetOrSet(ctx, pageKey(PageContactInfo), func() (*model.ContactInfo, error) {
		var info model.ContactInfo
		err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id DESC").First(&info).Error
		if isNotFound(err) {
			info = model.DefaultContactInfo()
			return &info, nil
		}
		if err != nil {
			return nil, dbErr(err, "loading contact info")
		}
		return &info, nil
	})
}

func validateContactInfo(c *model.ContactInfo) error {
	v := validator{}
	for _, e := range c.Emails {
		v.check(isEmail(e), "emails", "must contain valid email addresses")
	}
	v.check(c.Latitude >= -90 && c.Latitude <= 90, "latitude", "is out of range")
	v.check(c.Longitude >= -180 && c.Longitude <= 180, "longitude", "is out of range")
	return v.err()
}

// CreateContactInfo stores new contact details as the only active record.
func (s *ContentService) CreateContactInfo(ctx context.Context, info model.ContactInfo) (*model.ContactInfo, error) {
	info.Base = model.Base{}
	info.IsActive = true
	if err := validateContactInfo(&info); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ContactInfo{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&info).Error
	})
	if err != nil {
		return nil, dbErr(err, "saving contact info")
	}
	s.cache.InvalidateContent(ctx, PageContactInfo)
	return &info, nil
}

// UpdateContactInfo edits the active contact details, creating them from
// the defaults when none exist.
func (s *ContentService) UpdateContactInfo(ctx context.Context, apply func(*model.ContactInfo) error) (*model.ContactInfo, error) {
	var info model.ContactInfo
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id DESC").First(&info).Error
	switch {
	case isNotFound(err):
		info = model.DefaultContactInfo()
	case err != nil:
		return nil, dbErr(err, "loading contact info")
	}
	orig := info.Base
	if err := apply(&info); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	info.Base.ID, info.Base.CreatedAt = orig.ID, orig.CreatedAt
	info.IsActive = true
	if err := validateContactInfo(&info); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(&info).Error; err != nil {
		return nil, dbErr(err, "saving contact info")
	}
	s.cache.InvalidateContent(ctx, PageContactInfo)
	return &info, nil
}

// About returns the about page story, or the defaults.
func (s *ContentService) About(ctx context.Context) (*model.AboutContent, error) {
	return s.aboutCache.GetOrSet(ctx, pageKey(PageAbout), func() (*model.AboutContent, error) {
		var c model.AboutContent
		err := s.db.WithContext(ctx).Order("id").First(&c).Error
		if isNotFound(err) {
			c = model.DefaultAboutContent()
			return &c, nil
		}
		if err != nil {
			return nil, dbErr(err, "loading about content")
		}
		return &c, nil
	})
}

// UpsertAbout edits the single about page row.
func (s *ContentService) UpsertAbout(ctx context.Context, apply func(*model.AboutContent) error) (*model.AboutContent, error) {
	var c model.AboutContent
	err := s.db.WithContext(ctx).Order("id").First(&c).Error
	switch {
	case isNotFound(err):
		c = model.DefaultAboutContent()
	case err != nil:
		return nil, dbErr(err, "loading about content")
	}
	orig := c.Base
	if err := apply(&c); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	c.Base.ID, c.Base.CreatedAt = orig.ID, orig.CreatedAt
	if err := s.db.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, dbErr(err, "saving about content")
	}
	s.cache.InvalidateContent(ctx, PageAbout)
	return &c, nil
}

// aboutUsInfo returns the active about-us header, creating it with the
// defaults when missing.
func (s *ContentService) aboutUsInfo(ctx context.Context) (*model.AboutUsInfo, error) {
	var info model.AboutUsInfo
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id DESC").First(&info).Error
	if isNotFound(err) {
		info = model.DefaultAboutUsInfo()
		err = s.db.WithContext(ctx).Create(&info).Error
	}
	if err != nil {
		return nil, dbErr(err, "loading about-us info")
	}
	return &info, nil
}

// AboutUs returns the about-us header with its values and team.
func (s *ContentService) AboutUs(ctx context.Context) (*AboutUsPage, error) {
	return s.aboutUsCache.GetOrSet(ctx, pageKey(PageAboutUs), func() (*AboutUsPage, error) {
		info, err := s.aboutUsInfo(ctx)
		if err != nil {
			return nil, err
		}
		values, err := s.AboutUsValues.All(ctx)
		if err != nil {
			return nil, err
		}
		team, err := s.TeamMembers.All(ctx)
		if err != nil {
			return nil, err
		}
		return &AboutUsPage{Info: *info, Values: values, TeamMembers: team}, nil
	})
}

func validateAboutUsInfo(info *model.AboutUsInfo) error {
	v := validator{}
	v.check(notBlank(info.Title), "title", "is required")
	v.check(maxLen(info.Title, 255), "title", "is too long")
	v.check(maxLen(info.Subtitle, 500), "subtitle", "is too long")
	return v.err()
}

// UpsertAboutUsInfo edits the active about-us header, creating it when
// missing.
func (s *ContentService) UpsertAboutUsInfo(ctx context.Context, apply func(*model.AboutUsInfo) error) (*model.AboutUsInfo, error) {
	info, err := s.aboutUsInfo(ctx)
	if err != nil {
		return nil, err
	}
	return s.saveAboutUsInfo(ctx, info, apply)
}

// UpdateAboutUsInfo edits one about-us header by id.
func (s *ContentService) UpdateAboutUsInfo(ctx context.Context, id int64, apply func(*model.AboutUsInfo) error) (*model.AboutUsInfo, error) {
	var info model.AboutUsInfo
	if err := s.db.WithContext(ctx).First(&info, id).Error; err != nil {
		return nil, dbErr(err, "loading about-us info")
	}
	return s.saveAboutUsInfo(ctx, &info, apply)
}

func (s *ContentService) saveAboutUsInfo(ctx context.Context, info *model.AboutUsInfo, apply func(*model.AboutUsInfo) error) (*model.AboutUsInfo, error) {
	orig := info.Base
	if err := apply(info); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	info.Base.ID, info.Base.CreatedAt = orig.ID, orig.CreatedAt
	if err := validateAboutUsInfo(info); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(info).Error; err != nil {
		return nil, dbErr(err, "saving about-us info")
	}
	s.cache.InvalidateContent(ctx, PageAboutUs)
	return info, nil
}

// FutureVision returns the vision statement with its goals and timeline.
func (s *ContentService) FutureVision(ctx context.Context) (*FutureVisionPage, error) {
	return s.futureVisionCache.GetOrSet(ctx, pageKey(PageFutureVision), func() (*FutureVisionPage, error) {
		var content model.FutureVisionContent
		err := s.db.WithContext(ctx).First(&content, 1).Error
		if isNotFound(err) {
			content = model.DefaultFutureVision()
		} else if err != nil {
			return nil, dbErr(err, "loading future vision")
		}
		goals, err := s.FutureGoals.All(ctx)
		if err != nil {
			return nil, err
		}
		timeline, err := s.FutureTimeline.All(ctx)
		if err != nil {
			return nil, err
		}
		return &FutureVisionPage{Content: content, Goals: goals, Timeline: timeline}, nil
	})
}

// UpsertVision edits the vision statement, stored as row 1.
func (s *ContentService) UpsertVision(ctx context.Context, text string) (*model.FutureVisionContent, error) {
	if !notBlank(text) {
		return nil, &ValidationError{Fields: map[string]string{"visionText": "is required"}}
	}
	var c model.FutureVisionContent
	err := s.db.WithContext(ctx).First(&c, 1).Error
	switch {
	case isNotFound(err):
		c = model.FutureVisionContent{Base: model.Base{ID: 1}}
	case err != nil:
		return nil, dbErr(err, "loading future vision")
	}
	c.VisionText = text
	if err := s.db.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, dbErr(err, "saving future vision")
	}
	s.cache.InvalidateContent(ctx, PageFutureVision)
	return &c, nil
}
