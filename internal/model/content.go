// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "gorm.io/datatypes"

// Ordered is implemented by site content rows that are listed by position.
type Ordered interface {
	Position() int
	SetPosition(int)
}

// Feature is a titled card with an icon, used by several marketing sections.
type Feature struct {
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `gorm:"size:100" json:"icon,omitempty"`
	Order       int    `gorm:"column:position;not null;default:0;index" json:"order"`
}

// Position returns the display position.
func (f *Feature) Position() int { return f.Order }

// SetPosition sets the display position.
func (f *Feature) SetPosition(p int) { f.Order = p }

// Milestone is a dated entry on a timeline.
type Milestone struct {
	Year        string `gorm:"size:16;not null" json:"year"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"column:position;not null;default:0;index" json:"order"`
}

// Position returns the display position.
func (m *Milestone) Position() int { return m.Order }

// SetPosition sets the display position.
func (m *Milestone) SetPosition(p int) { m.Order = p }

// ContactInfo holds the office contact details shown on the site.
// Only one row is active at a time.
type ContactInfo struct {
	Base
	PhoneNumbers  datatypes.JSONSlice[string] `json:"phoneNumbers"`
	Emails        datatypes.JSONSlice[string] `json:"emails"`
	BusinessHours datatypes.JSONSlice[string] `json:"businessHours"`
	OfficeName    string                      `gorm:"size:255" json:"officeName"`
	OfficeAddress string                      `gorm:"size:500" json:"officeAddress"`
	City          string                      `gorm:"size:100" json:"city"`
	State         string                      `gorm:"size:100" json:"state"`
	ZipCode       string                      `gorm:"size:20" json:"zipCode"`
	Country       string                      `gorm:"size:100" json:"country"`
	Latitude      float64                     `json:"latitude"`
	Longitude     float64                     `json:"longitude"`
	FacebookURL   string                      `gorm:"size:500" json:"facebookUrl,omitempty"`
	TwitterURL    string                      `gorm:"size:500" json:"twitterUrl,omitempty"`
	InstagramURL  string                      `gorm:"size:500" json:"instagramUrl,omitempty"`
	LinkedinURL   string                      `gorm:"size:500" json:"linkedinUrl,omitempty"`
	YoutubeURL    string                      `gorm:"size:500" json:"youtubeUrl,omitempty"`
	HeroTitle     string                      `gorm:"size:255" json:"heroTitle"`
	HeroSubtitle  string                      `gorm:"size:500" json:"heroSubtitle"`
	IsActive      bool                        `gorm:"not null;index" json:"isActive"`
}

// Achievement is an award or milestone badge.
type Achievement struct {
	Base
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `gorm:"size:100" json:"icon,omitempty"`
	Category    string `gorm:"size:100" json:"category,omitempty"`
	Year        string `gorm:"size:16" json:"year,omitempty"`
	Stats       string `gorm:"size:255" json:"stats,omitempty"`
	Order       int    `gorm:"column:position;not null;default:0;index" json:"order"`
	IsActive    bool   `gorm:"not null;index" json:"isActive"`
}

// Position returns the display position.
func (a *Achievement) Position() int { return a.Order }

// SetPosition sets the display position.
func (a *Achievement) SetPosition(p int) { a.Order = p }

// AboutContent is the single-row story section of the about page.
type AboutContent struct {
	Base
	StoryTitle string `gorm:"size:255" json:"storyTitle"`
	StoryText  string `gorm:"type:text" json:"storyText"`
	Mission    string `gorm:"type:text" json:"mission"`
	Vision     string `gorm:"type:text" json:"vision"`
	HeroImage  string `gorm:"size:1000" json:"heroImage,omitempty"`
}

// AboutTimelineItem is a company history entry.
type AboutTimelineItem struct {
	Base
	Milestone
}

// AboutUsInfo is the header block of the about-us page.
type AboutUsInfo struct {
	Base
	Title       string `gorm:"size:255" json:"title"`
	Subtitle    string `gorm:"size:500" json:"subtitle"`
	Description string `gorm:"type:text" json:"description"`
	Image       string `gorm:"size:1000" json:"image,omitempty"`
	IsActive    bool   `gorm:"not null" json:"isActive"`
}

// AboutUsValue is a company value card.
type AboutUsValue struct {
	Base
	Feature
}

// AboutUsTeamMember is a staff profile.
type AboutUsTeamMember struct {
	Base
	Name     string `gorm:"size:255;not null" json:"name"`
	Role     string `gorm:"size:255" json:"role"`
	Bio      string `gorm:"type:text" json:"bio,omitempty"`
	Image    string `gorm:"size:1000" json:"image,omitempty"`
	Email    string `gorm:"size:255" json:"email,omitempty"`
	Linkedin string `gorm:"size:500" json:"linkedin,omitempty"`
	Order    int    `gorm:"column:position;not null;default:0;index" json:"order"`
}

// Position returns the display position.
func (m *AboutUsTeamMember) Position() int { return m.Order }

// SetPosition sets the display position.
func (m *AboutUsTeamMember) SetPosition(p int) { m.Order = p }

// CoreStrength is a card in the core strengths section.
type CoreStrength struct {
	Base
	Feature
}

// WhyChooseUsReason is a card in the why-choose-us section.
type WhyChooseUsReason struct {
	Base
	Feature
}

// TableName keeps the table name short.
func (WhyChooseUsReason) TableName() string { return "why_choose_us" }

// FutureVisionContent is the single-row vision statement.
type FutureVisionContent struct {
	Base
	VisionText string `gorm:"type:text" json:"visionText"`
}

// FutureVisionGoal is a goal card in the future vision section.
type FutureVisionGoal struct {
	Base
	Feature
}

// FutureVisionTimelineItem is a planned milestone.
type FutureVisionTimelineItem struct {
	Base
	Milestone
}
