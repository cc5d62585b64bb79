// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// DefaultContactInfo is served until an administrator saves real contact details.
func DefaultContactInfo() ContactInfo {
	return ContactInfo{
		PhoneNumbers:  []string{"+91 9748853901"},
		Emails:        []string{"info@pacificrealty.example"},
		BusinessHours: []string{"Mon - Fri: 9:00 AM - 6:00 PM", "Sat: 10:00 AM - 4:00 PM", "Sun: Closed"},
		OfficeName:    "MG Constructions & Pacific Realty",
		OfficeAddress: "123 Main Street",
		City:          "Kolkata",
		State:         "West Bengal",
		ZipCode:       "700001",
		Country:       "India",
		Latitude:      22.5726,
		Longitude:     88.3639,
		HeroTitle:     "Get in Touch",
		HeroSubtitle:  "We're here to help you find your dream property",
		IsActive:      true,
	}
}

// DefaultAboutContent is served until the about page is edited.
func DefaultAboutContent() AboutContent {
	return AboutContent{
		StoryTitle: "Our Story",
		StoryText:  "For over two decades we have built homes and helped families find the right property.",
		Mission:    "To deliver quality construction and honest real estate advice.",
		Vision:     "To be the most trusted name in residential property in the region.",
	}
}

// DefaultAboutUsInfo is created on first read of the about-us page.
func DefaultAboutUsInfo() AboutUsInfo {
	return AboutUsInfo{
		Title:       "About Us",
		Subtitle:    "Building trust, one home at a time",
		Description: "MG Constructions & Pacific Realty combine construction expertise with real estate experience.",
		IsActive:    true,
	}
}

// DefaultFutureVision is served until the vision statement is edited.
func DefaultFutureVision() FutureVisionContent {
	return FutureVisionContent{
		Base:       Base{ID: 1},
		VisionText: "We are building sustainable communities for the next generation of homeowners.",
	}
}
