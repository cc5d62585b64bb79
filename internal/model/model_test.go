// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestUserFullName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{FirstName: "Ana", LastName: "Silva", Email: "a@x.io"}, "Ana Silva"},
		{User{FirstName: "Ana", Email: "a@x.io"}, "Ana"},
		{User{Email: "a@x.io"}, "a@x.io"},
	}
	for _, tt := range tests {
		if got := tt.user.FullName(); got != tt.want {
			t.Errorf("FullName() = %q, want %q", got, tt.want)
		}
	}
}

func TestUserHasPassword(t *testing.T) {
	empty := ""
	hash := "$2a$12$abc"

	if (&User{}).HasPassword() {
		t.Error("nil hash should not count as a password")
	}
	if (&User{PasswordHash: &empty}).HasPassword() {
		t.Error("empty hash should not count as a password")
	}
	if !(&User{PasswordHash: &hash}).HasPassword() {
		t.Error("expected HasPassword() = true")
	}
}

func TestPropertyEnums(t *testing.T) {
	if !IsValidPropertyType(PropertyTypeVilla) || IsValidPropertyType("castle") {
		t.Error("IsValidPropertyType mismatch")
	}
	if !IsValidPropertyStatus(PropertyStatusForRent) || IsValidPropertyStatus("leased") {
		t.Error("IsValidPropertyStatus mismatch")
	}
	if !IsValidPDFCategory(PDFCategoryInvestmentTips) || IsValidPDFCategory("brochure") {
		t.Error("IsValidPDFCategory mismatch")
	}
	if !IsValidBlogStatus(BlogStatusScheduled) || IsValidBlogStatus("archived") {
		t.Error("IsValidBlogStatus mismatch")
	}
}

func TestNewsletterSubscriberIsActive(t *testing.T) {
	now := time.Now()

	if (&NewsletterSubscriber{}).IsActive() {
		t.Error("unconfirmed subscriber should be inactive")
	}
	if !(&NewsletterSubscriber{ConfirmedAt: &now}).IsActive() {
		t.Error("confirmed subscriber should be active")
	}
	if (&NewsletterSubscriber{ConfirmedAt: &now, UnsubscribedAt: &now}).IsActive() {
		t.Error("unsubscribed subscriber should be inactive")
	}
}

func TestOrderedImplementations(t *testing.T) {
	items := []Ordered{
		&CoreStrength{},
		&AboutTimelineItem{},
		&Achievement{},
		&AboutUsTeamMember{},
	}
	for i, it := range items {
		it.SetPosition(i + 3)
		if it.Position() != i+3 {
			t.Errorf("item %d: Position() = %d, want %d", i, it.Position(), i+3)
		}
	}
}
