// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/realty-go/internal/cache"
	"github.com/olegiv/realty-go/internal/model"
)

func newContent(t *testing.T) (*testEnv, *ContentService) {
	t.Helper()
	e := newTestEnv(t)
	cm := cache.NewManager(cache.NewSimpleMemoryCache(time.Minute))
	t.Cleanup(func() { _ = cm.Close() })
	return e, NewContentService(e.db, cm, time.Minute)
}

func jsonPatch[T any](body string) func(*T) error {
	return func(v *T) error { return json.Unmarshal([]byte(body), v) }
}

func TestContactInfoDefaultsAndActivation(t *testing.T) {
	e, svc := newContent(t)
	ctx := context.Background()

	info, err := svc.ContactInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultContactInfo().OfficeName, info.OfficeName)

	first, err := svc.CreateContactInfo(ctx, model.ContactInfo{OfficeName: "First Office", Emails: []string{"a@example.com"}})
	require.NoError(t, err)
	info, err = svc.ContactInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "First Office", info.OfficeName, "create invalidates the cache")

	_, err = svc.CreateContactInfo(ctx, model.ContactInfo{OfficeName: "Second Office"})
	require.NoError(t, err)

	var active int64
	require.NoError(t, e.db.Model(&model.ContactInfo{}).Where("is_active = ?", true).Count(&active).Error)
	assert.Equal(t, int64(1), active)

	var old model.ContactInfo
	require.NoError(t, e.db.First(&old, first.ID).Error)
	assert.False(t, old.IsActive)

	updated, err := svc.UpdateContactInfo(ctx, jsonPatch[model.ContactInfo](`{"id": 500, "heroTitle": "Say hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "Second Office", updated.OfficeName)
	assert.Equal(t, "Say hello", updated.HeroTitle)
	assert.NotEqual(t, int64(500), updated.ID)

	_, err = svc.CreateContactInfo(ctx, model.ContactInfo{Emails: []string{"bad"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateContactInfoCreatesWhenMissing(t *testing.T) {
	e, svc := newContent(t)
	info, err := svc.UpdateContactInfo(context.Background(), jsonPatch[model.ContactInfo](`{"city": "Howrah"}`))
	require.NoError(t, err)
	assert.NotZero(t, info.ID)
	assert.Equal(t, "Howrah", info.City)
	assert.True(t, info.IsActive)

	var n int64
	require.NoError(t, e.db.Model(&model.ContactInfo{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestAboutUpsert(t *testing.T) {
	_, svc := newContent(t)
	ctx := context.Background()

	c, err := svc.About(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Our Story", c.StoryTitle)

	_, err = svc.UpsertAbout(ctx, jsonPatch[model.AboutContent](`{"mission": "Build well"}`))
	require.NoError(t, err)
	_, err = svc.UpsertAbout(ctx, jsonPatch[model.AboutContent](`{"vision": "Grow"}`))
	require.NoError(t, err)

	c, err = svc.About(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Build well", c.Mission)
	assert.Equal(t, "Grow", c.Vision)
}

func TestOrderedStoreAppendsAndInvalidates(t *testing.T) {
	_, svc := newContent(t)
	ctx := context.Background()

	list, err := svc.CoreStrengths.Public(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	row := svc.CoreStrengths.New()
	row.Title = "Quality"
	a, err := svc.CoreStrengths.Create(ctx, row)
	require.NoError(t, err)
	row = svc.CoreStrengths.New()
	row.Title = "Trust"
	b, err := svc.CoreStrengths.Create(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Order, "unset order appends")
	assert.Equal(t, 2, b.Order)

	list, err = svc.CoreStrengths.Public(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Quality", list[0].Title)

	_, err = svc.CoreStrengths.Update(ctx, a.ID, jsonPatch[model.CoreStrength](`{"title": "Craft", "order": 9}`))
	require.NoError(t, err)
	list, err = svc.CoreStrengths.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Trust", list[0].Title)
	assert.Equal(t, "Craft", list[1].Title)

	_, err = svc.CoreStrengths.Create(ctx, model.CoreStrength{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.CoreStrengths.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.CoreStrengths.Delete(ctx, a.ID), ErrNotFound)
	list, err = svc.CoreStrengths.Public(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOrderedStoreKeepsGivenOrder(t *testing.T) {
	_, svc := newContent(t)
	ctx := context.Background()

	row := svc.Achievements.New()
	row.Title = "Top Agency"
	row.Order = 7
	a, err := svc.Achievements.Create(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Order)

	row = svc.Achievements.New()
	row.Title = "Next"
	b, err := svc.Achievements.Create(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, 8, b.Order, "unset order goes after the last one")

	first, err := svc.Achievements.Create(ctx, model.Achievement{Title: "First", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Order, "zero is a real position")
}

func TestAchievementDefaultsToActive(t *testing.T) {
	_, svc := newContent(t)
	ctx := context.Background()

	row := svc.Achievements.New()
	assert.True(t, row.IsActive)
	row.Title = "Community Award"
	_, err := svc.Achievements.Create(ctx, row)
	require.NoError(t, err)

	public, err := svc.Achievements.Public(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Community Award", public[0].Title)
}

func TestAchievementsPublicOnlyActive(t *testing.T) {
	_, svc := newContent(t)
	ctx := context.Background()

	_, err := svc.Achievements.Create(ctx, model.Achievement{Title: "Best Builder", IsActive: true})
	require.NoError(t, err)
	_, err = svc.Achievements.Create(ctx, model.Achievement{Title: "Hidden Award"})
	require.NoError(t, err)

	public, err := svc.Achievements.Public(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Best Builder", public[0].Title)

	all, err := svc.Achievements.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAchievementReorderIsAtomic(t *testing.T) {
	_, svc := newContent(t)
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"A", "B", "C"} {
		a, err := svc.Achievements.Create(ctx, model.Achievement{Title: title, IsActive: true})
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	err := svc.Achievements.Reorder(ctx, []int64{ids[2], 999, ids[0]})
	require.ErrorIs(t, err, ErrNotFound)
	all, err := svc.Achievements.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, achievementTitles(all), "failed reorder changes nothing")

	require.NoError(t, svc.Achievements.Reorder(ctx, []int64{ids[2], ids[0], ids[1]}))
	public, err := svc.Achievements.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, achievementTitles(public))
	assert.Equal(t, 0, public[0].Order)

	assert.ErrorIs(t, svc.Achievements.Reorder(ctx, []int64{ids[0], ids[0]}), ErrInvalidInput)
	assert.ErrorIs(t, svc.Achievements.Reorder(ctx, nil), ErrInvalidInput)
}

func achievementTitles(items []model.Achievement) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.Title
	}
	return out
}

func TestAboutUsPage(t *testing.T) {
	e, svc := newContent(t)
	ctx := context.Background()

	page, err := svc.AboutUs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "About Us", page.Info.Title)
	assert.NotZero(t, page.Info.ID, "missing info is created")

	_, err = svc.AboutUsValues.Create(ctx, model.AboutUsValue{Feature: model.Feature{Title: "Integrity"}})
	require.NoError(t, err)
	_, err = svc.TeamMembers.Create(ctx, model.AboutUsTeamMember{Name: "Raj", Role: "Founder"})
	require.NoError(t, err)
	_, err = svc.TeamMembers.Create(ctx, model.AboutUsTeamMember{Name: "X", Email: "bad"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	info, err := svc.UpsertAboutUsInfo(ctx, jsonPatch[model.AboutUsInfo](`{"subtitle": "Since 1998"}`))
	require.NoError(t, err)
	assert.Equal(t, page.Info.ID, info.ID)

	page, err = svc.AboutUs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Since 1998", page.Info.Subtitle)
	assert.Len(t, page.Values, 1)
	assert.Len(t, page.TeamMembers, 1)

	_, err = svc.UpdateAboutUsInfo(ctx, info.ID, jsonPatch[model.AboutUsInfo](`{"title": ""}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateAboutUsInfo(ctx, 999, jsonPatch[model.AboutUsInfo](`{}`))
	assert.ErrorIs(t, err, ErrNotFound)

	var n int64
	require.NoError(t, e.db.Model(&model.AboutUsInfo{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestFutureVisionPage(t *testing.T) {
	_, svc := newContent(t)
	ctx := context.Background()

	page, err := svc.FutureVision(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultFutureVision().VisionText, page.Content.VisionText)

	_, err = svc.UpsertVision(ctx, "Net-zero homes by 2030")
	require.NoError(t, err)
	_, err = svc.FutureGoals.Create(ctx, model.FutureVisionGoal{Feature: model.Feature{Title: "Solar"}})
	require.NoError(t, err)
	_, err = svc.FutureTimeline.Create(ctx, model.FutureVisionTimelineItem{Milestone: model.Milestone{Year: "2030", Title: "Net zero"}})
	require.NoError(t, err)
	_, err = svc.FutureTimeline.Create(ctx, model.FutureVisionTimelineItem{Milestone: model.Milestone{Title: "No year"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	page, err = svc.FutureVision(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Content.ID)
	assert.Equal(t, "Net-zero homes by 2030", page.Content.VisionText)
	assert.Len(t, page.Goals, 1)
	assert.Len(t, page.Timeline, 1)

	_, err = svc.UpsertVision(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
