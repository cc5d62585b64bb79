// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/testutil"
)

func TestEventServiceLogAndList(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db)
	ctx := context.Background()
	uid := int64(3)

	require.NoError(t, svc.LogInfo(ctx, model.EventCategoryAuth, "login ok", &uid, "10.0.0.1", map[string]any{"email": "a@x.io"}))
	require.NoError(t, svc.LogWarning(ctx, model.EventCategoryAuth, "login failed", nil, "10.0.0.2", nil))
	require.NoError(t, svc.LogInfo(ctx, model.EventCategoryBlog, "blog published", nil, "", nil))

	all, err := svc.List(ctx, EventFilter{}, Paging{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)
	assert.Equal(t, "blog published", all.Items[0].Message)

	warn, err := svc.List(ctx, EventFilter{Level: model.EventLevelWarning}, Paging{})
	require.NoError(t, err)
	require.Len(t, warn.Items, 1)
	assert.Equal(t, "10.0.0.2", warn.Items[0].IPAddress)

	auth, err := svc.List(ctx, EventFilter{Category: model.EventCategoryAuth}, Paging{Page: 1, PerPage: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, auth.Total)
	assert.Len(t, auth.Items, 1)
	assert.Equal(t, 2, auth.Pages())
}

func TestEventServiceDeleteOlderThan(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db)
	ctx := context.Background()

	old := model.Event{Level: model.EventLevelInfo, Category: model.EventCategorySystem, Message: "old", CreatedAt: time.Now().Add(-100 * 24 * time.Hour)}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, svc.LogInfo(ctx, model.EventCategorySystem, "fresh", nil, "", nil))

	n, err := svc.DeleteOlderThan(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var left []model.Event
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].Message)
}
