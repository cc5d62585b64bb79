// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/realty-go/internal/cache"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = mem.Close() })
	return NewClient(srv.URL, srv.URL+"/interpreter", mem)
}

func TestSearch(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Lisbon", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"place_id":1,"lat":"38.72","lon":"-9.14","display_name":"Lisboa, Portugal","address":{"city":"Lisboa","postcode":"1100"}}]`))
	}))

	places, err := c.Search(context.Background(), "Lisbon")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "38.72", places[0].Lat)
	assert.Equal(t, "Lisboa", places[0].City())

	_, err = c.Search(context.Background(), "lisbon")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second lookup served from cache")
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be called")
	}))
	places, err := c.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestReverse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "38.7", r.URL.Query().Get("lat"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"place_id":9,"lat":"38.7","lon":"-9.1","display_name":"Rua X","address":{"town":"Sintra"}}`))
	}))

	p, err := c.Reverse(context.Background(), 38.7, -9.1)
	require.NoError(t, err)
	assert.Equal(t, "Sintra", p.City())

	_, err = c.Reverse(context.Background(), 91, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestUpstreamError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	_, err := c.Search(context.Background(), "Porto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNearbyPOIs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		q := r.PostForm.Get("data")
		assert.True(t, strings.Contains(q, "around:500,"), q)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":38.71,"lon":-9.14,"tags":{"amenity":"school","name":"Escola"}},
			{"type":"node","id":2,"lat":38.7001,"lon":-9.1001,"tags":{"shop":"bakery"}},
			{"type":"node","id":3,"lat":38.705,"lon":-9.12,"tags":{"railway":"station","name":"Cais"}}
		]}`))
	}))

	pois, err := c.NearbyPOIs(context.Background(), 38.7, -9.1, 500)
	require.NoError(t, err)
	require.Len(t, pois, 3)

	assert.Equal(t, "bakery", pois[0].Type)
	assert.Equal(t, "bakery", pois[0].Name, "falls back to type")
	assert.Equal(t, "station", pois[1].Type)
	assert.Equal(t, "Escola", pois[2].Name)
	for i := 1; i < len(pois); i++ {
		assert.LessOrEqual(t, pois[i-1].Distance, pois[i].Distance)
	}
}

func TestHaversine(t *testing.T) {
	// Lisbon to Porto is roughly 274 km.
	d := Haversine(38.7223, -9.1393, 41.1579, -8.6291)
	assert.InDelta(t, 274, d, 5)
	assert.Zero(t, Haversine(1, 1, 1, 1))
}
