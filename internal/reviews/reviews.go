// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package reviews fetches Google Places reviews and shapes them as site
// testimonials, falling back to a static set when Google is unavailable.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/olegiv/realty-go/internal/cache"
)

// DefaultBaseURL is the Google Places REST root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Sources reported in Testimonials.Source.
const (
	SourceGoogle   = "Google Places API"
	SourceFallback = "fallback"
)

const cacheTTL = time.Hour

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("google places api key not configured")

// Testimonial is a review as shown on the site.
type Testimonial struct {
	ID                      int    `json:"id"`
	Name                    string `json:"name"`
	Role                    string `json:"role"`
	Image                   string `json:"image"`
	Quote                   string `json:"quote"`
	Rating                  int    `json:"rating"`
	Location                string `json:"location"`
	Time                    int64  `json:"time,omitempty"`
	RelativeTimeDescription string `json:"relative_time_description,omitempty"`
}

// Testimonials is the /reviews/google payload.
type Testimonials struct {
	Reviews       []Testimonial `json:"reviews"`
	OverallRating float64       `json:"overall_rating"`
	TotalRatings  int           `json:"total_ratings"`
	Source        string        `json:"source"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
		Reviews          []struct {
			AuthorName              string `json:"author_name"`
			ProfilePhotoURL         string `json:"profile_photo_url"`
			Rating                  int    `json:"rating"`
			Text                    string `json:"text"`
			Time                    int64  `json:"time"`
			RelativeTimeDescription string `json:"relative_time_description"`
		} `json:"reviews"`
	} `json:"result"`
}

// Candidate is a find-place result.
type Candidate struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
}

// FindPlaceResult is the find-place payload.
type FindPlaceResult struct {
	Candidates []Candidate `json:"candidates"`
	Status     string      `json:"status"`
}

// Client queries Google Places.
type Client struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	placeID string
	cache   *cache.TypedCache[Testimonials]
}

// NewClient creates a reviews client. An empty apiKey makes Testimonials
// serve the fallback set.
func NewClient(baseURL, apiKey, placeID string, c cache.Cacher) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    resty.New().SetTimeout(15 * time.Second),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		placeID: placeID,
		cache:   cache.NewTypedCache[Testimonials](c, cacheTTL),
	}
}

// Testimonials returns Google reviews for the configured place, cached for
// an hour. Any failure yields the fallback set, which is not cached.
func (c *Client) Testimonials(ctx context.Context) *Testimonials {
	if c.apiKey == "" || c.placeID == "" {
		return Fallback()
	}

	key := cache.Key(cache.NamespaceReviews, "google", c.placeID)
	t, err := c.cache.GetOrSet(ctx, key, func() (*Testimonials, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		slog.Warn("google reviews unavailable, serving fallback", "error", err)
		return Fallback()
	}
	return t
}

func (c *Client) fetch(ctx context.Context) (*Testimonials, error) {
	var resp detailsResponse
	r, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"place_id": c.placeID,
			"fields":   "reviews,rating,user_ratings_total",
			"key":      c.apiKey,
		}).
		SetResult(&resp).
		Get(c.baseURL + "/details/json")
	if err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}
	if r.IsError() {
		return nil, fmt.Errorf("place details: status %d", r.StatusCode())
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("place details: %s %s", resp.Status, resp.ErrorMessage)
	}

	out := &Testimonials{
		Reviews:       make([]Testimonial, 0, len(resp.Result.Reviews)),
		OverallRating: resp.Result.Rating,
		TotalRatings:  resp.Result.UserRatingsTotal,
		Source:        SourceGoogle,
	}
	for i, rv := range resp.Result.Reviews {
		image := rv.ProfilePhotoURL
		if image == "" {
			image = defaultAvatar
		}
		out.Reviews = append(out.Reviews, Testimonial{
			ID:                      i + 1,
			Name:                    rv.AuthorName,
			Role:                    "Google Reviewer",
			Image:                   image,
			Quote:                   rv.Text,
			Rating:                  rv.Rating,
			Location:                "Verified Google Review",
			Time:                    rv.Time,
			RelativeTimeDescription: rv.RelativeTimeDescription,
		})
	}
	return out, nil
}

// FindPlace looks up place IDs for a business name and optional location.
func (c *Client) FindPlace(ctx context.Context, business, location string) (*FindPlaceResult, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	input := strings.TrimSpace(business + " " + location)

	var res FindPlaceResult
	r, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"input":     input,
			"inputtype": "textquery",
			"fields":    "place_id,name,formatted_address",
			"key":       c.apiKey,
		}).
		SetResult(&res).
		Get(c.baseURL + "/findplacefromtext/json")
	if err != nil {
		return nil, fmt.Errorf("find place: %w", err)
	}
	if r.IsError() {
		return nil, fmt.Errorf("find place: status %d", r.StatusCode())
	}
	return &res, nil
}
