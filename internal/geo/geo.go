// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geo proxies forward and reverse geocoding to Nominatim and
// nearby point-of-interest queries to the Overpass API.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/olegiv/realty-go/internal/cache"
)

// Defaults for the public endpoints.
const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultOverpassURL  = "https://overpass-api.de/api/interpreter"

	DefaultRadius = 1000  // metres
	MaxRadius     = 10000 // metres

	userAgent = "realty-go/1.0 (+https://github.com/olegiv/realty-go)"
	cacheTTL  = 24 * time.Hour
)

// ErrInvalidCoordinates is returned for latitude/longitude out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Place is a Nominatim result, passed through with Nominatim's field names.
type Place struct {
	PlaceID     int64             `json:"place_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type,omitempty"`
	Address     map[string]string `json:"address,omitempty"`
	BoundingBox []string          `json:"boundingbox,omitempty"`
}

// City picks the most specific settlement name from the address.
func (p *Place) City() string {
	for _, k := range []string{"city", "town", "village", "municipality"} {
		if v := p.Address[k]; v != "" {
			return v
		}
	}
	return ""
}

// POI is a normalised point of interest. Distance is in kilometres.
type POI struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Distance float64 `json:"distance"`
}

type overpassResponse struct {
	Elements []struct {
		Type   string            `json:"type"`
		ID     int64             `json:"id"`
		Lat    float64           `json:"lat"`
		Lon    float64           `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Client talks to Nominatim and Overpass, caching results.
type Client struct {
	http         *resty.Client
	nominatimURL string
	overpassURL  string
	places       *cache.TypedCache[[]Place]
	place        *cache.TypedCache[Place]
	pois         *cache.TypedCache[[]POI]
}

// NewClient creates a geo client. Empty URLs use the public endpoints.
func NewClient(nominatimURL, overpassURL string, c cache.Cacher) *Client {
	if nominatimURL == "" {
		nominatimURL = DefaultNominatimURL
	}
	if overpassURL == "" {
		overpassURL = DefaultOverpassURL
	}
	return &Client{
		http: resty.New().
			SetTimeout(25*time.Second).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json"),
		nominatimURL: strings.TrimRight(nominatimURL, "/"),
		overpassURL:  overpassURL,
		places:       cache.NewTypedCache[[]Place](c, cacheTTL),
		place:        cache.NewTypedCache[Place](c, cacheTTL),
		pois:         cache.NewTypedCache[[]POI](c, cacheTTL),
	}
}

// Search geocodes a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Place{}, nil
	}
	key := cache.Key(cache.NamespaceGeo, "search", strings.ToLower(query))
	res, err := c.places.GetOrSet(ctx, key, func() (*[]Place, error) {
		var places []Place
		r, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"q":              query,
				"format":         "json",
				"addressdetails": "1",
				"limit":          "5",
			}).
			SetResult(&places).
			Get(c.nominatimURL + "/search")
		if err := upstreamErr("nominatim search", r, err); err != nil {
			return nil, err
		}
		if places == nil {
			places = []Place{}
		}
		return &places, nil
	})
	if err != nil {
		return nil, err
	}
	return *res, nil
}

// Reverse resolves coordinates to an address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	if !validCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	key := cache.Key(cache.NamespaceGeo, "reverse", roundCoord(lat), roundCoord(lng))
	return c.place.GetOrSet(ctx, key, func() (*Place, error) {
		var place Place
		r, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"lat":            formatCoord(lat),
				"lon":            formatCoord(lng),
				"format":         "json",
				"addressdetails": "1",
			}).
			SetResult(&place).
			Get(c.nominatimURL + "/reverse")
		if err := upstreamErr("nominatim reverse", r, err); err != nil {
			return nil, err
		}
		return &place, nil
	})
}

// NearbyPOIs returns amenities, leisure places, stations and shops within
// radius metres of the point, nearest first.
func (c *Client) NearbyPOIs(ctx context.Context, lat, lng float64, radius int) ([]POI, error) {
	if !validCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	if radius <= 0 {
		radius = DefaultRadius
	}
	radius = min(radius, MaxRadius)

	key := cache.Key(cache.NamespaceGeo, "pois", roundCoord(lat), roundCoord(lng), radius)
	res, err := c.pois.GetOrSet(ctx, key, func() (*[]POI, error) {
		var raw overpassResponse
		r, err := c.http.R().
			SetContext(ctx).
			SetFormData(map[string]string{"data": overpassQuery(lat, lng, radius)}).
			SetResult(&raw).
			Post(c.overpassURL)
		if err := upstreamErr("overpass", r, err); err != nil {
			return nil, err
		}
		pois := normalizePOIs(raw, lat, lng)
		return &pois, nil
	})
	if err != nil {
		return nil, err
	}
	return *res, nil
}

func overpassQuery(lat, lng float64, radius int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radius, formatCoord(lat), formatCoord(lng))
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, tag := range []string{"amenity", "leisure", "shop"} {
		fmt.Fprintf(&b, "node[%q]%s;", tag, around)
	}
	fmt.Fprintf(&b, "node[\"railway\"=\"station\"]%s;", around)
	b.WriteString(");out center 200;")
	return b.String()
}

var poiTypeTags = []string{"amenity", "leisure", "railway", "shop"}

func normalizePOIs(raw overpassResponse, lat, lng float64) []POI {
	pois := make([]POI, 0, len(raw.Elements))
	for _, el := range raw.Elements {
		pLat, pLng := el.Lat, el.Lon
		if el.Center != nil {
			pLat, pLng = el.Center.Lat, el.Center.Lon
		}

		kind := "other"
		for _, t := range poiTypeTags {
			if v := el.Tags[t]; v != "" {
				kind = v
				break
			}
		}
		name := el.Tags["name"]
		if name == "" {
			name = kind
		}

		pois = append(pois, POI{
			Name:     name,
			Type:     kind,
			Lat:      pLat,
			Lng:      pLng,
			Distance: math.Round(Haversine(lat, lng, pLat, pLng)*1000) / 1000,
		})
	}
	sort.SliceStable(pois, func(i, j int) bool { return pois[i].Distance < pois[j].Distance })
	return pois
}

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lng)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// roundCoord keeps cache keys stable to about 11 metres.
func roundCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func upstreamErr(op string, r *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if r.IsError() {
		return fmt.Errorf("%s: status %d", op, r.StatusCode())
	}
	return nil
}
