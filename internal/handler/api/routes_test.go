// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/realty-go/internal/cache"
	"github.com/olegiv/realty-go/internal/geo"
	"github.com/olegiv/realty-go/internal/media"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/reviews"
	"github.com/olegiv/realty-go/internal/service"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestPropertyCRUD(t *testing.T) {
	s := newTestServer(t)

	body := map[string]any{
		"title":    "Hillside Villa",
		"type":     model.PropertyTypeVilla,
		"status":   model.PropertyStatusForSale,
		"price":    850000,
		"bedrooms": 4,
		"location": map[string]any{"address": "1 Ocean Rd", "city": "Auckland", "latitude": -36.85, "longitude": 174.76},
		"images":   []map[string]any{{"url": "https://img.test/1.jpg"}},
	}
	w := s.do(http.MethodPost, "/properties", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/properties", body, adminKey)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decodeData[model.Property](t, w)
	require.NotZero(t, p.ID)

	w = s.do(http.MethodGet, "/properties?city=auckland&bedrooms=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 1, env.Meta["total"])

	w = s.do(http.MethodGet, "/properties?minPrice=900000", nil)
	assert.Equal(t, 0, decodeEnvelope(t, w).Meta["total"])

	w = s.do(http.MethodPut, "/properties/"+itoa(p.ID), map[string]any{"price": 800000}, adminKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 800000, decodeData[model.Property](t, w).Price, 0.01)

	w = s.do(http.MethodPost, "/properties", map[string]any{"title": "No type"}, adminKey)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeEnvelope(t, w).Error.Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/properties/"+itoa(p.ID), nil, adminKey).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/properties/"+itoa(p.ID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/properties/abc", nil).Code)
}

func TestGeocodeProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"place_id":1,"lat":"-36.8","lon":"174.7","display_name":"Auckland"}]`))
	}))
	t.Cleanup(upstream.Close)

	s := newTestServer(t, func(d *Deps) {
		d.Geo = geo.NewClient(upstream.URL, upstream.URL, cache.NewSimpleMemoryCache(time.Minute))
	})

	w := s.do(http.MethodGet, "/properties/geocode/search/auckland", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	places := decodeData[[]geo.Place](t, w)
	require.Len(t, places, 1)
	assert.Equal(t, "Auckland", places[0].DisplayName)

	w = s.do(http.MethodGet, "/properties/geocode/reverse/95/10", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/properties/pois/fetch", map[string]any{"lng": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeocodeUpstreamFailure(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/properties/geocode/search/anywhere", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestBlogVisibility(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/blogs/authors", map[string]any{"name": "Ana Writer"}, adminKey)
	require.Equal(t, http.StatusBadRequest, w.Code, "author email is required")
	assert.Contains(t, w.Body.String(), `"email"`)

	w = s.do(http.MethodPost, "/blogs/authors", map[string]any{"name": "Ana Writer", "email": "ana@example.com"}, adminKey)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	author := decodeData[model.BlogAuthor](t, w)

	w = s.do(http.MethodPost, "/blogs", map[string]any{
		"title": "Market Update", "content": "<p>Prices rose.</p>", "authorId": author.ID, "status": model.BlogStatusDraft,
	}, adminKey)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decodeData[model.Blog](t, w)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/blogs/"+draft.Slug, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/blogs/"+draft.Slug, nil, adminKey).Code)

	w = s.do(http.MethodGet, "/blogs", nil)
	assert.Equal(t, 0, decodeEnvelope(t, w).Meta["total"])
	w = s.do(http.MethodGet, "/blogs?status=draft", nil, adminKey)
	assert.Equal(t, 1, decodeEnvelope(t, w).Meta["total"])

	w = s.do(http.MethodPut, "/blogs/"+itoa(draft.ID), map[string]any{"status": model.BlogStatusPublished}, adminKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/blogs/"+itoa(draft.ID)+"/view", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), decodeData[viewResult](t, w).Views)

	w = s.do(http.MethodPost, "/blogs", map[string]any{
		"title": "Another", "slug": draft.Slug, "content": "x", "authorId": author.ID,
	}, adminKey)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLeadLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/contact", map[string]any{"name": "Kim", "email": "kim@example.com", "message": "Hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lead := decodeData[model.ContactForm](t, w)
	assert.Equal(t, model.ContactStatusNew, lead.Status)
	path := "/contact/" + itoa(lead.ID)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/contact", nil).Code)

	w = s.do(http.MethodPatch, path+"/status", statusRequest{Status: "archived"}, adminKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, path+"/status", statusRequest{Status: model.ContactStatusRead}, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ContactStatusRead, decodeData[model.ContactForm](t, w).Status)

	w = s.do(http.MethodPut, path, map[string]any{"phone": "+64 21 000"}, adminKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[model.ContactForm](t, w)
	assert.Equal(t, "+64 21 000", updated.Phone)
	assert.Equal(t, "Kim", updated.Name)
	assert.Equal(t, lead.ID, updated.ID)

	w = s.do(http.MethodGet, "/contact/stats", nil, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeData[service.LeadStats](t, w)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[model.ContactStatusRead])

	w = s.do(http.MethodGet, "/admin/exports/contacts.xlsx", nil, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/admin/exports/users.xlsx", nil, adminKey).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, path, nil, adminKey).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, nil, adminKey).Code)
}

func TestNewsletterSubscribeAndConfirm(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/newsletter/subscribe", subscribeRequest{Email: "reader@example.com", FirstName: "Rae"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sub := decodeData[subscribeResponse](t, w).Subscriber
	require.NotNil(t, sub)

	var stored model.NewsletterSubscriber
	require.NoError(t, s.db.First(&stored, sub.ID).Error)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/newsletter/confirm?token=nope", nil).Code)
	w = s.do(http.MethodGet, "/newsletter/confirm?token="+stored.ConfirmToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/newsletter/send", map[string]any{"subject": "News", "markdown": "# Hi"}, adminKey)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeData[service.SendResult](t, w).Recipients)
}

func TestAchievementsReorder(t *testing.T) {
	s := newTestServer(t)

	var ids []int64
	for _, title := range []string{"First", "Second", "Third"} {
		w := s.do(http.MethodPost, "/achievements", map[string]any{"title": title, "isActive": true}, adminKey)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decodeData[model.Achievement](t, w).ID)
	}

	w := s.do(http.MethodPost, "/achievements/reorder", reorderRequest{IDs: []int64{ids[2], ids[0], 9999}}, adminKey)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/achievements/reorder", reorderRequest{IDs: []int64{ids[2], ids[0], ids[1]}}, adminKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/achievements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeData[[]model.Achievement](t, w)
	require.Len(t, items, 3)
	assert.Equal(t, "Third", items[0].Title)
	assert.Equal(t, "First", items[1].Title)

	w = s.do(http.MethodPut, "/achievements/"+itoa(ids[1]), map[string]any{"isActive": false}, adminKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/achievements", nil)
	assert.Len(t, decodeData[[]model.Achievement](t, w), 2)
	w = s.do(http.MethodGet, "/achievements/all", nil, adminKey)
	assert.Len(t, decodeData[[]model.Achievement](t, w), 3)
}

func TestAchievementCreateDefaults(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/achievements", map[string]any{"title": "Top Agency", "order": 7}, adminKey)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := decodeData[model.Achievement](t, w)
	assert.Equal(t, 7, a.Order)
	assert.True(t, a.IsActive)

	w = s.do(http.MethodPost, "/achievements", map[string]any{"title": "Hidden", "isActive": false}, adminKey)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 8, decodeData[model.Achievement](t, w).Order)

	w = s.do(http.MethodGet, "/achievements", nil)
	items := decodeData[[]model.Achievement](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, "Top Agency", items[0].Title)
}

func TestSiteContentDefaults(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/contact-info", "/about", "/about-us", "/future-vision", "/core-strengths", "/why-choose-us"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, nil).Code)
		})
	}

	w := s.do(http.MethodPut, "/future-vision/content", visionRequest{VisionText: "Homes for everyone"}, adminKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/future-vision", nil)
	assert.Equal(t, "Homes for everyone", decodeData[service.FutureVisionPage](t, w).Content.VisionText)
}

func multipartBody(t *testing.T, field string, files map[string][]byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) upload(path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	adminKey(req)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadImageLocally(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, "image", map[string][]byte{"house.png": pngBytes(t)}, nil)
	w := s.upload("/upload/image", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	img := decodeData[media.Image](t, w)
	assert.Equal(t, 8, img.Width)
	assert.NotEmpty(t, img.PublicID)

	w = s.do(http.MethodDelete, "/upload/"+img.PublicID, nil, adminKey)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body, ct = multipartBody(t, "image", map[string][]byte{"notes.txt": []byte("hello")}, nil)
	w = s.upload("/upload/image", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPDFUploadAndDownload(t *testing.T) {
	s := newTestServer(t)

	pdf := []byte("%PDF-1.4\n%test\n")
	body, ct := multipartBody(t, "file", map[string][]byte{"buyer guide.pdf": pdf},
		map[string]string{"name": "Buyer Guide", "category": model.PDFCategoryPropertyGuide})
	w := s.upload("/pdfs/upload", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	stored := decodeData[model.MarketingPDF](t, w)

	w = s.do(http.MethodGet, "/pdfs/download/"+itoa(stored.ID), nil, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, pdf, w.Body.Bytes())

	body, ct = multipartBody(t, "file", map[string][]byte{"fake.pdf": []byte("not a pdf")}, nil)
	assert.Equal(t, http.StatusBadRequest, s.upload("/pdfs/upload", body, ct).Code)

	w = s.do(http.MethodGet, "/pdfs/list?category="+model.PDFCategoryPropertyGuide, nil, adminKey)
	assert.Len(t, decodeData[[]model.MarketingPDF](t, w), 1)
}

func TestReviewsFallback(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/reviews/google", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fallback", decodeData[reviews.Testimonials](t, w).Source)

	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/reviews/find-place-id?query=realty", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/reviews/find-place-id", nil).Code)
}

func TestMarketingBlastAndEvents(t *testing.T) {
	s := newTestServer(t)
	s.createUser("buyer@example.com", "password123", model.RoleUser)
	_, admin := s.createUser("boss@example.com", "password123", model.RoleAdmin)

	w := s.do(http.MethodPost, "/marketing/send-other-all", service.BlastInput{}, bearer(admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/marketing/send-other-all", service.BlastInput{Subject: "Hi", Message: "Open day"}, bearer(admin))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	// every verified account, admins included
	assert.Equal(t, 2, decodeData[blastResult](t, w).Recipients)

	w = s.do(http.MethodGet, "/admin/events?category="+model.EventCategoryMarketing, nil, bearer(admin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeEnvelope(t, w).Meta["total"])

	w = s.do(http.MethodGet, "/marketing/user-count", nil, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decodeData[service.UserCount](t, w).Total)
}
