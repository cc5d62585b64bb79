// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST handlers of the realty backend.
package api

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/geo"
	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/media"
	"github.com/olegiv/realty-go/internal/middleware"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/reviews"
	"github.com/olegiv/realty-go/internal/service"
	"github.com/olegiv/realty-go/internal/util"
)

// Deps lists everything the handlers use. Google may be nil when sign-in
// with Google is not configured.
type Deps struct {
	Auth       *service.AuthService
	Properties *service.PropertyService
	Blogs      *service.BlogService
	Contacts   *service.LeadService[model.ContactForm]
	Visits     *service.LeadService[model.ScheduleVisit]
	VideoChats *service.LeadService[model.VideoChat]
	Newsletter *service.NewsletterService
	Marketing  *service.MarketingService
	PDFs       *service.PDFService
	Content    *service.ContentService
	Stats      *service.StatsService
	Events     *service.EventService

	Media   *media.Service
	Geo     *geo.Client
	Reviews *reviews.Client

	Google          *auth.GoogleOAuth
	Sessions        *scs.SessionManager
	LoginProtection *middleware.LoginProtection

	FrontendURL string
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	auth       *service.AuthService
	properties *service.PropertyService
	blogs      *service.BlogService
	contacts   *service.LeadService[model.ContactForm]
	visits     *service.LeadService[model.ScheduleVisit]
	videoChats *service.LeadService[model.VideoChat]
	newsletter *service.NewsletterService
	marketing  *service.MarketingService
	pdfs       *service.PDFService
	content    *service.ContentService
	stats      *service.StatsService
	events     *service.EventService

	media   *media.Service
	geo     *geo.Client
	reviews *reviews.Client

	google      *auth.GoogleOAuth
	sessions    *scs.SessionManager
	loginGuard  *middleware.LoginProtection
	frontendURL string
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	lp := d.LoginProtection
	if lp == nil {
		lp = middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	}
	return &Handler{
		auth:        d.Auth,
		properties:  d.Properties,
		blogs:       d.Blogs,
		contacts:    d.Contacts,
		visits:      d.Visits,
		videoChats:  d.VideoChats,
		newsletter:  d.Newsletter,
		marketing:   d.Marketing,
		pdfs:        d.PDFs,
		content:     d.Content,
		stats:       d.Stats,
		events:      d.Events,
		media:       d.Media,
		geo:         d.Geo,
		reviews:     d.Reviews,
		google:      d.Google,
		sessions:    d.Sessions,
		loginGuard:  lp,
		frontendURL: d.FrontendURL,
	}
}

// message is the body of responses that only confirm an action.
type message struct {
	Message string `json:"message"`
}

// idParam parses {id}, writing a 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := handler.ParseInt64Param(r, name)
	if err != nil {
		handler.WriteBadRequest(w, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// decode reads a JSON body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := handler.DecodeJSON(w, r, v); err != nil {
		handler.WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// respond writes data on success or maps err.
func respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	handler.WriteSuccess(w, data, nil)
}

// created writes data with 201 on success or maps err.
func created(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	handler.WriteCreated(w, data)
}

// deleted confirms a delete or maps err.
func deleted(w http.ResponseWriter, r *http.Request, noun string, err error) {
	respond(w, r, message{Message: noun + " deleted"}, err)
}

// logAdminAction records an admin action in the event log.
func (h *Handler) logAdminAction(r *http.Request, category, msg string, meta map[string]any) {
	if h.events == nil {
		return
	}
	if err := h.events.LogInfo(r.Context(), category, msg, middleware.GetUserIDPtr(r), util.ClientIP(r), meta); err != nil {
		slog.Warn("recording event failed", "error", err)
	}
}
