// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/middleware"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/service"
)

type subscribeRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
}

type subscribeResponse struct {
	Message    string                      `json:"message"`
	Subscriber *model.NewsletterSubscriber `json:"subscriber"`
}

// Subscribe handles POST /newsletter/subscribe and POST /marketing/subscribe.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in subscribeRequest
	if !decode(w, r, &in) {
		return
	}
	sub, err := h.newsletter.Subscribe(r.Context(), in.Email, in.FirstName)
	respond(w, r, subscribeResponse{
		Message:    "Please check your email to confirm your subscription",
		Subscriber: sub,
	}, err)
}

// ConfirmSubscription handles GET /newsletter/confirm?token=.
func (h *Handler) ConfirmSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.newsletter.Confirm(r.Context(), r.URL.Query().Get("token"))
	respond(w, r, subscribeResponse{Message: "Subscription confirmed", Subscriber: sub}, err)
}

// Unsubscribe handles GET /newsletter/unsubscribe?token=.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	sub, err := h.newsletter.Unsubscribe(r.Context(), r.URL.Query().Get("token"))
	respond(w, r, subscribeResponse{Message: "You have been unsubscribed", Subscriber: sub}, err)
}

// ListSubscribers handles GET /newsletter/subscribers.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	list, err := h.newsletter.List(r.Context(), handler.ParsePaging(r))
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	handler.WriteList(w, list)
}

// SendNewsletter handles POST /newsletter/send. Sending continues in the
// background after the 202.
func (h *Handler) SendNewsletter(w http.ResponseWriter, r *http.Request) {
	var in service.NewsletterInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.newsletter.Send(r.Context(), in)
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	h.logAdminAction(r, model.EventCategoryMarketing, "newsletter send queued", map[string]any{
		"recipients": res.Recipients,
		"batches":    res.Batches,
	})
	handler.WriteAccepted(w, res)
}

type propertyAlertRequest struct {
	PropertyID int64 `json:"propertyId"`
}

// PropertyAlert handles POST /marketing/property-alert.
func (h *Handler) PropertyAlert(w http.ResponseWriter, r *http.Request) {
	var in propertyAlertRequest
	if !decode(w, r, &in) {
		return
	}
	if in.PropertyID <= 0 {
		handler.WriteBadRequest(w, "propertyId is required")
		return
	}
	err := h.marketing.PropertyAlert(r.Context(), middleware.GetUserID(r), in.PropertyID)
	respond(w, r, message{Message: "Property alert sent"}, err)
}

// LatestBlogsEmail handles POST /marketing/newsletter.
func (h *Handler) LatestBlogsEmail(w http.ResponseWriter, r *http.Request) {
	err := h.marketing.LatestBlogs(r.Context(), middleware.GetUserID(r))
	respond(w, r, message{Message: "Newsletter sent"}, err)
}

// UserCount handles GET /marketing/user-count.
func (h *Handler) UserCount(w http.ResponseWriter, r *http.Request) {
	c, err := h.auth.CountUsers(r.Context())
	respond(w, r, c, err)
}

type blastResult struct {
	Message    string `json:"message"`
	Recipients int    `json:"recipients"`
}

// Blast returns the handler for a marketing blast of category.
func (h *Handler) Blast(category string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.BlastInput
		if !decode(w, r, &in) {
			return
		}
		n, err := h.marketing.Blast(r.Context(), category, in)
		if err != nil {
			handler.WriteServiceError(w, r, err)
			return
		}
		h.logAdminAction(r, model.EventCategoryMarketing, "marketing blast queued", map[string]any{
			"kind":       category,
			"recipients": n,
		})
		handler.WriteAccepted(w, blastResult{Message: "Emails are being sent", Recipients: n})
	}
}
