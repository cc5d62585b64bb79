// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/olegiv/realty-go/internal/middleware"
	"github.com/olegiv/realty-go/internal/model"
)

// Routes registers every API route on r. The caller installs
// Authenticate ahead of these routes.
func (h *Handler) Routes(r chi.Router) {
	user := mw.RequireUser
	admin := mw.RequireAdmin

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.loginGuard.Middleware)
			r.Post("/login", h.Login)
			r.Post("/admin/login", h.AdminLogin)
		})
		r.Post("/signup", h.Signup)
		r.Post("/send-verification-otp", h.SendVerificationOTP)
		r.Post("/verify-email", h.VerifyEmail)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			if h.sessions != nil {
				r.Use(h.sessions.LoadAndSave)
			}
			r.Get("/google", h.GoogleStart)
			r.Get("/google/callback", h.GoogleCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(user)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/profile", h.Profile)
			r.Put("/profile", h.UpdateProfile)
			r.Get("/favorites", h.ListFavorites)
			r.Post("/favorites/{propertyId}", h.AddFavorite)
			r.Delete("/favorites/{propertyId}", h.RemoveFavorite)
			r.Post("/favorites/{propertyId}/remove", h.RemoveFavorite)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.AdminJWTOnly)
			r.Get("/admins", h.ListAdmins)
			r.Post("/admin/create", h.CreateAdmin)
			r.Delete("/admin/{id}", h.DeleteAdmin)
		})
	})

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.ListProperties)
		r.Get("/{id}", h.GetProperty)
		r.Get("/{id}/similar", h.SimilarProperties)
		r.Get("/geocode/search/{q}", h.GeocodeSearch)
		r.Get("/geocode/reverse/{lat}/{lng}", h.GeocodeReverse)
		r.Post("/pois/fetch", h.FetchPOIs)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.CreateProperty)
			r.Put("/{id}", h.UpdateProperty)
			r.Delete("/{id}", h.DeleteProperty)
		})
	})

	r.Route("/blogs", func(r chi.Router) {
		r.Get("/", h.ListBlogs)
		r.With(admin).Get("/stats", h.BlogStats)
		r.Get("/{id}", h.GetBlog)
		r.Post("/{id}/view", h.RecordBlogView)

		r.Route("/authors", func(r chi.Router) {
			r.Get("/", h.ListAuthors)
			r.Get("/{id}", h.GetAuthor)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.CreateAuthor)
				r.Put("/{id}", h.UpdateAuthor)
				r.Delete("/{id}", h.DeleteAuthor)
			})
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Get("/{id}", h.GetCategory)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.CreateCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.CreateBlog)
			r.Put("/{id}", h.UpdateBlog)
			r.Delete("/{id}", h.DeleteBlog)
		})
	})

	r.Route("/contact", func(r chi.Router) { mountLeads(r, h.contacts, "Contact message", admin) })
	r.Route("/schedule-visit", func(r chi.Router) { mountLeads(r, h.visits, "Visit request", admin) })
	r.Route("/schedule-video-chat", func(r chi.Router) { mountLeads(r, h.videoChats, "Video chat request", admin) })

	r.Route("/newsletter", func(r chi.Router) {
		r.Post("/subscribe", h.Subscribe)
		r.Get("/confirm", h.ConfirmSubscription)
		r.Get("/unsubscribe", h.Unsubscribe)
		r.With(admin).Get("/subscribers", h.ListSubscribers)
		r.With(admin).Post("/send", h.SendNewsletter)
	})

	r.Route("/marketing", func(r chi.Router) {
		r.Post("/subscribe", h.Subscribe)
		r.With(user).Post("/property-alert", h.PropertyAlert)
		r.With(user).Post("/newsletter", h.LatestBlogsEmail)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/user-count", h.UserCount)
			r.Post("/send-property-guide-all", h.Blast(model.PDFCategoryPropertyGuide))
			r.Post("/send-investment-tips-all", h.Blast(model.PDFCategoryInvestmentTips))
			r.Post("/send-other-all", h.Blast(model.PDFCategoryOther))
		})
	})

	r.Route("/pdfs", func(r chi.Router) {
		r.Use(admin)
		r.Post("/upload", h.UploadPDF)
		r.Get("/list", h.ListPDFs)
		r.Get("/download/{id}", h.DownloadPDF)
		r.Post("/generate/{kind}", h.GeneratePDF)
		r.Put("/{id}", h.UpdatePDF)
		r.Delete("/{id}", h.DeletePDF)
	})

	r.Route("/upload", func(r chi.Router) {
		r.Use(admin)
		r.Post("/image", h.UploadImage)
		r.Post("/images", h.UploadImages)
		r.Delete("/*", h.DeleteImage)
	})

	h.contentRoutes(r, admin)

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/google", h.GoogleReviews)
		r.Get("/find-place-id", h.FindPlaceID)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin)
		r.Get("/stats", h.Stats)
		r.Get("/events", h.ListEvents)
		r.Get("/exports/{kind}.xlsx", h.Export)
	})
}

func (h *Handler) contentRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	c := h.content

	r.Route("/contact-info", func(r chi.Router) {
		r.Get("/", h.ContactInfo)
		r.With(admin).Post("/", h.CreateContactInfo)
		r.With(admin).Put("/", h.UpdateContactInfo)
	})

	r.Route("/about", func(r chi.Router) {
		r.Get("/", h.About)
		r.With(admin).Put("/", h.UpsertAbout)
		r.Route("/timeline", func(r chi.Router) {
			mountOrdered[model.AboutTimelineItem](r, c.AboutTimeline, "Timeline item", admin)
		})
	})

	r.Route("/about-us", func(r chi.Router) {
		r.Get("/", h.AboutUs)
		r.With(admin).Post("/", h.UpsertAboutUsInfo)
		r.With(admin).Put("/{id}", h.UpdateAboutUsInfo)
		r.Route("/values", func(r chi.Router) {
			mountOrdered[model.AboutUsValue](r, c.AboutUsValues, "Value", admin)
		})
		r.Route("/team-members", func(r chi.Router) {
			mountOrdered[model.AboutUsTeamMember](r, c.TeamMembers, "Team member", admin)
		})
	})

	r.Route("/achievements", func(r chi.Router) {
		mountOrdered[model.Achievement](r, c.Achievements, "Achievement", admin)
	})
	r.Route("/core-strengths", func(r chi.Router) {
		mountOrdered[model.CoreStrength](r, c.CoreStrengths, "Core strength", admin)
	})
	r.Route("/why-choose-us", func(r chi.Router) {
		mountOrdered[model.WhyChooseUsReason](r, c.WhyChooseUs, "Reason", admin)
	})

	r.Route("/future-vision", func(r chi.Router) {
		r.Get("/", h.FutureVision)
		r.With(admin).Put("/content", h.UpsertVision)
		r.Route("/goals", func(r chi.Router) {
			mountOrdered[model.FutureVisionGoal](r, c.FutureGoals, "Goal", admin)
		})
		r.Route("/timeline", func(r chi.Router) {
			mountOrdered[model.FutureVisionTimelineItem](r, c.FutureTimeline, "Timeline item", admin)
		})
	})
}
