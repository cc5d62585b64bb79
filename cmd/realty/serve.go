// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/cache"
	"github.com/olegiv/realty-go/internal/config"
	"github.com/olegiv/realty-go/internal/geo"
	"github.com/olegiv/realty-go/internal/geoip"
	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/handler/api"
	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/media"
	"github.com/olegiv/realty-go/internal/middleware"
	"github.com/olegiv/realty-go/internal/reviews"
	"github.com/olegiv/realty-go/internal/scheduler"
	"github.com/olegiv/realty-go/internal/service"
	"github.com/olegiv/realty-go/internal/session"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
	uploadsMaxAge   = 7 * 24 * 60 * 60
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()
	cfg := e.cfg

	if cfg.IsDevelopment() {
		slog.Warn("running in development mode")
	}

	// Cache
	cm := cache.NewManager(cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTL,
		MaxSize:    cfg.CacheMaxSize,
	}))
	defer func() { _ = cm.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("cache manager initialized", "backend", "redis")
	} else {
		slog.Info("cache manager initialized", "backend", "memory")
	}

	// Mail
	var sender mail.Sender = mail.LogSender{}
	if cfg.SMTPEnabled() {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		slog.Info("smtp mail enabled", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	} else {
		slog.Warn("SMTP not configured, emails will only be logged")
	}
	mailer, err := mail.NewMailer(sender, mail.Config{
		Brand:       brand,
		FrontendURL: cfg.FrontendURL,
		AdminEmail:  cfg.AdminEmail,
	})
	if err != nil {
		return fmt.Errorf("initializing mailer: %w", err)
	}

	// GeoIP
	geoLookup := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geoLookup.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip disabled", "error", err)
		} else {
			slog.Info("geoip database loaded", "path", cfg.GeoIPDBPath)
		}
	}
	defer func() { _ = geoLookup.Close() }()

	// Services
	bg := service.NewBackground(ctx)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	pdfs := service.NewPDFService(e.db, cfg.UploadsDir, brand)
	authSvc := service.NewAuthService(e.db, tokens, mailer, pdfs, bg)
	blogs := service.NewBlogService(e.db, geoLookup)
	events := service.NewEventService(e.db)

	imageStore, err := newImageStore(cfg)
	if err != nil {
		return err
	}

	var google *auth.GoogleOAuth
	if cfg.GoogleOAuthEnabled() {
		google = auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
		slog.Info("google sign-in enabled")
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	go loginProtection.Run(ctx, time.Minute)
	apiLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go apiLimiter.Run(ctx, time.Minute)

	apiHandler := api.NewHandler(api.Deps{
		Auth:       authSvc,
		Properties: service.NewPropertyService(e.db),
		Blogs:      blogs,
		Contacts:   service.NewContactService(e.db, mailer, bg),
		Visits:     service.NewVisitService(e.db, mailer, bg),
		VideoChats: service.NewVideoChatService(e.db, mailer, bg),
		Newsletter: service.NewNewsletterService(e.db, mailer, bg, service.NewsletterConfig{
			BackendURL: cfg.BackendURL,
			BatchSize:  cfg.NewsletterBatchSize,
			BatchDelay: cfg.NewsletterBatchDelay,
		}),
		Marketing: service.NewMarketingService(e.db, mailer, pdfs, bg, cfg.FrontendURL),
		PDFs:      pdfs,
		Content:   service.NewContentService(e.db, cm, cfg.CacheTTL),
		Stats:     service.NewStatsService(e.db, blogs, authSvc),
		Events:    events,

		Media:   media.NewService(imageStore),
		Geo:     geo.NewClient(cfg.NominatimURL, cfg.OverpassURL, cm.Backend()),
		Reviews: reviews.NewClient(cfg.GooglePlacesBaseURL, cfg.GooglePlacesAPIKey, cfg.GooglePlaceID, cm.Backend()),

		Google:          google,
		Sessions:        session.New(cfg.IsDevelopment()),
		LoginProtection: loginProtection,

		FrontendURL: cfg.FrontendURL,
	})

	// Scheduler
	sched := scheduler.New(ctx, slog.Default())
	if err := sched.RegisterDefaults(scheduler.Deps{
		Blogs:  blogs,
		Users:  authSvc,
		Events: events,
		GeoIP:  geoLookup,
	}); err != nil {
		return fmt.Errorf("registering scheduled jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	r := newRouter(cfg, routerDeps{
		db:       e.db,
		cache:    cm,
		limiter:  apiLimiter,
		auth:     middleware.NewAuthenticator(tokens, authSvc, cfg.AdminKey),
		handlers: apiHandler,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads and slow clients
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// let queued emails and newsletter batches observe cancellation
	stop()
	bg.Wait()
	slog.Info("server stopped")
	return nil
}

func newImageStore(cfg *config.Config) (media.Store, error) {
	if cfg.CloudinaryEnabled() {
		s, err := media.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			return nil, fmt.Errorf("initializing cloudinary: %w", err)
		}
		slog.Info("image uploads go to cloudinary", "folder", cfg.CloudinaryFolder)
		return s, nil
	}

	s, err := media.NewLocalStore(cfg.UploadsDir, cfg.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("initializing local uploads: %w", err)
	}
	slog.Warn("cloudinary not configured, storing images locally", "dir", cfg.UploadsDir)
	return s, nil
}

type routerDeps struct {
	db       *gorm.DB
	cache    *cache.Manager
	limiter  *middleware.RateLimiter
	auth     *middleware.Authenticator
	handlers *api.Handler
}

func newRouter(cfg *config.Config, d routerDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	health := handler.NewHealthHandler(d.db, d.cache, cfg.UploadsDir)
	r.Group(func(r chi.Router) {
		// admins get the detailed report
		r.Use(d.auth.Authenticate)
		r.Get("/health", health.Health)
		r.Get("/health/live", health.Liveness)
		r.Get("/health/ready", health.Readiness)
	})

	imagesDir := filepath.Join(cfg.UploadsDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		slog.Warn("cannot create uploads directory", "dir", imagesDir, "error", err)
	}
	r.With(middleware.StaticCache(uploadsMaxAge)).Handle("/uploads/images/*",
		http.StripPrefix("/uploads/images/", http.FileServer(http.Dir(imagesDir))))

	r.Group(func(r chi.Router) {
		r.Use(d.limiter.Middleware)
		r.Use(d.auth.Authenticate)
		d.handlers.Routes(r)
	})

	return r
}
