// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/blogicum-go/internal/cache"
	"github.com/olegiv/blogicum-go/internal/config"
	"github.com/olegiv/blogicum-go/internal/handler"
	"github.com/olegiv/blogicum-go/internal/imaging"
	"github.com/olegiv/blogicum-go/internal/logging"
	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/scheduler"
	"github.com/olegiv/blogicum-go/internal/session"
	"github.com/olegiv/blogicum-go/internal/store"
	"github.com/olegiv/blogicum-go/internal/version"
	"github.com/olegiv/blogicum-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Blogicum - a community blog\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGICUM_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGICUM_DB_PATH         SQLite database path (default: ./data/blogicum.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGICUM_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGICUM_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGICUM_UPLOADS_DIR     Uploaded image directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGICUM_REDIS_URL       Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGICUM_DO_SEED         Seed demo content on startup (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		_, _ = fmt.Printf("blogicum %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	if cfg.DoSeed {
		if err := store.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seeding demo content: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	queries := store.New(db)
	cacheManager := cache.NewManager(cfg, queries)
	defer func() {
		if err := cacheManager.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	processor := imaging.NewProcessor(cfg.UploadsDir)

	// Maintenance scheduler prunes old event log entries
	sched := scheduler.New(db, logger, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	// Handlers
	pagesHandler := handler.NewPageHandler(renderer)
	blogHandler := handler.NewBlogHandler(db, renderer, cacheManager, pagesHandler)
	postHandler := handler.NewPostHandler(db, renderer, cacheManager, processor, pagesHandler)
	commentHandler := handler.NewCommentHandler(db, renderer, pagesHandler)
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection)
	profileHandler := handler.NewProfileHandler(db, renderer)
	adminHandler := handler.NewAdminHandler(db, renderer, cacheManager)
	adminCategoryHandler := handler.NewAdminCategoryHandler(db, renderer, cacheManager)
	adminLocationHandler := handler.NewAdminLocationHandler(db, renderer)
	adminPostHandler := handler.NewAdminPostHandler(db, renderer)
	adminEventHandler := handler.NewAdminEventHandler(db, renderer)
	healthHandler := handler.NewHealthHandler(db, sessionManager, cfg.UploadsDir)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)

	// Health endpoints, session loaded so admins get full details
	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Get("/health", healthHandler.Health)
		r.Get("/health/live", healthHandler.Liveness)
		r.Get("/health/ready", healthHandler.Readiness)
	})

	// Web routes
	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(csrfMiddleware)
		r.Use(middleware.OptionalLoadUser(sessionManager, db))
		r.Use(middleware.LoadSiteConfig(cacheManager))

		// Public pages
		r.Get(handler.RouteRoot, blogHandler.Index)
		r.Get(handler.RouteCategorySlug, blogHandler.Category)
		r.Get(handler.RouteAbout, pagesHandler.About)
		r.Get(handler.RouteRules, pagesHandler.Rules)

		// Authentication
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)
		r.Get(handler.RouteRegistration, authHandler.RegistrationForm)
		r.Post(handler.RouteRegistration, authHandler.Register)

		// Login required
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))

			r.Get(handler.RoutePostCreate, postHandler.CreateForm)
			r.Post(handler.RoutePostCreate, postHandler.Create)
			r.Get(handler.RoutePostEdit, postHandler.EditForm)
			r.Post(handler.RoutePostEdit, postHandler.Edit)
			r.Get(handler.RoutePostDelete, postHandler.DeleteForm)
			r.Post(handler.RoutePostDelete, postHandler.Delete)

			r.Post(handler.RoutePostComment, commentHandler.Add)
			r.Get(handler.RouteCommentEdit, commentHandler.EditForm)
			r.Post(handler.RouteCommentEdit, commentHandler.Edit)
			r.Get(handler.RouteCommentDelete, commentHandler.DeleteForm)
			r.Post(handler.RouteCommentDelete, commentHandler.Delete)

			r.Get(handler.RouteProfileEdit, profileHandler.EditForm)
			r.Post(handler.RouteProfileEdit, profileHandler.Edit)
			r.Get(handler.RoutePasswordChange, authHandler.PasswordChangeForm)
			r.Post(handler.RoutePasswordChange, authHandler.PasswordChange)
		})

		// The static /posts/create and /profile/edit segments take
		// precedence over these URL parameters
		r.Get(handler.RoutePostID, postHandler.Detail)
		r.Get(handler.RouteProfile, blogHandler.Profile)

		// Admin area
		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))
			r.Use(middleware.RequireAdmin(pagesHandler.Forbidden))

			r.Get(handler.RouteRoot, adminHandler.Dashboard)

			r.Get(handler.RouteAdminCategories, adminCategoryHandler.List)
			r.Get(handler.RouteAdminCategoriesNew, adminCategoryHandler.NewForm)
			r.Post(handler.RouteAdminCategoriesNew, adminCategoryHandler.Create)
			r.Get(handler.RouteAdminCategoriesID, adminCategoryHandler.EditForm)
			r.Post(handler.RouteAdminCategoriesID, adminCategoryHandler.Update)
			r.Post(handler.RouteAdminCategoriesDel, adminCategoryHandler.Delete)

			r.Get(handler.RouteAdminLocations, adminLocationHandler.List)
			r.Get(handler.RouteAdminLocationsNew, adminLocationHandler.NewForm)
			r.Post(handler.RouteAdminLocationsNew, adminLocationHandler.Create)
			r.Get(handler.RouteAdminLocationsID, adminLocationHandler.EditForm)
			r.Post(handler.RouteAdminLocationsID, adminLocationHandler.Update)
			r.Post(handler.RouteAdminLocationsDel, adminLocationHandler.Delete)

			r.Get(handler.RouteAdminPosts, adminPostHandler.List)
			r.Post(handler.RouteAdminPostsPublish, adminPostHandler.TogglePublish)

			r.Get(handler.RouteAdminEvents, adminEventHandler.List)
		})
	})

	// Static assets: cache for 1 year
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	staticHandler := middleware.StaticCache(31536000)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/static/*", staticHandler)

	// Uploaded post images: cache for 1 week
	uploadsHandler := middleware.StaticCache(604800)(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	r.Handle("/uploads/*", uploadsHandler)

	// 404 handler needs the session loaded for the flash and user state
	notFound := sessionManager.LoadAndSave(
		middleware.OptionalLoadUser(sessionManager, db)(http.HandlerFunc(pagesHandler.NotFound)))
	r.NotFound(notFound.ServeHTTP)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
