package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/background"
	"github.com/escola-solidaria/solidaria-api/internal/cache"
	"github.com/escola-solidaria/solidaria-api/internal/config"
	"github.com/escola-solidaria/solidaria-api/internal/database"
	"github.com/escola-solidaria/solidaria-api/internal/handlers"
	middlewareCustom "github.com/escola-solidaria/solidaria-api/internal/middleware"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
	"github.com/escola-solidaria/solidaria-api/internal/routes"
	"github.com/escola-solidaria/solidaria-api/internal/services"
	"github.com/escola-solidaria/solidaria-api/internal/storage"
	pkglogger "github.com/escola-solidaria/solidaria-api/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Connect to the database, retrying until it is reachable
	startCtx, startCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	db, err := database.Connect(startCtx, &cfg.Database, logger)
	if err != nil {
		startCancel()
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(startCtx, &cfg.Database, logger); err != nil {
		startCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	startCancel()

	// Initialize repositories
	studentRepo := repositories.NewStudentRepository(db)
	staffRepo := repositories.NewStaffRepository(db)
	donationRepo := repositories.NewDonationRepository(db)
	documentRepo := repositories.NewDocumentRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	formRepo := repositories.NewEnrollmentFormRepository(db)
	homeRepo := repositories.NewHomeRepository(db)

	// Token manager shared by both account systems
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Redis cache for the public homepage; disabled when REDIS_ADDR is unset
	homeCache := cache.New(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, logger)
	defer homeCache.Close()

	// File store: S3 when a bucket is configured, local disk otherwise
	var fileStore storage.FileStore
	if cfg.Upload.S3Bucket != "" {
		s3Ctx, s3Cancel := context.WithTimeout(context.Background(), 10*time.Second)
		fileStore, err = storage.NewS3Store(s3Ctx, cfg.Upload.S3Bucket, cfg.Upload.AWSRegion)
		s3Cancel()
	} else {
		fileStore, err = storage.NewLocalStore(cfg.Upload.Dir)
	}
	if err != nil {
		logger.Error("failed to initialize file store", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	studentAuthService := services.NewStudentAuthService(studentRepo, tokenManager, logger, auditLogger)
	staffAuthService := services.NewStaffAuthService(staffRepo, tokenManager, logger, auditLogger)
	studentService := services.NewStudentService(studentRepo, formRepo, logger, auditLogger)
	documentService := services.NewDocumentService(documentRepo, studentRepo, logger)
	cardService := services.NewCardService(cardRepo, studentRepo, logger, auditLogger)
	donationService := services.NewDonationService(donationRepo, logger)
	homeService := services.NewHomeService(homeRepo, homeCache, cfg.Cache.HomeTTL, logger)

	// Bootstrap the first admin accounts if configured: one on the staff
	// side, one in the aluno table for registration and password resets
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := staffAuthService.EnsureAdminUser(bootCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	if err := studentAuthService.EnsureAdminAccount(bootCtx, cfg.Admin.Handle, cfg.Admin.Name, cfg.Admin.Password); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	bootCancel()

	secureCookie := cfg.Server.Env == "production"

	// Initialize handlers
	h := routes.Handlers{
		StudentAuth: handlers.NewStudentAuthHandler(studentAuthService, cfg.Auth.TokenExpiry, secureCookie),
		StaffAuth:   handlers.NewStaffAuthHandler(staffAuthService, cfg.Auth.TokenExpiry, secureCookie),
		Students:    handlers.NewStudentHandler(studentService),
		Documents:   handlers.NewDocumentHandler(documentService),
		Cards:       handlers.NewCardHandler(cardService),
		Donations:   handlers.NewDonationHandler(donationService),
		Home:        handlers.NewHomeHandler(homeService),
		Uploads:     handlers.NewUploadHandler(fileStore, cfg.Upload.MaxSize),
	}

	// Authentication gates: students answer in the legacy Portuguese
	// envelope, the staff panel in the English one
	studentGate := auth.NewGate(tokenManager, studentRepo, true)
	staffGate := auth.NewGate(tokenManager, staffRepo, false)

	// Card expiry sweep
	expiryManager := background.NewExpiryManager(cardService, logger, cfg.Cards.ExpirySweepInterval)

	// Setup CORS middleware
	corsConfig := middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.RateLimitByIP(middlewareCustom.APIRateLimit()))

	// Register routes
	routes.RegisterRoutes(router, h, studentGate, staffGate)

	if cfg.Upload.S3Bucket == "" {
		routes.RegisterStatic(router, cfg.Upload.Dir)
	}

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start background sweep
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go expiryManager.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	expiryManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
