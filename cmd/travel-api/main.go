// @title Travel CRM Customer API
// @version 1.0
// @description Customer identity matching and unified profiles across partner customers and bookings

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"travel-crm/internal/api"
	"travel-crm/internal/api/handlers"
	"travel-crm/internal/auth"
	"travel-crm/internal/config"
	"travel-crm/internal/db"
	"travel-crm/internal/health"
	"travel-crm/internal/identity"
	"travel-crm/internal/logger"
	"travel-crm/internal/matching"
	"travel-crm/internal/repository"
	"travel-crm/internal/scheduler"
	"travel-crm/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := config.LoadDotEnv(envFile); err != nil {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	// Load and validate configuration first (before logger)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Logger)

	logger.Info().
		Str("environment", cfg.Logger.Environment).
		Str("log_level", cfg.Logger.Level).
		Str("confidence_mode", cfg.Matching.ConfidenceMode).
		Str("phone_lookup", cfg.Matching.PhoneLookup).
		Msg("configuration loaded successfully")

	// Run migrations before connecting to database
	logger.Info().Msg("running database migrations")
	if err := db.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()
	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("database connected successfully")

	healthChecker := health.NewChecker(cfg.Database.HealthTimeout).Register("database", database)

	// Profile cache (feature-flagged)
	var profileCache service.ProfileCache
	if cfg.Features.EnableProfileCache {
		redisClient, err := db.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("profile cache disabled: Redis unavailable")
		} else {
			defer redisClient.Close()
			profileCache = service.NewRedisProfileCache(redisClient, cfg.Redis.CacheTTL)
			healthChecker.Register("redis", db.RedisHealth{Client: redisClient})
			logger.Info().Dur("ttl", cfg.Redis.CacheTTL).Msg("profile cache enabled")
		}
	}

	// Repositories
	partnerCustomerRepo := repository.NewPartnerCustomerRepository(database.Queries)
	bookingRepo := repository.NewBookingRepository(database.Queries)

	// Services
	matchCfg := matching.FromSettings(cfg.Matching)
	matcher := identity.NewMatcher(partnerCustomerRepo, bookingRepo, matchCfg)
	customerService := service.NewCustomerService(matcher, partnerCustomerRepo, bookingRepo, profileCache, matchCfg)
	mergeService := service.NewBookingMergeService(database)

	// Handlers
	customerHandler := handlers.NewCustomerHandler(customerService, mergeService)
	bookingHandler := handlers.NewBookingHandler(mergeService)

	// Background normalization backfill (feature-flagged)
	if cfg.Features.EnableNormalizeJobs {
		cronScheduler := scheduler.NewScheduler(cfg.Jobs,
			scheduler.Target{Name: repository.TablePartnerCustomers, Normalizer: partnerCustomerRepo},
			scheduler.Target{Name: repository.TableBookings, Normalizer: bookingRepo},
		)
		if err := cronScheduler.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start scheduler")
		}
		defer cronScheduler.Stop()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.CORSMiddleware(cfg.CORS))
	router.Use(api.ErrorHandlerMiddleware())

	router.GET("/health", healthChecker.Handler)

	v1 := router.Group("/api/v1")
	v1.Use(auth.APIKeyMiddleware(cfg))
	{
		customers := v1.Group("/customers")
		{
			customers.GET("/matches", customerHandler.FindMatches)
			customers.GET("/unified", customerHandler.GetUnified)
			customers.POST("/:id/bookings/link", customerHandler.LinkBookings)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.GET("/merge/preview", bookingHandler.PreviewMerge)
			bookings.POST("/merge", bookingHandler.MergeBookings)
		}
	}

	addr := cfg.GetBindAddress()
	// Use a listener so we can discover the selected port when PORT=0
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("failed to bind listener")
	}

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		logger.Fatal().Msg("failed to determine TCP address")
	}
	selectedPort := tcpAddr.Port

	srv := &http.Server{
		Addr:    ln.Addr().String(),
		Handler: router,
	}

	go func() {
		logger.Info().
			Int("port", selectedPort).
			Str("addr", cfg.Server.Host).
			Msg("starting server")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")

	fmt.Printf("PORT=%d\n", selectedPort) //nolint:forbidigo // Intentional stdout output for supervisor
}
