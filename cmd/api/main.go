package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/abbis/abbis-api/internal/config"
	"github.com/abbis/abbis-api/internal/domain/catalog"
	"github.com/abbis/abbis-api/internal/domain/history"
	"github.com/abbis/abbis-api/internal/domain/request"
	"github.com/abbis/abbis-api/internal/domain/response"
	"github.com/abbis/abbis-api/internal/middleware"
	"github.com/abbis/abbis-api/internal/pkg/database"
	"github.com/abbis/abbis-api/internal/pkg/jwt"
	"github.com/abbis/abbis-api/internal/pkg/logger"
	"github.com/abbis/abbis-api/internal/pkg/mail"
	pkgresponse "github.com/abbis/abbis-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting ABBIS API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	catalogRepo := catalog.NewRepository(db)
	histRepo := history.NewRepository(db)
	requestRepo := request.NewRepository(db)
	responseRepo := response.NewRepository(db)

	// Catalog lookups go through Redis when configured
	matcher := catalog.NewCachedMatcher(catalogRepo, redis, cfg.CatalogCacheTTL)

	// ---------- Services ----------
	requestSvc := request.NewService(requestRepo, histRepo)
	responseSvc := response.NewService(responseRepo, requestRepo, requestSvc, matcher, histRepo)
	responseSvc.SetPricingDefaults(cfg.DefaultCurrency, cfg.DefaultTaxRate)

	if cfg.SendGridAPIKey != "" {
		responseSvc.SetMailer(mail.NewSendGridClient(mail.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}))
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set, email sending disabled")
	}

	// ---------- Handlers ----------
	catalogHandler := catalog.NewHandler(catalogRepo)
	requestHandler := request.NewHandler(requestSvc)
	responseHandler := response.NewHandler(responseSvc)

	authMiddleware := middleware.Auth(jwtService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/requests", requestHandler.Routes(authMiddleware))
		r.Mount("/requests/{id}/responses", responseHandler.RequestRoutes(authMiddleware))
		r.Mount("/responses", responseHandler.Routes(authMiddleware))
		r.Mount("/catalog", catalogHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
