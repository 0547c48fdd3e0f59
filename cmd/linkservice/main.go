package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/cache"
	"github.com/vasilyryabtsev/link-redirect-service/internal/config"
	"github.com/vasilyryabtsev/link-redirect-service/internal/handler"
	"github.com/vasilyryabtsev/link-redirect-service/internal/middleware"
	"github.com/vasilyryabtsev/link-redirect-service/internal/repository"
	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting link redirect service",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("base_url", cfg.BaseURL))

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatal("Invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer repo.Close()
	logger.Info("Connected to PostgreSQL")

	redirectCache, err := cache.NewRedirectCache(cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redirectCache.Close()
	logger.Info("Connected to Redis", zap.Duration("cache_ttl", cfg.CacheTTL))

	codes, err := service.NewCodeGenerator(cfg.EncodingSize)
	if err != nil {
		logger.Fatal("Failed to create code generator", zap.Error(err))
	}

	linkService := service.NewLinkService(repo, redirectCache, codes, location, logger)
	authService := service.NewAuthService(repo, cfg.JWTSecret, cfg.AccessTokenTTL)
	authMW := middleware.NewAuthMiddleware(authService, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := service.NewReconciler(repo, redirectCache, location,
		cfg.SweepInterval, cfg.FlushInterval, logger)
	go reconciler.Run(ctx)

	h := handler.NewHandler(linkService, authService, authMW, cfg.BaseURL, logger)

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      h.SetupRouter(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", cfg.ServerAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}
