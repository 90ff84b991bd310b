package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"quizclient/internal/config"
	"quizclient/internal/database"
	"quizclient/internal/handlers"
	"quizclient/internal/logger"
	"quizclient/internal/middleware"
	"quizclient/internal/router"
	"quizclient/internal/services"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Env)
	log.Info().Msg("Starting mock quiz API")

	// Refresh tokens live in Redis when configured so they survive restarts.
	var tokens services.RefreshTokenStore = services.NewMemoryRefreshTokens()
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()
		tokens = services.NewRedisRefreshTokens(redisClient)
		log.Info().Msg("Redis connected")
	}

	jwtAuth := middleware.NewJWTAuth(cfg.RequireJWTSecret(), cfg.AccessTokenTTL)
	authService := services.NewAuthService(jwtAuth, tokens)
	if _, err := authService.AddUser("Demo Student", cfg.MockUsername, cfg.MockPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed user")
	}
	quizService := services.NewQuizService(services.DefaultQuestionBank(), true)

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()

	r := router.New(
		jwtAuth,
		authLimiter,
		handlers.NewAuthHandler(authService),
		handlers.NewQuizHandler(quizService),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.MockPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info().
		Str("port", cfg.MockPort).
		Str("user", cfg.MockUsername).
		Dur("access_ttl", cfg.AccessTokenTTL).
		Strs("courses", quizService.Courses()).
		Msg("Mock quiz API ready")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}
