package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/acegrade/grader-go-api/internal/config"
	"github.com/acegrade/grader-go-api/internal/database"
	"github.com/acegrade/grader-go-api/internal/exam"
	"github.com/acegrade/grader-go-api/internal/handler"
	"github.com/acegrade/grader-go-api/internal/middleware"
	"github.com/acegrade/grader-go-api/internal/models"
	"github.com/acegrade/grader-go-api/internal/repository"
	"github.com/acegrade/grader-go-api/internal/router"
	"github.com/acegrade/grader-go-api/internal/service"
	"github.com/acegrade/grader-go-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.GradeRecord{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured; result caching disabled and rate limits are per-instance")
	}

	var chatClient ai.ChatClient
	if cfg.GradingEnabled() {
		client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: cfg.AITemperature,
			Logger:      logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai client: %v", err)
		}
		chatClient = client
	} else {
		logger.Warn().Msg("openai api key not configured; grading requests will be rejected")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	catalog := exam.DefaultCatalog()

	recordRepo := repository.NewGradeRecordRepository(db)
	gradingService := service.NewGradingService(catalog, chatClient, recordRepo, redisClient, validate, logger, service.GradingConfig{
		Concurrency: cfg.ExaminerConcurrency,
		AITimeout:   cfg.AITimeout,
		CacheTTL:    cfg.GradeCacheTTL,
	})

	gradeHandler := handler.NewGradeHandler(gradingService, logger)

	var limiter middleware.Limiter
	if redisClient != nil {
		limiter = middleware.NewRedisLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
	} else {
		limiter = middleware.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GradeHandler:  gradeHandler,
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
		RateLimit:     middleware.RateLimit(limiter, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
