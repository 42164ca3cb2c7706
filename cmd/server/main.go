package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"thing-journal-server/internal/ai"
	"thing-journal-server/internal/auth"
	"thing-journal-server/internal/config"
	"thing-journal-server/internal/database"
	"thing-journal-server/internal/handler"
	"thing-journal-server/internal/logger"
	"thing-journal-server/internal/messaging"
	"thing-journal-server/internal/middleware"
	"thing-journal-server/internal/repository"
	"thing-journal-server/internal/search"
	"thing-journal-server/internal/semantic"
	"thing-journal-server/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	dbPool, err := setupDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()
	zapLogger.Info("Connected to PostgreSQL")

	if err := database.ApplyMigrations(dbPool, zapLogger); err != nil {
		zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()
	zapLogger.Info("Connected to RabbitMQ")

	index := setupSearchIndex(cfg, zapLogger)

	var aiService ai.Service
	if cfg.AIEnabled() {
		aiService = ai.NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.WhisperModel, cfg.OpenAITimeout, zapLogger)
		zapLogger.Info("AI analysis enabled", zap.String("model", cfg.OpenAIModel))
	} else {
		aiService = ai.NewDisabledService()
		zapLogger.Warn("OPENAI_API_KEY is not set, transcription and analysis are disabled")
	}

	tagger := semantic.NewProseTagger(zapLogger)

	taskPublisher, err := messaging.NewRabbitMQAnalysisTaskPublisher(rabbitConn, cfg.AnalysisTaskQueue, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create analysis task publisher", zap.Error(err))
	}

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}

	thingRepo := repository.NewPgThingRepository(zapLogger)
	imageRepo := repository.NewPgImageRepository(zapLogger)
	tagRepo := repository.NewPgTagRepository(zapLogger)
	groupRepo := repository.NewPgGroupRepository(zapLogger)
	historyRepo := repository.NewPgShareHistoryRepository(zapLogger)
	storyRepo := repository.NewPgStoryRepository(zapLogger)
	patternRepo := repository.NewPgPatternRepository(zapLogger)
	tx := repository.NewTxRunner(dbPool, zapLogger)

	sharingService := service.NewSharingService(tx, thingRepo, historyRepo, groupRepo, index, cfg.FeatureGroups, zapLogger)
	thingService := service.NewThingService(tx, thingRepo, imageRepo, tagRepo, storyRepo, sharingService, aiService, tagger, index, cfg.FeatureGroups, zapLogger)
	storyService := service.NewStoryService(tx, storyRepo, thingRepo, imageRepo, cfg.FeatureGroups, zapLogger)
	groupService := service.NewGroupService(tx, groupRepo, thingRepo, zapLogger)
	patternService := service.NewPatternService(tx, patternRepo, thingRepo, aiService, taskPublisher, zapLogger)

	journalHandler := handler.NewJournalHandler(
		thingService,
		storyService,
		sharingService,
		groupService,
		patternService,
		index,
		verifier,
		zapLogger,
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.EchoZapLogger(zapLogger))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	journalHandler.RegisterRoutes(e)

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("Server stopped")
}

func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err = dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return dbPool, nil
}

func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}

// setupSearchIndex connects to RediSearch, falling back to the disabled
// index when the address is unset or the connection fails. Search being
// down never blocks journal writes.
func setupSearchIndex(cfg *config.Config, logger *zap.Logger) search.Index {
	if !cfg.SearchEnabled() {
		logger.Warn("REDIS_ADDR is not set, community search is disabled")
		return search.NewDisabledIndex()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	index, err := search.NewRedisIndex(ctx, client, cfg.SearchIndexName, logger)
	if err != nil {
		logger.Error("Failed to initialize search index, search is disabled", zap.Error(err))
		return search.NewDisabledIndex()
	}
	logger.Info("Search index ready", zap.String("index", cfg.SearchIndexName))
	return index
}
