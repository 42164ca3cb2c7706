package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"thing-journal-server/internal/ai"
	"thing-journal-server/internal/config"
	"thing-journal-server/internal/logger"
	"thing-journal-server/internal/messaging"
	"thing-journal-server/internal/repository"
	"thing-journal-server/internal/service"
)

// The pattern worker consumes analysis tasks queued by the API server and
// runs the batch pattern discovery against the journal.
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
	zapLogger.Info("Pattern worker starting")

	if !cfg.AIEnabled() {
		zapLogger.Fatal("OPENAI_API_KEY is required for the pattern worker")
	}

	dbPool, err := setupDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()
	zapLogger.Info("Connected to PostgreSQL")

	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()
	zapLogger.Info("Connected to RabbitMQ")

	aiService := ai.NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.WhisperModel, cfg.OpenAITimeout, zapLogger)

	thingRepo := repository.NewPgThingRepository(zapLogger)
	patternRepo := repository.NewPgPatternRepository(zapLogger)
	tx := repository.NewTxRunner(dbPool, zapLogger)

	// The worker never queues tasks itself, so no publisher is wired.
	patternService := service.NewPatternService(tx, patternRepo, thingRepo, aiService, nil, zapLogger)
	taskHandler, ok := patternService.(messaging.AnalysisTaskHandler)
	if !ok {
		zapLogger.Fatal("Pattern service does not handle analysis tasks")
	}

	consumer := messaging.NewConsumer(rabbitConn, cfg.AnalysisTaskQueue, taskHandler, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zapLogger.Info("Shutdown signal received", zap.String("signal", sig.String()))
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			zapLogger.Warn("Consumer did not stop in time")
		}
	case err := <-done:
		if err != nil {
			zapLogger.Fatal("Consumer stopped with error", zap.Error(err))
		}
	}
	zapLogger.Info("Pattern worker stopped")
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
