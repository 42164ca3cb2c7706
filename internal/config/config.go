package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the Thing Journal server.
type Config struct {
	// Server settings
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// PostgreSQL settings
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBPassword    string        `envconfig:"DB_PASSWORD" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"5m"`

	// JWT settings (verification only; tokens are issued elsewhere)
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// OpenAI settings. An empty key disables transcription and analysis.
	OpenAIKey     string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	WhisperModel  string        `envconfig:"WHISPER_MODEL" default:"whisper-1"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`

	// Search index settings (RediSearch). An empty address disables search.
	RedisAddr       string `envconfig:"REDIS_ADDR"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0"`
	SearchIndexName string `envconfig:"SEARCH_INDEX_NAME" default:"thingjournal_things"`

	// RabbitMQ settings
	RabbitMQURL       string `envconfig:"RABBITMQ_URL" required:"true"`
	AnalysisTaskQueue string `envconfig:"ANALYSIS_TASK_QUEUE" default:"pattern_analysis_tasks"`

	// CORS
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Feature flags
	FeatureGroups bool `envconfig:"FEATURE_GROUPS" default:"false"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// SearchEnabled reports whether the external search index is configured.
func (c *Config) SearchEnabled() bool {
	return c.RedisAddr != ""
}

// AIEnabled reports whether the AI analysis collaborator is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}
