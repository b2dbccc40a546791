package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbeddingConnectorCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	LLMConnectorCfg       LLMConnectorConfig       `envPrefix:"LLM_"`

	// Vector store configuration
	VectorStoreCfg VectorStoreConfig `envPrefix:"VECTOR_"`

	// Retrieval configuration
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// Telegram bot configuration (used by the bot binary only)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN,notEmpty"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT,notEmpty"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE,notEmpty"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST,notEmpty"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT,notEmpty"` // seconds
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	EmbedEndpoint string               `env:"EMBED_ENDPOINT" envDefault:"/api/embed"`
	Model         string               `env:"MODEL,notEmpty"`
	Dimension     int                  `env:"DIMENSION,notEmpty"`
	MaxInputChars int                  `env:"MAX_INPUT_CHARS" envDefault:"8192"`
	Workers       int                  `env:"WORKERS" envDefault:"4"`
	CacheTTL      time.Duration        `env:"CACHE_TTL" envDefault:"10m"`
	Retry         pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	GenerateEndpoint string               `env:"GENERATE_ENDPOINT" envDefault:"/api/generate"`
	Model            string               `env:"MODEL,notEmpty"`
	Temperature      float64              `env:"TEMPERATURE" envDefault:"0.7"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// VectorStoreConfig selects and configures the vector index backend.
// Backend "memory" keeps vectors in-process; "qdrant" talks to a Qdrant
// instance over its REST API.
type VectorStoreConfig struct {
	HTTPClientConfig
	Backend    string `env:"BACKEND" envDefault:"memory"`
	Collection string `env:"COLLECTION" envDefault:"documents"`
}

type RetrievalConfig struct {
	ChunkSize    int `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"200"`
	TopK         int `env:"TOP_K" envDefault:"5"`
	MaxTopK      int `env:"MAX_TOP_K" envDefault:"20"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT,notEmpty"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT,notEmpty"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE,notEmpty"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT,notEmpty"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT,notEmpty"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64  `env:"MAX_FILE_SIZE,notEmpty"`   // per-file limit in bytes
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE,notEmpty"` // multipart form limit in bytes
	UploadDir     string `env:"DIR" envDefault:"uploads"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	// Validate vector store configuration
	switch cfg.VectorStoreCfg.Backend {
	case "memory", "qdrant":
	default:
		errors = append(errors, fmt.Sprintf("VECTOR_BACKEND must be memory or qdrant, got %q", cfg.VectorStoreCfg.Backend))
	}

	// Validate retrieval configuration
	if cfg.RetrievalCfg.ChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_CHUNK_SIZE must be positive, got %d", cfg.RetrievalCfg.ChunkSize))
	}

	if cfg.RetrievalCfg.ChunkOverlap < 0 || cfg.RetrievalCfg.ChunkOverlap >= cfg.RetrievalCfg.ChunkSize {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_CHUNK_OVERLAP must be between 0 and RETRIEVAL_CHUNK_SIZE(%d), got %d", cfg.RetrievalCfg.ChunkSize, cfg.RetrievalCfg.ChunkOverlap))
	}

	if cfg.RetrievalCfg.TopK < 1 || cfg.RetrievalCfg.TopK > cfg.RetrievalCfg.MaxTopK {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_TOP_K must be between 1 and RETRIEVAL_MAX_TOP_K(%d), got %d", cfg.RetrievalCfg.MaxTopK, cfg.RetrievalCfg.TopK))
	}

	// Validate embedding configuration
	if cfg.EmbeddingConnectorCfg.Dimension < 1 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingConnectorCfg.Dimension))
	}

	if cfg.EmbeddingConnectorCfg.Workers < 1 || cfg.EmbeddingConnectorCfg.Workers > 64 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_WORKERS must be between 1 and 64, got %d", cfg.EmbeddingConnectorCfg.Workers))
	}

	// Validate Database configuration
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
