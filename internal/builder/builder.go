package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/api"
	chatapi "github.com/futig/docqa-backend/internal/api/chat"
	documentapi "github.com/futig/docqa-backend/internal/api/document"
	searchapi "github.com/futig/docqa-backend/internal/api/search"
	sessionapi "github.com/futig/docqa-backend/internal/api/session"
	systemapi "github.com/futig/docqa-backend/internal/api/system"
	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/integration/common"
	"github.com/futig/docqa-backend/internal/integration/embedding"
	"github.com/futig/docqa-backend/internal/integration/llm"
	"github.com/futig/docqa-backend/internal/pkg/chunker"
	"github.com/futig/docqa-backend/internal/pkg/extractor"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/futig/docqa-backend/internal/telegram"
	chatuc "github.com/futig/docqa-backend/internal/usecase/chat"
	documentuc "github.com/futig/docqa-backend/internal/usecase/document"
	searchuc "github.com/futig/docqa-backend/internal/usecase/search"
	sessionuc "github.com/futig/docqa-backend/internal/usecase/session"
	"github.com/futig/docqa-backend/internal/vectorstore"
)

// embeddingConnector is what the use cases collectively need from the
// embedding service, real or mock.
type embeddingConnector interface {
	documentuc.EmbeddingConnector
	searchuc.EmbeddingConnector
	systemapi.EmbeddingConnector
}

type llmConnector interface {
	chatuc.LLMConnector
	systemapi.LLMConnector
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	documentRepo := repository.NewDocumentPostgres(db)
	sessionRepo := repository.NewChatSessionPostgres(db)
	messageRepo := repository.NewChatMessagePostgres(db)
	logger.Info("Repositories initialized")

	// Worker pool shared by embedding batches and document ingestion
	pool, err := ants.NewPool(cfg.EmbeddingConnectorCfg.Workers)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	// Initialize external service connectors (with mock support)
	embedder, llmConn := setupConnectors(cfg, pool, logger)

	// Initialize vector index
	index, err := setupVectorIndex(ctx, cfg, logger)
	if err != nil {
		pool.Release()
		db.Close()
		return nil, fmt.Errorf("setup vector index: %w", err)
	}

	// Initialize validators
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	logger.Info("Validators initialized")

	// Initialize use cases
	searchUC := searchuc.NewUsecase(embedder, index, documentRepo, cfg.RetrievalCfg, logger)

	documentUC := documentuc.NewUsecase(
		documentRepo,
		index,
		embedder,
		extractor.New(),
		chunker.New(cfg.RetrievalCfg.ChunkSize, cfg.RetrievalCfg.ChunkOverlap),
		fileValidator,
		pool,
		cfg.FileUploadCfg.UploadDir,
		logger,
	)

	chatUC := chatuc.NewUsecase(
		documentRepo,
		sessionRepo,
		messageRepo,
		searchUC,
		llmConn,
		cfg.RetrievalCfg.TopK,
		logger,
	)

	sessionUC := sessionuc.NewUsecase(sessionRepo, messageRepo, formatter.NewFactory(), logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	documentHandler := documentapi.NewHandler(documentUC, cfg.FileUploadCfg)
	chatHandler := chatapi.NewHandler(chatUC)
	sessionHandler := sessionapi.NewHandler(sessionUC)
	searchHandler := searchapi.NewHandler(searchUC)
	systemHandler := systemapi.NewHandler(db, index, embedder, llmConn, cfg.RetrievalCfg, cfg.FileUploadCfg)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentHandler, chatHandler, sessionHandler, searchHandler, systemHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		pool:   pool,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	documentRepo := repository.NewDocumentPostgres(db)
	sessionRepo := repository.NewChatSessionPostgres(db)
	messageRepo := repository.NewChatMessagePostgres(db)
	logger.Info("Repositories initialized")

	pool, err := ants.NewPool(cfg.EmbeddingConnectorCfg.Workers)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create worker pool: %w", err)
	}

	embedder, llmConn := setupConnectors(cfg, pool, logger)

	index, err := setupVectorIndex(ctx, cfg, logger)
	if err != nil {
		pool.Release()
		db.Close()
		return nil, nil, fmt.Errorf("setup vector index: %w", err)
	}

	// Initialize use cases
	searchUC := searchuc.NewUsecase(embedder, index, documentRepo, cfg.RetrievalCfg, logger)

	documentUC := documentuc.NewUsecase(
		documentRepo,
		index,
		embedder,
		extractor.New(),
		chunker.New(cfg.RetrievalCfg.ChunkSize, cfg.RetrievalCfg.ChunkOverlap),
		validator.NewFileValidator(cfg.FileUploadCfg),
		pool,
		cfg.FileUploadCfg.UploadDir,
		logger,
	)

	chatUC := chatuc.NewUsecase(
		documentRepo,
		sessionRepo,
		messageRepo,
		searchUC,
		llmConn,
		cfg.RetrievalCfg.TopK,
		logger,
	)
	logger.Info("Use cases initialized")

	// Initialize Telegram bot
	bot, err := telegram.NewBot(&cfg.TelegramCfg, chatUC, documentUC, logger)
	if err != nil {
		pool.Release()
		db.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, nil
}

func setupConnectors(cfg *config.Config, pool *ants.Pool, logger *zap.Logger) (embeddingConnector, llmConnector) {
	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		return embedding.NewMockConnector(cfg.EmbeddingConnectorCfg.Dimension, logger),
			llm.NewMockConnector(logger)
	}

	logger.Info("Using real connectors for external services")
	return embedding.NewConnector(cfg.EmbeddingConnectorCfg, pool, logger),
		llm.NewConnector(cfg.LLMConnectorCfg, logger)
}

func setupVectorIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) (vectorstore.VectorIndex, error) {
	switch cfg.VectorStoreCfg.Backend {
	case "qdrant":
		connector := common.NewBaseConnector(cfg.VectorStoreCfg.HTTPClientConfig, logger)
		index := vectorstore.NewQdrant(connector, cfg.VectorStoreCfg.Collection, cfg.EmbeddingConnectorCfg.Dimension, logger)
		if err := index.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("ensure collection: %w", err)
		}
		logger.Info("Using Qdrant vector index",
			zap.String("collection", cfg.VectorStoreCfg.Collection),
		)
		return index, nil
	default:
		logger.Info("Using in-memory vector index")
		return vectorstore.NewMemory(), nil
	}
}
