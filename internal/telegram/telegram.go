package telegram

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/telegram/bot"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(
	cfg *config.TelegramConfig,
	chatUC bot.ChatUsecase,
	documentUC bot.DocumentUsecase,
	logger *zap.Logger,
) (Bot, error) {
	b, err := bot.New(cfg, chatUC, documentUC, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
