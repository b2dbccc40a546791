package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/telegram/middleware"
)

const welcomeText = `Hi! I answer questions about uploaded documents.

Commands:
/documents - list available documents
/use <number> - pick a document to chat about
/new - start a fresh chat session
/help - show this message

Pick a document, then just send me your questions.`

// chatState tracks the per-chat conversation: which document is selected and
// which chat session the next question continues.
type chatState struct {
	documentID string
	sessionID  *string
	documents  []string
}

// Bot is the telegram bot for document chat
type Bot struct {
	api        *tgbotapi.BotAPI
	cfg        *config.TelegramConfig
	chatUC     ChatUsecase
	documentUC DocumentUsecase
	logger     *zap.Logger

	mu     sync.Mutex
	states map[int64]*chatState

	middlewares []Middleware
	wg          sync.WaitGroup
}

// Middleware processes an update before the bot handles it
type Middleware interface {
	Handle(update tgbotapi.Update, next func(tgbotapi.Update))
}

// New creates a bot instance with the standard middleware chain
func New(
	cfg *config.TelegramConfig,
	chatUC ChatUsecase,
	documentUC DocumentUsecase,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	b := &Bot{
		api:        api,
		cfg:        cfg,
		chatUC:     chatUC,
		documentUC: documentUC,
		logger:     logger,
		states:     make(map[int64]*chatState),
	}

	b.middlewares = []Middleware{
		middleware.NewRecoveryMiddleware(logger, api),
		middleware.NewLoggingMiddleware(logger),
		middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger, api),
	}

	return b, nil
}

// Start begins polling for updates and blocks until the context is canceled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot",
		zap.String("username", b.api.Self.UserName),
		zap.Int("update_timeout", b.cfg.UpdateTimeout),
	)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.cfg.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				b.dispatch(update)
			}(update)
		}
	}
}

// Stop stops polling and waits for in-flight handlers to finish.
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("telegram bot stopped")
		return nil
	case <-time.After(time.Duration(b.cfg.ShutdownTimeout) * time.Second):
		return fmt.Errorf("shutdown timed out after %ds", b.cfg.ShutdownTimeout)
	}
}

// dispatch runs the update through the middleware chain into the handler.
func (b *Bot) dispatch(update tgbotapi.Update) {
	handler := b.handleUpdate
	for i := len(b.middlewares) - 1; i >= 0; i-- {
		mw := b.middlewares[i]
		next := handler
		handler = func(u tgbotapi.Update) {
			mw.Handle(u, next)
		}
	}
	handler(update)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	ctx := context.Background()
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	switch {
	case text == "/start" || text == "/help":
		b.reply(chatID, welcomeText)
	case text == "/documents":
		b.handleListDocuments(ctx, chatID)
	case strings.HasPrefix(text, "/use"):
		b.handleUseDocument(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/use")))
	case text == "/new":
		b.handleNewSession(chatID)
	case strings.HasPrefix(text, "/"):
		b.reply(chatID, "Unknown command. Send /help for the list of commands.")
	default:
		b.handleQuestion(ctx, chatID, text)
	}
}

func (b *Bot) handleListDocuments(ctx context.Context, chatID int64) {
	documents, err := b.documentUC.ListDocuments(ctx)
	if err != nil {
		b.logger.Error("failed to list documents", zap.Error(err))
		b.reply(chatID, "Failed to load the document list. Please try again.")
		return
	}

	ready := make([]*entity.Document, 0, len(documents))
	for _, doc := range documents {
		if doc.Status == entity.DocumentStatusCompleted {
			ready = append(ready, doc)
		}
	}

	if len(ready) == 0 {
		b.reply(chatID, "No documents are ready for chat yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Available documents:\n")
	ids := make([]string, 0, len(ready))
	for i, doc := range ready {
		fmt.Fprintf(&sb, "%d. %s (%d chunks)\n", i+1, doc.OriginalFilename, doc.TotalChunks)
		ids = append(ids, doc.ID)
	}
	sb.WriteString("\nSend /use <number> to pick one.")

	b.mu.Lock()
	state := b.stateLocked(chatID)
	state.documents = ids
	b.mu.Unlock()

	b.reply(chatID, sb.String())
}

func (b *Bot) handleUseDocument(ctx context.Context, chatID int64, arg string) {
	if arg == "" {
		b.reply(chatID, "Usage: /use <number> (see /documents)")
		return
	}

	b.mu.Lock()
	state := b.stateLocked(chatID)
	known := state.documents
	b.mu.Unlock()

	documentID := arg
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(known) {
			b.reply(chatID, "No such document number. Send /documents first.")
			return
		}
		documentID = known[n-1]
	}

	doc, err := b.documentUC.GetDocument(ctx, documentID)
	if err != nil {
		b.reply(chatID, "Document not found. Send /documents to see what is available.")
		return
	}

	if doc.Status != entity.DocumentStatusCompleted {
		b.reply(chatID, "That document is still being processed. Try again shortly.")
		return
	}

	b.mu.Lock()
	state = b.stateLocked(chatID)
	state.documentID = doc.ID
	state.sessionID = nil
	b.mu.Unlock()

	b.reply(chatID, fmt.Sprintf("Now chatting about %q. Ask me anything!", doc.OriginalFilename))
}

func (b *Bot) handleNewSession(chatID int64) {
	b.mu.Lock()
	state := b.stateLocked(chatID)
	state.sessionID = nil
	b.mu.Unlock()

	b.reply(chatID, "Started a fresh session. Your next question opens a new chat.")
}

func (b *Bot) handleQuestion(ctx context.Context, chatID int64, question string) {
	b.mu.Lock()
	state := b.stateLocked(chatID)
	documentID := state.documentID
	sessionID := state.sessionID
	b.mu.Unlock()

	if documentID == "" {
		b.reply(chatID, "Pick a document first: /documents, then /use <number>.")
		return
	}

	b.api.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	answer, err := b.chatUC.Ask(ctx, &entity.ChatRequest{
		DocumentID: documentID,
		Message:    question,
		SessionID:  sessionID,
	})
	if err != nil {
		b.logger.Error("failed to answer question",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		b.reply(chatID, "Sorry, I couldn't process that question. Please try again.")
		return
	}

	// A no-context answer opens no session; keep the previous one.
	if answer.SessionID != "" {
		b.mu.Lock()
		state = b.stateLocked(chatID)
		state.sessionID = &answer.SessionID
		b.mu.Unlock()
	}

	b.reply(chatID, answer.Answer)
}

// stateLocked returns the chat state, creating it if needed. Callers must
// hold b.mu.
func (b *Bot) stateLocked(chatID int64) *chatState {
	state, ok := b.states[chatID]
	if !ok {
		state = &chatState{}
		b.states[chatID] = state
	}
	return state
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
