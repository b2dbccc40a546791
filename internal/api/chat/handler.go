package chat

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from arbitrary origins
		return true
	},
}

// incomingMessage is one question sent by the client over the socket.
type incomingMessage struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id,omitempty"`
}

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{
		usecase: usecase,
	}
}

// RegisterRoutes registers the chat WebSocket route on the router
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/ws/chat/{documentID}", h.Chat)
}

// Chat handles GET /ws/chat/{documentID}. It upgrades the connection and
// answers questions one at a time: questions are read sequentially, so
// events of different turns never interleave.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	documentID := chi.URLParam(r, "documentID")
	ctx = logger.AddFields(ctx, zap.String("document_id", documentID))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctxzap.Error(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctxzap.Info(ctx, "chat connection established")

	emit := func(event entity.ChatEvent) error {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(event)
	}

	if err := emit(entity.ChatEvent{Type: entity.EventConnected, Content: documentID}); err != nil {
		ctxzap.Warn(ctx, "failed to send connected event", zap.Error(err))
		return
	}

	for {
		var msg incomingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if isExpectedClose(err) {
				ctxzap.Info(ctx, "chat connection closed")
				return
			}
			if isTransportError(err) {
				ctxzap.Warn(ctx, "chat connection read failed", zap.Error(err))
				return
			}

			// Malformed payload; tell the client and keep the connection.
			ctxzap.Warn(ctx, "invalid chat message", zap.Error(err))
			if err := emit(entity.ErrorEvent("Invalid message format")); err != nil {
				return
			}
			continue
		}

		req := &entity.ChatRequest{
			DocumentID: documentID,
			Message:    msg.Message,
			SessionID:  msg.SessionID,
		}

		// Turn-level failures are reported to the client in-band; only
		// transport failures end the connection.
		if err := h.usecase.StreamAnswer(ctx, req, emit); err != nil {
			if isTransportError(err) {
				ctxzap.Warn(ctx, "chat connection write failed", zap.Error(err))
				return
			}
		}
	}
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

func isTransportError(err error) bool {
	var closeErr *websocket.CloseError
	var netErr net.Error
	return errors.As(err, &closeErr) || errors.As(err, &netErr) ||
		errors.Is(err, websocket.ErrCloseSent) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
