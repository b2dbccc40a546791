package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	chatapi "github.com/futig/docqa-backend/internal/api/chat"
	"github.com/futig/docqa-backend/internal/api/docs"
	documentapi "github.com/futig/docqa-backend/internal/api/document"
	"github.com/futig/docqa-backend/internal/api/middleware"
	searchapi "github.com/futig/docqa-backend/internal/api/search"
	sessionapi "github.com/futig/docqa-backend/internal/api/session"
	systemapi "github.com/futig/docqa-backend/internal/api/system"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	documentHandler *documentapi.Handler,
	chatHandler *chatapi.Handler,
	sessionHandler *sessionapi.Handler,
	searchHandler *searchapi.Handler,
	systemHandler *systemapi.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)   // Recover from panics
	r.Use(chimiddleware.RequestID)   // Add request ID
	r.Use(middleware.Logger(logger)) // Log requests
	r.Use(middleware.CORS)           // Handle CORS

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// System endpoints stay outside the request timeout
	systemapi.RegisterRoutes(r, systemHandler)

	// WebSocket chat holds long-lived connections, no timeout middleware
	chatapi.RegisterRoutes(r, chatHandler)

	// REST routes
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		documentapi.RegisterRoutes(r, documentHandler)
		sessionapi.RegisterRoutes(r, sessionHandler)
		searchapi.RegisterRoutes(r, searchHandler)
	})

	return r
}
