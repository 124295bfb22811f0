package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"newvision-backend/internal/handlers"
	"newvision-backend/internal/middleware"
	"newvision-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Send rate limiter (30 sends/min per user)
	sendLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Chat Routes ────
		r.Route("/chats", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", chatHandler.List)
			r.Post("/{id}/open", chatHandler.Open)
			r.Get("/{id}/messages", chatHandler.Messages)
			r.Delete("/{id}", chatHandler.Delete)
			r.Put("/{id}/archive", chatHandler.Archive)
			r.Put("/{id}/pin", chatHandler.Pin)

			r.Group(func(r chi.Router) {
				r.Use(sendLimiter.Middleware)
				r.Post("/{id}/messages", chatHandler.Send)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
