package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"lms-backend/internal/handlers"
	"lms-backend/internal/middleware"
	"lms-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	eventHandler *handlers.LearningEventHandler,
	completionHandler *handlers.CompletionHandler,
	activityHandler *handlers.SuspiciousActivityHandler,
	wsHub *websocket.Hub,
	ingestLimiter *middleware.RateLimiter,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Learning Event Routes ────
		r.Route("/learning-events", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(ingestLimiter.Middleware)
			r.Post("/pdf", eventHandler.RecordPDF)
			r.Post("/video", eventHandler.RecordVideo)
		})

		// ──── Completion Routes ────
		r.Route("/completion", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(chimiddleware.Timeout(30 * time.Second))
			r.Get("/pdf/{id}", completionHandler.ValidatePDF)
			r.Get("/video/{id}", completionHandler.ValidateVideo)
			r.Post("/videos", completionHandler.ValidateVideos)
			r.Post("/{kind}/{id}/finish", completionHandler.Finish)
		})

		r.Route("/completions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", completionHandler.GetCompletion)
		})

		// ──── Suspicious Activity Routes ────
		r.Route("/suspicious-activities", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", activityHandler.List)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", completionHandler.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
