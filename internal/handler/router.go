package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/supper-club/internal/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RouterConfig is what NewRouter needs beyond the handlers.
type RouterConfig struct {
	Verifier       *auth.Verifier
	Log            *zap.Logger
	AllowedOrigins []string
	RateLimit      int
	Health         map[string]Pinger
}

// NewRouter builds the API router.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(cfg.Log))         // structured access log
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(RateLimit(cfg.RateLimit))
	r.Use(auth.Middleware(cfg.Verifier, cfg.Log, h.Rejected))

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	// Health
	r.Get("/health", HealthCheck(cfg.Log, cfg.Health))

	// API routes
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Post("/{id}/cancel", h.CancelEvent)

		r.Post("/{id}/poll", h.CreatePoll)
		r.Get("/{id}/poll", h.GetPoll)
		r.Post("/{id}/poll/respond", h.SubmitPollResponse)
		r.Post("/{id}/poll/finalize", h.FinalizePoll)
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", h.CreateReservation)
		r.Get("/", h.ListReservations)
		r.Delete("/{id}", h.CancelReservation)
	})

	return r
}
