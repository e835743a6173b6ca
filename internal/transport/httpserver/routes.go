package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"medminder-go/internal/config"
	"medminder-go/internal/metrics"
	"medminder-go/internal/transport/httpserver/handler"
	"medminder-go/internal/transport/httpserver/middleware"
	"medminder-go/internal/transport/httpserver/ws"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, hub *ws.Hub, loginLimiter *middleware.RateLimiter, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.NewCORS(cfg.CORSOrigins))

	r.Handle("/metrics", m.Handler())

	// The change feed is long-lived and stays outside the request timeout.
	r.Get("/api/ws", ws.Handler(hub, handlers.Store, cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Use(m.Instrument)
		r.Use(chimw.Timeout(30 * time.Second))

		r.Get("/health", handlers.Health)
		r.Get("/state", handlers.GetState)
		r.Get("/adherence", handlers.GetAdherence)
		r.Delete("/error", handlers.ClearError)

		r.Post("/medications", handlers.CreateMedication)
		r.Patch("/medications/{id}", handlers.UpdateMedication)
		r.Delete("/medications/{id}", handlers.DeleteMedication)

		r.Post("/reminders/{id}/taken", handlers.MarkReminderTaken)
		r.Post("/reminders/{id}/skipped", handlers.MarkReminderSkipped)

		r.Post("/caregivers", handlers.CreateCaregiver)
		r.Patch("/caregivers/{id}", handlers.UpdateCaregiver)
		r.Delete("/caregivers/{id}", handlers.DeleteCaregiver)

		r.Patch("/user", handlers.UpdateUser)

		r.With(loginLimiter.Middleware).Post("/auth/login", handlers.Login)
		r.With(loginLimiter.Middleware).Post("/auth/signup", handlers.Signup)
		r.Post("/auth/logout", handlers.Logout)

		r.Get("/assistant", handlers.AssistantGreeting)
		r.Post("/assistant/messages", handlers.AssistantMessage)
	})

	return r
}
