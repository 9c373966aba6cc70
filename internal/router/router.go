package router

import (
	"tillpoint-pos-api/internal/handler"
	"tillpoint-pos-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler             *handler.Handler
	CheckoutHandler     *handler.CheckoutHandler
	SyncHandler         *handler.SyncHandler
	ConnectivityHandler *handler.ConnectivityHandler
	ResourceHandler     *handler.ResourceHandler
	AdminHandler        *handler.AdminHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.CheckoutHandler != nil {
			r.Post("/checkout", cfg.CheckoutHandler.Checkout)
		}

		if cfg.SyncHandler != nil {
			r.Post("/sync", cfg.SyncHandler.SyncNow)
			r.Get("/queue", cfg.SyncHandler.Queue)
		}

		if cfg.ConnectivityHandler != nil {
			r.Route("/connectivity", func(r chi.Router) {
				r.Post("/", cfg.ConnectivityHandler.SetState)
				r.Get("/", cfg.ConnectivityHandler.GetState)
			})
		}

		if cfg.ResourceHandler != nil {
			r.Get("/resources/{resource}", cfg.ResourceHandler.GetSnapshot)
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Get("/health", cfg.AdminHandler.GetHealth)
			})
		}
	})

	return r
}
