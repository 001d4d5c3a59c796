package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/parisxmas/OxiDB/OxiWL/internal/auth"
	"github.com/parisxmas/OxiDB/OxiWL/internal/handler"
	mw "github.com/parisxmas/OxiDB/OxiWL/internal/middleware"
)

func New(
	jwtSecret string,
	corsOrigins []string,
	authH *handler.AuthHandler,
	ipH *handler.IPHandler,
	auditH *handler.AuditHandler,
	healthH *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.CORS(corsOrigins))

	r.Get("/healthz", healthH.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/register", authH.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			r.Get("/auth/me", authH.Me)

			// Whitelist
			r.Get("/ips", ipH.List)
			r.Post("/ips", ipH.Create)
			r.Get("/ips/{ipId}", ipH.Get)
			r.Put("/ips/{ipId}", ipH.Update)
			r.Delete("/ips/{ipId}", ipH.Delete)

			// Audit log
			r.Get("/audit-logs", auditH.List)
		})
	})

	return r
}
