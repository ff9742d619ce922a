package http

import (
	"net/http"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/application/account"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/config"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		// The session credential is a cookie, so cross-origin requests from
		// the frontend must carry credentials.
		AllowCredentials: true,
		MaxAge:           300,
	}))

	accountSvc := account.NewService(account.ServiceDeps{
		AccountRepo:  deps.AccountRepo,
		Mailer:       deps.Mailer,
		TokenSigner:  deps.JWTProvider,
		ClientOrigin: cfg.ClientOrigin,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(accountSvc, cfg.JWTExpiry, cfg.IsProduction())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			// ── Public routes (no auth) ──────────────────────────────────
			r.Post("/signup", authH.Signup)
			r.Post("/verify-email", authH.VerifyEmail)
			r.Post("/login", authH.Login)
			r.Post("/logout", authH.Logout)
			r.Post("/forgot-password", authH.ForgotPassword)
			r.Post("/reset-password/{token}", authH.ResetPassword)

			// ── Authenticated routes ─────────────────────────────────────
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.JWTProvider))
				r.Get("/check-auth", authH.CheckAuth)
			})
		})
	})

	return r
}
