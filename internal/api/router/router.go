package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/wmcproducts/partner-site/internal/admin"
	"github.com/wmcproducts/partner-site/internal/auth"
	httpmiddleware "github.com/wmcproducts/partner-site/internal/http/middleware"
	"github.com/wmcproducts/partner-site/internal/leads"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	AdminHandler       *admin.Handler
	AuthHandler        *auth.Handler
	AuthProvider       auth.Provider
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// TrustProxyHeaders lets chi's RealIP rewrite RemoteAddr from
	// X-Real-Ip/X-Forwarded-For before rate limiting.
	TrustProxyHeaders bool

	// Per-IP limits; nil disables limiting.
	SubmitLimiter *httpmiddleware.RateLimiter
	LoginLimiter  *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httpmiddleware.RequestIDHeader},
			ExposedHeaders:   []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler)
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.LeadsHandler != nil {
			public.With(limit(cfg.SubmitLimiter)).Post("/api/partner", cfg.LeadsHandler.SubmitPartnerForm)
		}
	})

	if cfg.AuthHandler == nil || cfg.AuthProvider == nil {
		return r
	}

	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/login", cfg.AuthHandler.LoginPage)
		ar.With(limit(cfg.LoginLimiter)).Post("/login", cfg.AuthHandler.Login)
		ar.Post("/logout", cfg.AuthHandler.Logout)

		// Server-rendered console
		if cfg.AdminHandler != nil {
			ar.Group(func(pages chi.Router) {
				pages.Use(auth.RequireSession(cfg.AuthProvider, auth.PageMode, cfg.Logger))
				pages.Get("/", cfg.AdminHandler.List)
				pages.Get("/leads/{id}", cfg.AdminHandler.Detail)
				pages.Post("/leads/{id}/status", cfg.AdminHandler.UpdateStatus)
				pages.Get("/leads/{id}/delete", cfg.AdminHandler.ConfirmDelete)
				pages.Post("/leads/{id}/delete", cfg.AdminHandler.Delete)
			})
		}

		// JSON API for the same operations
		if cfg.LeadsHandler != nil {
			ar.Route("/api", func(api chi.Router) {
				api.Use(auth.RequireSession(cfg.AuthProvider, auth.APIMode, cfg.Logger))
				api.Get("/leads", cfg.LeadsHandler.ListLeads)
				api.Get("/leads/{id}", cfg.LeadsHandler.GetLead)
				api.Patch("/leads/{id}", cfg.LeadsHandler.UpdateLeadStatus)
				api.Delete("/leads/{id}", cfg.LeadsHandler.DeleteLead)
			})
		}
	})

	return r
}

func limit(rl *httpmiddleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
