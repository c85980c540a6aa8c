package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pixgate/internal/auth"
	"pixgate/internal/config"
	"pixgate/internal/debuglog"
	"pixgate/internal/service"
	"pixgate/internal/util"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Config      *config.Config
	Resolver    *auth.Resolver
	Auth        *AuthHandler
	Admin       *AdminHandler
	Backoffice  *BackofficeHandler
	Pix         *PixHandler
	Webhook     *WebhookHandler
	APIKeys     *APIKeyHandler
	KeyService  *service.APIKeyService
	Debug       *DebugHandler
	Ring        *debuglog.Ring
	HealthCheck func() map[string]string
}

// NewRouter assembles the full HTTP surface.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Ring))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.Config.Server.APIURL, deps.Config.Server.DocsURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if deps.HealthCheck != nil {
			respondWithJSON(w, http.StatusOK, deps.HealthCheck())
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	dashboardSession := RequireSession(deps.Resolver, auth.KindDashboard)
	dashboardAdmin := RequireSession(deps.Resolver, auth.KindDashboard, auth.BackofficeRoles...)
	backofficeSession := RequireSession(deps.Resolver, auth.KindBackoffice, auth.BackofficeRoles...)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.Auth.Register)
			r.Post("/login", deps.Auth.Login)
			r.Post("/logout", deps.Auth.Logout)
			r.With(dashboardSession).Get("/test", deps.Auth.Test)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(dashboardAdmin)
			r.Get("/users", deps.Admin.ListUsers)
			r.Post("/users/{userID}/approve", deps.Admin.ApproveUser)
			r.Post("/users/{userID}/reject", deps.Admin.RejectUser)
		})

		r.Route("/pix", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(dashboardSession)
				r.Get("/balance", deps.Pix.Balance)
				r.Post("/charge", deps.Pix.CreateCharge)
			})
			r.With(dashboardAdmin).Get("/provider/balance", deps.Pix.ProviderBalance)
			r.With(RequireAPIKey(deps.KeyService, "payments:write")).Post("/cashin", deps.Pix.Cashin)
		})

		r.Route("/keys", func(r chi.Router) {
			r.Use(dashboardSession)
			r.Post("/", deps.APIKeys.CreateKey)
			r.Get("/", deps.APIKeys.ListKeys)
			r.Delete("/{keyID}", deps.APIKeys.RevokeKey)
		})

		// The production callback endpoint requires a scoped API key; the
		// test harness endpoint is open and runs the same relay path.
		r.With(RequireAPIKey(deps.KeyService, "webhooks:write")).Post("/webhooks/cashin", deps.Webhook.Cashin)
		r.Post("/test-webhook", deps.Webhook.TestWebhook)

		r.With(dashboardAdmin).Get("/debug/logs", deps.Debug.Logs)

		if deps.Config.Server.BackofficeEnabled {
			r.Route("/backoffice", func(r chi.Router) {
				r.Post("/auth/login", deps.Backoffice.Login)
				r.Post("/auth/logout", deps.Backoffice.Logout)

				r.Group(func(r chi.Router) {
					r.Use(backofficeSession)
					r.Get("/auth/me", deps.Backoffice.Me)
					r.Get("/users", deps.Backoffice.ListUsers)
					r.Get("/users/search", deps.Backoffice.SearchUsers)
					r.Post("/impersonation/start", deps.Backoffice.StartImpersonation)
					r.Get("/impersonation/validate", deps.Backoffice.ValidateImpersonation)
					r.Post("/impersonation/end", deps.Backoffice.EndImpersonation)
					r.Get("/impersonation/history", deps.Backoffice.ImpersonationHistory)
				})
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed")
	})

	return r
}

// requestLogger logs every request and mirrors a one-line summary into the
// diagnostics ring.
func requestLogger(ring *debuglog.Ring) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			util.Info("request",
				util.String("method", r.Method),
				util.String("path", r.URL.Path),
				util.Int("status", ww.Status()),
				util.Duration("duration", elapsed),
				util.String("request_id", middleware.GetReqID(r.Context())))
			if ring != nil {
				ring.Add("http", fmt.Sprintf("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), elapsed))
			}
		})
	}
}
