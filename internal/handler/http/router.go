package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/service"
	"github.com/sellora/identity/pkg/health"
	"github.com/sellora/identity/pkg/middleware"
)

// RouterConfig bundles the cross-cutting settings the router needs.
type RouterConfig struct {
	Cookie CookieConfig
	CORS   middleware.CORSConfig
}

// NewRouter creates a chi router with all identity service routes registered.
func NewRouter(
	accounts *service.AccountService,
	orgs *service.OrganizationService,
	sessions *service.SessionService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("identity"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(accounts, sessions, cfg.Cookie, logger)
	orgHandler := NewOrgHandler(orgs, logger)
	adminHandler := NewAdminHandler(accounts, sessions, logger)

	resolveSession := SessionAuth(sessions, cfg.Cookie.Name)

	// Auth endpoints (public)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/verify-email", authHandler.VerifyEmail)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		// Authenticated auth endpoints
		r.Group(func(r chi.Router) {
			r.Use(resolveSession)
			r.Use(RequireAuth)

			r.Post("/signout", authHandler.SignOut)
			r.Post("/signout-all", authHandler.SignOutAll)
			r.Post("/resend-verification", authHandler.ResendVerification)
			r.Post("/change-password", authHandler.ChangePassword)
			r.Post("/change-email", authHandler.RequestEmailChange)
			r.Post("/confirm-email-change", authHandler.ConfirmEmailChange)
		})
	})

	// Profile, linked accounts, and device endpoints (auth required)
	r.Route("/api/v1/users/me", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(resolveSession)
		r.Use(RequireAuth)

		r.Get("/", authHandler.GetProfile)
		r.Patch("/", authHandler.UpdateProfile)

		r.Get("/accounts", authHandler.ListAccounts)
		r.Post("/accounts", authHandler.LinkAccount)

		r.Get("/sessions", authHandler.ListSessions)
		r.Delete("/sessions/{id}", authHandler.RevokeSession)
	})

	// Organization endpoints (auth required)
	r.Route("/api/v1/orgs", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(resolveSession)
		r.Use(RequireAuth)

		r.Post("/", orgHandler.Create)

		r.Route("/{orgId}", func(r chi.Router) {
			r.Get("/", orgHandler.Get)
			r.Patch("/", orgHandler.Update)
			r.Delete("/", orgHandler.Delete)
			r.Post("/leave", orgHandler.Leave)

			r.Get("/invitations", orgHandler.ListInvitations)
			r.Post("/invitations", orgHandler.Invite)
			r.Delete("/invitations/{id}", orgHandler.CancelInvitation)

			r.Get("/members", orgHandler.ListMembers)
			r.Patch("/members/{id}", orgHandler.UpdateMember)
			r.Delete("/members/{id}", orgHandler.RemoveMember)

			r.Get("/roles", orgHandler.ListRoles)
			r.Post("/roles", orgHandler.CreateRole)
			r.Patch("/roles/{id}", orgHandler.UpdateRole)
			r.Delete("/roles/{id}", orgHandler.DeleteRole)
		})
	})

	// Invitation endpoints addressed to the signed-in user
	r.Route("/api/v1/invitations", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(resolveSession)
		r.Use(RequireAuth)

		r.Post("/{id}/accept", orgHandler.AcceptInvitation)
		r.Post("/{id}/reject", orgHandler.RejectInvitation)
	})

	// Admin endpoints (admin system role required)
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(resolveSession)
		r.Use(RequireSystemRole(domain.RoleAdmin))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", adminHandler.ListUsers)
			r.Get("/{id}", adminHandler.GetUser)
			r.Post("/{id}/ban", adminHandler.BanUser)
			r.Post("/{id}/unban", adminHandler.UnbanUser)
			r.Post("/{id}/role", adminHandler.SetRole)
			r.Post("/{id}/impersonate", adminHandler.Impersonate)
		})

		r.Post("/impersonation/stop", adminHandler.StopImpersonation)
	})

	return r
}

func pathParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
