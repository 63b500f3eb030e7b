package app

import (
	"database/sql"
	"net/http"
	"time"

	"surveyadmin/internal/app/observability"
	"surveyadmin/internal/auth"
	"surveyadmin/internal/report"
	"surveyadmin/internal/survey"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	metrics := observability.NewCollector(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	authSvc := auth.NewService(db, auth.ServiceConfig{
		SessionTTL: time.Duration(cfg.SessionTTLHours) * time.Hour,
	})
	authHandler := auth.NewHandler(authSvc)

	reportSvc := report.NewService(survey.NewStore(db), report.ServiceConfig{
		CSV:      cfg.CSV(),
		Observer: metrics,
	})
	reportHandler := report.NewHandler(reportSvc)

	loginLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.MetricsHandler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(CSRFMiddleware(cfg.CSRFEnforced))

		api.With(RateLimitMiddleware(loginLimiter)).Post("/auth/login-password", authHandler.LoginPassword)

		api.Group(func(secure chi.Router) {
			secure.Use(authHandler.RequireAuth)
			secure.Get("/auth/me", authHandler.Me)
			secure.Post("/auth/logout", authHandler.Logout)

			secure.Group(func(admin chi.Router) {
				admin.Use(authHandler.RequireRoles(auth.RoleAdmin, auth.RoleStaff))
				admin.Get("/admin/surveys", reportHandler.ListSurveys)
				admin.Post("/admin/surveys/export/csv", reportHandler.ExportCSV)
				admin.Post("/admin/surveys/export/xlsx", reportHandler.ExportXLSX)
			})
		})
	})

	return r
}
