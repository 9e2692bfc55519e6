// Package sublimall собирает сайт: хранилища, сервисы, обработчики и маршруты.
package sublimall

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/sublimall/internal/http/cookie"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/account/accountdelete"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/account/accountview"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/account/apikey"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/account/packageremove"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/api/retrieve"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/api/upload"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/auth/registerconfirm"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/auth/registerresend"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/health"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/home"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/recovery/recoveryconfirm"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/recovery/recoveryrequest"
	"github.com/magabrotheeeer/sublimall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/metrics"
	authservice "github.com/magabrotheeeer/sublimall/internal/services/auth"
	membersservice "github.com/magabrotheeeer/sublimall/internal/services/members"
	packagesservice "github.com/magabrotheeeer/sublimall/internal/services/packages"
)

// Deps зависимости маршрутов.
type Deps struct {
	Logger      *slog.Logger
	Audit       *slog.Logger
	Auth        *authservice.Service
	Members     *membersservice.Service
	Packages    *packagesservice.Service
	View        *view.Renderer
	Cookies     *cookie.Session
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Limiter     *middlewarectx.IPLimiter
	Health      map[string]health.Pinger
	Maintenance bool
	TrustProxy  bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middlewarectx.ClientAddr(d.TrustProxy),
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics(d.Metrics),
	)

	r.Get("/health", health.New(d.Logger, d.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.Maintenance(d.Maintenance, d.View))
		// Ограничение частоты для POST с учетными данными
		limited := middlewarectx.RateLimitMiddleware(d.Logger, d.Limiter)

		// API загрузки пакетов, вход по email и ключу API
		r.With(limited).Post("/api/upload", upload.New(d.Logger, d.Auth, d.Packages, d.Metrics).ServeHTTP)
		r.With(limited).Post("/api/retrieve", retrieve.New(d.Logger, d.Auth, d.Packages).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Session(d.Logger, d.Auth, d.Cookies))

			r.Get("/", home.New(d.View).ServeHTTP)

			loginHandler := login.New(d.Logger, d.Audit, d.Auth, d.Cookies, d.View, d.Metrics)
			r.Get("/login", loginHandler.Show)
			r.With(limited).Post("/login", loginHandler.Submit)
			r.Get("/logout", logout.New(d.Logger, d.Auth, d.Cookies).ServeHTTP)

			registerHandler := register.New(d.Logger, d.Members, d.View, d.Metrics)
			r.Get("/registration", registerHandler.Show)
			r.With(limited).Post("/registration", registerHandler.Submit)

			resendHandler := registerresend.New(d.Logger, d.Members, d.View)
			r.Get("/registration/resend", resendHandler.Show)
			r.With(limited).Post("/registration/resend", resendHandler.Submit)
			r.Get("/registration-confirmation/{id}/{key}/", registerconfirm.New(d.Logger, d.Members, d.View).ServeHTTP)

			recoveryHandler := recoveryrequest.New(d.Logger, d.Members, d.View)
			r.Get("/password-recovery", recoveryHandler.Show)
			r.With(limited).Post("/password-recovery", recoveryHandler.Submit)

			recoveryConfirmHandler := recoveryconfirm.New(d.Logger, d.Members, d.View)
			r.Get("/password-recovery-confirmation/{id}/{key}/", recoveryConfirmHandler.Show)
			r.With(limited).Post("/password-recovery-confirmation/{id}/{key}/", recoveryConfirmHandler.Submit)

			// Страницы только для вошедших участников
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireMember("/login"))

				r.Get("/account", accountview.New(d.Logger, d.Packages, d.View).ServeHTTP)

				deleteHandler := accountdelete.New(d.Logger, d.Members, d.Cookies, d.View)
				r.Get("/account/delete", deleteHandler.Show)
				r.Post("/account/delete", deleteHandler.Submit)

				apiKeyHandler := apikey.New(d.Logger, d.Members, d.View)
				r.Get("/account/api-key", apiKeyHandler.ServeHTTP)
				r.Post("/account/api-key", apiKeyHandler.ServeHTTP)

				r.Post("/account/packages/{id}/delete", packageremove.New(d.Logger, d.Packages, d.View).ServeHTTP)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		d.View.Error(w, r, http.StatusNotFound, "Page not found.")
	})
}
