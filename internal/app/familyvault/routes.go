// Package familyvault собирает HTTP-приложение хранилища паролей:
// хранилище, сервисы, маршруты и сервер.
package familyvault

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/familyvault/internal/config"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/passwords/create"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/passwords/remove"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/passwords/search"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/passwords/update"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/passwords/updatesecret"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/passwords/updateusername"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/passwords/visible"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/user/changepassword"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/user/changeusername"
	usercreate "github.com/magabrotheeeer/familyvault/internal/http/handlers/user/create"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/user/nonadmin"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/user/read"
	userremove "github.com/magabrotheeeer/familyvault/internal/http/handlers/user/remove"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/user/removeself"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/user/role"
	userupdate "github.com/magabrotheeeer/familyvault/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/familyvault/internal/http/handlers/user/validatepassword"
	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/metrics"
	authservice "github.com/magabrotheeeer/familyvault/internal/services/auth"
	userservice "github.com/magabrotheeeer/familyvault/internal/services/users"
	vaultservice "github.com/magabrotheeeer/familyvault/internal/services/vault"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	authService *authservice.AuthService,
	vaultService *vaultservice.VaultService,
	userService *userservice.UserService,
	apiLimit config.APILimit,
	m *metrics.Metrics,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	// Вход ограничивается отдельным окном внутри сервиса аутентификации.
	r.Post("/auth/login", login.New(logger, authService).ServeHTTP)

	r.Route("/passwords", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authService, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger, apiLimit.APIRps, apiLimit.APIBurst, m))

		r.Post("/create", create.New(logger, vaultService).ServeHTTP)
		r.Get("/visible", visible.New(logger, vaultService).ServeHTTP)
		r.Get("/search/{serviceName}", search.New(logger, vaultService).ServeHTTP)
		r.Put("/update/{id}", update.New(logger, vaultService).ServeHTTP)
		r.Put("/update-password/{id}", updatesecret.New(logger, vaultService).ServeHTTP)
		r.Put("/update-username/{id}", updateusername.New(logger, vaultService).ServeHTTP)
		r.Delete("/delete/{id}", remove.New(logger, vaultService).ServeHTTP)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authService, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger, apiLimit.APIRps, apiLimit.APIBurst, m))

		r.Post("/create", usercreate.New(logger, userService).ServeHTTP)
		r.Get("/non-admin-users", nonadmin.New(logger, userService).ServeHTTP)
		r.Get("/user/{id}", read.New(logger, userService).ServeHTTP)
		r.Put("/user/{id}", userupdate.New(logger, userService).ServeHTTP)
		r.Delete("/delete-user/{id}", userremove.New(logger, userService).ServeHTTP)
		r.Delete("/delete-user", removeself.New(logger, userService).ServeHTTP)
		r.Put("/change-username", changeusername.New(logger, userService).ServeHTTP)
		r.Put("/change-password", changepassword.New(logger, userService).ServeHTTP)
		r.Post("/validate-password", validatepassword.New(logger, userService).ServeHTTP)
		r.Get("/role", role.New(logger, userService).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
