package familyvault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/familyvault/internal/cache"
	"github.com/magabrotheeeer/familyvault/internal/config"
	"github.com/magabrotheeeer/familyvault/internal/lib/cipher"
	"github.com/magabrotheeeer/familyvault/internal/lib/jwt"
	"github.com/magabrotheeeer/familyvault/internal/metrics"
	"github.com/magabrotheeeer/familyvault/internal/migrations"
	"github.com/magabrotheeeer/familyvault/internal/ratelimit"
	authservice "github.com/magabrotheeeer/familyvault/internal/services/auth"
	userservice "github.com/magabrotheeeer/familyvault/internal/services/users"
	vaultservice "github.com/magabrotheeeer/familyvault/internal/services/vault"
	"github.com/magabrotheeeer/familyvault/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP-сервер хранилища со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache // nil, если лимит входа хранится в памяти
}

// New подключается к базе, применяет миграции и собирает маршруты.
// Ошибка инициализации шифра останавливает запуск.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	const op = "familyvault.New"

	c, err := cipher.New(cfg.CryptoSecretKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limiter, redisCache, err := newLoginLimiter(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New(reg)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker, limiter, m, logger)
	vaultService := vaultservice.NewVaultService(db, c, m, logger)
	userService := userservice.NewUserService(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, vaultService, userService, cfg.APILimit, m)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  redisCache,
	}, nil
}

// newLoginLimiter выбирает хранилище окна попыток входа: Redis, если задан адрес, иначе память.
func newLoginLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, *cache.Cache, error) {
	if cfg.AddressRedis == "" {
		return ratelimit.NewWindow(cfg.LoginAttempts, cfg.LoginWindow), nil, nil
	}
	c, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, nil, err
	}
	return ratelimit.NewRedisWindow(c.Db, cfg.LoginAttempts, cfg.LoginWindow), c, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close storage", slog.Any("err", err))
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", slog.Any("err", err))
		}
	}
}
