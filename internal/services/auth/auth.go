// Package services содержит вход по паролю и проверку токенов сессии.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/lib/jwt"
	"github.com/magabrotheeeer/familyvault/internal/lib/password"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/metrics"
	"github.com/magabrotheeeer/familyvault/internal/models"
	"github.com/magabrotheeeer/familyvault/internal/ratelimit"
)

// UserProvider описывает поиск пользователя по имени.
type UserProvider interface {
	// GetUserByUsername возвращает пользователя или apperr.ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService отвечает за вход и проверку токенов.
type AuthService struct {
	users    UserProvider
	jwtMaker jwt.Maker
	limiter  ratelimit.Limiter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserProvider, jwtMaker jwt.Maker, limiter ratelimit.Limiter, m *metrics.Metrics, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		limiter:  limiter,
		metrics:  m,
		log:      log,
	}
}

// Authenticate проверяет пароль и выпускает токен сессии.
//
// Сначала проверяется лимит попыток для clientKey: при превышении возвращается
// apperr.ErrRateLimited без обращения к хранилищу. Неизвестное имя и неверный
// пароль неразличимы и дают apperr.ErrAuthenticationFailure.
func (s *AuthService) Authenticate(ctx context.Context, clientKey, username, rawPassword string) (string, error) {
	const op = "services.Authenticate"
	log := s.log.With(sl.Op(op))

	allowed, err := s.limiter.Allow(ctx, clientKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !allowed {
		s.metrics.Login(metrics.LoginRateLimited)
		log.Warn("login rate limit exceeded", slog.String("client", clientKey))
		return "", fmt.Errorf("%s: %w", op, apperr.ErrRateLimited)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = password.CompareDummy(rawPassword)
			s.metrics.Login(metrics.LoginFailure)
			return "", fmt.Errorf("%s: %w", op, apperr.ErrAuthenticationFailure)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.Error("stored password hash is unusable", slog.Int64("user_id", user.ID), sl.Err(err))
		}
		s.metrics.Login(metrics.LoginFailure)
		return "", fmt.Errorf("%s: %w", op, apperr.ErrAuthenticationFailure)
	}

	token, err := s.jwtMaker.GenerateToken(*user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.Login(metrics.LoginSuccess)
	return token, nil
}

// Verify проверяет токен и возвращает принципала.
//
// Ошибки: apperr.ErrTokenExpired, apperr.ErrTokenInvalid, apperr.ErrMalformedPrincipal.
func (s *AuthService) Verify(token string) (models.Principal, error) {
	const op = "services.Verify"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: %w", op, err)
	}
	principal, err := claims.Principal()
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: %w", op, err)
	}
	return principal, nil
}
