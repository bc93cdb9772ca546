// Package middlewarectx содержит HTTP middleware защищённых маршрутов.
//
// JWTMiddleware проверяет токен из заголовка Authorization и кладёт в контекст
// запроса принципала, из которого обработчики берут личность пользователя.
// RateLimitMiddleware ограничивает частоту запросов с одного адреса.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/familyvault/internal/http/response"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// PrincipalKey задаёт ключ принципала в контексте.
const PrincipalKey Key = "principal"

// Verifier проверяет токен и возвращает принципала.
type Verifier interface {
	Verify(token string) (models.Principal, error)
}

// WithPrincipal возвращает контекст с принципалом.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFrom достаёт принципала, положенного JWTMiddleware.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	return p, ok
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Отсутствующий заголовок, просроченный или поддельный токен дают 401,
// токен с верной подписью, но без обязательных полей дает 400.
func JWTMiddleware(auth Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			principal, err := auth.Verify(tokenStr)
			if err != nil {
				log.Warn("token rejected", sl.Err(err))
				response.RenderError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
