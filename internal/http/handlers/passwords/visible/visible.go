// Package visible реализует HTTP-обработчик списка записей, доступных
// текущему пользователю: своих и семейных.
package visible

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/http/response"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// Handler обрабатывает запросы на получение видимых записей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выборки записей.
type Service interface {
	ListVisible(ctx context.Context, p models.Principal) ([]models.VisibleEntry, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Видимые записи
// @Description Возвращает свои и семейные записи, упорядоченные по id. Если секрет не расшифровался, password равен null.
// @Tags Passwords
// @Produce json
// @Success 200 {array} models.VisibleEntry
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /passwords/visible [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.passwords.visible"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		log.Error("principal not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	entries, err := h.service.ListVisible(r.Context(), p)
	if err != nil {
		log.Error("failed to list entries", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("entries listed", slog.Int("count", len(entries)))
	render.JSON(w, r, entries)
}
