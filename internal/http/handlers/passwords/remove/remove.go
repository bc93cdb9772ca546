// Package remove реализует HTTP-обработчик удаления записи по ID.
package remove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/http/response"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// Handler обрабатывает запросы на удаление записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления записи.
type Service interface {
	Delete(ctx context.Context, p models.Principal, id int64) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить запись
// @Tags Passwords
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} response.ErrorResponse "Запись удалена"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Security BearerAuth
// @Router /passwords/delete/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.passwords.remove"

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

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		response.RenderBadRequest(w, r, "invalid id")
		return
	}

	if err := h.service.Delete(r.Context(), p, id); err != nil {
		log.Error("failed to delete entry", slog.Int64("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("entry deleted", slog.Int64("id", id))
	render.JSON(w, r, response.Message("password entry deleted"))
}
