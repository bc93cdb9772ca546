// Package removeself реализует HTTP-обработчик удаления собственной учетной записи.
package removeself

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

// Handler обрабатывает запросы на удаление своей учетной записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления своей учетной записи.
type Service interface {
	DeleteSelf(ctx context.Context, p models.Principal) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить свою учетную запись
// @Tags User
// @Produce json
// @Success 200 {object} response.ErrorResponse "Учетная запись удалена"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Security BearerAuth
// @Router /user/delete-user [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.removeself"

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

	if err := h.service.DeleteSelf(r.Context(), p); err != nil {
		log.Error("failed to delete account", slog.Int64("id", p.UserID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("account deleted", slog.Int64("id", p.UserID))
	render.JSON(w, r, response.Message("user deleted"))
}
