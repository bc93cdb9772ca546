// Package update реализует HTTP-обработчик частичного изменения записи.
//
// Изменять запись может владелец или администратор. Пустое обновление
// отклоняется как некорректный запрос.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/http/response"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// Handler обрабатывает запросы на изменение записи.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики записей
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики изменения записи.
type Service interface {
	Update(ctx context.Context, p models.Principal, id int64, upd models.EntryUpdate) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить запись
// @Description Меняет переданные поля записи. Новый пароль шифруется заново.
// @Tags Passwords
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param request body models.EntryUpdate true "Изменяемые поля"
// @Success 200 {object} response.ErrorResponse "Запись обновлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /passwords/update/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.passwords.update"

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

	var req models.EntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.RenderBadRequest(w, r, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Update(r.Context(), p, id, req); err != nil {
		log.Error("failed to update entry", slog.Int64("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("entry updated", slog.Int64("id", id))
	render.JSON(w, r, response.Message("password entry updated"))
}
