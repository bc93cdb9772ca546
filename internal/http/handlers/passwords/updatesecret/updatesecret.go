// Package updatesecret реализует HTTP-обработчик смены пароля в записи.
// Перед сменой клиент подтверждает текущий пароль записи.
package updatesecret

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

// Request содержит текущий и новый пароль записи.
type Request struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// Handler обрабатывает запросы на смену пароля записи.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики смены пароля записи.
type Service interface {
	UpdateSecret(ctx context.Context, p models.Principal, id int64, current, newSecret string) error
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
// @Summary Сменить пароль записи
// @Tags Passwords
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param request body Request true "Текущий и новый пароль"
// @Success 200 {object} response.ErrorResponse "Пароль обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Текущий пароль неверен"
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Security BearerAuth
// @Router /passwords/update-password/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.passwords.updatesecret"

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

	var req Request
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

	if err := h.service.UpdateSecret(r.Context(), p, id, req.CurrentPassword, req.Password); err != nil {
		log.Error("failed to update entry password", slog.Int64("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("entry password updated", slog.Int64("id", id))
	render.JSON(w, r, response.Message("password updated"))
}
