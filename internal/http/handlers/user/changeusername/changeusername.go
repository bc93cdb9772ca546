// Package changeusername реализует HTTP-обработчик смены имени пользователя.
//
// Новое имя применяется после проверки текущего пароля. Уже выданные
// токены продолжают нести прежнее имя до истечения срока.
package changeusername

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/http/response"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// Request содержит текущий пароль и новое имя.
type Request struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewUsername     string `json:"newUsername" validate:"required"`
}

// Handler обрабатывает запросы на смену имени.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики смены имени.
type Service interface {
	ChangeUsername(ctx context.Context, p models.Principal, currentPassword, newUsername string) error
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
// @Summary Сменить имя пользователя
// @Tags User
// @Accept json
// @Produce json
// @Param request body Request true "Текущий пароль и новое имя"
// @Success 200 {object} response.ErrorResponse "Имя изменено"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или имя занято"
// @Failure 401 {object} response.ErrorResponse "Пароль неверен"
// @Security BearerAuth
// @Router /user/change-username [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.changeusername"

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

	if err := h.service.ChangeUsername(r.Context(), p, req.CurrentPassword, req.NewUsername); err != nil {
		log.Error("failed to change username", slog.Int64("id", p.UserID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("username changed", slog.Int64("id", p.UserID), slog.String("username", req.NewUsername))
	render.JSON(w, r, response.Message("username changed"))
}
