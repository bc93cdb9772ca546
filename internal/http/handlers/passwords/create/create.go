// Package create реализует HTTP-обработчик для добавления записи с паролем.
//
// Handler декодирует JSON из тела запроса, валидирует его и передаёт сервису
// вместе с принципалом из контекста. Секрет шифруется в сервисе, в ответ
// возвращаются только несекретные поля созданной записи.
package create

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

// Handler обрабатывает запросы на создание записи.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики записей
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики создания записи.
type Service interface {
	Create(ctx context.Context, p models.Principal, req models.NewEntry) (models.EntryInfo, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать запись
// @Description Шифрует пароль и сохраняет запись. Видимость по умолчанию private.
// @Tags Passwords
// @Accept json
// @Produce json
// @Param request body models.NewEntry true "Данные записи"
// @Success 201 {object} models.EntryInfo
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /passwords/create [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.passwords.create"

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

	var req models.NewEntry
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

	info, err := h.service.Create(r.Context(), p, req)
	if err != nil {
		log.Error("failed to create entry", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("entry created", slog.Int64("id", info.ID), slog.Int64("user_id", p.UserID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}
