// Package search реализует HTTP-обработчик поиска видимых записей по
// точному названию сервиса.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/http/response"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// Handler обрабатывает запросы поиска записей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики поиска.
type Service interface {
	Search(ctx context.Context, p models.Principal, serviceName string) ([]models.VisibleEntry, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Поиск записей
// @Description Возвращает видимые записи с указанным названием сервиса.
// @Tags Passwords
// @Produce json
// @Param serviceName path string true "Название сервиса"
// @Success 200 {array} models.VisibleEntry
// @Failure 400 {object} response.ErrorResponse "Пустое или некорректно экранированное название"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /passwords/search/{serviceName} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.passwords.search"

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

	serviceName := chi.URLParam(r, "serviceName")
	// При непустом RawPath chi отдаёт параметр в экранированном виде.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(serviceName)
		if err != nil {
			log.Error("failed to unescape service name", sl.Err(err))
			response.RenderBadRequest(w, r, "invalid service name")
			return
		}
		serviceName = unescaped
	}
	entries, err := h.service.Search(r.Context(), p, serviceName)
	if err != nil {
		log.Error("failed to search entries", slog.String("service_name", serviceName), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("entries found", slog.String("service_name", serviceName), slog.Int("count", len(entries)))
	render.JSON(w, r, entries)
}
