// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков и сопоставления ошибок
// бизнес-уровня со статусами HTTP.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
)

// ErrorResponse — тело ответа с сообщением. Используется и для ошибок,
// и для подтверждений операций без данных.
type ErrorResponse struct {
	Message string `json:"message" example:"access denied"`
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Message: msg}
}

// Message возвращает тело подтверждения успешной операции.
func Message(msg string) ErrorResponse {
	return ErrorResponse{Message: msg}
}

// ValidationError формирует ответ на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}

// FromError сопоставляет ошибку со статусом HTTP и безопасным для клиента сообщением.
// Детали непредвиденных ошибок клиенту не раскрываются.
func FromError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, Error(apperr.ErrValidation.Error())
	case errors.Is(err, apperr.ErrRateLimited):
		return http.StatusTooManyRequests, Error(apperr.ErrRateLimited.Error())
	case errors.Is(err, apperr.ErrAuthenticationFailure):
		return http.StatusUnauthorized, Error(apperr.ErrAuthenticationFailure.Error())
	case errors.Is(err, apperr.ErrTokenExpired):
		return http.StatusUnauthorized, Error(apperr.ErrTokenExpired.Error())
	case errors.Is(err, apperr.ErrTokenInvalid):
		return http.StatusUnauthorized, Error(apperr.ErrTokenInvalid.Error())
	case errors.Is(err, apperr.ErrMalformedPrincipal):
		return http.StatusBadRequest, Error(apperr.ErrMalformedPrincipal.Error())
	case errors.Is(err, apperr.ErrAuthorizationDenied):
		return http.StatusForbidden, Error(apperr.ErrAuthorizationDenied.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, Error(apperr.ErrNotFound.Error())
	case errors.Is(err, apperr.ErrDuplicateUsername):
		return http.StatusBadRequest, Error(apperr.ErrDuplicateUsername.Error())
	default:
		return http.StatusInternalServerError, Error(apperr.ErrInternal.Error())
	}
}

// RenderError пишет ответ с кодом и сообщением, соответствующими ошибке.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := FromError(err)
	render.Status(r, status)
	render.JSON(w, r, body)
}

// RenderBadRequest пишет ответ 400 с сообщением msg.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error(msg))
}
