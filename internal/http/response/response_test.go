package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/lib/cipher"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperr.ErrValidation, http.StatusBadRequest, "validation failed"},
		{"authentication", apperr.ErrAuthenticationFailure, http.StatusUnauthorized, "authentication failed"},
		{"expired", apperr.ErrTokenExpired, http.StatusUnauthorized, "token expired"},
		{"invalid token", apperr.ErrTokenInvalid, http.StatusUnauthorized, "token invalid"},
		{"malformed principal", apperr.ErrMalformedPrincipal, http.StatusBadRequest, "invalid token payload"},
		{"denied", apperr.ErrAuthorizationDenied, http.StatusForbidden, "access denied"},
		{"not found", apperr.ErrNotFound, http.StatusNotFound, "not found"},
		{"duplicate", apperr.ErrDuplicateUsername, http.StatusBadRequest, "username already taken"},
		{"rate limited", apperr.ErrRateLimited, http.StatusTooManyRequests, "too many login attempts"},
		{"cryptographic", cipher.ErrAuthenticationFailure, http.StatusInternalServerError, "internal error"},
		{"unknown", errors.New("pq: connection refused to 10.0.0.5"), http.StatusInternalServerError, "internal error"},
		{"wrapped", fmt.Errorf("services.Delete: %w", apperr.ErrNotFound), http.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestRenderError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RenderError(w, r, fmt.Errorf("op: %w", apperr.ErrAuthorizationDenied))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"message": "access denied"}, body)
}

func TestValidationError(t *testing.T) {
	type req struct {
		Username   string `validate:"required"`
		Visibility string `validate:"omitempty,oneof=private family"`
	}
	err := validator.New().Struct(req{Visibility: "public"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Contains(t, resp.Message, "field Username is a required field")
	assert.Contains(t, resp.Message, "field Visibility must be one of: private family")
}
