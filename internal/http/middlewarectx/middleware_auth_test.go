package middlewarectx_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// Mock for Verifier
type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(token string) (models.Principal, error) {
	args := m.Called(token)
	return args.Get(0).(models.Principal), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	family := int64(1)
	alice := models.Principal{UserID: 1, Username: "alice", Role: models.RoleUser, FamilyID: &family}

	tests := []struct {
		name           string
		authHeader     string
		mockPrincipal  models.Principal
		mockErr        error
		callVerify     bool
		wantStatusCode int
		wantMessage    string
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "missing or invalid authorization header",
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "missing or invalid authorization header",
		},
		{
			name:           "expired token",
			authHeader:     "Bearer expired",
			mockErr:        fmt.Errorf("jwt.ParseToken: %w", apperr.ErrTokenExpired),
			callVerify:     true,
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "token expired",
		},
		{
			name:           "forged token",
			authHeader:     "Bearer forged",
			mockErr:        apperr.ErrTokenInvalid,
			callVerify:     true,
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "token invalid",
		},
		{
			name:           "malformed payload",
			authHeader:     "Bearer nouid",
			mockErr:        apperr.ErrMalformedPrincipal,
			callVerify:     true,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "invalid token payload",
		},
		{
			name:           "valid token",
			authHeader:     "Bearer good",
			mockPrincipal:  alice,
			callVerify:     true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(VerifierMock)
			if tt.callVerify {
				verifier.On("Verify", tt.authHeader[len("Bearer "):]).Return(tt.mockPrincipal, tt.mockErr).Once()
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				p, ok := middlewarectx.PrincipalFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, alice, p)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/passwords/visible", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			middlewarectx.JWTMiddleware(verifier, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantMessage != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, tt.wantMessage, body["message"])
			}
			verifier.AssertExpectations(t)
		})
	}
}

func TestPrincipalFrom_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := middlewarectx.PrincipalFrom(req.Context())
	assert.False(t, ok)
}
