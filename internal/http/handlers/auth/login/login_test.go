package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Authenticate(ctx context.Context, clientKey, username, password string) (string, error) {
	args := m.Called(ctx, clientKey, username, password)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(m *AuthServiceMock)
		wantStatusCode int
		wantToken      string
		wantMessage    string
	}{
		{
			name: "valid login",
			body: `{"username":"alice","password":"pw"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Authenticate", mock.Anything, "10.0.0.1", "alice", "pw").Return("jwt-token", nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantToken:      "jwt-token",
		},
		{
			name:           "invalid json body",
			body:           "not a json",
			setupMock:      func(_ *AuthServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "invalid request body",
		},
		{
			name:           "missing password",
			body:           `{"username":"alice"}`,
			setupMock:      func(_ *AuthServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "field Password is a required field",
		},
		{
			name: "bad credentials",
			body: `{"username":"alice","password":"nope"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Authenticate", mock.Anything, "10.0.0.1", "alice", "nope").Return("", apperr.ErrAuthenticationFailure).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "authentication failed",
		},
		{
			name: "rate limited",
			body: `{"username":"alice","password":"pw"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Authenticate", mock.Anything, "10.0.0.1", "alice", "pw").Return("", apperr.ErrRateLimited).Once()
			},
			wantStatusCode: http.StatusTooManyRequests,
			wantMessage:    "too many login attempts",
		},
		{
			name: "storage failure",
			body: `{"username":"alice","password":"pw"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Authenticate", mock.Anything, "10.0.0.1", "alice", "pw").Return("", errors.New("dial tcp 10.1.1.1:5432")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantMessage:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			tt.setupMock(svc)
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			req.RemoteAddr = "10.0.0.1:51234"
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			if tt.wantToken != "" {
				assert.Equal(t, tt.wantToken, body["token"])
			} else {
				assert.Contains(t, body["message"], tt.wantMessage)
			}
			svc.AssertExpectations(t)
		})
	}
}
