package update

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

type UserServiceMock struct {
	mock.Mock
}

func (m *UserServiceMock) Update(ctx context.Context, p models.Principal, id int64, patch models.UserPatch) error {
	return m.Called(ctx, p, id, patch).Error(0)
}

func TestUpdateUserHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bob := models.Principal{UserID: 2, Username: "bob", Role: models.RoleUser}
	newName := "robert"
	family := int64(1)

	tests := []struct {
		name           string
		id             string
		body           string
		setupMock      func(m *UserServiceMock)
		wantStatusCode int
		wantMessage    string
	}{
		{
			name: "смена своего имени",
			id:   "2",
			body: `{"username":"robert"}`,
			setupMock: func(m *UserServiceMock) {
				m.On("Update", mock.Anything, bob, int64(2), models.UserPatch{Username: &newName}).Return(nil)
			},
			wantStatusCode: http.StatusOK,
			wantMessage:    "user updated",
		},
		{
			name: "смена семьи без прав администратора",
			id:   "2",
			body: `{"familyId":1}`,
			setupMock: func(m *UserServiceMock) {
				m.On("Update", mock.Anything, bob, int64(2), models.UserPatch{FamilyID: &family}).Return(apperr.ErrAuthorizationDenied)
			},
			wantStatusCode: http.StatusForbidden,
			wantMessage:    "access denied",
		},
		{
			name:           "некорректная роль",
			id:             "2",
			body:           `{"role":"root"}`,
			setupMock:      func(_ *UserServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "field Role must be one of: user admin",
		},
		{
			name:           "некорректный id",
			id:             "two",
			body:           `{}`,
			setupMock:      func(_ *UserServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "invalid id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(UserServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/user/user/"+tt.id, bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithPrincipal(ctx, bob))
			rr := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.JSONEq(t, `{"message":"`+tt.wantMessage+`"}`, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
