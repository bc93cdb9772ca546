package nonadmin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/http/middlewarectx"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

type UserServiceMock struct {
	mock.Mock
}

func (m *UserServiceMock) ListNonAdmin(ctx context.Context, p models.Principal) ([]models.UserInfo, error) {
	args := m.Called(ctx, p)
	if res := args.Get(0); res != nil {
		return res.([]models.UserInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestNonAdminHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := models.Principal{UserID: 100, Username: "root", Role: models.RoleAdmin}
	bob := models.Principal{UserID: 2, Username: "bob", Role: models.RoleUser}

	svc := new(UserServiceMock)
	svc.On("ListNonAdmin", mock.Anything, admin).Return([]models.UserInfo{
		{ID: 1, Username: "alice", Role: models.RoleUser},
		{ID: 2, Username: "bob", Role: models.RoleUser},
	}, nil)
	svc.On("ListNonAdmin", mock.Anything, bob).Return(nil, apperr.ErrAuthorizationDenied)

	call := func(p models.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/user/non-admin-users", nil)
		req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), p))
		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, req)
		return rr
	}

	rr := call(admin)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"bob"`)

	rr = call(bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertExpectations(t)
}
