package role

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

func (m *UserServiceMock) Role(ctx context.Context, p models.Principal) (models.Role, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.Role), args.Error(1)
}

func TestRoleHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("роль из хранилища", func(t *testing.T) {
		// В токене user, в базе уже admin.
		p := models.Principal{UserID: 1, Username: "alice", Role: models.RoleUser}
		svc := new(UserServiceMock)
		svc.On("Role", mock.Anything, p).Return(models.RoleAdmin, nil)

		req := httptest.NewRequest(http.MethodGet, "/user/role", nil)
		req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), p))
		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"role":"admin"}`, rr.Body.String())
	})

	t.Run("пользователь удалён", func(t *testing.T) {
		p := models.Principal{UserID: 9, Username: "ghost", Role: models.RoleUser}
		svc := new(UserServiceMock)
		svc.On("Role", mock.Anything, p).Return(models.Role(""), apperr.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/user/role", nil)
		req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), p))
		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
