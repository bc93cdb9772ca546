package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

type AccountManagerMock struct {
	mock.Mock
}

func (m *AccountManagerMock) Provision(ctx context.Context, req models.NewUser) (models.UserInfo, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.UserInfo), args.Error(1)
}

func (m *AccountManagerMock) DeleteByUsername(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func TestAddUser(t *testing.T) {
	color.NoColor = true
	family := int64(1)

	tests := []struct {
		name      string
		family    *int64
		admin     bool
		wantReq   models.NewUser
		result    models.UserInfo
		err       error
		wantOut   string
		wantError bool
	}{
		{
			name:    "family member",
			family:  &family,
			wantReq: models.NewUser{Username: "alice", Password: "pw", FamilyID: &family, Role: "user"},
			result:  models.UserInfo{ID: 1, Username: "alice", FamilyID: &family, Role: models.RoleUser},
			wantOut: "✓ Created user alice (id 1, role user, family 1)\n",
		},
		{
			name:    "admin without family",
			admin:   true,
			wantReq: models.NewUser{Username: "alice", Password: "pw", Role: "admin"},
			result:  models.UserInfo{ID: 7, Username: "alice", Role: models.RoleAdmin},
			wantOut: "✓ Created user alice (id 7, role admin)\n",
		},
		{
			name:      "duplicate username",
			wantReq:   models.NewUser{Username: "alice", Password: "pw", Role: "user"},
			err:       apperr.ErrDuplicateUsername,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AccountManagerMock)
			svc.On("Provision", mock.Anything, tt.wantReq).Return(tt.result, tt.err)
			var out bytes.Buffer

			err := addUser(context.Background(), svc, &out, "alice", "pw", tt.family, tt.admin)

			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrDuplicateUsername)
				assert.Empty(t, out.String())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, out.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDeleteUser(t *testing.T) {
	color.NoColor = true
	svc := new(AccountManagerMock)
	svc.On("DeleteByUsername", mock.Anything, "bob").Return(nil)
	svc.On("DeleteByUsername", mock.Anything, "ghost").Return(apperr.ErrNotFound)

	var out bytes.Buffer
	require.NoError(t, deleteUser(context.Background(), svc, &out, "bob"))
	assert.Equal(t, "✓ Deleted user bob\n", out.String())

	err := deleteUser(context.Background(), svc, &out, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCommandArgs(t *testing.T) {
	assert.Error(t, userAddCmd.Args(userAddCmd, []string{"alice"}))
	assert.NoError(t, userAddCmd.Args(userAddCmd, []string{"alice", "pw"}))
	assert.Error(t, userDeleteCmd.Args(userDeleteCmd, nil))
	assert.Error(t, migrateCmd.Args(migrateCmd, []string{"extra"}))
}

func TestLoadConfig_RequiresConnectionString(t *testing.T) {
	t.Setenv("STORAGE_CONNECTION_STRING", "")
	require.NoError(t, os.Unsetenv("STORAGE_CONNECTION_STRING"))
	t.Setenv("MIGRATIONS_PATH", "")
	require.NoError(t, os.Unsetenv("MIGRATIONS_PATH"))
	_, err := loadConfig()
	assert.Error(t, err)

	t.Setenv("STORAGE_CONNECTION_STRING", "postgres://localhost/vault")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/vault", cfg.StorageConnectionString)
	assert.Equal(t, "./migrations", cfg.MigrationsPath)
}
