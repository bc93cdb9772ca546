package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/lib/cipher"
	"github.com/magabrotheeeer/familyvault/internal/metrics"
	"github.com/magabrotheeeer/familyvault/internal/models"
	services "github.com/magabrotheeeer/familyvault/internal/services/vault"
)

// memRepo: хранилище в памяти с тем же фильтром видимости, что и SQL-запрос.
type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]models.PasswordEntry
	users   map[int64]models.User
}

func newMemRepo(users ...models.User) *memRepo {
	r := &memRepo{entries: map[int64]models.PasswordEntry{}, users: map[int64]models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memRepo) CreateEntry(_ context.Context, e models.PasswordEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	if e.Visibility == "" {
		e.Visibility = models.VisibilityPrivate
	}
	r.entries[e.ID] = e
	return e.ID, nil
}

func (r *memRepo) withOwner(e models.PasswordEntry) models.PasswordEntry {
	owner := r.users[e.OwnerUserID]
	e.OwnerUsername = owner.Username
	e.OwnerFamilyID = owner.FamilyID
	return e
}

func (r *memRepo) GetEntry(_ context.Context, id int64) (*models.PasswordEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	e = r.withOwner(e)
	return &e, nil
}

func (r *memRepo) UpdateEntry(_ context.Context, e models.PasswordEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID]; !ok {
		return apperr.ErrNotFound
	}
	e.OwnerUsername, e.OwnerFamilyID = "", nil
	r.entries[e.ID] = e
	return nil
}

func (r *memRepo) DeleteEntry(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memRepo) ListVisibleEntries(ctx context.Context, userID int64, familyID *int64, all bool) ([]models.PasswordEntry, error) {
	return r.SearchVisibleEntries(ctx, userID, familyID, all, "")
}

func (r *memRepo) SearchVisibleEntries(_ context.Context, userID int64, familyID *int64, all bool, serviceName string) ([]models.PasswordEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PasswordEntry
	for _, e := range r.entries {
		e = r.withOwner(e)
		if serviceName != "" && e.ServiceName != serviceName {
			continue
		}
		sameFamily := familyID != nil && e.OwnerFamilyID != nil && *familyID == *e.OwnerFamilyID
		if all || e.OwnerUserID == userID || (e.Visibility == models.VisibilityFamily && sameFamily) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) corrupt(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[id]
	e.EncryptedSecret = "00:00:00"
	r.entries[id] = e
}

func familyID(id int64) *int64 { return &id }

var (
	alice = models.Principal{UserID: 1, Username: "alice", Role: models.RoleUser, FamilyID: familyID(1)}
	bob   = models.Principal{UserID: 2, Username: "bob", Role: models.RoleUser, FamilyID: familyID(1)}
	carol = models.Principal{UserID: 3, Username: "carol", Role: models.RoleUser}
	root  = models.Principal{UserID: 4, Username: "root", Role: models.RoleAdmin}
)

func newService(t *testing.T) (*services.VaultService, *memRepo, *metrics.Metrics) {
	t.Helper()
	repo := newMemRepo(
		models.User{ID: 1, Username: "alice", FamilyID: familyID(1), Role: models.RoleUser},
		models.User{ID: 2, Username: "bob", FamilyID: familyID(1), Role: models.RoleUser},
		models.User{ID: 3, Username: "carol", Role: models.RoleUser},
		models.User{ID: 4, Username: "root", Role: models.RoleAdmin},
	)
	c, err := cipher.New("test-secret")
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	return services.NewVaultService(repo, c, m, slog.New(slog.NewTextHandler(io.Discard, nil))), repo, m
}

func strPtr(s string) *string { return &s }

func ids(entries []models.VisibleEntry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestVaultService_PrivateEntryIsOwnerOnly(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	info, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "bank", Username: "alice@bank", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, info.Visibility)

	aliceSees, err := svc.ListVisible(ctx, alice)
	require.NoError(t, err)
	require.Len(t, aliceSees, 1)
	require.NotNil(t, aliceSees[0].Password)
	assert.Equal(t, "s3cret", *aliceSees[0].Password)
	assert.Equal(t, "alice", aliceSees[0].Owner)

	bobSees, err := svc.ListVisible(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobSees)
	assert.NotNil(t, bobSees, "empty list must not be nil")
}

func TestVaultService_FamilyEntrySharedWithFamilyOnly(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	info, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "tv", Username: "family", Password: "pin", Visibility: "family"})
	require.NoError(t, err)

	bobSees, err := svc.ListVisible(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobSees, 1)
	assert.Equal(t, info.ID, bobSees[0].ID)
	assert.Equal(t, "pin", *bobSees[0].Password)

	carolSees, err := svc.ListVisible(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, carolSees)

	adminSees, err := svc.ListVisible(ctx, root)
	require.NoError(t, err)
	assert.Len(t, adminSees, 1)
}

func TestVaultService_SharingAfterVisibilityChange(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	info, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "bank", Username: "a", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, alice, info.ID, models.EntryUpdate{Visibility: strPtr("family")}))

	bobSees, err := svc.ListVisible(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []int64{info.ID}, ids(bobSees))
}

func TestVaultService_FamilyMemberCannotMutate(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	info, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "tv", Username: "a", Password: "pin", Visibility: "family"})
	require.NoError(t, err)

	err = svc.Update(ctx, bob, info.ID, models.EntryUpdate{Visibility: strPtr("private")})
	assert.ErrorIs(t, err, apperr.ErrAuthorizationDenied)

	err = svc.Update(ctx, bob, info.ID, models.EntryUpdate{Password: strPtr("hijack")})
	assert.ErrorIs(t, err, apperr.ErrAuthorizationDenied)

	err = svc.Delete(ctx, bob, info.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorizationDenied)

	err = svc.UpdateSecret(ctx, bob, info.ID, "pin", "hijack")
	assert.ErrorIs(t, err, apperr.ErrAuthorizationDenied)

	aliceSees, err := svc.ListVisible(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "pin", *aliceSees[0].Password)
	assert.Equal(t, models.VisibilityFamily, aliceSees[0].Visibility)
}

func TestVaultService_AdminCanMutateAnything(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	info, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "bank", Username: "a", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, root, info.ID, models.EntryUpdate{ServiceName: strPtr("bank2")}))
	require.NoError(t, svc.Delete(ctx, root, info.ID))

	err = svc.Delete(ctx, root, info.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVaultService_Update(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	info, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "bank", Username: "a", Password: "x"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		upd     models.EntryUpdate
		id      int64
		wantErr error
	}{
		{name: "empty update", upd: models.EntryUpdate{}, id: info.ID, wantErr: apperr.ErrValidation},
		{name: "unknown visibility", upd: models.EntryUpdate{Visibility: strPtr("public")}, id: info.ID, wantErr: apperr.ErrValidation},
		{name: "blank service name", upd: models.EntryUpdate{ServiceName: strPtr(" ")}, id: info.ID, wantErr: apperr.ErrValidation},
		{name: "empty username", upd: models.EntryUpdate{Username: strPtr("")}, id: info.ID, wantErr: apperr.ErrValidation},
		{name: "missing entry", upd: models.EntryUpdate{Username: strPtr("b")}, id: 999, wantErr: apperr.ErrNotFound},
		{name: "all fields", upd: models.EntryUpdate{
			ServiceName: strPtr("mail"), Username: strPtr("b"), Password: strPtr("y"), Visibility: strPtr("family"),
		}, id: info.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Update(ctx, alice, tt.id, tt.upd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	entries, err := svc.Search(ctx, alice, "mail")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Username)
	assert.Equal(t, "y", *entries[0].Password)
	assert.Equal(t, models.VisibilityFamily, entries[0].Visibility)
}

func TestVaultService_UpdateSecretAndUsername(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	info, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "bank", Username: "a", Password: "old"})
	require.NoError(t, err)

	err = svc.UpdateSecret(ctx, alice, info.ID, "wrong", "new")
	assert.ErrorIs(t, err, apperr.ErrAuthenticationFailure)

	require.NoError(t, svc.UpdateSecret(ctx, alice, info.ID, "old", "new"))

	err = svc.UpdateUsername(ctx, alice, info.ID, "old", "b")
	assert.ErrorIs(t, err, apperr.ErrAuthenticationFailure)

	err = svc.UpdateUsername(ctx, alice, info.ID, "new", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, svc.UpdateUsername(ctx, alice, info.ID, "new", "b"))

	entries, err := svc.ListVisible(ctx, alice)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Username)
	assert.Equal(t, "new", *entries[0].Password)
}

func TestVaultService_CorruptedSecret(t *testing.T) {
	svc, repo, m := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "bank", Username: "a", Password: "x"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "mail", Username: "a", Password: "y"})
	require.NoError(t, err)
	repo.corrupt(first.ID)

	entries, err := svc.ListVisible(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, []int64{first.ID, second.ID}, ids(entries))
	assert.Nil(t, entries[0].Password)
	require.NotNil(t, entries[1].Password)
	assert.Equal(t, "y", *entries[1].Password)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DecryptFailures), 0)

	err = svc.UpdateSecret(ctx, alice, first.ID, "x", "z")
	assert.ErrorIs(t, err, apperr.ErrAuthenticationFailure)
	assert.NotErrorIs(t, err, apperr.ErrCryptographic)
}

func TestVaultService_CreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, models.NewEntry{ServiceName: "", Username: "a", Password: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, alice, models.NewEntry{ServiceName: "bank", Username: "a", Password: "x", Visibility: "public"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Search(ctx, alice, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

type failingRepo struct{ memRepo }

func (*failingRepo) ListVisibleEntries(context.Context, int64, *int64, bool) ([]models.PasswordEntry, error) {
	return nil, errors.New("db down")
}

func TestVaultService_ListRepositoryError(t *testing.T) {
	c, err := cipher.New("k")
	require.NoError(t, err)
	svc := services.NewVaultService(&failingRepo{}, c, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err = svc.ListVisible(context.Background(), alice)
	assert.ErrorContains(t, err, "db down")
}
