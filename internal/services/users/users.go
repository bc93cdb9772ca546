// Package services содержит управление учетными записями: создание
// администратором, просмотр, изменение, удаление и самообслуживание.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/familyvault/internal/access"
	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/lib/password"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListNonAdminUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) error
	DeleteUser(ctx context.Context, id int64) error
}

// UserService реализует операции над учетными записями.
type UserService struct {
	repo UserRepository
	log  *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, log *slog.Logger) *UserService {
	return &UserService{
		repo: repo,
		log:  log,
	}
}

// Provision создаёт пользователя без проверки прав. Используется
// администратором через Create и утилитой первичной настройки.
func (s *UserService) Provision(ctx context.Context, req models.NewUser) (models.UserInfo, error) {
	const op = "services.Provision"

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return models.UserInfo{}, fmt.Errorf("%s: username and password are required: %w", op, apperr.ErrValidation)
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("%s: %w: %w", op, apperr.ErrValidation, err)
	}
	if err := s.ensureUsernameFree(ctx, req.Username, 0); err != nil {
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("%s: %w: %w", op, apperr.ErrValidation, err)
	}
	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		FamilyID:     req.FamilyID,
		Role:         role,
	}
	user.ID, err = s.repo.CreateUser(ctx, user)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user created", sl.Op(op), slog.Int64("user_id", user.ID), slog.String("role", string(role)))
	return user.Info(), nil
}

// Create создаёт пользователя от имени администратора.
func (s *UserService) Create(ctx context.Context, p models.Principal, req models.NewUser) (models.UserInfo, error) {
	const op = "services.Create"
	if !access.CanCreateUser(p) {
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, apperr.ErrAuthorizationDenied)
	}
	return s.Provision(ctx, req)
}

// Get возвращает пользователя, если принципал и есть этот пользователь или он администратор.
func (s *UserService) Get(ctx context.Context, p models.Principal, id int64) (models.UserInfo, error) {
	const op = "services.Get"
	if !access.CanManageUser(p, id) {
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, apperr.ErrAuthorizationDenied)
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	return user.Info(), nil
}

// ListNonAdmin возвращает пользователей с ролью user. Доступно администратору.
func (s *UserService) ListNonAdmin(ctx context.Context, p models.Principal) ([]models.UserInfo, error) {
	const op = "services.ListNonAdmin"
	if !access.CanAdministerUsers(p) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrAuthorizationDenied)
	}
	users, err := s.repo.ListNonAdminUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := make([]models.UserInfo, 0, len(users))
	for i := range users {
		result = append(result, users[i].Info())
	}
	return result, nil
}

// Update меняет пользователя id. Сам пользователь может менять имя и пароль,
// семью и роль меняет только администратор.
func (s *UserService) Update(ctx context.Context, p models.Principal, id int64, patch models.UserPatch) error {
	const op = "services.Update"

	if !access.CanManageUser(p, id) {
		return fmt.Errorf("%s: %w", op, apperr.ErrAuthorizationDenied)
	}
	if (patch.FamilyID != nil || patch.Role != nil) && !access.CanAdministerUsers(p) {
		return fmt.Errorf("%s: %w", op, apperr.ErrAuthorizationDenied)
	}
	if patch.Username == nil && patch.Password == nil && patch.FamilyID == nil && patch.Role == nil {
		return fmt.Errorf("%s: nothing to update: %w", op, apperr.ErrValidation)
	}

	upd := models.UserUpdate{FamilyID: patch.FamilyID}
	if patch.Role != nil {
		role, err := models.ParseRole(*patch.Role)
		if err != nil || *patch.Role == "" {
			return fmt.Errorf("%s: invalid role: %w", op, apperr.ErrValidation)
		}
		upd.Role = &role
	}
	if patch.Username != nil {
		if strings.TrimSpace(*patch.Username) == "" {
			return fmt.Errorf("%s: empty username: %w", op, apperr.ErrValidation)
		}
		if err := s.ensureUsernameFree(ctx, *patch.Username, id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		upd.Username = patch.Username
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return fmt.Errorf("%s: empty password: %w", op, apperr.ErrValidation)
		}
		hash, err := password.GetHash(*patch.Password)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", op, apperr.ErrValidation, err)
		}
		upd.PasswordHash = &hash
	}

	if err := s.repo.UpdateUser(ctx, id, upd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет пользователя id вместе с его записями.
func (s *UserService) Delete(ctx context.Context, p models.Principal, id int64) error {
	const op = "services.Delete"
	if !access.CanManageUser(p, id) {
		return fmt.Errorf("%s: %w", op, apperr.ErrAuthorizationDenied)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", sl.Op(op), slog.Int64("user_id", id), slog.Int64("by", p.UserID))
	return nil
}

// DeleteSelf удаляет учетную запись самого принципала.
func (s *UserService) DeleteSelf(ctx context.Context, p models.Principal) error {
	return s.Delete(ctx, p, p.UserID)
}

// DeleteByUsername удаляет пользователя по имени без проверки прав.
// Используется утилитой первичной настройки.
func (s *UserService) DeleteByUsername(ctx context.Context, username string) error {
	const op = "services.DeleteByUsername"
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangeUsername меняет имя принципала после проверки текущего пароля.
func (s *UserService) ChangeUsername(ctx context.Context, p models.Principal, currentPassword, newUsername string) error {
	const op = "services.ChangeUsername"

	if strings.TrimSpace(newUsername) == "" || currentPassword == "" {
		return fmt.Errorf("%s: new username and current password are required: %w", op, apperr.ErrValidation)
	}
	if _, err := s.verifyPassword(ctx, p.UserID, currentPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.ensureUsernameFree(ctx, newUsername, p.UserID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateUser(ctx, p.UserID, models.UserUpdate{Username: &newUsername}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePassword заменяет хеш пароля принципала после проверки текущего пароля.
func (s *UserService) ChangePassword(ctx context.Context, p models.Principal, currentPassword, newPassword string) error {
	const op = "services.ChangePassword"

	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("%s: current and new passwords are required: %w", op, apperr.ErrValidation)
	}
	if _, err := s.verifyPassword(ctx, p.UserID, currentPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrValidation, err)
	}
	if err := s.repo.UpdateUser(ctx, p.UserID, models.UserUpdate{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidatePassword проверяет пароль принципала.
// Несовпадение возвращается как apperr.ErrAuthenticationFailure.
func (s *UserService) ValidatePassword(ctx context.Context, p models.Principal, rawPassword string) error {
	const op = "services.ValidatePassword"

	if rawPassword == "" {
		return fmt.Errorf("%s: password is required: %w", op, apperr.ErrValidation)
	}
	if _, err := s.verifyPassword(ctx, p.UserID, rawPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Role возвращает текущую роль принципала из хранилища.
func (s *UserService) Role(ctx context.Context, p models.Principal) (models.Role, error) {
	const op = "services.Role"
	user, err := s.repo.GetUser(ctx, p.UserID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return user.Role, nil
}

func (s *UserService) verifyPassword(ctx context.Context, userID int64, rawPassword string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrAuthenticationFailure, err)
	}
	return user, nil
}

// ensureUsernameFree возвращает apperr.ErrDuplicateUsername, если имя занято
// другим пользователем. selfID исключает самого пользователя из проверки.
func (s *UserService) ensureUsernameFree(ctx context.Context, username string, selfID int64) error {
	existing, err := s.repo.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	default:
		return apperr.ErrDuplicateUsername
	}
}
