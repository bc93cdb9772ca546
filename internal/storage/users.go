package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// CreateUser добавляет пользователя и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"

	query := `INSERT INTO users (username, password_hash, family_id, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.FamilyID, string(user.Role)).Scan(&id)
	if err != nil {
		if uniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, apperr.ErrDuplicateUsername)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT id, username, password_hash, family_id, role FROM users WHERE id = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUserByUsername возвращает пользователя по точному имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	query := `SELECT id, username, password_hash, family_id, role FROM users WHERE username = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ListNonAdminUsers возвращает всех пользователей с ролью user.
func (s *Storage) ListNonAdminUsers(ctx context.Context) ([]models.User, error) {
	const op = "storage.ListNonAdminUsers"

	query := `SELECT id, username, password_hash, family_id, role
			  FROM users WHERE role <> 'admin' ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdateUser меняет заданные поля пользователя.
func (s *Storage) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) error {
	const op = "storage.UpdateUser"

	var role any
	if upd.Role != nil {
		role = string(*upd.Role)
	}
	query := `UPDATE users
			  SET username = COALESCE($1, username),
			      password_hash = COALESCE($2, password_hash),
			      family_id = COALESCE($3, family_id),
			      role = COALESCE($4, role)
			  WHERE id = $5`
	res, err := s.DB.ExecContext(ctx, query, upd.Username, upd.PasswordHash, upd.FamilyID, role, id)
	if err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, apperr.ErrDuplicateUsername)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

// DeleteUser удаляет пользователя. Его записи удаляются каскадом.
func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.DeleteUser"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user models.User
		role string
	)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.FamilyID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
