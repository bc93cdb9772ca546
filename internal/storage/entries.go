package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

const entryColumns = `p.id, p.user_id, p.service_name, p.username, p.encrypted_password, p.visibility,
			  u.username, u.family_id`

// CreateEntry сохраняет запись и возвращает её ID. Секрет уже должен быть зашифрован.
func (s *Storage) CreateEntry(ctx context.Context, entry models.PasswordEntry) (int64, error) {
	const op = "storage.CreateEntry"

	visibility := entry.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	query := `INSERT INTO passwords (user_id, service_name, username, encrypted_password, visibility)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		entry.OwnerUserID, entry.ServiceName, entry.Username, entry.EncryptedSecret, string(visibility)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetEntry возвращает запись по ID вместе с именем и семьёй владельца.
func (s *Storage) GetEntry(ctx context.Context, id int64) (*models.PasswordEntry, error) {
	const op = "storage.GetEntry"

	query := `SELECT ` + entryColumns + `
			  FROM passwords p JOIN users u ON u.id = p.user_id
			  WHERE p.id = $1`
	entry, err := scanEntry(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// UpdateEntry перезаписывает все изменяемые поля записи.
func (s *Storage) UpdateEntry(ctx context.Context, entry models.PasswordEntry) error {
	const op = "storage.UpdateEntry"

	query := `UPDATE passwords
			  SET service_name = $1, username = $2, encrypted_password = $3, visibility = $4
			  WHERE id = $5`
	res, err := s.DB.ExecContext(ctx, query,
		entry.ServiceName, entry.Username, entry.EncryptedSecret, string(entry.Visibility), entry.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

// DeleteEntry удаляет запись по ID.
func (s *Storage) DeleteEntry(ctx context.Context, id int64) error {
	const op = "storage.DeleteEntry"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM passwords WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res)
}

// ListVisibleEntries возвращает записи, видимые пользователю: все при all,
// иначе собственные и семейные записи членов его семьи. Порядок по ID.
func (s *Storage) ListVisibleEntries(ctx context.Context, userID int64, familyID *int64, all bool) ([]models.PasswordEntry, error) {
	const op = "storage.ListVisibleEntries"

	query := `SELECT ` + entryColumns + `
			  FROM passwords p JOIN users u ON u.id = p.user_id
			  WHERE ($1 OR p.user_id = $2 OR (p.visibility = 'family' AND u.family_id = $3))
			  ORDER BY p.id`
	entries, err := s.queryEntries(ctx, query, all, userID, familyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// SearchVisibleEntries работает как ListVisibleEntries, но с фильтром по имени сервиса.
func (s *Storage) SearchVisibleEntries(ctx context.Context, userID int64, familyID *int64, all bool, serviceName string) ([]models.PasswordEntry, error) {
	const op = "storage.SearchVisibleEntries"

	query := `SELECT ` + entryColumns + `
			  FROM passwords p JOIN users u ON u.id = p.user_id
			  WHERE ($1 OR p.user_id = $2 OR (p.visibility = 'family' AND u.family_id = $3))
			    AND p.service_name = $4
			  ORDER BY p.id`
	entries, err := s.queryEntries(ctx, query, all, userID, familyID, serviceName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

func (s *Storage) queryEntries(ctx context.Context, query string, args ...any) ([]models.PasswordEntry, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PasswordEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntry(row rowScanner) (*models.PasswordEntry, error) {
	var (
		entry      models.PasswordEntry
		visibility string
	)
	err := row.Scan(&entry.ID, &entry.OwnerUserID, &entry.ServiceName, &entry.Username,
		&entry.EncryptedSecret, &visibility, &entry.OwnerUsername, &entry.OwnerFamilyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	entry.Visibility, err = models.ParseVisibility(visibility)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
