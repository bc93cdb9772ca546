// Package services содержит бизнес-логику работы с записями паролей:
// шифрование перед сохранением, расшифровку при чтении и проверки доступа.
package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/familyvault/internal/access"
	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/lib/sl"
	"github.com/magabrotheeeer/familyvault/internal/metrics"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// EntryRepository определяет методы хранилища записей.
type EntryRepository interface {
	CreateEntry(ctx context.Context, entry models.PasswordEntry) (int64, error)
	GetEntry(ctx context.Context, id int64) (*models.PasswordEntry, error)
	UpdateEntry(ctx context.Context, entry models.PasswordEntry) error
	DeleteEntry(ctx context.Context, id int64) error
	ListVisibleEntries(ctx context.Context, userID int64, familyID *int64, all bool) ([]models.PasswordEntry, error)
	SearchVisibleEntries(ctx context.Context, userID int64, familyID *int64, all bool, serviceName string) ([]models.PasswordEntry, error)
}

// Cipher шифрует и расшифровывает секреты записей.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) (string, error)
}

// VaultService реализует операции над записями от имени принципала.
type VaultService struct {
	repo    EntryRepository
	cipher  Cipher
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewVaultService создает новый экземпляр VaultService.
func NewVaultService(repo EntryRepository, cipher Cipher, m *metrics.Metrics, log *slog.Logger) *VaultService {
	return &VaultService{
		repo:    repo,
		cipher:  cipher,
		metrics: m,
		log:     log,
	}
}

// Create шифрует пароль и сохраняет запись, владельцем становится принципал.
func (s *VaultService) Create(ctx context.Context, p models.Principal, req models.NewEntry) (models.EntryInfo, error) {
	const op = "services.Create"

	if strings.TrimSpace(req.ServiceName) == "" || strings.TrimSpace(req.Username) == "" {
		return models.EntryInfo{}, fmt.Errorf("%s: service name and username are required: %w", op, apperr.ErrValidation)
	}
	visibility, err := models.ParseVisibility(req.Visibility)
	if err != nil {
		return models.EntryInfo{}, fmt.Errorf("%s: %w: %w", op, apperr.ErrValidation, err)
	}

	envelope, err := s.cipher.Encrypt(req.Password)
	if err != nil {
		return models.EntryInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	entry := models.PasswordEntry{
		OwnerUserID:     p.UserID,
		ServiceName:     req.ServiceName,
		Username:        req.Username,
		EncryptedSecret: envelope,
		Visibility:      visibility,
	}
	id, err := s.repo.CreateEntry(ctx, entry)
	if err != nil {
		return models.EntryInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.EntryInfo{
		ID:          id,
		ServiceName: entry.ServiceName,
		Username:    entry.Username,
		Visibility:  visibility,
	}, nil
}

// ListVisible возвращает все записи, которые принципал может прочитать, упорядоченные по ID.
func (s *VaultService) ListVisible(ctx context.Context, p models.Principal) ([]models.VisibleEntry, error) {
	const op = "services.ListVisible"

	entries, err := s.repo.ListVisibleEntries(ctx, p.UserID, p.FamilyID, p.Role == models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.reveal(p, entries), nil
}

// Search возвращает видимые принципалу записи для сервиса serviceName.
func (s *VaultService) Search(ctx context.Context, p models.Principal, serviceName string) ([]models.VisibleEntry, error) {
	const op = "services.Search"

	if serviceName == "" {
		return nil, fmt.Errorf("%s: service name is required: %w", op, apperr.ErrValidation)
	}
	entries, err := s.repo.SearchVisibleEntries(ctx, p.UserID, p.FamilyID, p.Role == models.RoleAdmin, serviceName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.reveal(p, entries), nil
}

// reveal расшифровывает секреты. Запись с повреждённым секретом
// возвращается с Password == nil, остальные не затрагиваются.
func (s *VaultService) reveal(p models.Principal, entries []models.PasswordEntry) []models.VisibleEntry {
	const op = "services.reveal"

	result := make([]models.VisibleEntry, 0, len(entries))
	for _, e := range entries {
		if !access.CanReadEntry(p, e, e.OwnerFamilyID) {
			continue
		}
		visible := models.VisibleEntry{
			ID:          e.ID,
			UserID:      e.OwnerUserID,
			Owner:       e.OwnerUsername,
			ServiceName: e.ServiceName,
			Username:    e.Username,
			Visibility:  e.Visibility,
		}
		plaintext, err := s.cipher.Decrypt(e.EncryptedSecret)
		if err != nil {
			s.metrics.DecryptFailed()
			s.log.Warn("failed to decrypt entry", sl.Op(op), slog.Int64("entry_id", e.ID), sl.Err(err))
		} else {
			visible.Password = &plaintext
		}
		result = append(result, visible)
	}
	return result
}

// Update применяет частичное обновление записи. Менять запись может только
// владелец или администратор, новая видимость на это право не влияет.
func (s *VaultService) Update(ctx context.Context, p models.Principal, id int64, upd models.EntryUpdate) error {
	const op = "services.Update"

	if upd.ServiceName == nil && upd.Username == nil && upd.Password == nil && upd.Visibility == nil {
		return fmt.Errorf("%s: nothing to update: %w", op, apperr.ErrValidation)
	}

	var requested *models.Visibility
	if upd.Visibility != nil {
		v, err := models.ParseVisibility(*upd.Visibility)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", op, apperr.ErrValidation, err)
		}
		requested = &v
	}
	if upd.ServiceName != nil && strings.TrimSpace(*upd.ServiceName) == "" {
		return fmt.Errorf("%s: empty service name: %w", op, apperr.ErrValidation)
	}
	if upd.Username != nil && strings.TrimSpace(*upd.Username) == "" {
		return fmt.Errorf("%s: empty username: %w", op, apperr.ErrValidation)
	}

	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !access.CanMutateEntry(p, *entry, requested) {
		return fmt.Errorf("%s: %w", op, apperr.ErrAuthorizationDenied)
	}

	if upd.ServiceName != nil {
		entry.ServiceName = *upd.ServiceName
	}
	if upd.Username != nil {
		entry.Username = *upd.Username
	}
	if requested != nil {
		entry.Visibility = *requested
	}
	if upd.Password != nil {
		envelope, err := s.cipher.Encrypt(*upd.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		entry.EncryptedSecret = envelope
	}

	if err := s.repo.UpdateEntry(ctx, *entry); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSecret меняет только пароль записи после проверки текущего.
func (s *VaultService) UpdateSecret(ctx context.Context, p models.Principal, id int64, current, newSecret string) error {
	const op = "services.UpdateSecret"

	entry, err := s.verifiedEntry(ctx, p, id, current)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	envelope, err := s.cipher.Encrypt(newSecret)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	entry.EncryptedSecret = envelope
	if err := s.repo.UpdateEntry(ctx, *entry); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateUsername меняет только логин записи после проверки текущего пароля.
func (s *VaultService) UpdateUsername(ctx context.Context, p models.Principal, id int64, current, newUsername string) error {
	const op = "services.UpdateUsername"

	if strings.TrimSpace(newUsername) == "" {
		return fmt.Errorf("%s: empty username: %w", op, apperr.ErrValidation)
	}
	entry, err := s.verifiedEntry(ctx, p, id, current)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	entry.Username = newUsername
	if err := s.repo.UpdateEntry(ctx, *entry); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// verifiedEntry загружает запись, проверяет право на изменение и знание текущего пароля.
// Нерасшифровываемый секрет считается несовпадением пароля.
func (s *VaultService) verifiedEntry(ctx context.Context, p models.Principal, id int64, current string) (*models.PasswordEntry, error) {
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanMutateEntry(p, *entry, nil) {
		return nil, apperr.ErrAuthorizationDenied
	}
	plaintext, err := s.cipher.Decrypt(entry.EncryptedSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrAuthenticationFailure, err)
	}
	if subtle.ConstantTimeCompare([]byte(plaintext), []byte(current)) != 1 {
		return nil, apperr.ErrAuthenticationFailure
	}
	return entry, nil
}

// Delete удаляет запись, если принципал владеет ей или является администратором.
func (s *VaultService) Delete(ctx context.Context, p models.Principal, id int64) error {
	const op = "services.Delete"

	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !access.CanMutateEntry(p, *entry, nil) {
		return fmt.Errorf("%s: %w", op, apperr.ErrAuthorizationDenied)
	}
	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
