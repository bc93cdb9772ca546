// Package password реализует хеширование и проверку паролей учетных записей.
//
// GetHash создает bcrypt-хеш пароля для хранения в таблице users.
// CompareHash сравнивает хранимый хеш с введённым паролем.
// CompareDummy тратит на сравнение столько же времени, сколько CompareHash,
// когда пользователя не существует, чтобы ответ по времени не выдавал имена.
package password

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Cost задаёт стоимость bcrypt для хешей пользователей.
const Cost = 12

// ErrMismatch — пароль не соответствует хешу.
var ErrMismatch = errors.New("password does not match")

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil при совпадении и ErrMismatch, если пароль неверный.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// CompareDummy выполняет сравнение с заранее вычисленным хешем и всегда
// возвращает ErrMismatch.
func CompareDummy(externalPassword string) error {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("familyvault-dummy-password"), Cost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(externalPassword))
	return ErrMismatch
}
