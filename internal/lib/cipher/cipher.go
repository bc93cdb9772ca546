// Package cipher реализует аутентифицированное шифрование отдельных секретов
// алгоритмом AES-256-GCM.
//
// Ключ выводится один раз при старте процесса как SHA-256 от настроенного секрета
// и не меняется до завершения процесса. Результат шифрования представлен текстовым конвертом
// вида hex(nonce):hex(tag):hex(ciphertext), где nonce занимает 96 бит, tag 128 бит.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
)

const (
	nonceSize = 12
	tagSize   = 16
	delimiter = ":"
)

var (
	// ErrMissingKey — секрет для вывода ключа не задан. Работать без ключа нельзя.
	ErrMissingKey = errors.New("cipher: secret key is not configured")

	// ErrMalformedEnvelope — конверт не состоит из трёх корректных частей.
	ErrMalformedEnvelope = fmt.Errorf("%w: malformed envelope", apperr.ErrCryptographic)

	// ErrAuthenticationFailure — тег не сошёлся: данные изменены или ключ другой.
	ErrAuthenticationFailure = fmt.Errorf("%w: message authentication failed", apperr.ErrCryptographic)
)

// Cipher шифрует и расшифровывает секреты неизменяемым ключом процесса.
// Безопасен для конкурентного использования.
type Cipher struct {
	aead stdcipher.AEAD
}

// New выводит 256-битный ключ из secret и готовит AES-GCM.
func New(secret string) (*Cipher, error) {
	const op = "cipher.New"
	if secret == "" {
		return nil, ErrMissingKey
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	aead, err := stdcipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt шифрует plaintext со свежим случайным nonce и возвращает конверт.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	const op = "cipher.Encrypt"

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, apperr.ErrCryptographic, err)
	}

	// Seal дописывает тег в конец шифртекста.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, delimiter), nil
}

// Decrypt разбирает конверт, проверяет тег и возвращает исходный текст.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, delimiter)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", ErrMalformedEnvelope
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", ErrMalformedEnvelope
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", ErrMalformedEnvelope
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedEnvelope
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrAuthenticationFailure
	}
	return string(plaintext), nil
}
