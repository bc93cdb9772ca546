// Package jwt реализует выпуск и проверку подписанных токенов сессии.
//
// Maker определяет интерфейс для создания токена по учетной записи и его разбора.
// MakerImpl — реализация на HS256 с секретным ключом и фиксированным сроком жизни.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/familyvault/internal/models"
)

// Maker описывает интерфейс для выпуска и разбора токенов сессии.
type Maker interface {
	// GenerateToken выпускает токен с идентификатором, именем, ролью и семьей пользователя.
	GenerateToken(user models.User) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey []byte           // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration    // Время жизни токена.
	now       func() time.Time // Источник текущего времени.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени, используется в тестах.
func (j *MakerImpl) WithClock(now func() time.Time) *MakerImpl {
	j.now = now
	return j
}
