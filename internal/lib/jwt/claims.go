package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/familyvault/internal/apperr"
	"github.com/magabrotheeeer/familyvault/internal/models"
)

// CustomClaims описывает данные пользователя, хранящиеся в токене.
// Роль всегда передаётся в поле role.
type CustomClaims struct {
	UserID               *int64 `json:"uid,omitempty"`       // Идентификатор пользователя
	Username             string `json:"username,omitempty"`  // Имя пользователя
	Role                 string `json:"role,omitempty"`      // Роль пользователя
	FamilyID             *int64 `json:"family_id,omitempty"` // Семья, отсутствует у пользователей вне семьи
	jwt.RegisteredClaims        // Стандартные claims (exp, iat, jti)
}

// GenerateToken создает токен для пользователя, подписывая его секретным ключом.
//
// Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(user models.User) (string, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	uid := user.ID
	claims := CustomClaims{
		UserID:   &uid,
		Username: user.Username,
		Role:     string(user.Role),
		FamilyID: user.FamilyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись, алгоритм и срок действия токена.
//
// Возвращает apperr.ErrTokenExpired для просроченного токена и
// apperr.ErrTokenInvalid для любой другой ошибки подписи или формата.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrTokenInvalid)
	}
	return claims, nil
}

// Principal строит принципала из проверенных claims.
//
// Возвращает apperr.ErrMalformedPrincipal, если нет идентификатора, имени
// или роль не входит в допустимые значения.
func (c *CustomClaims) Principal() (models.Principal, error) {
	const op = "jwt.Principal"
	if c.UserID == nil || c.Username == "" || c.Role == "" {
		return models.Principal{}, fmt.Errorf("%s: %w", op, apperr.ErrMalformedPrincipal)
	}
	role, err := models.ParseRole(c.Role)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%s: %w: %w", op, apperr.ErrMalformedPrincipal, err)
	}
	return models.Principal{
		UserID:   *c.UserID,
		Username: c.Username,
		Role:     role,
		FamilyID: c.FamilyID,
	}, nil
}
