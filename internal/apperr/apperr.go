// Package apperr содержит единый каталог ошибок бизнес-уровня.
//
// Сервисы и хранилище оборачивают эти ошибки через fmt.Errorf("%s: %w"),
// а граница HTTP сопоставляет их со статусами через errors.Is.
package apperr

import "errors"

// Ошибки входных данных.
var (
	// ErrValidation — отсутствуют или некорректны поля запроса.
	ErrValidation = errors.New("validation failed")
)

// Ошибки аутентификации и сессий.
var (
	// ErrAuthenticationFailure — неверные учетные данные. Не уточняет, что именно неверно.
	ErrAuthenticationFailure = errors.New("authentication failed")

	// ErrRateLimited — превышено число попыток входа с одного адреса.
	ErrRateLimited = errors.New("too many login attempts")

	// ErrTokenExpired — срок действия токена сессии истёк.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid — подпись или формат токена не прошли проверку.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrMalformedPrincipal — подпись верна, но в токене нет обязательных полей.
	ErrMalformedPrincipal = errors.New("invalid token payload")
)

// Ошибки доступа и состояния данных.
var (
	// ErrAuthorizationDenied — политика доступа запретила операцию.
	ErrAuthorizationDenied = errors.New("access denied")

	// ErrNotFound — запись не существует.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername — имя пользователя уже занято.
	ErrDuplicateUsername = errors.New("username already taken")
)

// Криптографические и внутренние ошибки.
var (
	// ErrCryptographic — не удалось расшифровать или зашифровать секрет.
	ErrCryptographic = errors.New("cryptographic failure")

	// ErrInternal — непредвиденная ошибка, детали пишутся только в лог.
	ErrInternal = errors.New("internal error")
)
