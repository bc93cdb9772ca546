// Package models содержит доменные модели хранилища паролей: пользователя,
// запись с паролем, принципала сессии и закрытые перечисления роли и видимости.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "fmt"

// Role — роль пользователя. Допустимы только RoleUser и RoleAdmin.
type Role string

const (
	// RoleUser — обычный член семьи.
	RoleUser Role = "user"
	// RoleAdmin — администратор с полным доступом ко всем записям.
	RoleAdmin Role = "admin"
)

// ParseRole разбирает строковое значение роли. Пустая строка означает роль по умолчанию.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUser, nil
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User представляет учетную запись пользователя.
type User struct {
	ID           int64  // Уникальный идентификатор
	Username     string // Имя пользователя (уникальное, чувствительно к регистру)
	PasswordHash string // bcrypt‑хэш пароля
	FamilyID     *int64 // Идентификатор семьи, nil у пользователя вне семьи
	Role         Role   // Роль пользователя, admin или user
}

// UserInfo содержит представление пользователя без секретных полей для ответов API.
type UserInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FamilyID *int64 `json:"familyId"`
	Role     Role   `json:"role"`
}

// Info возвращает несекретное представление пользователя.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:       u.ID,
		Username: u.Username,
		FamilyID: u.FamilyID,
		Role:     u.Role,
	}
}

// UserUpdate описывает изменения пользователя. nil‑поля не меняются.
type UserUpdate struct {
	Username     *string
	PasswordHash *string
	FamilyID     *int64
	Role         *Role
}

// NewUser содержит данные для создания пользователя.
type NewUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	FamilyID *int64 `json:"familyId,omitempty"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

// UserPatch описывает изменения пользователя из запроса администратора или самого пользователя.
// Смена семьи и роли доступна только администратору.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	FamilyID *int64  `json:"familyId,omitempty"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}
