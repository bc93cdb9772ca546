package models

import "fmt"

// Visibility определяет, кому видна запись с паролем.
type Visibility string

const (
	// VisibilityPrivate — запись видна только владельцу.
	VisibilityPrivate Visibility = "private"
	// VisibilityFamily — запись видна всем членам семьи владельца.
	VisibilityFamily Visibility = "family"
)

// ParseVisibility разбирает значение видимости. Пустая строка означает private.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case "":
		return VisibilityPrivate, nil
	case VisibilityPrivate, VisibilityFamily:
		return Visibility(s), nil
	default:
		return "", fmt.Errorf("unknown visibility %q", s)
	}
}

// PasswordEntry — запись с зашифрованным паролем к стороннему сервису.
type PasswordEntry struct {
	ID              int64
	OwnerUserID     int64
	ServiceName     string
	Username        string     // Логин на стороннем сервисе
	EncryptedSecret string     // Конверт шифра: nonce:tag:ciphertext
	Visibility      Visibility // private или family

	// Заполняются только при выборках списком (JOIN с users).
	OwnerUsername string
	OwnerFamilyID *int64
}

// VisibleEntry описывает расшифрованную запись для выдачи клиенту.
// Password равен nil, если расшифровать секрет не удалось.
type VisibleEntry struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Owner       string     `json:"owner"`
	ServiceName string     `json:"serviceName"`
	Username    string     `json:"username"`
	Password    *string    `json:"password"`
	Visibility  Visibility `json:"visibility"`
}

// EntryInfo содержит несекретные поля записи, возвращаемые после создания.
type EntryInfo struct {
	ID          int64      `json:"id"`
	ServiceName string     `json:"serviceName"`
	Username    string     `json:"username"`
	Visibility  Visibility `json:"visibility"`
}

// NewEntry содержит данные для создания записи, приходящие из запроса.
type NewEntry struct {
	ServiceName string `json:"serviceName" validate:"required"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Visibility  string `json:"visibility,omitempty" validate:"omitempty,oneof=private family"`
}

// EntryUpdate описывает частичное обновление записи, nil‑поля не меняются.
type EntryUpdate struct {
	ServiceName *string `json:"serviceName,omitempty"`
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	Visibility  *string `json:"visibility,omitempty" validate:"omitempty,oneof=private family"`
}
