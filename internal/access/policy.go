// Package access реализует политику доступа к записям с паролями и учетным записям.
//
// Все функции чистые: без ввода‑вывода, результат зависит только от аргументов.
// Роль admin намеренно обходит проверки владения и семьи для чтения и изменения.
// Видимость family расширяет только чтение и никогда не даёт права на запись.
package access

import "github.com/magabrotheeeer/familyvault/internal/models"

// CanReadEntry сообщает, может ли принципал прочитать запись.
// ownerFamilyID передаёт вызывающий код: это семья владельца записи.
func CanReadEntry(p models.Principal, entry models.PasswordEntry, ownerFamilyID *int64) bool {
	if isAdmin(p) || p.UserID == entry.OwnerUserID {
		return true
	}
	switch entry.Visibility {
	case models.VisibilityFamily:
		return p.SameFamily(ownerFamilyID)
	case models.VisibilityPrivate:
		return false
	default:
		return false
	}
}

// CanMutateEntry сообщает, может ли принципал изменить, удалить запись
// или сменить её видимость. Запрошенная видимость на решение не влияет.
func CanMutateEntry(p models.Principal, entry models.PasswordEntry, _ *models.Visibility) bool {
	return isAdmin(p) || p.UserID == entry.OwnerUserID
}

// CanManageUser сообщает, может ли принципал читать, менять или удалять пользователя targetUserID.
func CanManageUser(p models.Principal, targetUserID int64) bool {
	return isAdmin(p) || p.UserID == targetUserID
}

// CanCreateUser сообщает, может ли принципал создавать пользователей.
func CanCreateUser(p models.Principal) bool {
	return isAdmin(p)
}

// CanAdministerUsers сообщает, может ли принципал просматривать список пользователей
// и менять их семью и роль.
func CanAdministerUsers(p models.Principal) bool {
	return isAdmin(p)
}

func isAdmin(p models.Principal) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return false
	default:
		return false
	}
}
