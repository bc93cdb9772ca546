package models

// Principal — проверенная личность из токена сессии: субъект всех проверок доступа.
// Заполняется только полями, прошедшими проверку подписи.
type Principal struct {
	UserID   int64
	Username string
	Role     Role
	FamilyID *int64
}

// SameFamily сообщает, состоят ли принципал и владелец с familyID в одной семье.
// Отсутствие семьи у любой из сторон означает «нет».
func (p Principal) SameFamily(familyID *int64) bool {
	return p.FamilyID != nil && familyID != nil && *p.FamilyID == *familyID
}
