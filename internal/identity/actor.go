// Package identity описывает актора запроса — внешнюю идентичность или её отсутствие.
// Аутентификация выполняется снаружи (токен), здесь только флаги и группы.
package identity

// Actor: тот, кто выполняет запрос. Нулевое значение — анонимный актор.
type Actor struct {
	// ID: стабильный идентификатор (sub токена).
	ID string
	// Username: отображаемое имя (preferred_username).
	Username string

	Authenticated bool
	Staff         bool
	Superuser     bool
	Groups        []string
}

// Anonymous возвращает анонимного актора.
func Anonymous() Actor { return Actor{} }

// IsStaff: staff-флаг или суперпользователь.
func (a Actor) IsStaff() bool {
	return a.Authenticated && (a.Staff || a.Superuser)
}

// IsSuperuser: суперпользователь с безусловными правами.
func (a Actor) IsSuperuser() bool {
	return a.Authenticated && a.Superuser
}

// InGroup проверяет членство в группе. Отсутствие группы — просто false.
func (a Actor) InGroup(name string) bool {
	if !a.Authenticated || name == "" {
		return false
	}
	for _, g := range a.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// Owns сообщает, совпадает ли ownerID с идентичностью актора.
func (a Actor) Owns(ownerID string) bool {
	return a.Authenticated && a.ID != "" && ownerID == a.ID
}

// Handle: имя для логов.
func (a Actor) Handle() string {
	if !a.Authenticated {
		return "anonymous"
	}
	if a.Username != "" {
		return a.Username
	}
	return a.ID
}
