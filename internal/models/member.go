// Package models содержит доменные модели участника, пакета и уведомления,
// используемые в бизнес-логике и при работе с хранилищем.
package models

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound возвращается хранилищем, когда запись не найдена.
	ErrNotFound      = errors.New("not found")
	// ErrAlreadyExists возвращается при нарушении уникальности.
	ErrAlreadyExists = errors.New("already exists")
)

// Member представляет зарегистрированного участника сервиса.
type Member struct {
	ID              int64      // Идентификатор, используется в ссылках подтверждения
	Email           string     // Электронная почта в нижнем регистре (уникальная)
	PasswordHash    string     // bcrypt-хэш пароля
	IsActive        bool       // Подтверждена ли учетная запись
	IsStaff         bool       // Служебная учетная запись, удалить нельзя
	RegistrationKey *string    // Ключ подтверждения регистрации, nil после подтверждения
	PasswordKey     *string    // Ключ восстановления пароля
	APIKey          string     // Ключ для API загрузки пакетов
	DateJoined      time.Time  // Дата регистрации
	LastLogin       *time.Time // Дата последнего входа
}

// NormalizeEmail приводит email к виду, в котором он хранится: нижний регистр, без других изменений.
func NormalizeEmail(email string) string {
	return strings.ToLower(email)
}

// HasRegistrationKey сообщает, ожидает ли учетная запись подтверждения.
func (m *Member) HasRegistrationKey() bool {
	return m.RegistrationKey != nil && *m.RegistrationKey != ""
}
