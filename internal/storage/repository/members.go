package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/sublimall/internal/models"
)

const memberColumns = `id, email, password_hash, is_active, is_staff, registration_key,
	password_key, api_key, date_joined, last_login`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	var (
		m               models.Member
		registrationKey sql.NullString
		passwordKey     sql.NullString
		lastLogin       sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.Email, &m.PasswordHash, &m.IsActive, &m.IsStaff,
		&registrationKey, &passwordKey, &m.APIKey, &m.DateJoined, &lastLogin); err != nil {
		return nil, err
	}
	m.RegistrationKey = stringPtr(registrationKey)
	m.PasswordKey = stringPtr(passwordKey)
	if lastLogin.Valid {
		m.LastLogin = &lastLogin.Time
	}
	return &m, nil
}

// CountMembers возвращает число зарегистрированных участников.
func (s *Storage) CountMembers(ctx context.Context) (int, error) {
	const op = "storage.CountMembers"
	var count int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&count); err != nil {
		return 0, mapError(op, err)
	}
	return count, nil
}

// MemberExists проверяет, занят ли email.
func (s *Storage) MemberExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.MemberExists"
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM members WHERE email = $1)`
	if err := s.conn(ctx).QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, mapError(op, err)
	}
	return exists, nil
}

// CreateMember сохраняет нового участника и возвращает его ID.
func (s *Storage) CreateMember(ctx context.Context, m models.Member) (int64, error) {
	const op = "storage.CreateMember"
	query := `INSERT INTO members (email, password_hash, is_active, is_staff,
			      registration_key, password_key, api_key)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var id int64
	if err := s.conn(ctx).QueryRowContext(ctx, query,
		m.Email, m.PasswordHash, m.IsActive, m.IsStaff,
		nullString(m.RegistrationKey), nullString(m.PasswordKey), m.APIKey,
	).Scan(&id); err != nil {
		return 0, mapError(op, err)
	}
	return id, nil
}

// GetMemberByID возвращает участника по ID.
func (s *Storage) GetMemberByID(ctx context.Context, id int64) (*models.Member, error) {
	const op = "storage.GetMemberByID"
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	m, err := scanMember(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return m, nil
}

// GetMemberByEmail возвращает участника по email.
func (s *Storage) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	const op = "storage.GetMemberByEmail"
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1`
	m, err := scanMember(s.conn(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(op, err)
	}
	return m, nil
}

// GetMemberByRegistrationKey ищет участника по точному совпадению ID и ключа
// подтверждения. Внутри транзакции строка блокируется до ее завершения.
func (s *Storage) GetMemberByRegistrationKey(ctx context.Context, id int64, key string) (*models.Member, error) {
	const op = "storage.GetMemberByRegistrationKey"
	query := `SELECT ` + memberColumns + ` FROM members
			  WHERE id = $1 AND registration_key = $2
			  FOR UPDATE`
	m, err := scanMember(s.conn(ctx).QueryRowContext(ctx, query, id, key))
	if err != nil {
		return nil, mapError(op, err)
	}
	return m, nil
}

// GetMemberByPasswordKey ищет участника по точному совпадению ID и ключа восстановления.
func (s *Storage) GetMemberByPasswordKey(ctx context.Context, id int64, key string) (*models.Member, error) {
	const op = "storage.GetMemberByPasswordKey"
	query := `SELECT ` + memberColumns + ` FROM members
			  WHERE id = $1 AND password_key = $2
			  FOR UPDATE`
	m, err := scanMember(s.conn(ctx).QueryRowContext(ctx, query, id, key))
	if err != nil {
		return nil, mapError(op, err)
	}
	return m, nil
}

// GetMemberByAPIKey ищет участника по email и ключу API.
func (s *Storage) GetMemberByAPIKey(ctx context.Context, email, apiKey string) (*models.Member, error) {
	const op = "storage.GetMemberByAPIKey"
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1 AND api_key = $2`
	m, err := scanMember(s.conn(ctx).QueryRowContext(ctx, query, email, apiKey))
	if err != nil {
		return nil, mapError(op, err)
	}
	return m, nil
}

func (s *Storage) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// SetRegistrationKey записывает новый ключ подтверждения, nil очищает его.
func (s *Storage) SetRegistrationKey(ctx context.Context, id int64, key *string) error {
	return s.execOne(ctx, "storage.SetRegistrationKey",
		`UPDATE members SET registration_key = $1 WHERE id = $2`, nullString(key), id)
}

// ActivateMember активирует учетную запись и очищает ключ подтверждения.
func (s *Storage) ActivateMember(ctx context.Context, id int64) error {
	return s.execOne(ctx, "storage.ActivateMember",
		`UPDATE members SET is_active = TRUE, registration_key = NULL WHERE id = $1`, id)
}

// SetPasswordKey записывает ключ восстановления пароля.
func (s *Storage) SetPasswordKey(ctx context.Context, id int64, key string) error {
	return s.execOne(ctx, "storage.SetPasswordKey",
		`UPDATE members SET password_key = $1 WHERE id = $2`, key, id)
}

// SetPassword сохраняет новый хэш пароля. При clearKey ключ восстановления удаляется.
func (s *Storage) SetPassword(ctx context.Context, id int64, hash string, clearKey bool) error {
	query := `UPDATE members SET password_hash = $1 WHERE id = $2`
	if clearKey {
		query = `UPDATE members SET password_hash = $1, password_key = NULL WHERE id = $2`
	}
	return s.execOne(ctx, "storage.SetPassword", query, hash, id)
}

// SetAPIKey заменяет ключ API участника.
func (s *Storage) SetAPIKey(ctx context.Context, id int64, key string) error {
	return s.execOne(ctx, "storage.SetAPIKey",
		`UPDATE members SET api_key = $1 WHERE id = $2`, key, id)
}

// TouchLastLogin обновляет дату последнего входа.
func (s *Storage) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.execOne(ctx, "storage.TouchLastLogin",
		`UPDATE members SET last_login = $1 WHERE id = $2`, at, id)
}

// DeleteMember удаляет участника. Пакеты удаляются каскадно.
func (s *Storage) DeleteMember(ctx context.Context, id int64) error {
	return s.execOne(ctx, "storage.DeleteMember", `DELETE FROM members WHERE id = $1`, id)
}
