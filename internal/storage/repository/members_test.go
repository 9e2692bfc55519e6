package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/sublimall/internal/models"
)

var memberRowColumns = []string{
	"id", "email", "password_hash", "is_active", "is_staff", "registration_key",
	"password_key", "api_key", "date_joined", "last_login",
}

func newStorageWithMock(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return &Storage{DB: db}, mock
}

func TestStorage_CountMembers(t *testing.T) {
	s, mock := newStorageWithMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM members`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := s.CountMembers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestStorage_MemberExists(t *testing.T) {
	s, mock := newStorageWithMock(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM members WHERE email = \$1\)`).
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.MemberExists(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStorage_CreateMember(t *testing.T) {
	key := "regkey"
	member := models.Member{
		Email:           "user@example.com",
		PasswordHash:    "hash",
		RegistrationKey: &key,
		APIKey:          "apikey",
	}

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantID  int64
		wantErr error
	}{
		{
			name: "success",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO members`).
					WithArgs("user@example.com", "hash", false, false, "regkey", nil, "apikey").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
			},
			wantID: 42,
		},
		{
			name: "duplicate email",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO members`).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: models.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newStorageWithMock(t)
			tt.setup(mock)

			id, err := s.CreateMember(context.Background(), member)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestStorage_GetMemberByEmail(t *testing.T) {
	joined := time.Date(2014, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		mock.ExpectQuery(`SELECT .+ FROM members WHERE email = \$1`).
			WithArgs("user@example.com").
			WillReturnRows(sqlmock.NewRows(memberRowColumns).
				AddRow(int64(1), "user@example.com", "hash", true, false, nil, "pk", "api", joined, nil))

		m, err := s.GetMemberByEmail(context.Background(), "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.ID)
		assert.True(t, m.IsActive)
		assert.Nil(t, m.RegistrationKey)
		require.NotNil(t, m.PasswordKey)
		assert.Equal(t, "pk", *m.PasswordKey)
		assert.Equal(t, joined, m.DateJoined)
		assert.Nil(t, m.LastLogin)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newStorageWithMock(t)
		mock.ExpectQuery(`SELECT .+ FROM members WHERE email = \$1`).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetMemberByEmail(context.Background(), "ghost@example.com")
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestStorage_GetMemberByRegistrationKey(t *testing.T) {
	s, mock := newStorageWithMock(t)
	mock.ExpectQuery(`SELECT .+ FROM members\s+WHERE id = \$1 AND registration_key = \$2\s+FOR UPDATE`).
		WithArgs(int64(3), "abc").
		WillReturnRows(sqlmock.NewRows(memberRowColumns).
			AddRow(int64(3), "user@example.com", "hash", false, false, "abc", nil, "api", time.Now(), nil))

	m, err := s.GetMemberByRegistrationKey(context.Background(), 3, "abc")
	require.NoError(t, err)
	require.True(t, m.HasRegistrationKey())
	assert.Equal(t, "abc", *m.RegistrationKey)
}

func TestStorage_Updates(t *testing.T) {
	tests := []struct {
		name  string
		query string
		args  []driver.Value
		call  func(s *Storage) error
	}{
		{
			name:  "activate",
			query: `UPDATE members SET is_active = TRUE, registration_key = NULL WHERE id = \$1`,
			args:  []driver.Value{int64(1)},
			call:  func(s *Storage) error { return s.ActivateMember(context.Background(), 1) },
		},
		{
			name:  "clear registration key",
			query: `UPDATE members SET registration_key = \$1 WHERE id = \$2`,
			args:  []driver.Value{nil, int64(1)},
			call:  func(s *Storage) error { return s.SetRegistrationKey(context.Background(), 1, nil) },
		},
		{
			name:  "set password keeps key",
			query: `UPDATE members SET password_hash = \$1 WHERE id = \$2`,
			args:  []driver.Value{"hash", int64(1)},
			call:  func(s *Storage) error { return s.SetPassword(context.Background(), 1, "hash", false) },
		},
		{
			name:  "set password clears key",
			query: `UPDATE members SET password_hash = \$1, password_key = NULL WHERE id = \$2`,
			args:  []driver.Value{"hash", int64(1)},
			call:  func(s *Storage) error { return s.SetPassword(context.Background(), 1, "hash", true) },
		},
		{
			name:  "api key",
			query: `UPDATE members SET api_key = \$1 WHERE id = \$2`,
			args:  []driver.Value{"newkey", int64(1)},
			call:  func(s *Storage) error { return s.SetAPIKey(context.Background(), 1, "newkey") },
		},
		{
			name:  "delete",
			query: `DELETE FROM members WHERE id = \$1`,
			args:  []driver.Value{int64(1)},
			call:  func(s *Storage) error { return s.DeleteMember(context.Background(), 1) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newStorageWithMock(t)
			mock.ExpectExec(tt.query).WithArgs(tt.args...).WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, tt.call(s))
		})
	}
}

func TestStorage_UpdateMissingMember(t *testing.T) {
	s, mock := newStorageWithMock(t)
	mock.ExpectExec(`UPDATE members SET api_key`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.SetAPIKey(context.Background(), 99, "key")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_UpdateDBError(t *testing.T) {
	s, mock := newStorageWithMock(t)
	mock.ExpectExec(`UPDATE members SET last_login`).
		WillReturnError(errors.New("db down"))

	err := s.TouchLastLogin(context.Background(), 1, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.TouchLastLogin")
	assert.Contains(t, err.Error(), "db down")
}

func TestStorage_WithinTx(t *testing.T) {
	s, mock := newStorageWithMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE members SET is_active = TRUE`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithinTx(context.Background(), func(ctx context.Context) error {
		return s.ActivateMember(ctx, 5)
	})
	require.NoError(t, err)
}
