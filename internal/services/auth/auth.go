// Package auth отвечает за вход на сайт, сессии и проверку ключа API.
//
// Сессия хранится в Redis под ключом session:<id> и содержит ID участника.
// В cookie лежит JWT, где sub — ID участника, а jti — ID сессии.
// Выход удаляет запись в Redis, поэтому старый JWT сразу перестает действовать.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/sublimall/internal/lib/jwt"
	"github.com/magabrotheeeer/sublimall/internal/lib/password"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

// MsgInvalidLogin показывается при любой неудачной попытке входа.
const MsgInvalidLogin = "Please enter a correct email and password."

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account is inactive")
	ErrNoSession          = errors.New("session not found")
)

// dummyHash сравнивается с паролем для неизвестного email, чтобы время ответа не отличалось.
var dummyHash = sync.OnceValue(func() string {
	h, _ := password.GetHash("sublimall")
	return h
})

// Repository источник учетных записей.
type Repository interface {
	GetMemberByID(ctx context.Context, id int64) (*models.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	GetMemberByAPIKey(ctx context.Context, email, apiKey string) (*models.Member, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// SessionStore хранилище сессий.
type SessionStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type Service struct {
	log   *slog.Logger
	repo  Repository
	store SessionStore
	maker jwt.Maker
	ttl   time.Duration
}

func New(log *slog.Logger, repo Repository, store SessionStore, maker jwt.Maker, ttl time.Duration) *Service {
	return &Service{
		log:   log,
		repo:  repo,
		store: store,
		maker: maker,
		ttl:   ttl,
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

// TTL срок жизни сессии.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Authenticate проверяет email и пароль. Неактивная учетная запись не проходит проверку.
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (*models.Member, error) {
	const op = "auth.Authenticate"
	email = models.NormalizeEmail(email)
	if email == "" || rawPassword == "" {
		return nil, ErrInvalidCredentials
	}

	m, err := s.repo.GetMemberByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		_ = password.CompareHash(dummyHash(), rawPassword)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(m.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !m.IsActive {
		return nil, ErrInvalidCredentials
	}
	return m, nil
}

// Login открывает сессию и возвращает подписанный токен для cookie.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, *models.Member, error) {
	const op = "auth.Login"

	m, err := s.Authenticate(ctx, email, rawPassword)
	if err != nil {
		return "", nil, err
	}

	sessionID := uuid.NewString()
	if err := s.store.Set(ctx, sessionKey(sessionID), m.ID, s.ttl); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.maker.GenerateToken(m.ID, sessionID)
	if err != nil {
		_ = s.store.Invalidate(ctx, sessionKey(sessionID))
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.TouchLastLogin(ctx, m.ID, time.Now().UTC()); err != nil {
		s.log.Error("failed to update last login", slog.String("op", op), sl.Err(err))
	}
	return token, m, nil
}

// Resolve возвращает участника и ID сессии по токену из cookie.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Member, string, error) {
	const op = "auth.Resolve"
	if token == "" {
		return nil, "", ErrNoSession
	}
	claims, err := s.maker.ParseToken(token)
	if err != nil {
		return nil, "", ErrNoSession
	}
	claimedID, err := claims.MemberID()
	if err != nil {
		return nil, "", ErrNoSession
	}

	var memberID int64
	found, err := s.store.Get(ctx, sessionKey(claims.SessionID()), &memberID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if !found || memberID != claimedID {
		return nil, "", ErrNoSession
	}

	m, err := s.repo.GetMemberByID(ctx, memberID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, "", ErrNoSession
	}
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if !m.IsActive {
		return nil, "", ErrNoSession
	}
	return m, claims.SessionID(), nil
}

// Logout завершает сессию токена. Повторный вызов и невалидный токен не считаются ошибкой.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.maker.ParseToken(token)
	if err != nil {
		return nil
	}
	return s.EndSession(ctx, claims.SessionID())
}

// EndSession удаляет сессию по ее ID.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	const op = "auth.EndSession"
	if err := s.store.Invalidate(ctx, sessionKey(sessionID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AuthenticateAPIKey проверяет пару email и ключ API для загрузки пакетов.
func (s *Service) AuthenticateAPIKey(ctx context.Context, email, apiKey string) (*models.Member, error) {
	const op = "auth.AuthenticateAPIKey"
	email = models.NormalizeEmail(email)
	if email == "" || apiKey == "" {
		return nil, ErrInvalidCredentials
	}
	m, err := s.repo.GetMemberByAPIKey(ctx, email, apiKey)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !m.IsActive {
		return nil, ErrInactive
	}
	return m, nil
}
