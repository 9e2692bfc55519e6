// Package members содержит сценарии жизненного цикла учетной записи:
// регистрацию и подтверждение, восстановление пароля, смену ключа API и удаление.
package members

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/sublimall/internal/lib/password"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

// notifyTimeout ограничивает фоновую отправку одного письма.
const notifyTimeout = 30 * time.Second

// Repository хранилище участников и их пакетов.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	CountMembers(ctx context.Context) (int, error)
	MemberExists(ctx context.Context, email string) (bool, error)
	CreateMember(ctx context.Context, m models.Member) (int64, error)
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	GetMemberByRegistrationKey(ctx context.Context, id int64, key string) (*models.Member, error)
	GetMemberByPasswordKey(ctx context.Context, id int64, key string) (*models.Member, error)
	SetRegistrationKey(ctx context.Context, id int64, key *string) error
	ActivateMember(ctx context.Context, id int64) error
	SetPasswordKey(ctx context.Context, id int64, key string) error
	SetPassword(ctx context.Context, id int64, hash string, clearKey bool) error
	SetAPIKey(ctx context.Context, id int64, key string) error
	DeleteMember(ctx context.Context, id int64) error

	DeletePackagesByMember(ctx context.Context, memberID int64) ([]string, error)
}

// Notifier отправляет письма участникам.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Blobs удаляет файлы пакетов.
type Blobs interface {
	Delete(ctx context.Context, key string) error
}

// Sessions завершает сессию сайта.
type Sessions interface {
	EndSession(ctx context.Context, sessionID string) error
}

// Options настройки сценариев.
type Options struct {
	SiteURL            string
	FromEmail          string
	MaxMembers         int
	Policy             password.Policy
	ClearKeyAfterReset bool
}

type Service struct {
	log      *slog.Logger
	repo     Repository
	notifier Notifier
	blobs    Blobs
	sessions Sessions
	validate *validator.Validate
	opts     Options

	background sync.WaitGroup
}

func New(log *slog.Logger, repo Repository, notifier Notifier, blobs Blobs, sessions Sessions, opts Options) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		notifier: notifier,
		blobs:    blobs,
		sessions: sessions,
		validate: validator.New(),
		opts:     opts,
	}
}

// notifyBackground отправляет письмо вне запроса. Ошибка отправки только логируется.
func (s *Service) notifyBackground(ctx context.Context, op string, n models.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Error("failed to send notification",
				slog.String("op", op),
				slog.String("template", n.Template),
				sl.Err(err),
			)
		}
	}()
}

// Wait ждет завершения фоновых отправок писем.
func (s *Service) Wait() {
	s.background.Wait()
}
