package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/sublimall/internal/lib/password"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/lib/token"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

// RegisterInput поля формы регистрации.
type RegisterInput struct {
	Email     string
	Email2    string
	Password  string
	Password2 string
}

// ConfirmResult итог перехода по ссылке подтверждения.
type ConfirmResult int

const (
	Activated ConfirmResult = iota
	AlreadyActive
)

// RegistrationOpen сообщает, не достигнут ли предел числа участников.
func (s *Service) RegistrationOpen(ctx context.Context) (bool, error) {
	const op = "members.RegistrationOpen"
	count, err := s.repo.CountMembers(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count < s.opts.MaxMembers, nil
}

// Register проверяет форму и создает неактивную учетную запись.
// Ошибки ввода возвращаются как *FormError, проверки идут по порядку до первой неудачи.
// Запись и отправка письма выполняются в одной транзакции.
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	const op = "members.Register"
	log := s.log.With(slog.String("op", op))

	email := models.NormalizeEmail(in.Email)
	email2 := models.NormalizeEmail(in.Email2)

	open, err := s.RegistrationOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !open {
		log.Warn("max registration number reached")
		return 0, formError(MsgMaxMembers)
	}
	if email == "" {
		return 0, formError(MsgEmptyEmail)
	}
	if in.Password == "" {
		return 0, formError(MsgEmptyPassword)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return 0, formError(MsgInvalidEmail)
	}
	if ok, reason := s.opts.Policy.Validate(in.Password); !ok {
		return 0, formError(reason)
	}
	if in.Password != in.Password2 {
		return 0, formError(MsgPasswordMismatch)
	}
	if email != email2 {
		return 0, formError(MsgEmailMismatch)
	}
	exists, err := s.repo.MemberExists(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return 0, formError(MsgEmailUsed)
	}

	var id int64
	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		hash, err := password.GetHash(in.Password)
		if err != nil {
			return err
		}
		regKey, err := token.Generate()
		if err != nil {
			return err
		}
		apiKey, err := token.Generate()
		if err != nil {
			return err
		}

		id, err = s.repo.CreateMember(ctx, models.Member{
			Email:           email,
			PasswordHash:    hash,
			RegistrationKey: &regKey,
			APIKey:          apiKey,
		})
		if err != nil {
			return err
		}
		return s.notifier.Notify(ctx, s.registrationMail(id, email, regKey))
	})
	if errors.Is(err, models.ErrAlreadyExists) {
		return 0, formError(MsgEmailUsed)
	}
	if err != nil {
		log.Error("registration unhandled exception", slog.String("email", email), sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("member registered", slog.Int64("member_id", id))
	return id, nil
}

// Confirm активирует учетную запись по ссылке из письма.
func (s *Service) Confirm(ctx context.Context, id int64, key string) (ConfirmResult, error) {
	const op = "members.Confirm"
	if key == "" {
		return 0, ErrInvalidKey
	}

	var result ConfirmResult
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetMemberByRegistrationKey(ctx, id, key)
		if err != nil {
			return err
		}
		if m.IsActive {
			result = AlreadyActive
			return s.repo.SetRegistrationKey(ctx, m.ID, nil)
		}
		result = Activated
		return s.repo.ActivateMember(ctx, m.ID)
	})
	if errors.Is(err, models.ErrNotFound) {
		return 0, ErrInvalidKey
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Resend выдает новый ключ подтверждения и повторяет письмо в фоне.
// Неизвестный email не считается ошибкой.
func (s *Service) Resend(ctx context.Context, email string) error {
	const op = "members.Resend"
	email = models.NormalizeEmail(email)

	m, err := s.repo.GetMemberByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	regKey, err := token.Generate()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetRegistrationKey(ctx, m.ID, &regKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.notifyBackground(ctx, op, s.registrationMail(m.ID, m.Email, regKey))
	return nil
}

func (s *Service) registrationMail(id int64, email, key string) models.Notification {
	return models.Notification{
		Subject:  SubjectRegistration,
		To:       email,
		Template: models.TemplateRegistrationConfirmation,
		Context: map[string]string{
			"registration_confirmation_link": fmt.Sprintf("%s/registration-confirmation/%d/%s/", s.opts.SiteURL, id, key),
		},
	}
}
