package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/sublimall/internal/lib/password"
	"github.com/magabrotheeeer/sublimall/internal/lib/token"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

// RequestRecovery выдает ключ восстановления и отправляет ссылку в фоне.
// Неизвестный email не считается ошибкой, чтобы ответ не выдавал зарегистрированные адреса.
func (s *Service) RequestRecovery(ctx context.Context, email string) error {
	const op = "members.RequestRecovery"
	email = models.NormalizeEmail(email)

	m, err := s.repo.GetMemberByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.log.Debug("password recovery for unknown email", slog.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key, err := token.Generate()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetPasswordKey(ctx, m.ID, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n := models.Notification{
		Subject:  SubjectRecovery,
		To:       m.Email,
		Template: models.TemplatePasswordRecovery,
		Context: map[string]string{
			"password_recovery_link": fmt.Sprintf("%s/password-recovery-confirmation/%d/%s/", s.opts.SiteURL, m.ID, key),
		},
	}
	s.notifyBackground(ctx, op, n)
	return nil
}

// CheckRecoveryKey проверяет ссылку восстановления.
func (s *Service) CheckRecoveryKey(ctx context.Context, id int64, key string) error {
	const op = "members.CheckRecoveryKey"
	if key == "" {
		return ErrInvalidKey
	}
	_, err := s.repo.GetMemberByPasswordKey(ctx, id, key)
	if errors.Is(err, models.ErrNotFound) {
		return ErrInvalidKey
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по ссылке восстановления.
func (s *Service) ResetPassword(ctx context.Context, id int64, key, newPassword, newPassword2 string) error {
	const op = "members.ResetPassword"
	if key == "" {
		return ErrInvalidKey
	}

	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetMemberByPasswordKey(ctx, id, key)
		if errors.Is(err, models.ErrNotFound) {
			return ErrInvalidKey
		}
		if err != nil {
			return err
		}
		if ok, reason := s.opts.Policy.Validate(newPassword); !ok {
			return formError(reason)
		}
		if newPassword != newPassword2 {
			return formError(MsgPasswordMismatch)
		}
		hash, err := password.GetHash(newPassword)
		if err != nil {
			return err
		}
		return s.repo.SetPassword(ctx, m.ID, hash, s.opts.ClearKeyAfterReset)
	})

	var formErr *FormError
	switch {
	case err == nil:
		s.log.Info("password changed", slog.String("op", op), slog.Int64("member_id", id))
		return nil
	case errors.Is(err, ErrInvalidKey), errors.As(err, &formErr):
		return unwrapUserError(err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// unwrapUserError снимает обертки транзакции с ошибок, предназначенных пользователю.
func unwrapUserError(err error) error {
	var formErr *FormError
	if errors.As(err, &formErr) {
		return formErr
	}
	return ErrInvalidKey
}
