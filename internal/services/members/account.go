package members

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/lib/token"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

// RotateAPIKey заменяет ключ API. Прежний ключ перестает действовать сразу.
func (s *Service) RotateAPIKey(ctx context.Context, memberID int64) (string, error) {
	const op = "members.RotateAPIKey"
	key, err := token.Generate()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetAPIKey(ctx, memberID, key); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return key, nil
}

// DeleteAccount удаляет участника вместе с пакетами.
// Файлы, сессия и письмо обрабатываются только после фиксации транзакции.
func (s *Service) DeleteAccount(ctx context.Context, m *models.Member, sessionID string) error {
	const op = "members.DeleteAccount"
	log := s.log.With(slog.String("op", op), slog.Int64("member_id", m.ID))

	if m.IsStaff {
		return ErrStaffAccount
	}

	var blobKeys []string
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		keys, err := s.repo.DeletePackagesByMember(ctx, m.ID)
		if err != nil {
			return err
		}
		blobKeys = keys
		return s.repo.DeleteMember(ctx, m.ID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, key := range blobKeys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			log.Error("failed to delete package file", slog.String("blob_key", key), sl.Err(err))
		}
	}

	if sessionID != "" {
		if err := s.sessions.EndSession(ctx, sessionID); err != nil {
			log.Error("failed to end session", sl.Err(err))
		}
	}

	n := models.Notification{
		Subject:  SubjectDeleted,
		To:       m.Email,
		Template: models.TemplateAccountDeleted,
		Context:  map[string]string{"feedback_email": s.opts.FromEmail},
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Error("failed to send account deleted notification", sl.Err(err))
	}

	log.Info("member deleted", slog.Int("packages", len(blobKeys)))
	return nil
}
