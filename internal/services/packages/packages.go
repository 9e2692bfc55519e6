// Package packages управляет пакетами участников: проверкой размера,
// сохранением файла и записи, выдачей и удалением.
package packages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
	"github.com/magabrotheeeer/sublimall/internal/storage/blob"
)

const mb = 1024 * 1024

// ErrInvalidVersion версия пакета должна быть неотрицательной и помещаться в SMALLINT.
var ErrInvalidVersion = errors.New("invalid package version")

// SizeError размер пакета превышает предел.
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("Package size too big. Got %d (limit is %d).", e.Size/mb, e.Limit/mb)
}

// Repository хранилище записей о пакетах.
type Repository interface {
	UpsertPackage(ctx context.Context, p models.Package) (*models.Package, error)
	ListPackages(ctx context.Context, memberID int64) ([]*models.Package, error)
	GetPackageByVersion(ctx context.Context, memberID int64, version int) (*models.Package, error)
	DeletePackage(ctx context.Context, memberID, id int64) (string, error)
}

type Service struct {
	log   *slog.Logger
	repo  Repository
	blobs blob.Storage
	limit int64
}

func New(log *slog.Logger, repo Repository, blobs blob.Storage, limit int64) *Service {
	return &Service{
		log:   log,
		repo:  repo,
		blobs: blobs,
		limit: limit,
	}
}

// Limit предел размера одного пакета в байтах.
func (s *Service) Limit() int64 {
	return s.limit
}

// CheckSize проверяет размер пакета.
func (s *Service) CheckSize(size int64) error {
	if size > s.limit {
		return &SizeError{Size: size, Limit: s.limit}
	}
	return nil
}

// Store сохраняет файл и запись пакета. Повторная загрузка той же версии
// заменяет запись, прежний файл удаляется.
func (s *Service) Store(ctx context.Context, in models.PackageUpload, r io.Reader) (*models.Package, error) {
	const op = "packages.Store"
	log := s.log.With(slog.String("op", op), slog.Int64("member_id", in.MemberID))

	if in.Version < 0 || in.Version > 32767 {
		return nil, ErrInvalidVersion
	}
	if err := s.CheckSize(in.Size); err != nil {
		return nil, err
	}

	var previousKey string
	previous, err := s.repo.GetPackageByVersion(ctx, in.MemberID, in.Version)
	switch {
	case err == nil:
		previousKey = previous.BlobKey
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key := blob.NewKey(in.MemberID)
	if err := s.blobs.Put(ctx, key, r, in.Size); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.repo.UpsertPackage(ctx, models.Package{
		MemberID: in.MemberID,
		Version:  in.Version,
		Platform: in.Platform,
		Arch:     in.Arch,
		BlobKey:  key,
		Size:     in.Size,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			log.Error("failed to delete orphan package file", slog.String("blob_key", key), sl.Err(delErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if previousKey != "" && previousKey != key {
		if err := s.blobs.Delete(ctx, previousKey); err != nil {
			log.Error("failed to delete replaced package file", slog.String("blob_key", previousKey), sl.Err(err))
		}
	}

	log.Info("package stored", slog.Int("version", in.Version), slog.Int64("size", in.Size))
	return saved, nil
}

// List возвращает пакеты участника.
func (s *Service) List(ctx context.Context, memberID int64) ([]*models.Package, error) {
	const op = "packages.List"
	list, err := s.repo.ListPackages(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Open возвращает запись и содержимое пакета указанной версии.
func (s *Service) Open(ctx context.Context, memberID int64, version int) (*models.Package, io.ReadCloser, error) {
	const op = "packages.Open"
	p, err := s.repo.GetPackageByVersion(ctx, memberID, version)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	rc, err := s.blobs.Get(ctx, p.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, rc, nil
}

// Remove удаляет пакет участника. Чужой пакет дает models.ErrNotFound.
func (s *Service) Remove(ctx context.Context, memberID, id int64) error {
	const op = "packages.Remove"
	key, err := s.repo.DeletePackage(ctx, memberID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Error("failed to delete package file",
			slog.String("op", op), slog.String("blob_key", key), sl.Err(err))
	}
	return nil
}
