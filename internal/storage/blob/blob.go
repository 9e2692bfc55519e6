// Package blob хранит файлы пакетов: на локальном диске или в S3-совместимом хранилище.
package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/sublimall/internal/config"
)

// Storage хранилище файлов пакетов. Отсутствующий ключ возвращает models.ErrNotFound.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey возвращает новый ключ файла пакета участника.
func NewKey(memberID int64) string {
	return fmt.Sprintf("packages/%d/%s", memberID, uuid.New())
}

// New создает хранилище по настройкам storage.backend.
func New(ctx context.Context, cfg config.BlobStorage) (Storage, error) {
	const op = "blob.New"
	var (
		s   Storage
		err error
	)
	switch cfg.Backend {
	case "fs":
		s, err = NewFS(cfg.Root)
	case "s3":
		s, err = NewS3(ctx, cfg)
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}
