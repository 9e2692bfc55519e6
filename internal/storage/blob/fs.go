package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/magabrotheeeer/sublimall/internal/models"
)

// ErrInvalidKey ключ выходит за пределы корня хранилища.
var ErrInvalidKey = errors.New("invalid blob key")

// FS хранит файлы в каталоге на диске. Все пути разрешаются внутри корня.
type FS struct {
	root *os.Root
}

// NewFS открывает (и при необходимости создает) корневой каталог.
func NewFS(dir string) (*FS, error) {
	const op = "blob.NewFS"
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &FS{root: root}, nil
}

// Close освобождает корневой каталог.
func (s *FS) Close() error {
	return s.root.Close()
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

func (s *FS) mkdirs(dir string) error {
	if dir == "." {
		return nil
	}
	cur := ""
	for _, part := range strings.Split(dir, "/") {
		cur = path.Join(cur, part)
		if err := s.root.Mkdir(cur, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
	return nil
}

func (s *FS) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	const op = "blob.FS.Put"
	key, err := cleanKey(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.mkdirs(path.Dir(key)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := s.root.OpenFile(key, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	if err != nil {
		_ = s.root.Remove(key)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "blob.FS.Get"
	key, err := cleanKey(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f, err := s.root.Open(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// Delete удаляет файл. Отсутствие файла не считается ошибкой.
func (s *FS) Delete(ctx context.Context, key string) error {
	const op = "blob.FS.Delete"
	key, err := cleanKey(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.root.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
