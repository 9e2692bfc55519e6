package sl

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// AuditChannel — имя канала журнала аудита аутентификации.
const AuditChannel = "sublimall.auth"

// SetupLogger создает логгер в зависимости от окружения:
// local — текст и debug, dev — JSON и debug, prod — JSON и info.
func SetupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// SetupAudit открывает журнал аудита. Пустой путь — запись в fallback.
// Возвращаемую функцию нужно вызвать при остановке приложения.
func SetupAudit(path string, fallback io.Writer) (*slog.Logger, func() error, error) {
	const op = "sl.SetupAudit"

	w := fallback
	closeFn := func() error { return nil }
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		w = f
		closeFn = f.Close
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("channel", AuditChannel))
	return logger, closeFn, nil
}

// Discard возвращает логгер, который ничего не пишет.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}
