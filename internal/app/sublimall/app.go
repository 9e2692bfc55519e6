package sublimall

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/sublimall/internal/cache"
	"github.com/magabrotheeeer/sublimall/internal/config"
	"github.com/magabrotheeeer/sublimall/internal/http/cookie"
	"github.com/magabrotheeeer/sublimall/internal/http/handlers/health"
	"github.com/magabrotheeeer/sublimall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/jwt"
	"github.com/magabrotheeeer/sublimall/internal/lib/password"
	"github.com/magabrotheeeer/sublimall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/lib/smtp"
	"github.com/magabrotheeeer/sublimall/internal/metrics"
	"github.com/magabrotheeeer/sublimall/internal/migrations"
	authservice "github.com/magabrotheeeer/sublimall/internal/services/auth"
	membersservice "github.com/magabrotheeeer/sublimall/internal/services/members"
	packagesservice "github.com/magabrotheeeer/sublimall/internal/services/packages"
	senderservice "github.com/magabrotheeeer/sublimall/internal/services/sender"
	"github.com/magabrotheeeer/sublimall/internal/storage/blob"
	"github.com/magabrotheeeer/sublimall/internal/storage/repository"
)

type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	cache   *cache.Cache
	blobs   blob.Storage
	members *membersservice.Service
	closers []func() error
}

// New поднимает хранилища, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB); err != nil {
		app.close()
		return nil, err
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, err
	}

	app.blobs, err = blob.New(ctx, cfg.BlobStorage)
	if err != nil {
		app.close()
		return nil, err
	}
	if c, ok := app.blobs.(io.Closer); ok {
		app.closers = append(app.closers, c.Close)
	}

	audit, closeAudit, err := sl.SetupAudit(cfg.AuditPath, os.Stdout)
	if err != nil {
		app.close()
		return nil, err
	}
	app.closers = append(app.closers, closeAudit)

	notifier, err := app.notifier(cfg, logger)
	if err != nil {
		app.close()
		return nil, err
	}

	renderer, err := view.New(logger)
	if err != nil {
		app.close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authService := authservice.New(logger, db, app.cache, jwt.NewJWTMaker(cfg.Session.Secret, cfg.Session.TTL), cfg.Session.TTL)
	membersService := membersservice.New(logger, db, notifier, app.blobs, authService, membersservice.Options{
		SiteURL:            cfg.SiteURL,
		FromEmail:          cfg.FromEmail,
		MaxMembers:         cfg.MaxMembers,
		Policy:             password.NewPolicy(cfg.PasswordPolicy),
		ClearKeyAfterReset: cfg.ClearKeyAfterReset,
	})
	app.members = membersService
	packagesService := packagesservice.New(logger, db, app.blobs, cfg.MaxPackageSize)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:      logger,
		Audit:       audit,
		Auth:        authService,
		Members:     membersService,
		Packages:    packagesService,
		View:        renderer,
		Cookies:     cookie.NewSession(cfg.Session),
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		Limiter:     middlewarectx.NewIPLimiter(cfg.RateLimit, cfg.RateBurst),
		Health:      map[string]health.Pinger{"postgres": db, "redis": app.cache},
		Maintenance: cfg.Maintenance,
		TrustProxy:  cfg.TrustProxy,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// notifier выбирает способ отправки писем: очередь RabbitMQ или прямая отправка через SMTP.
func (a *App) notifier(cfg *config.Config, logger *slog.Logger) (membersservice.Notifier, error) {
	if !cfg.QueueNotifications() {
		return senderservice.NewSenderService(logger, smtp.NewTransport(cfg.SMTP, logger), cfg.FromEmail)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeAMQP(ch, conn))
	return rabbitmq.NewPublisher(ch), nil
}

func closeAMQP(ch *amqp.Channel, conn *amqp.Connection) func() error {
	return func() error {
		return errors.Join(ch.Close(), conn.Close())
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to release resource", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.members.Wait()
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.members.Wait()
		a.close()
		return err
	}
}
