// Package upload реализует API загрузки пакета по email и ключу API.
//
// Запрос multipart/form-data с полями email, api_key, version, необязательными
// platform и arch и файлом package. Тело ограничено пределом размера пакета плюс 1 МБ.
package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/sublimall/internal/http/response"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
	"github.com/magabrotheeeer/sublimall/internal/services/auth"
	"github.com/magabrotheeeer/sublimall/internal/services/packages"
)

const (
	formOverhead = 1 << 20
	memoryLimit  = 1 << 20
)

// Request поля формы загрузки.
type Request struct {
	Email    string `validate:"required,email"`
	APIKey   string `validate:"required"`
	Version  int    `validate:"gte=0,lte=32767"`
	Platform string `validate:"max=30"`
	Arch     string `validate:"max=20"`
}

// Authenticator проверяет email и ключ API.
type Authenticator interface {
	AuthenticateAPIKey(ctx context.Context, email, apiKey string) (*models.Member, error)
}

// Service сохраняет пакет.
type Service interface {
	Limit() int64
	Store(ctx context.Context, in models.PackageUpload, r io.Reader) (*models.Package, error)
}

type Events interface {
	Event(event string, ok bool)
}

type Handler struct {
	log      *slog.Logger
	auth     Authenticator
	service  Service
	validate *validator.Validate
	events   Events
}

func New(log *slog.Logger, authenticator Authenticator, service Service, events Events) *Handler {
	return &Handler{
		log:      log,
		auth:     authenticator,
		service:  service,
		validate: validator.New(),
		events:   events,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, status int, resp response.Response) {
	render.Status(r, status)
	render.JSON(w, r, resp)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.api.upload"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, h.service.Limit()+formOverhead)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.reply(w, r, http.StatusRequestEntityTooLarge, response.Error("request body too large"))
			return
		}
		log.Info("failed to parse form", sl.Err(err))
		h.reply(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil {
		h.reply(w, r, http.StatusBadRequest, response.Error("field version can contain only numbers"))
		return
	}
	req := Request{
		Email:    models.NormalizeEmail(r.FormValue("email")),
		APIKey:   r.FormValue("api_key"),
		Version:  version,
		Platform: r.FormValue("platform"),
		Arch:     r.FormValue("arch"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.reply(w, r, http.StatusUnprocessableEntity, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	m, err := h.auth.AuthenticateAPIKey(r.Context(), req.Email, req.APIKey)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.reply(w, r, http.StatusUnauthorized, response.Error("invalid credentials"))
		return
	case errors.Is(err, auth.ErrInactive):
		h.reply(w, r, http.StatusForbidden, response.Error("account is inactive"))
		return
	case err != nil:
		log.Error("failed to authenticate api key", sl.Err(err))
		h.reply(w, r, http.StatusInternalServerError, response.Error("internal error"))
		return
	}

	file, header, err := r.FormFile("package")
	if err != nil {
		h.reply(w, r, http.StatusBadRequest, response.Error("field package is a required field"))
		return
	}
	defer file.Close()

	saved, err := h.service.Store(r.Context(), models.PackageUpload{
		MemberID: m.ID,
		Version:  req.Version,
		Platform: optional(req.Platform),
		Arch:     optional(req.Arch),
		Size:     header.Size,
	}, file)
	var sizeErr *packages.SizeError
	switch {
	case errors.As(err, &sizeErr):
		h.events.Event("upload", false)
		h.reply(w, r, http.StatusRequestEntityTooLarge, response.Error(sizeErr.Error()))
		return
	case errors.Is(err, packages.ErrInvalidVersion):
		h.reply(w, r, http.StatusBadRequest, response.Error("field version is out of range"))
		return
	case err != nil:
		h.events.Event("upload", false)
		log.Error("failed to store package", sl.Err(err))
		h.reply(w, r, http.StatusInternalServerError, response.Error("failed to store package"))
		return
	}

	h.events.Event("upload", true)
	h.reply(w, r, http.StatusOK, response.StatusOKWithData(map[string]any{
		"id":      saved.ID,
		"version": saved.Version,
		"size":    saved.Size,
	}))
}
