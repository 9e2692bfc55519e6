// Package retrieve отдает файл пакета указанной версии по email и ключу API.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sublimall/internal/http/response"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
	"github.com/magabrotheeeer/sublimall/internal/services/auth"
)

type Authenticator interface {
	AuthenticateAPIKey(ctx context.Context, email, apiKey string) (*models.Member, error)
}

type Service interface {
	Open(ctx context.Context, memberID int64, version int) (*models.Package, io.ReadCloser, error)
}

type Handler struct {
	log     *slog.Logger
	auth    Authenticator
	service Service
}

func New(log *slog.Logger, authenticator Authenticator, service Service) *Handler {
	return &Handler{
		log:     log,
		auth:    authenticator,
		service: service,
	}
}

func reply(w http.ResponseWriter, r *http.Request, status int, resp response.Response) {
	render.Status(r, status)
	render.JSON(w, r, resp)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.api.retrieve"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	email := models.NormalizeEmail(r.PostFormValue("email"))
	apiKey := r.PostFormValue("api_key")
	if email == "" || apiKey == "" {
		reply(w, r, http.StatusUnauthorized, response.Error("invalid credentials"))
		return
	}
	version, err := strconv.Atoi(r.PostFormValue("version"))
	if err != nil {
		reply(w, r, http.StatusBadRequest, response.Error("field version can contain only numbers"))
		return
	}

	m, err := h.auth.AuthenticateAPIKey(r.Context(), email, apiKey)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		reply(w, r, http.StatusUnauthorized, response.Error("invalid credentials"))
		return
	case errors.Is(err, auth.ErrInactive):
		reply(w, r, http.StatusForbidden, response.Error("account is inactive"))
		return
	case err != nil:
		log.Error("failed to authenticate api key", sl.Err(err))
		reply(w, r, http.StatusInternalServerError, response.Error("internal error"))
		return
	}

	p, body, err := h.service.Open(r.Context(), m.ID, version)
	if errors.Is(err, models.ErrNotFound) {
		reply(w, r, http.StatusNotFound, response.Error("package not found"))
		return
	}
	if err != nil {
		log.Error("failed to open package", sl.Err(err))
		reply(w, r, http.StatusInternalServerError, response.Error("failed to open package"))
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(p.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="package-%d"`, p.Version))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Error("failed to stream package", sl.Err(err))
	}
}
