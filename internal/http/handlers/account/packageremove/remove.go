// Package packageremove удаляет один пакет текущего участника.
package packageremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

const (
	MsgRemoved  = "Package removed."
	MsgNotFound = "Package not found."
)

type Service interface {
	Remove(ctx context.Context, memberID, id int64) error
}

type Handler struct {
	log     *slog.Logger
	service Service
	view    *view.Renderer
}

func New(log *slog.Logger, service Service, v *view.Renderer) *Handler {
	return &Handler{
		log:     log,
		service: service,
		view:    v,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.packageremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	m, ok := middlewarectx.MemberFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Info("invalid package id", sl.Err(err))
		h.view.Error(w, r, http.StatusNotFound, MsgNotFound)
		return
	}

	err = h.service.Remove(r.Context(), m.ID, id)
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.view.Error(w, r, http.StatusNotFound, MsgNotFound)
	case err != nil:
		log.Error("failed to remove package", sl.Err(err))
		h.view.Internal(w, r)
	default:
		log.Info("package removed", slog.Int64("package_id", id))
		view.Redirect(w, r, "/account", view.Success(MsgRemoved))
	}
}
