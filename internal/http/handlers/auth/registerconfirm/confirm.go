// Package registerconfirm активирует учетную запись по ссылке из письма.
package registerconfirm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/services/members"
)

const (
	MsgInvalidKey    = "Invalid key or account already active."
	MsgActivated     = "Your account is now active."
	MsgAlreadyActive = "Your account is already active."
)

type Service interface {
	Confirm(ctx context.Context, id int64, key string) (members.ConfirmResult, error)
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
	const op = "handlers.auth.registerconfirm"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.view.Error(w, r, http.StatusNotFound, MsgInvalidKey)
		return
	}

	result, err := h.service.Confirm(r.Context(), id, chi.URLParam(r, "key"))
	switch {
	case errors.Is(err, members.ErrInvalidKey):
		log.Info("invalid registration key", slog.Int64("member_id", id))
		h.view.Error(w, r, http.StatusNotFound, MsgInvalidKey)
	case err != nil:
		log.Error("failed to confirm registration", sl.Err(err))
		h.view.Internal(w, r)
	case result == members.AlreadyActive:
		view.Redirect(w, r, "/login", view.Info(MsgAlreadyActive))
	default:
		log.Info("member activated", slog.Int64("member_id", id))
		view.Redirect(w, r, "/login", view.Success(MsgActivated))
	}
}
