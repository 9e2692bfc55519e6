// Package accountdelete удаляет учетную запись участника вместе с пакетами.
package accountdelete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/cookie"
	"github.com/magabrotheeeer/sublimall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
	"github.com/magabrotheeeer/sublimall/internal/services/members"
)

const (
	MsgStaff   = "Impossible to remove staff account."
	MsgDeleted = "Your account has been removed with success. See you soon!"
)

type Service interface {
	DeleteAccount(ctx context.Context, m *models.Member, sessionID string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
	cookies *cookie.Session
	view    *view.Renderer
}

func New(log *slog.Logger, service Service, cookies *cookie.Session, v *view.Renderer) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cookies: cookies,
		view:    v,
	}
}

// Show просит подтвердить удаление.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, view.PageAccountDelete, view.Page{Title: "Delete account"})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.delete"

	m, ok := middlewarectx.MemberFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int64("member_id", m.ID),
	)

	err := h.service.DeleteAccount(r.Context(), m, middlewarectx.SessionIDFromContext(r.Context()))
	switch {
	case errors.Is(err, members.ErrStaffAccount):
		log.Warn("staff account removal refused")
		view.Redirect(w, r, "/account", view.Warning(MsgStaff))
	case err != nil:
		log.Error("failed to delete account", sl.Err(err))
		h.view.Internal(w, r)
	default:
		h.cookies.Clear(w)
		view.Redirect(w, r, "/", view.Success(MsgDeleted))
	}
}
