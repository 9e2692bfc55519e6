// Package apikey выдает участнику новый ключ API.
package apikey

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
)

type Service interface {
	RotateAPIKey(ctx context.Context, memberID int64) (string, error)
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
	const op = "handlers.account.apikey"

	m, ok := middlewarectx.MemberFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if _, err := h.service.RotateAPIKey(r.Context(), m.ID); err != nil {
		h.log.Error("failed to rotate api key",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		h.view.Internal(w, r)
		return
	}
	http.Redirect(w, r, "/account", http.StatusFound)
}
