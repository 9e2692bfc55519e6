// Package recoveryrequest принимает запрос на восстановление пароля.
package recoveryrequest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
)

// MsgSent одинаков для известного и неизвестного email.
const MsgSent = "If you give me a valid email, you'll received an email with some help."

type Service interface {
	RequestRecovery(ctx context.Context, email string) error
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

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, view.PageRecovery, view.Page{Title: "Password recovery"})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recovery.request"

	if err := h.service.RequestRecovery(r.Context(), r.PostFormValue("email")); err != nil {
		h.log.Error("failed to request password recovery",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
	}
	view.Redirect(w, r, "/login", view.Info(MsgSent))
}
