// Package registerresend повторно отправляет письмо подтверждения регистрации.
package registerresend

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
)

// MsgSent показывается всегда, существует email или нет.
const MsgSent = "If you give me a valid email, you'll received an email with some help."

type Service interface {
	Resend(ctx context.Context, email string) error
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
	h.view.Render(w, r, http.StatusOK, view.PageRegistrationSend, view.Page{Title: "Resend confirmation"})
}

// Submit выдает новый ключ подтверждения. Ответ не зависит от того, найден ли email.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.registerresend"

	if err := h.service.Resend(r.Context(), r.PostFormValue("email")); err != nil {
		h.log.Error("failed to resend confirmation",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
	}
	view.Redirect(w, r, "/login", view.Info(MsgSent))
}
