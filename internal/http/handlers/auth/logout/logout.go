// Package logout завершает сессию участника.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/cookie"
	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
)

const MsgLoggedOut = "You have been logged out. See you soon."

type Service interface {
	Logout(ctx context.Context, token string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
	cookies *cookie.Session
}

func New(log *slog.Logger, service Service, cookies *cookie.Session) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cookies: cookies,
	}
}

// ServeHTTP удаляет сессию, если она есть. Повторный выход не считается ошибкой.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	if token := h.cookies.Read(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.log.Error("failed to delete session",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
		}
	}
	h.cookies.Clear(w)
	view.Redirect(w, r, "/", view.Info(MsgLoggedOut))
}
