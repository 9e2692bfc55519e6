// Package register реализует страницу регистрации участника.
package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/services/members"
)

const (
	MsgRegistered   = "You'll receive an email soon, check it to confirm your account. See you soon!"
	MsgRegistration = "Max registration reach"
)

// Service описывает регистрацию.
type Service interface {
	RegistrationOpen(ctx context.Context) (bool, error)
	Register(ctx context.Context, in members.RegisterInput) (int64, error)
}

type Events interface {
	Event(event string, ok bool)
}

type Handler struct {
	log     *slog.Logger
	service Service
	view    *view.Renderer
	events  Events
}

func New(log *slog.Logger, service Service, v *view.Renderer, events Events) *Handler {
	return &Handler{
		log:     log,
		service: service,
		view:    v,
		events:  events,
	}
}

// Show показывает форму регистрации, если регистрация открыта.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register.show"

	if _, ok := middlewarectx.MemberFromContext(r.Context()); ok {
		http.Redirect(w, r, "/account", http.StatusFound)
		return
	}

	open, err := h.service.RegistrationOpen(r.Context())
	if err != nil {
		h.log.Error("failed to count members",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		h.view.Internal(w, r)
		return
	}
	if !open {
		h.view.Error(w, r, http.StatusOK, MsgRegistration)
		return
	}
	h.view.Render(w, r, http.StatusOK, view.PageRegistration, view.Page{Title: "Registration"})
}

// Submit создает учетную запись. Ошибка формы показывается на той же странице.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register.submit"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if _, ok := middlewarectx.MemberFromContext(r.Context()); ok {
		http.Redirect(w, r, "/account", http.StatusFound)
		return
	}

	in := members.RegisterInput{
		Email:     r.PostFormValue("email"),
		Email2:    r.PostFormValue("email2"),
		Password:  r.PostFormValue("password"),
		Password2: r.PostFormValue("password2"),
	}
	page := view.Page{
		Title: "Registration",
		Form:  map[string]string{"email": in.Email, "email2": in.Email2},
	}

	id, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.events.Event("registration", false)
		var formErr *members.FormError
		if errors.As(err, &formErr) {
			log.Debug("registration form rejected", slog.String("reason", formErr.Msg))
			page.Error = formErr.Msg
		} else {
			log.Error("registration failed", sl.Err(err))
			page.Error = members.MsgCreateFailed
		}
		h.view.Render(w, r, http.StatusOK, view.PageRegistration, page)
		return
	}

	h.events.Event("registration", true)
	log.Info("registration accepted", slog.Int64("member_id", id))
	view.Redirect(w, r, "/login", view.Success(MsgRegistered))
}
