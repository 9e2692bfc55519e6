// Package login реализует страницу входа на сайт.
//
// GET ставит проверочную cookie и показывает форму. POST проверяет email и пароль,
// открывает сессию и кладет ее токен в cookie. Неудачные попытки пишутся в журнал аудита.
package login

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
	"github.com/magabrotheeeer/sublimall/internal/services/auth"
)

// MsgCookiesDisabled показывается, если браузер не вернул проверочную cookie.
const MsgCookiesDisabled = "Your Web browser doesn't appear to have cookies enabled. Cookies are required for logging in."

// Service описывает вход участника.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.Member, error)
}

// Events счетчик доменных событий.
type Events interface {
	Event(event string, ok bool)
}

// Handler обрабатывает страницу входа.
type Handler struct {
	log     *slog.Logger
	audit   *slog.Logger // Журнал неудачных входов
	service Service
	cookies *cookie.Session
	view    *view.Renderer
	events  Events
}

func New(log, audit *slog.Logger, service Service, cookies *cookie.Session, v *view.Renderer, events Events) *Handler {
	return &Handler{
		log:     log,
		audit:   audit,
		service: service,
		cookies: cookies,
		view:    v,
		events:  events,
	}
}

// Show показывает форму входа.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	if _, ok := middlewarectx.MemberFromContext(r.Context()); ok {
		http.Redirect(w, r, "/account", http.StatusFound)
		return
	}
	cookie.SetTest(w)
	h.view.Render(w, r, http.StatusOK, view.PageLogin, view.Page{Title: "Login"})
}

// Submit проверяет форму входа.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if _, ok := middlewarectx.MemberFromContext(r.Context()); ok {
		http.Redirect(w, r, "/account", http.StatusFound)
		return
	}

	email := models.NormalizeEmail(r.PostFormValue("email"))
	page := view.Page{Title: "Login", Form: map[string]string{"email": email}}

	if !cookie.HasTest(r) {
		cookie.SetTest(w)
		page.Error = MsgCookiesDisabled
		h.view.Render(w, r, http.StatusOK, view.PageLogin, page)
		return
	}

	token, m, err := h.service.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		h.events.Event("login", false)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.audit.Info("Login Fail "+email+" by "+r.Header.Get("X-Forwarded-For"),
				slog.String("remote_addr", r.RemoteAddr),
			)
			page.Error = auth.MsgInvalidLogin
			h.view.Render(w, r, http.StatusOK, view.PageLogin, page)
			return
		}
		log.Error("login failed", sl.Err(err))
		h.view.Internal(w, r)
		return
	}

	h.events.Event("login", true)
	h.cookies.Set(w, token)
	cookie.ClearTest(w)
	log.Info("member logged in", slog.Int64("member_id", m.ID))
	http.Redirect(w, r, "/account", http.StatusFound)
}
