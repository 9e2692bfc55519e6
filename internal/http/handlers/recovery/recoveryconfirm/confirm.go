// Package recoveryconfirm показывает форму нового пароля по ссылке восстановления
// и сохраняет новый пароль.
package recoveryconfirm

import (
	"context"
	"errors"
	"fmt"
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
	MsgInvalidKey = "Invalid key."
	MsgChanged    = "Password changed with success!"
)

type Service interface {
	CheckRecoveryKey(ctx context.Context, id int64, key string) error
	ResetPassword(ctx context.Context, id int64, key, password, password2 string) error
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

func params(r *http.Request) (int64, string, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, chi.URLParam(r, "key"), true
}

func formPage(id int64, key string) view.Page {
	return view.Page{
		Title: "Password recovery",
		Data:  fmt.Sprintf("/password-recovery-confirmation/%d/%s/", id, key),
	}
}

// Show проверяет ключ и показывает форму нового пароля.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recovery.confirm.show"

	id, key, ok := params(r)
	if !ok {
		h.view.Error(w, r, http.StatusNotFound, MsgInvalidKey)
		return
	}

	err := h.service.CheckRecoveryKey(r.Context(), id, key)
	switch {
	case errors.Is(err, members.ErrInvalidKey):
		h.view.Error(w, r, http.StatusNotFound, MsgInvalidKey)
	case err != nil:
		h.log.Error("failed to check recovery key",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		h.view.Internal(w, r)
	default:
		h.view.Render(w, r, http.StatusOK, view.PageRecoveryConfirm, formPage(id, key))
	}
}

// Submit сохраняет новый пароль.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recovery.confirm.submit"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, key, ok := params(r)
	if !ok {
		h.view.Error(w, r, http.StatusNotFound, MsgInvalidKey)
		return
	}

	err := h.service.ResetPassword(r.Context(), id, key, r.PostFormValue("password"), r.PostFormValue("password2"))
	var formErr *members.FormError
	switch {
	case err == nil:
		view.Redirect(w, r, "/login", view.Success(MsgChanged))
	case errors.Is(err, members.ErrInvalidKey):
		h.view.Error(w, r, http.StatusNotFound, MsgInvalidKey)
	case errors.As(err, &formErr):
		page := formPage(id, key)
		page.Error = formErr.Msg
		h.view.Render(w, r, http.StatusOK, view.PageRecoveryConfirm, page)
	default:
		log.Error("failed to reset password", sl.Err(err))
		h.view.Internal(w, r)
	}
}
