// Package accountview показывает страницу учетной записи со списком пакетов.
package accountview

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sublimall/internal/http/view"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

type Service interface {
	List(ctx context.Context, memberID int64) ([]*models.Package, error)
	Limit() int64
}

// Data данные страницы учетной записи.
type Data struct {
	Member         *models.Member
	Packages       []*models.Package
	StorageLimitMB int64
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
	const op = "handlers.account.view"

	m, ok := middlewarectx.MemberFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	list, err := h.service.List(r.Context(), m.ID)
	if err != nil {
		h.log.Error("failed to list packages",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		h.view.Internal(w, r)
		return
	}

	h.view.Render(w, r, http.StatusOK, view.PageAccount, view.Page{
		Title: "Account",
		Data: Data{
			Member:         m,
			Packages:       list,
			StorageLimitMB: h.service.Limit() / (1024 * 1024),
		},
	})
}
