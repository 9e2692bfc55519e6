// Package home показывает главную страницу.
package home

import (
	"net/http"

	"github.com/magabrotheeeer/sublimall/internal/http/view"
)

type Handler struct {
	view *view.Renderer
}

func New(v *view.Renderer) *Handler {
	return &Handler{view: v}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, view.PageHome, view.Page{})
}
