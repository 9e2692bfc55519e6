// Package view отрисовывает HTML-страницы сайта из встроенных шаблонов
// и передает flash-сообщения между запросами через cookie.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sublimall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Имена страниц.
const (
	PageHome             = "home"
	PageLogin            = "login"
	PageRegistration     = "registration"
	PageRegistrationSend = "registration-resend"
	PageRecovery         = "password-recovery"
	PageRecoveryConfirm  = "password-recovery-confirm"
	PageAccount          = "account"
	PageAccountDelete    = "account-delete"
	PageError            = "error"
	PageMaintenance      = "maintenance"
)

const (
	// MsgInternal текст страницы при системной ошибке.
	MsgInternal = "Internal error, please try again later."
	// MsgMaintenance заголовок страницы режима обслуживания.
	MsgMaintenance = "Sublimall is in maintenance"
)

var pages = []string{
	PageHome,
	PageLogin,
	PageRegistration,
	PageRegistrationSend,
	PageRecovery,
	PageRecoveryConfirm,
	PageAccount,
	PageAccountDelete,
	PageError,
	PageMaintenance,
}

// Page данные, доступные шаблону.
type Page struct {
	Title   string
	Member  *models.Member
	Flashes []Flash
	Error   string            // ошибка формы
	Form    map[string]string // введенные значения формы
	Data    any
}

// Renderer хранит разобранные шаблоны страниц.
type Renderer struct {
	log       *slog.Logger
	templates map[string]*template.Template
}

// New разбирает встроенные шаблоны.
func New(log *slog.Logger) (*Renderer, error) {
	const op = "view.New"

	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tmpl, err := template.New(name).Option("missingkey=zero").
			ParseFS(templatesFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, name, err)
		}
		templates[name] = tmpl
	}
	return &Renderer{log: log, templates: templates}, nil
}

// Render отрисовывает страницу. Текущий участник и flash-сообщения подставляются автоматически.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	const op = "view.Render"

	tmpl, ok := v.templates[name]
	if !ok {
		v.log.Error("unknown page", slog.String("op", op), slog.String("page", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if p.Member == nil {
		p.Member, _ = middlewarectx.MemberFromContext(r.Context())
	}
	p.Flashes = append(PopFlashes(w, r), p.Flashes...)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", p); err != nil {
		v.log.Error("failed to render page",
			slog.String("op", op),
			slog.String("page", name),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	render.Status(r, status)
	render.HTML(w, r, buf.String())
}

// Internal отрисовывает страницу системной ошибки.
func (v *Renderer) Internal(w http.ResponseWriter, r *http.Request) {
	v.Error(w, r, http.StatusInternalServerError, MsgInternal)
}

// Error отрисовывает страницу ошибки с сообщением.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	v.Render(w, r, status, PageError, Page{Title: "Error", Data: msg})
}

// Maintenance отвечает страницей режима обслуживания.
func (v *Renderer) Maintenance(w http.ResponseWriter, r *http.Request) {
	v.Render(w, r, http.StatusServiceUnavailable, PageMaintenance, Page{Title: MsgMaintenance})
}

// Redirect сохраняет flash-сообщение и перенаправляет на url.
func Redirect(w http.ResponseWriter, r *http.Request, url string, f Flash) {
	if f.Message != "" {
		SetFlash(w, f)
	}
	http.Redirect(w, r, url, http.StatusFound)
}
