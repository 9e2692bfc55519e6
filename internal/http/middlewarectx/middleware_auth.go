// Package middlewarectx содержит HTTP middleware сайта: загрузку сессии из cookie,
// обязательный вход, ограничение частоты запросов, режим обслуживания и метрики.
//
// Session проверяет JWT из cookie и наличие сессии в Redis. При успехе участник
// и ID сессии добавляются в контекст, иначе запрос продолжается анонимно.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

// SessionResolver описывает проверку токена сессии.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.Member, string, error)
}

// CookieReader читает и удаляет cookie сессии.
type CookieReader interface {
	Read(r *http.Request) string
	Clear(w http.ResponseWriter)
}

// Session возвращает middleware, который загружает участника по cookie сессии.
// Недействительная cookie удаляется.
func Session(log *slog.Logger, resolver SessionResolver, cookies CookieReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Session"

			token := cookies.Read(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			m, sid, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.With(
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				).Debug("session rejected", sl.Err(err))
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithMember(r.Context(), m, sid)))
		})
	}
}

// RequireMember перенаправляет анонимные запросы на страницу входа.
func RequireMember(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := MemberFromContext(r.Context()); !ok {
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
