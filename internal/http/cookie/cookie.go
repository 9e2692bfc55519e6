// Package cookie управляет cookie сессии и проверочной cookie страницы входа.
package cookie

import (
	"net/http"
	"time"

	"github.com/magabrotheeeer/sublimall/internal/config"
)

const (
	testName  = "testcookie"
	testValue = "worked"
)

// Session cookie с JWT сессии.
type Session struct {
	name   string
	secure bool
	ttl    time.Duration
}

func NewSession(cfg config.Session) *Session {
	return &Session{
		name:   cfg.CookieName,
		secure: cfg.Secure,
		ttl:    cfg.TTL,
	}
}

func (c *Session) Name() string {
	return c.name
}

// Set записывает токен сессии.
func (c *Session) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read возвращает токен сессии или пустую строку.
func (c *Session) Read(r *http.Request) string {
	v, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	return v.Value
}

func (c *Session) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetTest ставит проверочную cookie на странице входа.
func SetTest(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: testName, Value: testValue, Path: "/", SameSite: http.SameSiteLaxMode})
}

// HasTest сообщает, вернул ли браузер проверочную cookie.
func HasTest(r *http.Request) bool {
	c, err := r.Cookie(testName)
	return err == nil && c.Value == testValue
}

func ClearTest(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: testName, Path: "/", MaxAge: -1})
}
