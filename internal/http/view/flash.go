package view

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "flash"

// Уровни flash-сообщений.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Flash сообщение, которое показывается на следующей странице.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func Success(msg string) Flash { return Flash{Level: LevelSuccess, Message: msg} }
func Info(msg string) Flash    { return Flash{Level: LevelInfo, Message: msg} }
func Warning(msg string) Flash { return Flash{Level: LevelWarning, Message: msg} }

// SetFlash кладет сообщение в cookie до следующего запроса.
func SetFlash(w http.ResponseWriter, f Flash) {
	data, err := json.Marshal([]Flash{f})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes читает сообщения из cookie и удаляет ее.
// Поврежденная cookie просто удаляется.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}
