package password

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/magabrotheeeer/sublimall/internal/config"
)

// Policy — правила допустимого пароля. Значения приходят из конфига.
type Policy struct {
	MinLength      int
	MaxLength      int
	RequireLetter  bool
	RequireDigit   bool
	RequireSpecial bool
}

// NewPolicy строит политику из секции password_policy конфига.
func NewPolicy(cfg config.PasswordPolicy) Policy {
	return Policy{
		MinLength:      cfg.MinLength,
		MaxLength:      cfg.MaxLength,
		RequireLetter:  cfg.RequireLetter,
		RequireDigit:   cfg.RequireDigit,
		RequireSpecial: cfg.RequireSpecial,
	}
}

// Validate проверяет пароль и возвращает причину отказа для показа пользователю.
// Функция чистая, побочных эффектов нет.
func (p Policy) Validate(candidate string) (bool, string) {
	if candidate == "" {
		return false, "Password can't be empty."
	}

	length := utf8.RuneCountInString(candidate)
	if length < p.MinLength {
		return false, fmt.Sprintf("Password too short (min %d chars).", p.MinLength)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return false, fmt.Sprintf("Password too long (max %d chars).", p.MaxLength)
	}

	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if p.RequireLetter && !hasLetter {
		return false, "Password must contain at least one letter."
	}
	if p.RequireDigit && !hasDigit {
		return false, "Password must contain at least one digit."
	}
	if p.RequireSpecial && !hasSpecial {
		return false, "Password must contain at least one special character."
	}
	return true, ""
}
