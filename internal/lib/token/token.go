// Package token генерирует случайные непрозрачные строки для ключа API,
// ключа подтверждения регистрации и ключа восстановления пароля.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Size — число случайных байт в одном ключе.
const Size = 20

// Generate возвращает 40 шестнадцатеричных символов из crypto/rand.
// Значение хранится и сравнивается как есть.
func Generate() (string, error) {
	const op = "token.Generate"
	b := make([]byte, Size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(b), nil
}
