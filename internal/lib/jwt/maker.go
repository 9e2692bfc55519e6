// Package jwt реализует подписанный cookie сессии сайта.
//
// Токен содержит идентификатор участника (sub) и идентификатор сессии (jti).
// Сама сессия хранится в Redis, поэтому выход из системы отзывает токен
// независимо от срока его действия.
package jwt

import (
	"time"
)

// Maker описывает генерацию и разбор токенов сессии.
type Maker interface {
	GenerateToken(memberID int64, sessionID string) (string, error)
	ParseToken(tokenStr string) (*SessionClaims, error)
}

// MakerImpl реализует Maker на HS256 с секретным ключом и временем жизни токена.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// TTL возвращает время жизни выдаваемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
