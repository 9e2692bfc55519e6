package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/sublimall/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// MemberKey ключ для текущего участника в контексте
	MemberKey Key = "member"
	// SessionKey ключ для ID сессии в контексте
	SessionKey Key = "session_id"
)

// WithMember кладет участника и ID его сессии в контекст.
func WithMember(ctx context.Context, m *models.Member, sessionID string) context.Context {
	ctx = context.WithValue(ctx, MemberKey, m)
	return context.WithValue(ctx, SessionKey, sessionID)
}

// MemberFromContext возвращает вошедшего участника.
func MemberFromContext(ctx context.Context) (*models.Member, bool) {
	m, ok := ctx.Value(MemberKey).(*models.Member)
	return m, ok && m != nil
}

func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(SessionKey).(string)
	return sid
}
