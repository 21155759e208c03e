package session

import (
	"context"

	"github.com/Bessima/translation-orders/internal/models"
)

type contextKey string

const resultContextKey contextKey = "session"

// WithResult stores the resolved session on the request context.
func WithResult(ctx context.Context, result Result) context.Context {
	return context.WithValue(ctx, resultContextKey, result)
}

func FromContext(ctx context.Context) (Result, bool) {
	result, ok := ctx.Value(resultContextKey).(Result)
	return result, ok
}

// PrincipalFromContext извлекает пользователя из контекста
func PrincipalFromContext(ctx context.Context) *models.Principal {
	result, ok := FromContext(ctx)
	if !ok || !result.HasPrincipal() {
		return nil
	}
	return result.Principal
}
