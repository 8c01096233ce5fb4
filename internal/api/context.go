package api

import (
	"context"

	"github.com/terra-clan/mentor-engine/internal/models"
)

type contextKey string

const userContextKey contextKey = "authenticated_user"

// UserFromContext extracts the authenticated user from context
func UserFromContext(ctx context.Context) *models.UserIdentity {
	user, ok := ctx.Value(userContextKey).(*models.UserIdentity)
	if !ok {
		return nil
	}
	return user
}

// ContextWithUser adds the authenticated user to context
func ContextWithUser(ctx context.Context, user *models.UserIdentity) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
