package auth

import (
	"context"

	"github.com/fieldops/backoffice-api/internal/domain"
)

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor adds the authenticated actor to the context
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the actor from the context
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	return actor, ok
}

// SystemActor is the identity used for requests carrying the integration API key
func SystemActor() domain.Actor {
	return domain.Actor{
		ID:          domain.SystemActorID,
		Role:        domain.RoleAdmin,
		Email:       "system@fieldops.local",
		DisplayName: "System",
	}
}
