package engine

import (
	"context"

	"github.com/laurelhq/laurels/internal/domain"
)

// ─── Actor Identity ─────────────────────────────────────────────────────────
// The acting user rides on the context of the request that raised the event.
// A missing or zero actor means the occurrence is anonymous and is discarded
// before any achievement is considered.

type contextKey string

const actorKey contextKey = "laurels-actor-id"

// WithActor returns a context carrying the acting user.
func WithActor(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, actorKey, userID)
}

// ActorFrom extracts the acting user from the context, or 0 if absent.
func ActorFrom(ctx context.Context) domain.UserID {
	if v, ok := ctx.Value(actorKey).(domain.UserID); ok {
		return v
	}
	return 0
}

// ContextIdentity resolves the actor from the request context.
// It is the default domain.Identity implementation.
type ContextIdentity struct{}

// CurrentActorID implements domain.Identity.
func (ContextIdentity) CurrentActorID(ctx context.Context) domain.UserID {
	return ActorFrom(ctx)
}
