package shared

import "context"

type (
	sessionContextKey struct{}
	actorContextKey   struct{}
)

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithActor stores the acting customer for audit purposes.
func ContextWithActor(ctx context.Context, actor CustomerID) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the acting customer, if any. Guests are not actors.
func ActorFromContext(ctx context.Context) (CustomerID, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(CustomerID)
	if !ok || actor.IsGuest() {
		return Guest, false
	}
	return actor, true
}
