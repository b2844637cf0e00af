package leave

import "context"

type actorContextKey struct{}

// ContextWithActor stores the resolved actor in context. Only the HTTP layer
// reads it back; service calls receive the actor explicitly.
func ContextWithActor(ctx context.Context, actor ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (ActorContext, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(ActorContext)
	return actor, ok
}
