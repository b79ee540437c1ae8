package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the acting user id in context.
func ContextWithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext extracts the acting user id. Zero means anonymous.
func ActorFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(actorContextKey{}).(int64)
	return id
}

type clientContextKey struct{}

// ClientInfo describes the caller of a request.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// ContextWithClient stores the caller's network details.
func ContextWithClient(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientContextKey{}, info)
}

// ClientFromContext returns the stored ClientInfo, or the zero value.
func ClientFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientContextKey{}).(ClientInfo)
	return info
}
