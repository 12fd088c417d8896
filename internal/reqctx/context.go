package reqctx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	keyRID     ctxKey = "request_id"
	keyUserUID ctxKey = "user_uid"
)

// NewRID returns a fresh correlation id.
func NewRID() string {
	return uuid.NewString()
}

// WithRID stores the correlation id used by request and dispatch logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithUserUID stores the authenticated user id.
func WithUserUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUserUID, uid)
}

// UserUID returns the authenticated user id if present.
func UserUID(ctx context.Context) string {
	v, _ := ctx.Value(keyUserUID).(string)
	return v
}
