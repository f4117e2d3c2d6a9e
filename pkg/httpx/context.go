package httpx

import (
	"context"
	"net/http"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// WithUserID records the signed-in user's ID on the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, id)
}

// UserIDFromContext returns the ID stored by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(string)
	return id, ok && id != ""
}

// UserIDKeyExtractor keys rate limits by the signed-in user.
func UserIDKeyExtractor(r *http.Request) string {
	id, _ := UserIDFromContext(r.Context())
	return id
}
