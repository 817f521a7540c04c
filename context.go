package snowql

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxKeyQueryID   contextKey = "snowql_query_id"
	ctxKeyRequestID contextKey = "snowql_request_id"
)

// WithRequestID returns a context carrying an explicit request id for
// the login request made by Open, overriding the randomly generated
// one. Query submissions always use a fresh random request id. Useful
// for reproducing a specific server-side request in tests.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func requestIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ctxKeyRequestID).(uuid.UUID); ok && id != uuid.Nil {
		return id
	}
	return uuid.New()
}

func contextWithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, ctxKeyQueryID, queryID)
}
